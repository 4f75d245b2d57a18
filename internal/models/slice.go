package models

import (
	"math"
)

// Point is a landmark position in a slice's native (unscaled) pixel space.
// Points are values: a move replaces the point, it never edits it in place.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rotate rotates p about pivot by degrees, using the atan2 orientation of the
// pixel axes (x right, y down).
func (p Point) Rotate(pivot Point, degrees float64) Point {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	d := p.Sub(pivot)
	return Point{
		X: pivot.X + cos*d.X - sin*d.Y,
		Y: pivot.Y + sin*d.X + cos*d.Y,
	}
}

// Resolution is the native size of a slice image in pixels.
type Resolution struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Alignment is the rigid offset of a slice relative to its predecessor in the
// stack. Theta is in degrees, Px and Py in pixels. This is also the exported
// JSON form of an alignment.
type Alignment struct {
	Theta float64 `json:"theta" yaml:"theta"`
	Px    float64 `json:"px" yaml:"px"`
	Py    float64 `json:"py" yaml:"py"`
}

// Identity returns the zero alignment assigned to the first slice and to every
// freshly imported slice.
func Identity() Alignment {
	return Alignment{}
}

// IsIdentity reports whether a is exactly the identity alignment.
func (a Alignment) IsIdentity() bool {
	return a.Theta == 0 && a.Px == 0 && a.Py == 0
}

// Slice is one image of the stack together with its landmark points.
type Slice struct {
	// Name is the display name, usually the imported file name
	Name string `json:"name" yaml:"name"`

	// Resolution is the native image size reported by the importer
	Resolution Resolution `json:"resolution" yaml:"resolution"`

	// Points holds the landmarks; position i is correspondence index i
	Points []Point `json:"points" yaml:"points"`

	// Alignment is written by the chain composer and read by previews
	Alignment Alignment `json:"alignment" yaml:"alignment"`
}

// NewSlice creates an imported slice with no points and identity alignment.
func NewSlice(name string, res Resolution) Slice {
	return Slice{
		Name:       name,
		Resolution: res,
		Points:     []Point{},
		Alignment:  Identity(),
	}
}

// Clone returns a deep copy of s so callers can hold a snapshot while the
// owning session keeps mutating.
func (s Slice) Clone() Slice {
	c := s
	c.Points = make([]Point, len(s.Points))
	copy(c.Points, s.Points)
	return c
}
