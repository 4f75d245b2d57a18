// Package preview turns alignment records into the geometry a viewer needs to
// overlay one slice on its predecessor.
//
// Composition order: the moving image is rotated by Theta about a pivot and
// then translated by (Px, Py). With the pivot at the image centre this is the
// CSS "translate(px, py) rotate(theta)" placement with the default transform
// origin. Theta and the translation are independently correct outputs of the
// estimator; this package only fixes how a renderer combines them.
package preview

import (
	"math"

	"slicealign/internal/models"
)

// Affine is a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type Affine struct {
	A, B, TX float64
	C, D, TY float64
}

// IdentityAffine returns the identity transform.
func IdentityAffine() Affine {
	return Affine{A: 1, D: 1}
}

// Apply applies the transform to a point.
func (m Affine) Apply(p models.Point) models.Point {
	return models.Point{
		X: m.A*p.X + m.B*p.Y + m.TX,
		Y: m.C*p.X + m.D*p.Y + m.TY,
	}
}

// Compose returns m applied after other (m * other).
func (m Affine) Compose(other Affine) Affine {
	return Affine{
		A:  m.A*other.A + m.B*other.C,
		B:  m.A*other.B + m.B*other.D,
		TX: m.A*other.TX + m.B*other.TY + m.TX,
		C:  m.C*other.A + m.D*other.C,
		D:  m.C*other.B + m.D*other.D,
		TY: m.C*other.TX + m.D*other.TY + m.TY,
	}
}

// Inverse returns the inverse transform, if it exists.
func (m Affine) Inverse() (Affine, bool) {
	det := m.A*m.D - m.B*m.C
	if math.Abs(det) < 1e-12 {
		return Affine{}, false
	}
	inv := 1 / det
	return Affine{
		A:  m.D * inv,
		B:  -m.B * inv,
		TX: (m.B*m.TY - m.D*m.TX) * inv,
		C:  -m.C * inv,
		D:  m.A * inv,
		TY: (m.C*m.TX - m.A*m.TY) * inv,
	}, true
}

func translation(p models.Point) Affine {
	return Affine{A: 1, D: 1, TX: p.X, TY: p.Y}
}

func rotation(degrees float64) Affine {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return Affine{A: cos, B: -sin, C: sin, D: cos}
}

// Center returns the centre of an image of the given resolution, the pivot a
// browser uses by default.
func Center(res models.Resolution) models.Point {
	return models.Point{X: float64(res.Width) / 2, Y: float64(res.Height) / 2}
}

// Placement returns the transform that places the moving image: rotate by
// a.Theta about pivot, then translate by (a.Px, a.Py).
func Placement(a models.Alignment, pivot models.Point) Affine {
	about := translation(pivot).Compose(rotation(a.Theta)).Compose(translation(models.Point{X: -pivot.X, Y: -pivot.Y}))
	return translation(models.Point{X: a.Px, Y: a.Py}).Compose(about)
}

// Scaled converts a placement in native pixels to display pixels when the
// image is drawn at scale (display size / native size), as the preview does
// for its translation.
func Scaled(a models.Alignment, scaleX, scaleY float64) models.Alignment {
	return models.Alignment{Theta: a.Theta, Px: a.Px * scaleX, Py: a.Py * scaleY}
}

// Corners returns where the four image corners land under m, clockwise from
// the top-left.
func Corners(res models.Resolution, m Affine) [4]models.Point {
	w, h := float64(res.Width), float64(res.Height)
	return [4]models.Point{
		m.Apply(models.Point{X: 0, Y: 0}),
		m.Apply(models.Point{X: w, Y: 0}),
		m.Apply(models.Point{X: w, Y: h}),
		m.Apply(models.Point{X: 0, Y: h}),
	}
}

// Bounds returns the axis-aligned box (min and max corner) covering the
// transformed image, for sizing an overlay canvas.
func Bounds(res models.Resolution, m Affine) (lo, hi models.Point) {
	corners := Corners(res, m)
	lo, hi = corners[0], corners[0]
	for _, c := range corners[1:] {
		lo.X = math.Min(lo.X, c.X)
		lo.Y = math.Min(lo.Y, c.Y)
		hi.X = math.Max(hi.X, c.X)
		hi.Y = math.Max(hi.Y, c.Y)
	}
	return lo, hi
}
