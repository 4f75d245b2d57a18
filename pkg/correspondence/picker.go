package correspondence

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"slicealign/internal/models"
)

// landmark is a point tagged with its correspondence index
type landmark struct {
	models.Point
	index int
}

// Compare implements the kdtree.Comparable interface
func (l landmark) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(landmark)
	switch d {
	case 0:
		return l.X - q.X
	case 1:
		return l.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (l landmark) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two landmarks
func (l landmark) Distance(c kdtree.Comparable) float64 {
	q := c.(landmark)
	dx := l.X - q.X
	dy := l.Y - q.Y
	return dx*dx + dy*dy
}

// landmarks satisfies kdtree.Interface
type landmarks []landmark

func (l landmarks) Index(i int) kdtree.Comparable         { return l[i] }
func (l landmarks) Len() int                              { return len(l) }
func (l landmarks) Slice(start, end int) kdtree.Interface { return l[start:end] }

// Pivot implements the kdtree.Interface method
func (l landmarks) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(landmarkPlane{landmarks: l, Dim: d}, kdtree.MedianOfRandoms(landmarkPlane{landmarks: l, Dim: d}, 100))
}

// landmarkPlane implements sort.Interface and kdtree.SortSlicer for landmarks
type landmarkPlane struct {
	landmarks
	kdtree.Dim
}

func (p landmarkPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.landmarks[i].X < p.landmarks[j].X
	case 1:
		return p.landmarks[i].Y < p.landmarks[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p landmarkPlane) Slice(start, end int) kdtree.SortSlicer {
	return landmarkPlane{landmarks: p.landmarks[start:end], Dim: p.Dim}
}

func (p landmarkPlane) Swap(i, j int) {
	p.landmarks[i], p.landmarks[j] = p.landmarks[j], p.landmarks[i]
}

// Picker finds the landmark under a pointer position on one slice, so a drag
// can be turned into a Move of the right correspondence index.
type Picker struct {
	tree   *kdtree.Tree
	radius float64
}

// NewPicker indexes points; position i keeps correspondence index i. A
// radius <= 0 accepts any distance.
func NewPicker(points []models.Point, radius float64) *Picker {
	p := &Picker{radius: radius}
	if len(points) == 0 {
		return p
	}
	items := make(landmarks, len(points))
	for i, pt := range points {
		items[i] = landmark{Point: pt, index: i}
	}
	p.tree = kdtree.New(items, false)
	return p
}

// Pick returns the correspondence index of the landmark nearest to at, if one
// lies within the radius.
func (p *Picker) Pick(at models.Point) (int, bool) {
	if p.tree == nil {
		return -1, false
	}
	got, dist := p.tree.Nearest(landmark{Point: at})
	if got == nil {
		return -1, false
	}
	if p.radius > 0 && dist > p.radius*p.radius {
		return -1, false
	}
	return got.(landmark).index, true
}
