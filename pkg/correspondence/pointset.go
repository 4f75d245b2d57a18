// Package correspondence keeps landmark points synchronised across the slices
// of a stack. Point i of every slice is the same landmark; the package owns
// every insertion and removal so that index stays shared.
package correspondence

import (
	"slicealign/internal/models"
)

// PointSet is the per-slice ordered landmark storage. Slices may hold
// different numbers of points while a landmark is being placed; indices past a
// slice's length have no correspondence yet.
//
// PointSet is not safe for concurrent use; Session wraps it with a lock.
type PointSet struct {
	slices [][]models.Point
}

// NewPointSet creates a set for n slices with no points.
func NewPointSet(n int) *PointSet {
	s := &PointSet{slices: make([][]models.Point, n)}
	for i := range s.slices {
		s.slices[i] = []models.Point{}
	}
	return s
}

// SliceCount returns the number of slices.
func (s *PointSet) SliceCount() int {
	return len(s.slices)
}

// AddSlice appends an empty slice and returns its index.
func (s *PointSet) AddSlice() int {
	s.slices = append(s.slices, []models.Point{})
	return len(s.slices) - 1
}

// RemoveSlice drops slice k and its points.
func (s *PointSet) RemoveSlice(k int) error {
	if err := s.checkSlice(k); err != nil {
		return err
	}
	s.slices = append(s.slices[:k], s.slices[k+1:]...)
	return nil
}

// PointCount returns the number of points on slice k, or 0 for an unknown slice.
func (s *PointSet) PointCount(k int) int {
	if k < 0 || k >= len(s.slices) {
		return 0
	}
	return len(s.slices[k])
}

// MaxCount returns the largest point count over all slices.
func (s *PointSet) MaxCount() int {
	max := 0
	for _, pts := range s.slices {
		if len(pts) > max {
			max = len(pts)
		}
	}
	return max
}

// Aligned reports whether every slice has the same number of points.
func (s *PointSet) Aligned() bool {
	for _, pts := range s.slices {
		if len(pts) != len(s.slices[0]) {
			return false
		}
	}
	return true
}

// PointAt returns point i of slice k; ok is false when it does not exist.
func (s *PointSet) PointAt(k, i int) (p models.Point, ok bool) {
	if k < 0 || k >= len(s.slices) || i < 0 || i >= len(s.slices[k]) {
		return models.Point{}, false
	}
	return s.slices[k][i], true
}

// Points returns a copy of the points of slice k.
func (s *PointSet) Points(k int) []models.Point {
	if k < 0 || k >= len(s.slices) {
		return nil
	}
	out := make([]models.Point, len(s.slices[k]))
	copy(out, s.slices[k])
	return out
}

// AppendPoint adds p as the next landmark of slice k.
func (s *PointSet) AppendPoint(k int, p models.Point) error {
	if err := s.checkSlice(k); err != nil {
		return err
	}
	s.slices[k] = append(s.slices[k], p)
	return nil
}

// SetPoint replaces point i of slice k.
func (s *PointSet) SetPoint(k, i int, p models.Point) error {
	if err := s.checkSlice(k); err != nil {
		return err
	}
	if i < 0 || i >= len(s.slices[k]) {
		return pointError(k, i, len(s.slices[k]))
	}
	s.slices[k][i] = p
	return nil
}

// RemoveIndex removes correspondence i from every slice that has it; later
// indices shift down by one.
func (s *PointSet) RemoveIndex(i int) error {
	if max := s.MaxCount(); i < 0 || i >= max {
		return correspondenceError(i, max)
	}
	for k, pts := range s.slices {
		if i < len(pts) {
			s.slices[k] = append(pts[:i], pts[i+1:]...)
		}
	}
	return nil
}

// RemoveAll clears the points of every slice. The slices themselves remain.
func (s *PointSet) RemoveAll() {
	for k := range s.slices {
		s.slices[k] = []models.Point{}
	}
}

func (s *PointSet) checkSlice(k int) error {
	if k < 0 || k >= len(s.slices) {
		return sliceError(k, len(s.slices))
	}
	return nil
}
