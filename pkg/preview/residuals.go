package preview

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"slicealign/internal/models"
	"slicealign/pkg/registration"
)

// ResidualStats summarises how far registered landmarks land from their
// reference counterparts.
type ResidualStats struct {
	Distances []float64
	Mean      float64
	Max       float64
}

// Registration maps moving-slice coordinates into the reference slice using
// alignment a: undo the rotation about the moving centroid, then shift by the
// centroid offset (Px, Py).
func Registration(moving []models.Point, a models.Alignment) Affine {
	c := registration.Centroid(moving)
	about := translation(c).Compose(rotation(-a.Theta)).Compose(translation(models.Point{X: -c.X, Y: -c.Y}))
	return translation(models.Point{X: a.Px, Y: a.Py}).Compose(about)
}

// Residuals registers moving onto reference with a and measures the distance
// of each landmark pair.
func Residuals(reference, moving []models.Point, a models.Alignment) (ResidualStats, error) {
	if len(reference) != len(moving) {
		return ResidualStats{}, fmt.Errorf("%w: %d vs %d", registration.ErrUnequalCorrespondenceCounts, len(reference), len(moving))
	}
	if len(reference) == 0 {
		return ResidualStats{}, nil
	}

	m := Registration(moving, a)
	d := make([]float64, len(reference))
	for i := range reference {
		d[i] = m.Apply(moving[i]).Distance(reference[i])
	}
	return ResidualStats{
		Distances: d,
		Mean:      stat.Mean(d, nil),
		Max:       floats.Max(d),
	}, nil
}
