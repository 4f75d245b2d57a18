package registration

import (
	"fmt"

	"slicealign/internal/models"
)

// ComputeChain aligns every slice to its predecessor with the default estimator.
func ComputeChain(slices []models.Slice) ([]models.Alignment, error) {
	return DefaultEstimator().ComputeChain(slices)
}

// ComputeChain returns one alignment per slice: slice 0 is the identity and
// slice k holds Estimate(slices[k-1].Points, slices[k].Points).
//
// Every slice must carry the same number of points; otherwise a *CountError is
// returned with no alignments. When the counts agree but a pair cannot be
// estimated, the full-length chain is still returned together with a
// *ChainError and the failed slices stay at identity.
func (e Estimator) ComputeChain(slices []models.Slice) ([]models.Alignment, error) {
	transforms, err := e.ComputeTransforms(slices)
	if transforms == nil {
		return nil, err
	}
	alignments := make([]models.Alignment, len(transforms))
	for i, t := range transforms {
		alignments[i] = t.Alignment()
	}
	return alignments, err
}

// ComputeTransforms is ComputeChain with the full fit details (rotation
// matrix, degeneracy flag, residual) kept for each slice.
func (e Estimator) ComputeTransforms(slices []models.Slice) ([]Transform, error) {
	if len(slices) < 2 {
		return nil, fmt.Errorf("%w: have %d, need at least 2", ErrTooFewSlices, len(slices))
	}
	if err := CheckCounts(slices); err != nil {
		return nil, err
	}

	transforms := make([]Transform, len(slices))
	transforms[0] = identityTransform()

	var failures []PairError
	for k := 1; k < len(slices); k++ {
		t, err := e.Estimate(slices[k-1].Points, slices[k].Points)
		if err != nil {
			failures = append(failures, PairError{Slice: k, Err: err})
			transforms[k] = identityTransform()
			continue
		}
		transforms[k] = t
	}

	if len(failures) > 0 {
		return transforms, &ChainError{Pairs: failures}
	}
	return transforms, nil
}

// CheckCounts verifies that all slices in the stack have the same point count.
func CheckCounts(slices []models.Slice) error {
	if len(slices) == 0 {
		return nil
	}
	want := len(slices[0].Points)
	for _, s := range slices[1:] {
		if len(s.Points) != want {
			counts := make([]int, len(slices))
			for i, s := range slices {
				counts[i] = len(s.Points)
			}
			return &CountError{Counts: counts}
		}
	}
	return nil
}

func identityTransform() Transform {
	return Transform{Rotation: [2][2]float64{{1, 0}, {0, 1}}}
}
