package registration

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors reported by the estimator and the chain composer.
var (
	// ErrUnequalCorrespondenceCounts is returned when point sets that must be
	// paired index by index have different lengths.
	ErrUnequalCorrespondenceCounts = errors.New("unequal correspondence counts")

	// ErrInsufficientCorrespondences is returned when fewer than two point
	// pairs are available; one pair cannot determine a rotation.
	ErrInsufficientCorrespondences = errors.New("insufficient correspondences")

	// ErrTooFewSlices is returned when a chain is requested for fewer than two slices.
	ErrTooFewSlices = errors.New("too few slices")
)

// CountError lists the point counts that disagreed.
type CountError struct {
	Counts []int
}

func (e *CountError) Error() string {
	parts := make([]string, len(e.Counts))
	for i, c := range e.Counts {
		parts[i] = fmt.Sprint(c)
	}
	return fmt.Sprintf("%s: %s", ErrUnequalCorrespondenceCounts, strings.Join(parts, " vs "))
}

// Unwrap returns ErrUnequalCorrespondenceCounts.
func (e *CountError) Unwrap() error { return ErrUnequalCorrespondenceCounts }

// PairError is the failure of one adjacent pair in a chain. Slice is the
// index of the moving slice; its reference is Slice-1.
type PairError struct {
	Slice int
	Err   error
}

func (e PairError) Error() string {
	return fmt.Sprintf("slice %d against slice %d: %v", e.Slice, e.Slice-1, e.Err)
}

// Unwrap returns the estimator error.
func (e PairError) Unwrap() error { return e.Err }

// ChainError collects per-pair failures. The chain it accompanies is still
// complete; failed slices keep the identity alignment.
type ChainError struct {
	Pairs []PairError
}

func (e *ChainError) Error() string {
	msgs := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("alignment failed for %d pair(s): %s", len(e.Pairs), strings.Join(msgs, "; "))
}

// Unwrap exposes every pair failure to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, len(e.Pairs))
	for i, p := range e.Pairs {
		errs[i] = p
	}
	return errs
}

// FailedSlices returns the moving-slice indices whose alignment could not be
// estimated, or nil when err carries no chain failures.
func FailedSlices(err error) []int {
	var ce *ChainError
	if !errors.As(err, &ce) {
		return nil
	}
	idx := make([]int, len(ce.Pairs))
	for i, p := range ce.Pairs {
		idx[i] = p.Slice
	}
	return idx
}
