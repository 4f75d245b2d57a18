// Package registration fits rigid motions (rotation + translation) to paired
// landmark points and chains them across an ordered slice stack.
//
// The fit is the orthogonal Procrustes solution (Kabsch algorithm) restricted
// to two dimensions with unit scale:
//
//  1. Centre both point sets on their own centroid.
//  2. Build the cross-covariance H = Pᵗ·Q (reference rows P, moving rows Q).
//  3. Factorize H = U·Σ·Vᵗ.
//  4. Correct reflections with d = sign(det(V·Uᵗ)).
//  5. R = V·diag(1, d)·Uᵗ and theta = atan2(R[1,0], R[0,0]) in degrees.
//
// The reported translation is the raw centroid offset
// centroid(reference) - centroid(moving); it is not adjusted by R.
package registration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"slicealign/internal/models"
)

const (
	// MinCorrespondences is the smallest number of point pairs that determines a rotation.
	MinCorrespondences = 2

	// DefaultDegenerateTolerance is the default bound below which a singular
	// value of H is treated as zero.
	DefaultDegenerateTolerance = 1e-9
)

// Transform is the result of a single rigid fit.
type Transform struct {
	// Theta is the rotation angle in degrees, in (-180, 180]
	Theta float64

	// Rotation is the proper rotation matrix R (det = +1)
	Rotation [2][2]float64

	// Translation is centroid(reference) - centroid(moving)
	Translation models.Point

	// Degenerate is set when the covariance was zero or ill-conditioned
	// (coincident or collinear landmarks). The fit still returns a proper
	// rotation; it is just poorly constrained.
	Degenerate bool

	// Residual is the RMS distance between the centred moving points and the
	// rotated centred reference points
	Residual float64
}

// Alignment converts t to the exported alignment record.
func (t Transform) Alignment() models.Alignment {
	return models.Alignment{
		Theta: t.Theta,
		Px:    t.Translation.X,
		Py:    t.Translation.Y,
	}
}

// Determinant returns det(R); +1 for every transform produced by Estimate.
func (t Transform) Determinant() float64 {
	r := t.Rotation
	return r[0][0]*r[1][1] - r[0][1]*r[1][0]
}

// Estimator holds the numeric knobs of the rigid fit.
type Estimator struct {
	// MinCorrespondences is raised to 2 when set lower
	MinCorrespondences int

	// DegenerateTolerance bounds the singular values treated as zero
	DegenerateTolerance float64
}

// DefaultEstimator returns an estimator with the standard thresholds.
func DefaultEstimator() Estimator {
	return Estimator{
		MinCorrespondences:  MinCorrespondences,
		DegenerateTolerance: DefaultDegenerateTolerance,
	}
}

// Estimate fits the best rigid motion between reference and moving using the
// default estimator.
func Estimate(reference, moving []models.Point) (Transform, error) {
	return DefaultEstimator().Estimate(reference, moving)
}

func (e Estimator) minCorrespondences() int {
	if e.MinCorrespondences < MinCorrespondences {
		return MinCorrespondences
	}
	return e.MinCorrespondences
}

func (e Estimator) tolerance() float64 {
	if e.DegenerateTolerance <= 0 {
		return DefaultDegenerateTolerance
	}
	return e.DegenerateTolerance
}

// Estimate fits the rotation that best superimposes the centred reference
// points onto the centred moving points, and the centroid offset between them.
// Point i of reference is paired with point i of moving.
func (e Estimator) Estimate(reference, moving []models.Point) (Transform, error) {
	if len(reference) != len(moving) {
		return Transform{}, &CountError{Counts: []int{len(reference), len(moving)}}
	}
	if need := e.minCorrespondences(); len(reference) < need {
		return Transform{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCorrespondences, len(reference), need)
	}

	refCentroid := Centroid(reference)
	movCentroid := Centroid(moving)

	p := centredMatrix(reference, refCentroid)
	q := centredMatrix(moving, movCentroid)

	var h mat.Dense
	h.Mul(p.T(), q)

	r, degenerate := e.rotation(&h)

	theta := math.Atan2(r.At(1, 0), r.At(0, 0)) * 180 / math.Pi
	if theta == 0 {
		// drop negative zero
		theta = 0
	}

	t := Transform{
		Theta:       theta,
		Translation: refCentroid.Sub(movCentroid),
		Degenerate:  degenerate,
		Residual:    residual(p, q, r),
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			t.Rotation[i][j] = r.At(i, j)
		}
	}
	return t, nil
}

// rotation returns R = V·diag(1, d)·Uᵗ for the SVD of h, and whether h was
// degenerate. A zero covariance yields the identity.
func (e Estimator) rotation(h *mat.Dense) (*mat.Dense, bool) {
	identity := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return identity, true
	}
	values := svd.Values(nil)
	tol := e.tolerance()
	if values[0] <= tol {
		return identity, true
	}
	degenerate := values[1] <= tol*values[0]

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vu mat.Dense
	vu.Mul(&v, u.T())

	// det(V·Uᵗ) is ±1 for orthonormal factors; anything that is not clearly
	// negative, including 0 or NaN, keeps d = 1.
	d := 1.0
	if mat.Det(&vu) < 0 {
		d = -1
	}

	var r mat.Dense
	r.Product(&v, mat.NewDiagDense(2, []float64{1, d}), u.T())
	return &r, degenerate
}

// Centroid returns the mean position of points. An empty set has the origin
// as its centroid.
func Centroid(points []models.Point) models.Point {
	if len(points) == 0 {
		return models.Point{}
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return models.Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}
}

// centredMatrix stacks points minus c as the rows of an n×2 matrix.
func centredMatrix(points []models.Point, c models.Point) *mat.Dense {
	m := mat.NewDense(len(points), 2, nil)
	for i, p := range points {
		m.Set(i, 0, p.X-c.X)
		m.Set(i, 1, p.Y-c.Y)
	}
	return m
}

// residual is the RMS of |q_i - R·p_i| over the centred rows.
func residual(p, q, r *mat.Dense) float64 {
	n, _ := p.Dims()
	if n == 0 {
		return 0
	}
	var rotated mat.Dense
	rotated.Mul(p, r.T())

	var diff mat.Dense
	diff.Sub(q, &rotated)
	return mat.Norm(&diff, 2) / math.Sqrt(float64(n))
}
