package preview

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"slicealign/internal/models"
	"slicealign/pkg/colors"
	"slicealign/pkg/registration"
)

const tol = 1e-9

func near(a, b models.Point) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

func TestAffineInverse(t *testing.T) {
	m := Placement(models.Alignment{Theta: 33, Px: 4, Py: -7}, models.Point{X: 10, Y: 20})
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("expected invertible placement")
	}
	p := models.Point{X: 3, Y: 9}
	if got := inv.Apply(m.Apply(p)); !near(got, p) {
		t.Errorf("inverse round trip: got %v, want %v", got, p)
	}

	if _, ok := (Affine{}).Inverse(); ok {
		t.Error("zero matrix should not be invertible")
	}
}

func TestPlacementKeepsPivotThenTranslates(t *testing.T) {
	res := models.Resolution{Width: 200, Height: 100}
	pivot := Center(res)
	m := Placement(models.Alignment{Theta: 90, Px: 5, Py: 6}, pivot)

	if got, want := m.Apply(pivot), (models.Point{X: 105, Y: 56}); !near(got, want) {
		t.Errorf("pivot: got %v, want %v", got, want)
	}
	// (200,50) is 100 right of the pivot; a quarter turn puts it 100 below.
	if got, want := m.Apply(models.Point{X: 200, Y: 50}), (models.Point{X: 105, Y: 156}); !near(got, want) {
		t.Errorf("edge point: got %v, want %v", got, want)
	}
}

func TestIdentityPlacement(t *testing.T) {
	m := Placement(models.Identity(), models.Point{X: 7, Y: 7})
	if m != IdentityAffine() {
		t.Errorf("identity alignment gave %+v", m)
	}
}

func TestBounds(t *testing.T) {
	res := models.Resolution{Width: 10, Height: 20}
	lo, hi := Bounds(res, Placement(models.Alignment{Px: 3, Py: -2}, Center(res)))
	if !near(lo, models.Point{X: 3, Y: -2}) || !near(hi, models.Point{X: 13, Y: 18}) {
		t.Errorf("translated bounds: min %v max %v", lo, hi)
	}

	lo, hi = Bounds(res, Placement(models.Alignment{Theta: 90}, Center(res)))
	// A quarter turn about the centre (5,10) swaps the extents.
	if !near(lo, models.Point{X: -5, Y: 5}) || !near(hi, models.Point{X: 15, Y: 15}) {
		t.Errorf("rotated bounds: min %v max %v", lo, hi)
	}
}

func TestScaled(t *testing.T) {
	got := Scaled(models.Alignment{Theta: 12, Px: 10, Py: -4}, 0.5, 2)
	want := models.Alignment{Theta: 12, Px: 5, Py: -8}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func rigid(points []models.Point, degrees float64, shift models.Point) []models.Point {
	c := registration.Centroid(points)
	out := make([]models.Point, len(points))
	for i, p := range points {
		out[i] = p.Rotate(c, degrees).Add(shift)
	}
	return out
}

func landmarks() []models.Point {
	return []models.Point{{X: 10, Y: 10}, {X: 60, Y: 15}, {X: 40, Y: 70}, {X: 15, Y: 55}}
}

func TestResidualsOfEstimatedAlignment(t *testing.T) {
	ref := landmarks()
	for _, angle := range []float64{0, 15, -40, 120} {
		moving := rigid(ref, angle, models.Point{X: 8, Y: -3})
		tr, err := registration.Estimate(ref, moving)
		if err != nil {
			t.Fatalf("angle %v: %v", angle, err)
		}

		stats, err := Residuals(ref, moving, tr.Alignment())
		if err != nil {
			t.Fatalf("angle %v: %v", angle, err)
		}
		if stats.Max > 1e-6 {
			t.Errorf("angle %v: max residual %v", angle, stats.Max)
		}
		if len(stats.Distances) != len(ref) {
			t.Errorf("angle %v: %d distances", angle, len(stats.Distances))
		}
	}
}

func TestResidualsOfWrongAlignment(t *testing.T) {
	ref := landmarks()
	stats, err := Residuals(ref, ref, models.Alignment{Px: 3, Py: 4})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(stats.Mean-5) > tol || math.Abs(stats.Max-5) > tol {
		t.Errorf("got mean %v max %v, want 5", stats.Mean, stats.Max)
	}
}

func TestResidualsErrors(t *testing.T) {
	if _, err := Residuals(landmarks(), landmarks()[:2], models.Identity()); err == nil {
		t.Error("expected count mismatch error")
	}
	stats, err := Residuals(nil, nil, models.Identity())
	if err != nil || stats.Distances != nil {
		t.Errorf("empty sets: %+v, %v", stats, err)
	}
}

func TestOverlay(t *testing.T) {
	res := models.Resolution{Width: 80, Height: 80}
	ref := models.Slice{Name: "a", Resolution: res, Points: landmarks()}
	moving := models.Slice{Name: "b", Resolution: res, Points: landmarks(), Alignment: models.Identity()}
	palette := []colors.Color{"#ff0000"}

	img, err := Overlay(ref, moving, palette)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 80 {
		t.Errorf("unexpected bounds %v", b)
	}
	// Filled marker centre of landmark 0 uses the first palette colour.
	if c := img.RGBAAt(10, 10); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("landmark 0 colour %v", c)
	}
	// Landmark 1 has no palette entry.
	if c := img.RGBAAt(60, 15); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("landmark 1 colour %v", c)
	}

	moving.Points = moving.Points[:1]
	if _, err := Overlay(ref, moving, palette); err == nil {
		t.Error("expected mismatch error")
	}
	if _, err := Overlay(models.Slice{Points: nil}, models.Slice{}, nil); err == nil {
		t.Error("expected resolution error")
	}
}

func TestSaveOverlaySequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "overlays")
	res := models.Resolution{Width: 80, Height: 80}
	slices := make([]models.Slice, 3)
	for i := range slices {
		slices[i] = models.Slice{Resolution: res, Points: landmarks()}
	}

	written, err := SaveOverlaySequence(slices, nil, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 {
		t.Fatalf("wrote %d files, want 2", len(written))
	}
	for _, name := range []string{"overlay-1-and-2.png", "overlay-2-and-3.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
