package correspondence

import (
	"testing"

	"slicealign/internal/models"
)

// TestPickerNearest checks the nearest landmark and the radius cut-off
func TestPickerNearest(t *testing.T) {
	points := []models.Point{pt(10, 10), pt(200, 40), pt(60, 300), pt(400, 400), pt(15, 90)}
	p := NewPicker(points, 20)

	cases := []struct {
		at   models.Point
		want int
		ok   bool
	}{
		{pt(12, 11), 0, true},
		{pt(195, 45), 1, true},
		{pt(60, 310), 2, true},
		{pt(15, 85), 4, true},
		{pt(250, 250), -1, false},
	}
	for _, tc := range cases {
		got, ok := p.Pick(tc.at)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Pick(%v): expected (%d, %v), got (%d, %v)", tc.at, tc.want, tc.ok, got, ok)
		}
	}
}

// TestPickerEmptyAndUnbounded covers an empty slice and a zero radius
func TestPickerEmptyAndUnbounded(t *testing.T) {
	if _, ok := NewPicker(nil, 10).Pick(pt(0, 0)); ok {
		t.Error("Empty picker should not find anything")
	}
	got, ok := NewPicker([]models.Point{pt(1000, 1000)}, 0).Pick(pt(0, 0))
	if !ok || got != 0 {
		t.Errorf("Zero radius should accept any distance, got (%d, %v)", got, ok)
	}
}
