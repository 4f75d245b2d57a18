package colors

import (
	"strings"
	"testing"
)

// TestNextIsUnique checks that a long run of colours has no duplicates
func TestNextIsUnique(t *testing.T) {
	a := NewAssigner(DefaultOptions())
	var used []Color
	for i := 0; i < 100; i++ {
		c := a.Next(used)
		for _, u := range used {
			if u == c {
				t.Fatalf("Colour %s handed out twice (step %d)", c, i)
			}
		}
		used = append(used, c)
	}
}

// TestNextIsDeterministic checks equal seeds give equal palettes
func TestNextIsDeterministic(t *testing.T) {
	a := NewAssigner(Options{Seed: 42, Saturation: 0.8, Value: 0.9})
	b := NewAssigner(Options{Seed: 42, Saturation: 0.8, Value: 0.9})
	for i := 0; i < 10; i++ {
		if ca, cb := a.Next(nil), b.Next(nil); ca != cb {
			t.Fatalf("step %d: expected %s, got %s", i, ca, cb)
		}
	}
}

// TestNextFormat checks the hex form and that neighbours are well separated
func TestNextFormat(t *testing.T) {
	a := NewAssigner(DefaultOptions())
	prev := a.Next(nil)
	for i := 0; i < 5; i++ {
		c := a.Next(nil)
		if len(c) != 7 || !strings.HasPrefix(string(c), "#") {
			t.Errorf("Expected #rrggbb, got %q", c)
		}
		if _, err := Parse(string(c)); err != nil {
			t.Errorf("Generated colour does not parse: %v", err)
		}
		d, err := Distance(prev, c)
		if err != nil {
			t.Fatalf("Distance failed: %v", err)
		}
		if d < 0.05 {
			t.Errorf("Consecutive colours %s and %s are too similar (%f)", prev, c, d)
		}
		prev = c
	}
}

// TestParse covers valid and invalid input
func TestParse(t *testing.T) {
	c, err := Parse("#FF0000")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c != "#ff0000" {
		t.Errorf("Expected #ff0000, got %s", c)
	}
	if rgba := c.RGBA(); rgba.R != 255 || rgba.G != 0 || rgba.B != 0 || rgba.A != 255 {
		t.Errorf("Unexpected RGBA %v", rgba)
	}
	if _, err := Parse("red"); err == nil {
		t.Error("Expected an error for a named colour")
	}
}
