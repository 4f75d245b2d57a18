// Package colors hands out the display colour that labels each correspondence
// index across all slices. Colours are a labelling aid only.
package colors

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads consecutive hues as far apart as possible.
const goldenAngle = 137.50776405003785

// Color is a "#rrggbb" display colour.
type Color string

// Parse validates a hex colour string.
func Parse(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Color(c.Hex()), nil
}

// RGBA converts c for image drawing; invalid strings give opaque black.
func (c Color) RGBA() color.RGBA {
	cf, err := colorful.Hex(string(c))
	if err != nil {
		return color.RGBA{A: 255}
	}
	r, g, b := cf.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Options controls the generated palette.
type Options struct {
	// Seed fixes the starting hue; equal seeds give equal sequences
	Seed int64

	// Saturation and Value are HSV components in [0, 1]
	Saturation float64
	Value      float64
}

// DefaultOptions returns saturated, bright colours.
func DefaultOptions() Options {
	return Options{Seed: 1, Saturation: 0.85, Value: 0.95}
}

// Assigner generates colours by walking the hue circle in golden-angle steps
// from a seeded random start. It is safe for concurrent use.
type Assigner struct {
	mu         sync.Mutex
	hue        float64
	saturation float64
	value      float64
}

// NewAssigner creates an assigner from opts.
func NewAssigner(opts Options) *Assigner {
	rng := rand.New(rand.NewSource(opts.Seed))
	return &Assigner{
		hue:        rng.Float64() * 360,
		saturation: clamp01(opts.Saturation),
		value:      clamp01(opts.Value),
	}
}

// Next returns a colour that does not appear in used.
func (a *Assigner) Next(used []Color) Color {
	taken := make(map[Color]struct{}, len(used))
	for _, c := range used {
		taken[c] = struct{}{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var c Color
	// 360 steps cover every rounded hue; beyond that duplicates are accepted.
	for i := 0; i < 360; i++ {
		c = a.step()
		if _, ok := taken[c]; !ok {
			return c
		}
	}
	return c
}

func (a *Assigner) step() Color {
	c := colorful.Hsv(a.hue, a.saturation, a.value)
	a.hue = math.Mod(a.hue+goldenAngle, 360)
	return Color(c.Clamped().Hex())
}

// Distance returns the perceptual (CIE Lab) distance between two colours.
func Distance(a, b Color) (float64, error) {
	ca, err := colorful.Hex(string(a))
	if err != nil {
		return 0, err
	}
	cb, err := colorful.Hex(string(b))
	if err != nil {
		return 0, err
	}
	return ca.DistanceLab(cb), nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
