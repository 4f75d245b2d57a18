package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"slicealign/internal/models"
	"slicealign/pkg/colors"
)

const markerRadius = 3

// Overlay draws the reference landmarks (hollow squares) and the registered
// moving landmarks (filled squares) on a canvas of the reference resolution.
// Marker i uses palette[i]; landmarks without a palette entry are drawn white.
func Overlay(reference, moving models.Slice, palette []colors.Color) (*image.RGBA, error) {
	if len(reference.Points) != len(moving.Points) {
		return nil, fmt.Errorf("overlay %s/%s: %d vs %d landmarks", reference.Name, moving.Name, len(reference.Points), len(moving.Points))
	}
	w, h := reference.Resolution.Width, reference.Resolution.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("overlay %s: invalid resolution %dx%d", reference.Name, w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	m := Registration(moving.Points, moving.Alignment)
	for i := range reference.Points {
		c := markerColor(palette, i)
		square(img, reference.Points[i], c, false)
		square(img, m.Apply(moving.Points[i]), c, true)
	}
	return img, nil
}

func markerColor(palette []colors.Color, i int) color.Color {
	if i < len(palette) {
		if _, err := colors.Parse(string(palette[i])); err == nil {
			return palette[i].RGBA()
		}
	}
	return color.White
}

func square(img *image.RGBA, p models.Point, c color.Color, filled bool) {
	cx, cy := int(p.X+0.5), int(p.Y+0.5)
	for dy := -markerRadius; dy <= markerRadius; dy++ {
		for dx := -markerRadius; dx <= markerRadius; dx++ {
			edge := dx == -markerRadius || dx == markerRadius || dy == -markerRadius || dy == markerRadius
			if filled || edge {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

// SaveOverlay writes an overlay image as PNG.
func SaveOverlay(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveOverlaySequence writes one overlay per adjacent pair, named
// overlay-{k}-and-{k+1}.png with 1-based slice numbers.
func SaveOverlaySequence(slices []models.Slice, palette []colors.Color, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for k := 1; k < len(slices); k++ {
		img, err := Overlay(slices[k-1], slices[k], palette)
		if err != nil {
			return written, err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("overlay-%d-and-%d.png", k, k+1))
		if err := SaveOverlay(img, filename); err != nil {
			return written, err
		}
		written = append(written, filename)
	}
	return written, nil
}
