package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slicealign/internal/models"
	"slicealign/pkg/correspondence"
)

// TestWriteAlignmentFormat checks the flat JSON object used by downstream tools
func TestWriteAlignmentFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAlignment(&buf, models.Alignment{Theta: 10.5, Px: -5, Py: 3}); err != nil {
		t.Fatalf("WriteAlignment failed: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	want := `{"theta":10.5,"px":-5,"py":3}`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	a, err := ReadAlignment(strings.NewReader(got))
	if err != nil {
		t.Fatalf("ReadAlignment failed: %v", err)
	}
	if a != (models.Alignment{Theta: 10.5, Px: -5, Py: 3}) {
		t.Errorf("Unexpected alignment %+v", a)
	}
}

// TestReadAlignmentRejectsUnknownFields guards against misspelt keys
func TestReadAlignmentRejectsUnknownFields(t *testing.T) {
	if _, err := ReadAlignment(strings.NewReader(`{"theta":1,"tx":2}`)); err == nil {
		t.Error("Expected an error for an unknown field")
	}
}

// TestWriteChain checks one file per moving slice with 1-based pair names
func TestWriteChain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	alignments := []models.Alignment{
		{},
		{Theta: 10, Px: -5, Py: 3},
		{Theta: -2, Px: 1, Py: 1},
	}

	paths, err := WriteChain(dir, "alignment-%d-and-%d.json", alignments)
	if err != nil {
		t.Fatalf("WriteChain failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(paths))
	}
	wantNames := []string{"alignment-1-and-2.json", "alignment-2-and-3.json"}
	for i, p := range paths {
		if filepath.Base(p) != wantNames[i] {
			t.Errorf("Expected %s, got %s", wantNames[i], filepath.Base(p))
		}
		f, err := os.Open(p)
		if err != nil {
			t.Fatalf("Failed to open %s: %v", p, err)
		}
		a, err := ReadAlignment(f)
		f.Close()
		if err != nil {
			t.Fatalf("ReadAlignment failed: %v", err)
		}
		if a != alignments[i+1] {
			t.Errorf("%s: expected %+v, got %+v", p, alignments[i+1], a)
		}
	}
}

// TestProjectRoundTrip saves a project, loads it and imports it into a session
func TestProjectRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	p := &Project{Slices: []ProjectSlice{
		{Name: "U1.png", Width: 2000, Height: 1800, Points: []models.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}},
		{Name: "U2.png", Width: 2000, Height: 1800, Points: []models.Point{{X: 5, Y: 6}}},
	}}
	if err := SaveProject(path, p); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}
	loaded, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if len(loaded.Slices) != 2 || loaded.Slices[0].Points[1] != (models.Point{X: 3, Y: 4}) {
		t.Fatalf("Unexpected project %+v", loaded)
	}

	s := correspondence.NewSession()
	if err := loaded.Import(s); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if s.SliceCount() != 2 || s.PointCount(0) != 2 || s.PointCount(1) != 1 {
		t.Errorf("Unexpected session shape: %d slices, %d/%d points", s.SliceCount(), s.PointCount(0), s.PointCount(1))
	}
	if len(s.Colors()) != 2 {
		t.Errorf("Expected 2 colours, got %d", len(s.Colors()))
	}

	back := ProjectFromSlices(s.Slices())
	if back.Slices[1].Name != "U2.png" || back.Slices[0].Width != 2000 {
		t.Errorf("Unexpected project from slices %+v", back)
	}
}

// TestLoadProjectErrors covers missing and malformed files
func TestLoadProjectErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadProject(filepath.Join(dir, "none.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("slices: {"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := LoadProject(bad); err == nil {
		t.Error("Expected a parse error")
	}
}
