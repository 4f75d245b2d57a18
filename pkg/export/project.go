package export

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"slicealign/internal/models"
	"slicealign/pkg/correspondence"
)

// Project describes a slice stack and its landmarks on disk.
type Project struct {
	Slices []ProjectSlice `yaml:"slices"`
}

// ProjectSlice is one slice entry of a project file.
type ProjectSlice struct {
	Name   string         `yaml:"name"`
	Width  int            `yaml:"width"`
	Height int            `yaml:"height"`
	Points []models.Point `yaml:"points"`
}

// LoadProject reads a YAML project file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading project file: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("error parsing project file: %w", err)
	}
	return &p, nil
}

// SaveProject writes p as YAML, creating the parent directory.
func SaveProject(path string, p *Project) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating project directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("error marshaling project: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing project file: %w", err)
	}
	return nil
}

// Import appends the project's slices to s and places every landmark through
// the session's Add operation, so colours are assigned as if clicked.
func (p *Project) Import(s *correspondence.Session) error {
	for _, ps := range p.Slices {
		k := s.AddSlice(ps.Name, models.Resolution{Width: ps.Width, Height: ps.Height})
		for i, pt := range ps.Points {
			if _, err := s.Add(k, pt); err != nil {
				return fmt.Errorf("slice %q point %d: %w", ps.Name, i, err)
			}
		}
	}
	return nil
}

// ProjectFromSlices builds a project from a stack snapshot.
func ProjectFromSlices(slices []models.Slice) *Project {
	p := &Project{Slices: make([]ProjectSlice, len(slices))}
	for k, s := range slices {
		p.Slices[k] = ProjectSlice{
			Name:   s.Name,
			Width:  s.Resolution.Width,
			Height: s.Resolution.Height,
			Points: s.Points,
		}
	}
	return p
}
