// Package config provides configuration loading and management for slicealign.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"slicealign/pkg/colors"
	"slicealign/pkg/registration"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Estimator parameters
	Estimator struct {
		// MinCorrespondences is the smallest number of point pairs accepted per fit
		MinCorrespondences int `yaml:"minCorrespondences"`

		// DegenerateTolerance bounds the singular values treated as zero
		DegenerateTolerance float64 `yaml:"degenerateTolerance"`
	} `yaml:"estimator"`

	// Colour palette for correspondence labels
	Colors struct {
		Seed       int64   `yaml:"seed"`
		Saturation float64 `yaml:"saturation"`
		Value      float64 `yaml:"value"`
	} `yaml:"colors"`

	// Picker parameters
	Picker struct {
		// Radius is the hit distance in native pixels for selecting a landmark
		Radius float64 `yaml:"radius"`
	} `yaml:"picker"`

	// Output parameters
	Output struct {
		// Dir is where exported alignments are written
		Dir string `yaml:"dir"`

		// FilePattern names each exported pair; it receives the reference and moving slice indices
		FilePattern string `yaml:"filePattern"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Storage parameters
	Storage struct {
		// Path is the SQLite database holding saved sessions
		Path string `yaml:"path"`
	} `yaml:"storage"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Estimator.MinCorrespondences = registration.MinCorrespondences
	cfg.Estimator.DegenerateTolerance = registration.DefaultDegenerateTolerance

	palette := colors.DefaultOptions()
	cfg.Colors.Seed = palette.Seed
	cfg.Colors.Saturation = palette.Saturation
	cfg.Colors.Value = palette.Value

	cfg.Picker.Radius = 15

	cfg.Output.Dir = "alignments"
	cfg.Output.FilePattern = "alignment-%d-and-%d.json"
	cfg.Output.Verbose = false

	cfg.Storage.Path = "slicealign.db"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Estimator.MinCorrespondences < registration.MinCorrespondences {
		errs = append(errs, fmt.Errorf("estimator.minCorrespondences must be at least %d, got %d",
			registration.MinCorrespondences, c.Estimator.MinCorrespondences))
	}
	if c.Estimator.DegenerateTolerance <= 0 {
		errs = append(errs, fmt.Errorf("estimator.degenerateTolerance must be positive, got %g", c.Estimator.DegenerateTolerance))
	}
	if c.Colors.Saturation < 0 || c.Colors.Saturation > 1 {
		errs = append(errs, fmt.Errorf("colors.saturation must be in [0, 1], got %g", c.Colors.Saturation))
	}
	if c.Colors.Value < 0 || c.Colors.Value > 1 {
		errs = append(errs, fmt.Errorf("colors.value must be in [0, 1], got %g", c.Colors.Value))
	}
	if c.Picker.Radius < 0 {
		errs = append(errs, fmt.Errorf("picker.radius must not be negative, got %g", c.Picker.Radius))
	}
	if strings.Count(c.Output.FilePattern, "%d") != 2 {
		errs = append(errs, fmt.Errorf("output.filePattern must contain two %%d verbs, got %q", c.Output.FilePattern))
	}
	return errors.Join(errs...)
}

// EstimatorSettings returns the rigid fit configured by c
func (c *Config) EstimatorSettings() registration.Estimator {
	return registration.Estimator{
		MinCorrespondences:  c.Estimator.MinCorrespondences,
		DegenerateTolerance: c.Estimator.DegenerateTolerance,
	}
}

// PaletteOptions returns the colour options configured by c
func (c *Config) PaletteOptions() colors.Options {
	return colors.Options{
		Seed:       c.Colors.Seed,
		Saturation: c.Colors.Saturation,
		Value:      c.Colors.Value,
	}
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
