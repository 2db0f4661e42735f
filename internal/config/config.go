// Package config provides configuration loading for the shear-failure MCP
// server. Settings are read from a YAML file; anything the file leaves out
// keeps its default value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvLogLevel overrides Log.Level when set.
const EnvLogLevel = "SFRM_MCP_LOG_LEVEL"

// Config represents the server configuration loaded from YAML.
type Config struct {
	// Segmentation controls polygon analysis.
	Segmentation struct {
		// MinObjectSize is the smallest foreground blob, in pixels, kept after
		// thresholding.
		MinObjectSize int `yaml:"min_object_size"`

		// MinHoleSize is the largest enclosed hole, in pixels, that is filled
		// (holes strictly smaller are filled).
		MinHoleSize int `yaml:"min_hole_size"`

		// Morphology enables small-object and small-hole cleanup.
		Morphology bool `yaml:"morphology"`

		// InclusiveThreshold selects value >= t (true) or value > t (false).
		InclusiveThreshold bool `yaml:"inclusive_threshold"`
	} `yaml:"segmentation"`

	// Riss controls statistical detection.
	Riss struct {
		// Z is the number of standard deviations above the mean.
		Z float64 `yaml:"z"`
	} `yaml:"riss"`

	Merge struct {
		// PadMismatchedShapes zero-pads label fields of different sizes
		// instead of rejecting them.
		PadMismatchedShapes bool `yaml:"pad_mismatched_shapes"`
	} `yaml:"merge"`

	Measure struct {
		// PerimeterMethod is "weighted" or "boundary".
		PerimeterMethod string `yaml:"perimeter_method"`
	} `yaml:"measure"`

	Overlay struct {
		// Alpha is the label colour opacity of exported overlays.
		Alpha float64 `yaml:"alpha"`

		// Grayscale renders the photograph in gray under the labels.
		Grayscale bool `yaml:"grayscale"`
	} `yaml:"overlay"`

	Server struct {
		// Workers bounds how many polygons are segmented in parallel.
		Workers int `yaml:"workers"`
	} `yaml:"server"`

	Log struct {
		// Level is one of debug, info, warn, error.
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Segmentation.MinObjectSize = 64
	cfg.Segmentation.MinHoleSize = 64
	cfg.Segmentation.Morphology = true
	cfg.Segmentation.InclusiveThreshold = true

	cfg.Riss.Z = 1.96

	cfg.Merge.PadMismatchedShapes = true

	cfg.Measure.PerimeterMethod = "weighted"

	cfg.Overlay.Alpha = 0.25
	cfg.Overlay.Grayscale = true

	cfg.Server.Workers = runtime.NumCPU()

	cfg.Log.Level = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file. An empty path or a missing
// file yields the defaults. The SFRM_MCP_LOG_LEVEL environment variable
// overrides the log level in either case.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	if c.Segmentation.MinObjectSize < 0 {
		return fmt.Errorf("segmentation.min_object_size must be >= 0, got %d", c.Segmentation.MinObjectSize)
	}
	if c.Segmentation.MinHoleSize < 0 {
		return fmt.Errorf("segmentation.min_hole_size must be >= 0, got %d", c.Segmentation.MinHoleSize)
	}
	if c.Riss.Z <= 0 {
		return fmt.Errorf("riss.z must be > 0, got %g", c.Riss.Z)
	}
	switch c.Measure.PerimeterMethod {
	case "weighted", "boundary":
	default:
		return fmt.Errorf("measure.perimeter_method must be weighted or boundary, got %q", c.Measure.PerimeterMethod)
	}
	if c.Overlay.Alpha <= 0 || c.Overlay.Alpha > 1 {
		return fmt.Errorf("overlay.alpha must be in (0, 1], got %g", c.Overlay.Alpha)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be >= 1, got %d", c.Server.Workers)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
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
