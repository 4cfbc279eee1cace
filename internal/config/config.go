// Package config handles exporter configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Masterminds/semver/v3"
)

// Config holds all exporter settings.
type Config struct {
	Export   ExportConfig   `yaml:"export" toml:"export"`
	Runtime  RuntimeConfig  `yaml:"runtime" toml:"runtime"`
	Assets   AssetsConfig   `yaml:"assets" toml:"assets"`
	Textures TexturesConfig `yaml:"textures" toml:"textures"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// ExportConfig holds document level settings.
type ExportConfig struct {
	Output        string `yaml:"output" toml:"output"`                 // Root document path
	Template      string `yaml:"template" toml:"template"`             // minimal, html, preview
	Transform     string `yaml:"transform" toml:"transform"`           // matrix, css
	SelectionOnly bool   `yaml:"selection_only" toml:"selection_only"` // Export selected objects only
	Armatures     bool   `yaml:"armatures" toml:"armatures"`           // Export skeletons and animations
	WriteStats    bool   `yaml:"write_stats" toml:"write_stats"`       // Write info/*.json
}

// RuntimeConfig selects the xml3d.js script referenced by the document.
type RuntimeConfig struct {
	Version   string `yaml:"version" toml:"version"`
	Source    string `yaml:"source" toml:"source"` // remote, local
	Minified  bool   `yaml:"minified" toml:"minified"`
	RemoteURL string `yaml:"remote_url" toml:"remote_url"`
}

// AssetsConfig controls how geometry and materials are split into files.
type AssetsConfig struct {
	Clustering string `yaml:"clustering" toml:"clustering"` // none, layer, bins
	Bins       int    `yaml:"bins" toml:"bins"`
	Materials  string `yaml:"materials" toml:"materials"` // include, external, shared, none

	// Barycentric adds per-corner barycentric coordinates for wireframe shading.
	Barycentric bool `yaml:"barycentric" toml:"barycentric"`
}

// TexturesConfig holds image output settings.
type TexturesConfig struct {
	Format string `yaml:"format" toml:"format"` // png, webp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Enumerated option values.
var (
	Templates   = []string{"minimal", "html", "preview"}
	Transforms  = []string{"matrix", "css"}
	Sources     = []string{"remote", "local"}
	Clusterings = []string{"none", "layer", "bins"}
	Materials   = []string{"include", "external", "shared", "none"}
	Formats     = []string{"png", "webp"}
)

// ErrInvalid is wrapped by all validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Output:        "index.html",
			Template:      "html",
			Transform:     "matrix",
			SelectionOnly: false,
			Armatures:     true,
			WriteStats:    true,
		},
		Runtime: RuntimeConfig{
			Version:   "5.1.0",
			Source:    "remote",
			Minified:  true,
			RemoteURL: "https://www.xml3d.org/xml3d/script",
		},
		Assets: AssetsConfig{
			Clustering: "none",
			Bins:       8,
			Materials:  "shared",
		},
		Textures: TexturesConfig{
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks enumerated options, the bin count and the runtime version.
func (c *Config) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"export.template", c.Export.Template, Templates},
		{"export.transform", c.Export.Transform, Transforms},
		{"runtime.source", c.Runtime.Source, Sources},
		{"assets.clustering", c.Assets.Clustering, Clusterings},
		{"assets.materials", c.Assets.Materials, Materials},
		{"textures.format", c.Textures.Format, Formats},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalid, ch.name, ch.allowed, ch.value)
		}
	}
	if c.Assets.Clustering == "bins" && c.Assets.Bins < 1 {
		return fmt.Errorf("%w: assets.bins must be positive, got %d", ErrInvalid, c.Assets.Bins)
	}
	if _, err := semver.NewVersion(c.Runtime.Version); err != nil {
		return fmt.Errorf("%w: runtime.version %q: %v", ErrInvalid, c.Runtime.Version, err)
	}
	if c.Export.Output == "" {
		return fmt.Errorf("%w: export.output is empty", ErrInvalid)
	}
	return nil
}
