package config

import "flag"

// Flags holds command-line overrides registered on a flag set.
type Flags struct {
	Config        *string
	Debug         *bool
	Output        *string
	Template      *string
	Transform     *string
	Clustering    *string
	Bins          *int
	Materials     *string
	SelectionOnly *bool
	NoArmatures   *bool
	NoStats       *bool
	Runtime       *string
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:        fs.String("config", "", "Path to config file (.yaml or .toml)"),
		Debug:         fs.Bool("debug", false, "Enable debug logging"),
		Output:        fs.String("o", "", "Output document path"),
		Template:      fs.String("template", "", "Document template: minimal, html, preview"),
		Transform:     fs.String("transform", "", "Transform encoding: matrix, css"),
		Clustering:    fs.String("clustering", "", "Asset clustering: none, layer, bins"),
		Bins:          fs.Int("bins", 0, "Number of asset files for bin clustering"),
		Materials:     fs.String("materials", "", "Material location: include, external, shared, none"),
		SelectionOnly: fs.Bool("selected", false, "Export selected objects only"),
		NoArmatures:   fs.Bool("no-armatures", false, "Export bind pose geometry without skeletons"),
		NoStats:       fs.Bool("no-stats", false, "Do not write info/*.json"),
		Runtime:       fs.String("runtime", "", "xml3d.js version"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.Config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.Output != "" {
		cfg.Export.Output = *f.Output
	}
	if *f.Template != "" {
		cfg.Export.Template = *f.Template
	}
	if *f.Transform != "" {
		cfg.Export.Transform = *f.Transform
	}
	if *f.Clustering != "" {
		cfg.Assets.Clustering = *f.Clustering
	}
	if *f.Bins > 0 {
		cfg.Assets.Bins = *f.Bins
	}
	if *f.Materials != "" {
		cfg.Assets.Materials = *f.Materials
	}
	if *f.SelectionOnly {
		cfg.Export.SelectionOnly = true
	}
	if *f.NoArmatures {
		cfg.Export.Armatures = false
	}
	if *f.NoStats {
		cfg.Export.WriteStats = false
	}
	if *f.Runtime != "" {
		cfg.Runtime.Version = *f.Runtime
	}
}
