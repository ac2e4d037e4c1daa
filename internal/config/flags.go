package config

import "flag"

// Flags are the command-line overrides shared by subcommands.
type Flags struct {
	Config   string
	Debug    bool
	OutDir   string
	Catalog  string
	Encoding string
}

// Bind registers the flags on fs.
func (f *Flags) Bind(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file (.yaml, .yml or .toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.OutDir, "out", "", "Output directory")
	fs.StringVar(&f.Catalog, "catalog", "", "Catalog file name")
	fs.StringVar(&f.Encoding, "encoding", "", "String encoding of resource names")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.OutDir != "" {
		cfg.Export.OutDir = f.OutDir
	}
	if f.Catalog != "" {
		cfg.Export.Catalog = f.Catalog
	}
	if f.Encoding != "" {
		cfg.Export.Encoding = f.Encoding
	}
}
