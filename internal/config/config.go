// Package config handles export configuration loading and management.
package config

import (
	"fmt"
	"strings"

	"github.com/Faultbox/gwexport/pkg/encoding"
)

// Job kinds.
const (
	JobModel     = "model"
	JobCollision = "collision"
	JobTexture   = "texture"
	JobMotion    = "motion"
)

// Motion layouts.
const (
	MotionRows    = "rows"
	MotionColumns = "columns"
)

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Jobs    []Job         `yaml:"jobs" toml:"jobs"`
}

// ExportConfig holds output settings shared by every job.
type ExportConfig struct {
	OutDir       string `yaml:"out_dir" toml:"out_dir"`
	Catalog      string `yaml:"catalog" toml:"catalog"`             // catalog file name inside OutDir
	SkeletonRoot string `yaml:"skeleton_root" toml:"skeleton_root"` // node the skeleton starts from
	Encoding     string `yaml:"encoding" toml:"encoding"`           // charset of interned names
	MotionLayout string `yaml:"motion_layout" toml:"motion_layout"`
	MotionExt    string `yaml:"motion_ext" toml:"motion_ext"`
}

// Job is one resource to export.
type Job struct {
	Kind  string `yaml:"kind" toml:"kind"`
	Input string `yaml:"input" toml:"input"`
	Name  string `yaml:"name,omitempty" toml:"name,omitempty"` // output base name, defaults to the input's
	Node  string `yaml:"node,omitempty" toml:"node,omitempty"` // glTF node to export
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			OutDir:       "out",
			Catalog:      "scene.gwcat",
			Encoding:     encoding.UTF8,
			MotionLayout: MotionRows,
			MotionExt:    ".txt",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks values that would otherwise fail halfway through a batch.
func (c *Config) Validate() error {
	if _, err := encoding.Lookup(c.Export.Encoding); err != nil {
		return err
	}
	switch c.Export.MotionLayout {
	case "", MotionRows, MotionColumns:
	default:
		return fmt.Errorf("unknown motion layout %q", c.Export.MotionLayout)
	}
	if c.Export.MotionExt != "" && !strings.HasPrefix(c.Export.MotionExt, ".") {
		return fmt.Errorf("motion extension %q must start with a dot", c.Export.MotionExt)
	}
	for i, j := range c.Jobs {
		switch j.Kind {
		case JobModel, JobCollision, JobTexture, JobMotion:
		default:
			return fmt.Errorf("job %d: unknown kind %q", i, j.Kind)
		}
		if j.Input == "" {
			return fmt.Errorf("job %d: missing input", i)
		}
	}
	return nil
}
