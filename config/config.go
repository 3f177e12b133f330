// Package config loads the pipeline settings. Every value defaults to the
// behaviour the pipeline hard-codes when no file is given.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-framekit/detector"
	"github.com/nvr-ai/go-framekit/filters"
	"github.com/nvr-ai/go-framekit/logging"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Blur      filters.BlurOptions `json:"blur" yaml:"blur"`
	Edges     filters.EdgeOptions `json:"edges" yaml:"edges"`
	Detection detector.Params     `json:"detection" yaml:"detection"`
	// StrictGeometry rejects output buffers whose size or layout differs from
	// what the stage writes, instead of letting OpenCV reallocate them.
	StrictGeometry bool            `json:"strict_geometry" yaml:"strict_geometry"`
	Log            logging.Config  `json:"log" yaml:"log"`
	Profiling      ProfilingConfig `json:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls the operation profiler's periodic report.
type ProfilingConfig struct {
	// Enabled starts the periodic report. Timings are collected either way.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// ReportInterval is how often the report is logged, e.g. "10s".
	ReportInterval time.Duration `json:"report_interval" yaml:"report_interval"`
	// MaxSamples bounds the timing window kept per operation.
	MaxSamples int `json:"max_samples" yaml:"max_samples"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
// - A Config with a 15x15 blur, 50/150 Canny thresholds and the 1.1/3/30x30 face search.
func Default() Config {
	return Config{
		Blur:      filters.DefaultBlurOptions(),
		Edges:     filters.DefaultEdgeOptions(),
		Detection: detector.DefaultParams(),
		Log:       logging.DefaultConfig(),
		Profiling: ProfilingConfig{
			ReportInterval: 10 * time.Second,
			MaxSamples:     600,
		},
	}
}

// Load reads a YAML file and overlays it on Default.
//
// Arguments:
// - path: Path of the YAML file.
//
// Returns:
// - The validated configuration.
// - error: Error if the file cannot be read or parsed, or fails validation.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse overlays YAML bytes on Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Blur.Validate(); err != nil {
		return err
	}
	if err := c.Edges.Validate(); err != nil {
		return err
	}
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Profiling.Enabled && c.Profiling.ReportInterval <= 0 {
		return errors.New("profiling report interval must be positive")
	}
	if c.Profiling.MaxSamples < 0 {
		return errors.New("profiling max samples must not be negative")
	}
	return nil
}
