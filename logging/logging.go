// Package logging builds the logrus loggers used across the pipeline.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Root is the subsystem every pipeline logger descends from.
const Root = "framekit"

// Config selects the log level and output format.
type Config struct {
	// Level is a logrus level name: trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level"`
	// Format is "text" or "json".
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig logs at info level in text format.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text"}
}

// Validate checks the level and format names.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return errors.Wrap(err, "log level")
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
		return nil
	default:
		return errors.Errorf("log format must be text or json, got %q", c.Format)
	}
}

// New builds a logger writing to stderr.
func New(cfg Config) (*logrus.Logger, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput builds a logger writing to w.
func NewWithOutput(cfg Config, w io.Writer) (*logrus.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := logrus.ParseLevel(cfg.Level)

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// For tags base with a subsystem name.
func For(base logrus.FieldLogger, subsystem string) *logrus.Entry {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return base.WithField("subsystem", subsystem)
}
