// Package config loads the settings of the command line tool from a
// schemamap.yaml file, SCHEMAMAP_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap/zapcore"

	"schemamap/internal/logging"
)

// Defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogPath  = "stderr"
	DefaultFileMode = "append"
	DefaultBackend  = "interpret"
	DefaultWorkers  = 1
	DefaultFormat   = "json"
)

const (
	backendCompile = "compile"
	formatNDJSON   = "ndjson"
	formatYAML     = "yaml"
)

// Backends and output formats accepted by Validate.
var (
	Backends = []string{DefaultBackend, backendCompile}
	Formats  = []string{DefaultFormat, formatNDJSON, formatYAML}
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Transform TransformConfig `mapstructure:"transform"`
	Output    OutputConfig    `mapstructure:"output"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Path     string `mapstructure:"path"`
	FileMode string `mapstructure:"filemode"`
	DevMode  bool   `mapstructure:"devmode"`
}

// TransformConfig selects how records are transformed.
type TransformConfig struct {
	// Backend is "interpret" or "compile".
	Backend string `mapstructure:"backend"`
	// Workers above one transform batches in parallel.
	Workers int `mapstructure:"workers"`
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Pretty bool   `mapstructure:"pretty"`
}

// Validate checks every enumerated and numeric setting.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}

	var mode logging.FileMode
	if err := mode.Set(c.Log.FileMode); err != nil {
		return fmt.Errorf("%w: log.filemode: %w", ErrInvalid, err)
	}

	if !slices.Contains(Backends, c.Transform.Backend) {
		return fmt.Errorf("%w: transform.backend must be one of %v, got %q", ErrInvalid, Backends, c.Transform.Backend)
	}

	if c.Transform.Workers < 0 {
		return fmt.Errorf("%w: transform.workers must not be negative, got %d", ErrInvalid, c.Transform.Workers)
	}

	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("%w: output.format must be one of %v, got %q", ErrInvalid, Formats, c.Output.Format)
	}

	return nil
}

// Logging converts the log section into a logger configuration. It
// assumes Validate passed.
func (c *Config) Logging() logging.Config {
	level, _ := zapcore.ParseLevel(c.Log.Level)

	var mode logging.FileMode
	_ = mode.Set(c.Log.FileMode)

	return logging.Config{
		Path:    c.Log.Path,
		Mode:    mode,
		Level:   level,
		DevMode: c.Log.DevMode,
	}
}

// Compiled reports whether the closure backend is selected.
func (c *Config) Compiled() bool {
	return c.Transform.Backend == backendCompile
}
