// Package logging builds the zap loggers used by the command line tool.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileMode tells how a log file is opened.
type FileMode string

const (
	// FileModeAppend appends to an existing log file.
	FileModeAppend FileMode = "append"
	// FileModeTruncate starts the log file afresh.
	FileModeTruncate FileMode = "truncate"
	// FileModeRotate rotates the log file by size.
	FileModeRotate FileMode = "rotate"
)

// Set implements pflag.Value.
func (m *FileMode) Set(s string) error {
	switch FileMode(s) {
	case FileModeAppend, "":
		*m = FileModeAppend
	case FileModeTruncate:
		*m = FileModeTruncate
	case FileModeRotate:
		*m = FileModeRotate
	default:
		return fmt.Errorf("invalid log file mode: %s", s)
	}

	return nil
}

func (m FileMode) String() string {
	return string(m)
}

// Type implements pflag.Value.
func (FileMode) Type() string {
	return "filemode"
}

// Config describes a logger.
type Config struct {
	// Path is stderr, stdout, /dev/null or a file.
	Path string `mapstructure:"path"`
	// Mode applies when Path is a file.
	Mode  FileMode      `mapstructure:"filemode"`
	Level zapcore.Level `mapstructure:"level"`
	// DevMode logs human readable lines and panics on DPanic.
	DevMode bool `mapstructure:"devmode"`
}

// DefaultConfig logs info and above to stderr.
func DefaultConfig() Config {
	return Config{
		Path:  "stderr",
		Mode:  FileModeAppend,
		Level: zapcore.InfoLevel,
	}
}

// New builds a logger from conf.
func New(conf Config) (*zap.Logger, error) {
	w, err := OpenFile(conf.Path, conf.Mode)
	if err != nil {
		return nil, fmt.Errorf("opening log %s: %w", conf.Path, err)
	}

	core := zapcore.NewCore(encoder(conf.DevMode), w, conf.Level)

	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if conf.DevMode {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	return zap.New(core, opts...), nil
}

func encoder(dev bool) zapcore.Encoder {
	if dev {
		conf := zap.NewDevelopmentEncoderConfig()
		conf.EncodeLevel = zapcore.CapitalColorLevelEncoder

		return zapcore.NewConsoleEncoder(conf)
	}

	conf := zap.NewProductionEncoderConfig()
	conf.CallerKey = ""
	conf.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapcore.NewJSONEncoder(conf)
}

// OpenFile returns the sink for path. The names stdout, stderr and
// /dev/null are recognized.
func OpenFile(path string, mode FileMode) (zapcore.WriteSyncer, error) {
	switch path {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr", "":
		return zapcore.Lock(os.Stderr), nil
	case "/dev/null":
		return zapcore.AddSync(io.Discard), nil
	}

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return nil, err
	}

	switch mode {
	case FileModeRotate:
		// lumberjack.Logger locks internally.
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}), nil
	case FileModeTruncate:
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
		if err != nil {
			return nil, err
		}

		return zapcore.Lock(f), nil
	default:
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return nil, err
		}

		return zapcore.Lock(f), nil
	}
}
