// Package logger builds the slog logger shared by every component.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DefaultLogFile is used when Output is "file" and no File is given.
const DefaultLogFile = "code-fixer.log"

// Config holds the logger configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

// Writer resolves the configured output. The returned close func is a no-op
// for stdout and stderr.
func Writer(cfg Config) (io.Writer, func(), error) {
	switch cfg.Output {
	case "stdout":
		return os.Stdout, func() {}, nil
	case "file":
		path := cfg.File
		if path == "" {
			path = DefaultLogFile
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		return file, func() { _ = file.Close() }, nil
	default:
		// stderr keeps stdout free for --json results.
		return os.Stderr, func() {}, nil
	}
}

// NewLogger initializes a new slog logger based on the provided configuration.
// A nil output falls back to Writer(cfg), and to stderr if that fails.
func NewLogger(cfg Config, output io.Writer) *slog.Logger {
	if output == nil {
		w, _, err := Writer(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log output: %v\n", err)
			w = os.Stderr
		}
		output = w
	}

	level := new(slog.Level)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = new(slog.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
