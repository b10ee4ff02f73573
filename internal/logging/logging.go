// Package logging configures the process-wide zerolog setup. Components
// derive child loggers with their own component field; this package only
// decides where and how the root logger writes.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Output     string `json:"output"`      // "stdout", "stderr", or a file path
	JSONFormat bool   `json:"json_format"` // raw JSON instead of the console writer
	Component  string `json:"component"`
}

// New builds the root logger. Unknown levels fall back to info; an
// unopenable file output falls back to stderr.
func New(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)

	var out io.Writer
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
		}
	}

	if !cfg.JSONFormat {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Component != "" {
		logger = logger.Str("component", cfg.Component)
	}
	return logger.Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
