// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"formbase/internal/config"
)

// Initialize builds a logger from the configuration and installs it as
// the slog default.
func Initialize(cfg config.LoggingConfig) {
	logger := NewLogger(cfg)
	slog.SetDefault(logger)

	slog.Info("Logging initialized",
		"level", cfg.Level,
		"format", cfg.Format,
	)
}

// NewLogger creates a logger writing to stdout. When ErrorsToStderr is
// set, warn and error records are mirrored to stderr as well.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := ParseLevel(cfg.Level)
	handler := newHandler(os.Stdout, cfg.Format, level)

	if cfg.ErrorsToStderr {
		errHandler := NewLevelFilter(newHandler(os.Stderr, cfg.Format, slog.LevelWarn), slog.LevelWarn)
		handler = NewMultiHandler(handler, errHandler)
	}

	return slog.New(handler)
}

// ParseLevel maps a config level string to a slog.Level. Unknown
// values fall back to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
