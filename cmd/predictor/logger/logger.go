// Package logger builds the predictor's structured logger from configuration.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/HatiCode/rnncast/cmd/predictor/config"
)

// New creates a slog.Logger writing to stderr using cfg.LogFormat and cfg.LogLevel.
func New(cfg *config.Config) *slog.Logger {
	return newWithWriter(os.Stderr, cfg.LogFormat, cfg.LogLevel)
}

func newWithWriter(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLevel maps a level name to a slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
