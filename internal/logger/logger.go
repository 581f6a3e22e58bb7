package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the service logger. dev always logs at debug.
func New(env, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, env, level)
}

func NewWithWriter(w io.Writer, env, level string) *slog.Logger {
	lvl := parseLevel(level)
	if env == "dev" {
		lvl = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

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

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
