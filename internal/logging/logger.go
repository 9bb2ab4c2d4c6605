package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"sensor-analytics/internal/config"
)

// New builds the process logger. With a log path set, output goes to both
// stdout and the file; if the file can't be opened it falls back to stdout.
func New(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Path == "" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		l := slog.New(slog.NewTextHandler(os.Stdout, opts))
		l.Error("failed to open log file", "path", cfg.Path, "err", err)
		return l
	}
	l := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, f), opts))
	l.Info("logger initialized", "file", cfg.Path)
	return l
}

// Discard is handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
