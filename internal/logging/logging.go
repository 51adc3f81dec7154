// Package logging configures structured logging for refero. Default output
// is human-readable text on stderr (the CLI convention); a JSON file sink can
// be enabled for debugging TUI sessions, where stderr is not visible.
//
// Call sites use slog key/value pairs and must never log the API key itself,
// only its presence.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, receives JSON log lines instead of stderr.
	File string
}

// New builds a logger from config. It never fails: an unopenable log file
// degrades to stderr.
func New(cfg Config) *slog.Logger {
	level := parseLevel(cfg.Level)

	var w io.Writer = os.Stderr
	json := false
	if cfg.File != "" {
		if f, err := openLogFile(cfg.File); err == nil {
			w = f
			json = true
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Used in tests and wherever
// a nil logger would otherwise be passed around.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
