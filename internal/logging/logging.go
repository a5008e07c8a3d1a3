// Package logging builds the application's slog logger.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config configures the logger.
type Config struct {
	// Level is debug, info, warn or error.
	Level string
	// Format is text or json.
	Format string
	// File is the log file path. Empty writes to Output.
	File string
	// Output is used when File is empty. Defaults to os.Stderr.
	Output io.Writer
	// Async moves formatting and writing onto a background goroutine.
	Async bool
	// QueueSize bounds the async queue.
	QueueSize int
}

// ParseLevel parses a level name. Unknown names map to info.
func ParseLevel(s string) slog.Level {
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

// ValidLevel reports whether s names a level ParseLevel knows.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// New builds a handler from cfg. The returned close function flushes the
// async queue and closes the log file; it is never nil.
func New(cfg Config) (slog.Handler, func() error, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	closeFile := func() error { return nil }

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFile = f.Close
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = slog.NewTextHandler(out, opts)
	case "json":
		h = slog.NewJSONHandler(out, opts)
	default:
		_ = closeFile()
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if !cfg.Async {
		return h, closeFile, nil
	}
	async := NewAsyncHandler(h, cfg.QueueSize)
	return async, func() error {
		return errors.Join(async.Close(), closeFile())
	}, nil
}
