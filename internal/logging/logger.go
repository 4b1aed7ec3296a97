// Package logging configures runtime JSONL logging output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Runtime bundles the configured logger and its open file handle lifecycle.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

// Close flushes and closes the logger output sink.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Options tunes the logger. A nil Writer selects the state-dir log file.
type Options struct {
	Level  string
	Writer io.Writer
}

// New builds a JSONL logger rooted at the resolved state path, or on
// opts.Writer when set.
func New(opts Options) (Runtime, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return Runtime{}, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.Writer != nil {
		return Runtime{Logger: slog.New(slog.NewJSONHandler(opts.Writer, handlerOpts))}, nil
	}

	path, err := resolveLogPath()
	if err != nil {
		return Runtime{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Runtime{}, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, err
	}

	logger := slog.New(slog.NewJSONHandler(f, handlerOpts))
	return Runtime{Logger: logger, Path: path, closer: f}, nil
}

// ParseLevel maps config level names to slog levels. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

// resolveLogPath selects XDG_STATE_HOME when available, otherwise ~/.local/state.
func resolveLogPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "minerbridge", "log.jsonl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "minerbridge", "log.jsonl"), nil
}
