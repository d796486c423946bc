// Package logging configures the structured logger used by the commands
// and the batch and export layers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"slgp-tracks/internal/slgp"
)

// Logger wraps slog.Logger with helpers for consistent field names.
type Logger struct {
	*slog.Logger
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

// New creates a Logger writing to w in "text" or "json" format.
// A nil w writes to stderr.
func New(w io.Writer, level, format string) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return &Logger{Logger: slog.New(h)}, nil
}

// Noop returns a Logger that discards everything.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithSource tags records with the cache location being processed.
func (l *Logger) WithSource(uri string) *Logger {
	return &Logger{Logger: l.Logger.With("source", uri)}
}

// LogLoad reports a decoded cache and its track count. Decode warnings are
// logged individually at warn level.
func (l *Logger) LogLoad(c *slgp.Cache, tracks int, took time.Duration) {
	l.Info("cache loaded",
		"dialect", c.Header.Dialect.String(),
		"version", c.Header.Version,
		"frames", len(c.Frames),
		"records", c.RecordCount(),
		"tracks", tracks,
		"header_bytes", c.Header.Size,
		"took", took,
	)
	for _, w := range c.Warnings {
		l.Warn("decode warning", "err", w)
	}
	if c.Trailing > 0 {
		l.Warn("trailing bytes ignored", "bytes", c.Trailing)
	}
}
