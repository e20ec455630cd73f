// Package testutil provides shared test helpers.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a debug-level logger routed through t.Log, so
// log lines only appear for failing tests or -v runs.
func NewTestLogger(tb testing.TB) *slog.Logger {
	return NewTestLoggerAt(tb, slog.LevelDebug)
}

// NewTestLoggerAt is NewTestLogger with an explicit minimum level, for
// tests that would drown in debug output.
func NewTestLoggerAt(tb testing.TB, level slog.Level) *slog.Logger {
	tb.Helper()
	return slog.New(slog.NewTextHandler(logWriter{tb}, &slog.HandlerOptions{Level: level}))
}

type logWriter struct {
	tb testing.TB
}

// Write trims the handler's trailing newline; t.Log adds its own.
func (w logWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
