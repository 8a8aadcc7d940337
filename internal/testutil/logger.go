// Package testutil holds helpers shared by package tests.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug-level slog logger whose output goes
// through t.Log, so records surface only on failure or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	h := slog.NewTextHandler(logWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h)
}

type logWriter struct {
	t testing.TB
}

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
