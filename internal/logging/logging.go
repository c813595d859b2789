// Package logging holds the logger shared by every shadegraph package.
// It lives in its own package so that pkg/ packages can log without
// importing the root package.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled returns false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// Set installs l as the shared logger. A nil logger restores the silent
// default. Safe for concurrent use.
//
// Levels used:
//   - [slog.LevelDebug]: compilation and stage-pass diagnostics
//   - [slog.LevelInfo]: CLI lifecycle events
//   - [slog.LevelWarn]: validation warnings surfaced by the CLI
func Set(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the shared logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
