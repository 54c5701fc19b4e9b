package decal

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
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

// SetLogger sets the logger used for decal diagnostics. By default nothing
// is logged. Pass nil to restore the silent default.
//
// Diagnostics are only emitted by systems whose Config.Debug is set:
//   - [slog.LevelDebug]: lifecycle progress (buffer creation, attach, detach)
//   - [slog.LevelWarn]: configuration inconsistencies (missing material,
//     duplicate attach, detaching a buffer that was never attached)
//   - [slog.LevelError]: missing required resources (no buffer, no fallback mesh)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the logger set by SetLogger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// nopLogger is shared by every component whose debug output is switched off.
var nopLogger = newNopLogger()

func loggerOrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return nopLogger
	}
	return l
}
