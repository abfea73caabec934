package glyphfield

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for glyphfield and all its sub-packages.
// By default, glyphfield produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically
// and hands it to the renderers and compute backends of running engines.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by glyphfield:
//   - [slog.LevelDebug]: internal diagnostics (GPU pipeline state, buffer sizes)
//   - [slog.LevelInfo]: lifecycle events (adapter chosen, state ready, terminated)
//   - [slog.LevelWarn]: recoverable failures (surface lost, CPU fallback, rejected filter)
//   - [slog.LevelError]: fatal loop exit
//
// Example:
//
//	// Enable info-level logging to stderr:
//	glyphfield.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	glyphfield.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	sinksMu.Lock()
	defer sinksMu.Unlock()
	for s := range sinks {
		s.SetLogger(l)
	}
}

// Logger returns the current logger used by glyphfield.
// Sub-packages (integration/hostapi, integration/gpucanvas) call this to
// share the same logger configuration without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by renderers and compute backends that
// accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

var (
	sinksMu sync.Mutex
	sinks   = make(map[loggerSetter]struct{})
)

// registerLogger hands the current logger to v if it accepts one and
// keeps it updated until unregisterLogger.
func registerLogger(v any) {
	ls, ok := v.(loggerSetter)
	if !ok {
		return
	}
	sinksMu.Lock()
	defer sinksMu.Unlock()
	sinks[ls] = struct{}{}
	ls.SetLogger(Logger())
}

func unregisterLogger(v any) {
	if ls, ok := v.(loggerSetter); ok {
		sinksMu.Lock()
		delete(sinks, ls)
		sinksMu.Unlock()
	}
}
