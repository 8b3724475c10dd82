package photokit

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
// SetLogger can be called concurrently with logging from any goroutine,
// including the render goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for photokit and its backends.
// By default, photokit produces no log output.
//
// Pass nil to restore the default silent behavior.
//
// Log levels used by photokit:
//   - [slog.LevelDebug]: per-frame state (uniforms, uploads, capture sizes)
//   - [slog.LevelInfo]: lifecycle events (backend selected, renderer started)
//   - [slog.LevelWarn]: recovered problems (zero-sized image, overwritten capture)
//
// Example:
//
//	photokit.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveBackendsMu.Lock()
	live := make([]Backend, 0, len(liveBackends))
	for b := range liveBackends {
		live = append(live, b)
	}
	liveBackendsMu.Unlock()
	for _, b := range live {
		propagateLogger(b, l)
	}
}

// Logger returns the current logger used by photokit.
// Backend packages (internal/gpu) call this to share the configuration
// without introducing import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// liveBackends tracks backends owned by running renderers so SetLogger
// reaches them after they were created.
var (
	liveBackendsMu sync.Mutex
	liveBackends   = make(map[Backend]struct{})
)

func trackBackend(b Backend) {
	liveBackendsMu.Lock()
	liveBackends[b] = struct{}{}
	liveBackendsMu.Unlock()
	propagateLogger(b, Logger())
}

func untrackBackend(b Backend) {
	liveBackendsMu.Lock()
	delete(liveBackends, b)
	liveBackendsMu.Unlock()
}

// propagateLogger passes the logger to a backend if it implements
// the loggerSetter interface.
func propagateLogger(b Backend, l *slog.Logger) {
	if ls, ok := b.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
