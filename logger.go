package heatmap

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/internal/pass"
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

// SetLogger configures the logger for heatmap and all its sub-packages.
// By default, heatmap produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by heatmap:
//   - [slog.LevelDebug]: internal diagnostics (pass geometry, skipped samples)
//   - [slog.LevelInfo]: lifecycle events (layer initialized, device selected)
//   - [slog.LevelWarn]: non-fatal issues (missing device capabilities)
//
// Example:
//
//	heatmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	pass.SetLogger(l)

	devicesMu.Lock()
	defer devicesMu.Unlock()
	for dev := range devices {
		propagateLogger(dev, l)
	}
}

// Logger returns the current logger used by heatmap.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device if it implements the
// loggerSetter interface.
func propagateLogger(dev gpucore.Device, l *slog.Logger) {
	if ls, ok := dev.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// devices counts the initialized layers per device, so SetLogger reaches
// every device in use.
var (
	devicesMu sync.Mutex
	devices   = make(map[gpucore.Device]int)
)

func trackDevice(dev gpucore.Device) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	devices[dev]++
	propagateLogger(dev, Logger())
}

func untrackDevice(dev gpucore.Device) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	if devices[dev] <= 1 {
		delete(devices, dev)
		return
	}
	devices[dev]--
}
