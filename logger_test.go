package heatmap

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/heatmap/backend/software"
	"github.com/gogpu/heatmap/gpucore"
)

func TestNopHandler_Enabled(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
}

func TestNopHandler_WithAttrs(t *testing.T) {
	h := nopHandler{}
	got := h.WithAttrs([]slog.Attr{slog.String("key", "val")})
	if _, ok := got.(nopHandler); !ok {
		t.Errorf("nopHandler.WithAttrs() returned %T, want nopHandler", got)
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger should not be enabled for %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	SetLogger(custom)

	got := Logger()
	if got != custom {
		t.Error("Logger() did not return the custom logger set via SetLogger")
	}

	got.Info("test message", "key", "value")
	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("expected log output to contain 'test message', got: %s", buf.String())
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)

	l := Logger()
	if l == nil {
		t.Fatal("SetLogger(nil) should set nop logger, not nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should produce a disabled logger")
	}
}

// loggingDevice records the logger handed to the device.
type loggingDevice struct {
	*software.Device
	logger *slog.Logger
}

func (d *loggingDevice) SetLogger(l *slog.Logger) {
	d.logger = l
	d.Device.SetLogger(l)
}

var _ gpucore.Device = (*loggingDevice)(nil)

func TestSetLoggerPropagatesToDevice(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	first := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(first)

	dev := &loggingDevice{Device: software.New(8, 8)}
	defer dev.Close()

	layer, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := layer.Init(dev); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if dev.logger != first {
		t.Error("Init did not propagate the current logger to the device")
	}

	second := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(second)
	if dev.logger != second {
		t.Error("SetLogger did not propagate to an initialized device")
	}

	layer.Delete()
	SetLogger(first)
	if dev.logger != second {
		t.Error("SetLogger reached a device after its last layer was deleted")
	}
}

func TestInitWarnsOnMissingCapability(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	dev := software.New(8, 8, software.WithoutFeature(gpucore.FeatureFloatBlend))
	defer dev.Close()

	layer, err := New([]Point{{Lat: 1, Lon: 1, Val: 1}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer layer.Delete()

	if err := layer.Init(dev); err != nil {
		t.Fatalf("Init() error = %v, want capability loss to be non-fatal", err)
	}
	if !strings.Contains(buf.String(), "float-blend") {
		t.Errorf("log output = %q, want a warning naming float-blend", buf.String())
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	const goroutines = 50

	for range goroutines {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logger().Debug("concurrent read")
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}
