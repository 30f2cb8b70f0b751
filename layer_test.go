package heatmap

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/gogpu/heatmap/backend/software"
	"github.com/gogpu/heatmap/geo"
	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/internal/pass"
	"github.com/gogpu/heatmap/mat4"
)

// view covers lon 8..18 and lat 6..14 with north up.
type view struct {
	minX, minY, maxX, maxY float64
	w, h                   int
}

func newView(w, h int) view {
	nw := geo.Project(14, 8)
	se := geo.Project(6, 18)
	return view{minX: nw.X(), minY: nw.Y(), maxX: se.X(), maxY: se.Y(), w: w, h: h}
}

func (v view) mvp() mat4.Matrix {
	return mat4.Ortho(float32(v.minX), float32(v.maxX), float32(v.maxY), float32(v.minY), -1, 1)
}

// pixel returns the pixel containing p.
func (v view) pixel(p Point) (int, int) {
	xy := geo.Project(p.Lat, p.Lon)
	x := (xy.X() - v.minX) / (v.maxX - v.minX) * float64(v.w)
	y := (xy.Y() - v.minY) / (v.maxY - v.minY) * float64(v.h)
	return int(math.Floor(x)), int(math.Floor(y))
}

var threePoints = []Point{
	{Lat: 10, Lon: 10, Val: 10},
	{Lat: 12, Lon: 14, Val: 20},
	{Lat: 8, Lon: 16, Val: 30},
}

func newSoftware(t *testing.T, w, h int) *software.Device {
	t.Helper()
	dev := software.New(w, h, software.WithWorkers(2))
	t.Cleanup(dev.Close)
	return dev
}

func newLayer(t *testing.T, points []Point, opts ...Option) *Layer {
	t.Helper()
	layer, err := New(points, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(layer.Delete)
	return layer
}

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func approxColor(t *testing.T, got color.RGBA, want [3]float32) {
	t.Helper()
	w := [4]float32{want[0], want[1], want[2], 1}
	g := [4]uint8{got.R, got.G, got.B, got.A}
	for i := range w {
		if math.Abs(float64(g[i])-float64(w[i])*255) > 1.5 {
			t.Errorf("color = %v, want ≈ %v", got, w)
			return
		}
	}
}

func TestLayerLifecycle(t *testing.T) {
	dev := newSoftware(t, 16, 16)
	layer, err := New(threePoints)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	mvp := newView(16, 16).mvp()

	if err := layer.PreRender(mvp); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("PreRender() before Init error = %v, want %v", err, ErrNotInitialized)
	}
	if err := layer.Render(mvp); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Render() before Init error = %v, want %v", err, ErrNotInitialized)
	}
	if err := layer.Resize(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Resize() before Init error = %v, want %v", err, ErrNotInitialized)
	}

	if err := layer.Init(dev); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := layer.Render(mvp); !errors.Is(err, ErrNotPrepared) {
		t.Errorf("Render() before PreRender error = %v, want %v", err, ErrNotPrepared)
	}
	if err := layer.PreRender(mvp); err != nil {
		t.Fatalf("PreRender() error = %v", err)
	}
	if err := layer.Render(mvp); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	// Render may repeat without a new PreRender.
	if err := layer.Render(mvp); err != nil {
		t.Errorf("second Render() error = %v", err)
	}

	// Init again rebuilds the passes on the same device.
	if err := layer.Init(dev); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if err := layer.Render(mvp); !errors.Is(err, ErrNotPrepared) {
		t.Errorf("Render() after re-Init error = %v, want %v", err, ErrNotPrepared)
	}
	if err := layer.Draw(mvp); err != nil {
		t.Errorf("Draw() error = %v", err)
	}

	layer.Delete()
	layer.Delete()

	tests := []struct {
		name string
		err  error
	}{
		{"Init", layer.Init(dev)},
		{"PreRender", layer.PreRender(mvp)},
		{"Render", layer.Render(mvp)},
		{"Draw", layer.Draw(mvp)},
		{"Resize", layer.Resize()},
		{"UpdatePoints", layer.UpdatePoints(threePoints)},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, ErrDeleted) {
			t.Errorf("%s() after Delete error = %v, want %v", tt.name, tt.err, ErrDeleted)
		}
	}
}

func TestLayerFramebufferSize(t *testing.T) {
	tests := []struct {
		name         string
		factor       float64
		w, h         int
		wantW, wantH int
	}{
		{"half", 0.5, 100, 50, 50, 25},
		{"rounds up", 0.5, 101, 51, 51, 26},
		{"quarter", 0.25, 10, 10, 3, 3},
		{"at least one texel", 0.25, 1, 1, 1, 1},
		{"full", 1, 64, 48, 64, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newSoftware(t, tt.w, tt.h)
			layer := newLayer(t, threePoints, WithFramebufferFactor(tt.factor))

			if w, h := layer.FramebufferSize(); w != 0 || h != 0 {
				t.Errorf("FramebufferSize() before Init = %dx%d, want 0x0", w, h)
			}
			if err := layer.Init(dev); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			if w, h := layer.FramebufferSize(); w != tt.wantW || h != tt.wantH {
				t.Errorf("FramebufferSize() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestLayerResize(t *testing.T) {
	dev := newSoftware(t, 100, 50)
	layer := newLayer(t, threePoints, WithFramebufferFactor(0.5))
	if err := layer.Init(dev); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := dev.ResizeSurface(200, 100); err != nil {
		t.Fatalf("ResizeSurface() error = %v", err)
	}
	if err := layer.Resize(); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if w, h := layer.FramebufferSize(); w != 100 || h != 50 {
		t.Errorf("FramebufferSize() after Resize = %dx%d, want 100x50", w, h)
	}
	if err := layer.Draw(newView(200, 100).mvp()); err != nil {
		t.Errorf("Draw() after Resize error = %v", err)
	}

	// Unchanged canvas is a no-op.
	if err := layer.Resize(); err != nil {
		t.Errorf("second Resize() error = %v", err)
	}
}

func TestLayerRendersSamples(t *testing.T) {
	const w, h = 64, 48
	v := newView(w, h)
	dev := newSoftware(t, w, h)
	layer := newLayer(t, threePoints, WithFramebufferFactor(1), WithOpacity(1))

	if err := layer.Init(dev); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := layer.Draw(v.mvp()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	img := dev.Surface()

	for i, want := range []float32{0, 0.5, 1} {
		x, y := v.pixel(threePoints[i])
		approxColor(t, img.RGBAAt(x, y), pass.Ramp(want))
	}
	if got := layer.Average(); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("Average() = %v, want 0.5", got)
	}
}

func TestLayerROI(t *testing.T) {
	const w, h = 64, 48
	v := newView(w, h)
	dev := newSoftware(t, w, h)
	bg := color.RGBA{10, 20, 30, 255}
	if err := dev.SetSurface(fill(w, h, bg)); err != nil {
		t.Fatalf("SetSurface() error = %v", err)
	}

	roi := orb.Ring{{9, 9}, {15, 9}, {15, 13}, {9, 13}, {9, 9}}
	layer := newLayer(t, threePoints, WithFramebufferFactor(1), WithOpacity(1), WithROI(roi))
	if err := layer.Init(dev); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := layer.Draw(v.mvp()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	img := dev.Surface()

	x, y := v.pixel(threePoints[0])
	approxColor(t, img.RGBAAt(x, y), pass.Ramp(0))

	x, y = v.pixel(threePoints[2])
	if got := img.RGBAAt(x, y); got != bg {
		t.Errorf("pixel outside the region = %v, want background %v", got, bg)
	}
	if got := img.RGBAAt(0, 0); got != bg {
		t.Errorf("corner pixel = %v, want background %v", got, bg)
	}
}

func TestLayerPointRadius(t *testing.T) {
	const w, h = 64, 48
	v := newView(w, h)

	for _, faster := range []bool{false, true} {
		dev := newSoftware(t, w, h)
		bg := color.RGBA{10, 20, 30, 255}
		if err := dev.SetSurface(fill(w, h, bg)); err != nil {
			t.Fatalf("SetSurface() error = %v", err)
		}

		// 50 km is a few pixels at this zoom.
		layer := newLayer(t, threePoints, WithFramebufferFactor(1), WithOpacity(1),
			WithPointRadius(50000), WithFasterPointRadius(faster))
		if err := layer.Init(dev); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := layer.Draw(v.mvp()); err != nil {
			t.Fatalf("Draw() error = %v", err)
		}
		img := dev.Surface()

		x, y := v.pixel(threePoints[1])
		approxColor(t, img.RGBAAt(x, y), pass.Ramp(0.5))

		// Halfway between A and B is far outside both radii.
		ax, ay := v.pixel(threePoints[0])
		if got := img.RGBAAt((ax+x)/2, (ay+y)/2); got != bg {
			t.Errorf("faster=%v: pixel between samples = %v, want background %v", faster, got, bg)
		}
	}
}

func TestLayerUpdatePoints(t *testing.T) {
	dev := newSoftware(t, 16, 16)
	layer := newLayer(t, threePoints)

	if got := layer.Average(); got != 0 {
		t.Errorf("Average() before Init = %v, want 0", got)
	}

	updated := []Point{{Lat: 10, Lon: 10, Val: 0}, {Lat: 11, Lon: 11, Val: 0}, {Lat: 12, Lon: 12, Val: 9}}
	if err := layer.UpdatePoints(updated); err != nil {
		t.Fatalf("UpdatePoints() before Init error = %v", err)
	}
	if err := layer.Init(dev); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := layer.Average(); math.Abs(got-1.0/3) > 1e-6 {
		t.Errorf("Average() = %v, want 1/3", got)
	}

	if err := layer.UpdatePoints(threePoints); err != nil {
		t.Fatalf("UpdatePoints() error = %v", err)
	}
	if got := layer.Average(); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("Average() after UpdatePoints = %v, want 0.5", got)
	}
	if err := layer.Draw(newView(16, 16).mvp()); err != nil {
		t.Errorf("Draw() after UpdatePoints error = %v", err)
	}

	bad := []Point{{Val: math.NaN()}}
	if err := layer.UpdatePoints(bad); !errors.Is(err, ErrInvalidPoint) {
		t.Errorf("UpdatePoints(NaN) error = %v, want %v", err, ErrInvalidPoint)
	}
	if got := layer.Average(); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("Average() after rejected update = %v, want 0.5", got)
	}
}

func TestLayerInitCompileError(t *testing.T) {
	dev := newSoftware(t, 16, 16)
	broken := ColorMapFunc{
		ColorFunc: func(v float32) [3]float32 { return [3]float32{v, v, v} },
		Source:    "fn value_to_color(",
	}
	layer := newLayer(t, threePoints, WithColorMap(broken))

	err := layer.Init(dev)
	var ce *gpucore.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Init() error = %v, want *gpucore.CompileError", err)
	}
	if err := layer.PreRender(newView(16, 16).mvp()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("PreRender() after failed Init error = %v, want %v", err, ErrNotInitialized)
	}
	if w, h := layer.FramebufferSize(); w != 0 || h != 0 {
		t.Errorf("FramebufferSize() after failed Init = %dx%d, want 0x0", w, h)
	}
}

func TestLayersShareDevice(t *testing.T) {
	dev := newSoftware(t, 16, 16)
	mvp := newView(16, 16).mvp()

	a := newLayer(t, threePoints, WithLayerID("a"))
	b := newLayer(t, threePoints[:1], WithLayerID("b"))
	for _, l := range []*Layer{a, b} {
		if err := l.Init(dev); err != nil {
			t.Fatalf("Init(%s) error = %v", l.ID(), err)
		}
	}

	a.Delete()
	if err := b.Draw(mvp); err != nil {
		t.Errorf("Draw() on remaining layer error = %v", err)
	}
}
