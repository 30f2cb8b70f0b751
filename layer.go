package heatmap

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/internal/pass"
	"github.com/gogpu/heatmap/mat4"
)

// Layer renders a heatmap for one point set.
//
// A Layer is driven from the host's frame loop: Init once, then PreRender
// and Render each frame. Methods are safe to call from several goroutines;
// each call runs exclusively.
type Layer struct {
	mu   sync.Mutex
	opts Options

	points []Point
	data   prepared

	dev       gpucore.Device
	mask      *pass.MaskPass
	idw       *pass.IDWPass
	composite *pass.CompositePass

	fbWidth  int
	fbHeight int
	prepared bool
	deleted  bool
}

// New creates a layer for points. Options are validated here; device
// resources are created by Init.
func New(points []Point, opts ...Option) (*Layer, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if err := validatePoints(points); err != nil {
		return nil, err
	}
	return &Layer{
		opts:   o,
		points: append([]Point(nil), points...),
	}, nil
}

// Init creates the render passes on dev. Missing optional capabilities
// are logged and rendering continues; a program that fails to compile is
// returned as an error wrapping *gpucore.CompileError.
//
// Calling Init again releases the previous passes first.
func (l *Layer) Init(dev gpucore.Device) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.deleted {
		return ErrDeleted
	}
	if l.dev != nil {
		l.release()
	}

	for _, f := range gpucore.RequiredFeatures {
		if !dev.Supports(f) {
			Logger().Warn("heatmap: device capability missing, output may be incorrect",
				"device", dev.Name(), "feature", f.String())
		}
	}

	l.data = prepare(l.points, &l.opts)
	width, height := dev.SurfaceSize()
	l.fbWidth, l.fbHeight = l.framebufferSize(width, height)

	mask, err := pass.NewMaskPass(dev, width, height, l.data.samples, l.maskRadius(), projectROI(l.opts.ROI))
	if err != nil {
		return fmt.Errorf("heatmap: init mask pass: %w", err)
	}

	idw, err := pass.NewIDWPass(dev, l.fbWidth, l.fbHeight, l.data.samples, l.data.radius,
		float32(l.opts.Exponent), l.opts.FasterPointRadius)
	if err != nil {
		mask.Delete()
		return fmt.Errorf("heatmap: init idw pass: %w", err)
	}

	composite, err := pass.NewCompositePass(dev, pass.CompositeConfig{
		RadiusMode:       l.radiusMode(),
		Opacity:          float32(l.opts.Opacity),
		ColorMap:         l.opts.ColorMap,
		Average:          l.data.average,
		AverageThreshold: float32(l.opts.AverageThreshold),
		LayerBlend:       l.opts.LayerBlend,
		MapBlend:         l.opts.MapBlend,
	})
	if err != nil {
		idw.Delete()
		mask.Delete()
		return fmt.Errorf("heatmap: init composite pass: %w", err)
	}

	l.dev = dev
	l.mask, l.idw, l.composite = mask, idw, composite
	l.prepared = false
	trackDevice(dev)

	Logger().Info("heatmap: layer initialized",
		"id", l.opts.LayerID,
		"device", dev.Name(),
		"points", len(l.points),
		"canvas", fmt.Sprintf("%dx%d", width, height),
		"framebuffer", fmt.Sprintf("%dx%d", l.fbWidth, l.fbHeight),
		"radius", l.radiusMode().String())
	return nil
}

// framebufferSize returns the IDW target size for a canvas.
func (l *Layer) framebufferSize(width, height int) (int, int) {
	f := l.opts.FramebufferFactor
	w := int(math.Ceil(float64(width) * f))
	h := int(math.Ceil(float64(height) * f))
	return max(w, 1), max(h, 1)
}

// maskRadius is the radius handed to the mask pass, which draws circles
// only when the radius test does not run in the IDW pass.
func (l *Layer) maskRadius() pass.Radius {
	if l.opts.FasterPointRadius {
		return pass.NoRadius()
	}
	return l.data.radius
}

func (l *Layer) radiusMode() pass.RadiusMode {
	switch {
	case !(l.opts.PointRadius > 0):
		return pass.RadiusOff
	case l.opts.FasterPointRadius:
		return pass.RadiusInShader
	default:
		return pass.RadiusCircles
	}
}

func (l *Layer) ready() error {
	if l.deleted {
		return ErrDeleted
	}
	if l.dev == nil {
		return ErrNotInitialized
	}
	return nil
}

// Resize recomputes the IDW target size from the current canvas size. The
// mask follows the canvas on its own at the next PreRender.
func (l *Layer) Resize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return err
	}
	w, h := l.framebufferSize(l.dev.SurfaceSize())
	if w == l.fbWidth && h == l.fbHeight {
		return nil
	}
	if err := l.idw.SetTextureSize(w, h); err != nil {
		return fmt.Errorf("heatmap: resize: %w", err)
	}
	l.fbWidth, l.fbHeight = w, h
	Logger().Debug("heatmap: framebuffer resized", "width", w, "height", h)
	return nil
}

// UpdatePoints replaces the point set. Before Init the points are stored
// for Init to use.
func (l *Layer) UpdatePoints(points []Point) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.deleted {
		return ErrDeleted
	}
	if err := validatePoints(points); err != nil {
		return err
	}
	l.points = append([]Point(nil), points...)
	if l.dev == nil {
		return nil
	}

	l.data = prepare(l.points, &l.opts)
	if err := l.mask.UpdatePointsAndDistances(l.data.samples, l.maskRadius()); err != nil {
		return fmt.Errorf("heatmap: update points: %w", err)
	}
	if err := l.idw.UpdatePointsAndDistances(l.data.samples, l.data.radius); err != nil {
		return fmt.Errorf("heatmap: update points: %w", err)
	}
	l.composite.SetAverage(l.data.average)
	return nil
}

// PreRender draws the mask and the IDW accumulation for mvp, the
// column-major matrix mapping the projected plane to clip space.
func (l *Layer) PreRender(mvp mat4.Matrix) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.preRender(mvp)
}

func (l *Layer) preRender(mvp mat4.Matrix) error {
	if err := l.ready(); err != nil {
		return err
	}
	width, height := l.dev.SurfaceSize()
	if err := l.mask.Draw(mvp, width, height); err != nil {
		return fmt.Errorf("heatmap: mask pass: %w", err)
	}
	if err := l.idw.Draw(mvp); err != nil {
		return fmt.Errorf("heatmap: idw pass: %w", err)
	}
	l.prepared = true
	return nil
}

// Render composites the surface onto the device's screen framebuffer. It
// uses the targets drawn by the last PreRender.
func (l *Layer) Render(mvp mat4.Matrix) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.render(mvp)
}

func (l *Layer) render(mvp mat4.Matrix) error {
	if err := l.ready(); err != nil {
		return err
	}
	if !l.prepared {
		return ErrNotPrepared
	}
	width, height := l.dev.SurfaceSize()
	if err := l.composite.Draw(mvp, l.mask.Texture(), l.idw.Texture(), width, height); err != nil {
		return fmt.Errorf("heatmap: composite pass: %w", err)
	}
	return nil
}

// Draw runs PreRender and Render for hosts that do not split them.
func (l *Layer) Draw(mvp mat4.Matrix) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.preRender(mvp); err != nil {
		return err
	}
	return l.render(mvp)
}

// Delete releases all device resources. Later calls do nothing, and other
// methods return ErrDeleted.
func (l *Layer) Delete() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.deleted {
		return
	}
	l.release()
	l.deleted = true
}

func (l *Layer) release() {
	if l.dev == nil {
		return
	}
	l.composite.Delete()
	l.idw.Delete()
	l.mask.Delete()
	untrackDevice(l.dev)
	l.dev = nil
	l.mask, l.idw, l.composite = nil, nil, nil
	l.prepared = false
}

// ID returns the identifier set with WithLayerID.
func (l *Layer) ID() string { return l.opts.LayerID }

// Options returns a copy of the layer configuration.
func (l *Layer) Options() Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.opts
	o.ROI = append(o.ROI[:0:0], l.opts.ROI...)
	return o
}

// Average returns the mean normalized value of the current points. It is
// zero before Init and for an empty point set.
func (l *Layer) Average() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return float64(l.data.average)
}

// FramebufferSize returns the IDW target size, or zeros before Init.
func (l *Layer) FramebufferSize() (width, height int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dev == nil {
		return 0, 0
	}
	return l.fbWidth, l.fbHeight
}
