package heatmap

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/paulmach/orb"
)

// Options holds the layer configuration. Use the With* functions to
// change it; New validates the result.
type Options struct {
	// Opacity is the alpha of the colored surface, in [0, 1].
	Opacity float64

	// MinValue and MaxValue widen the normalization range. The observed
	// range is used when they lie inside it.
	MinValue float64
	MaxValue float64

	// Exponent is the IDW power p. Larger values make the surface follow
	// the nearest sample more closely.
	Exponent float64

	// FramebufferFactor scales the IDW target relative to the canvas, in
	// (0, 1].
	FramebufferFactor float64

	// ROI limits the surface to a polygon of (lon, lat) vertices. Empty
	// shows the whole viewport.
	ROI orb.Ring

	// PointRadius limits the surface to this many meters around each
	// sample. Zero disables the limit.
	PointRadius float64

	// FasterPointRadius tests the radius per pixel in the IDW pass instead
	// of drawing a circle per sample.
	FasterPointRadius bool

	// AverageThreshold hides pixels whose value is within this distance
	// of the mean sample value.
	AverageThreshold float64

	ColorMap ColorMap

	// LayerBlend and MapBlend are the source and destination blend
	// factors used to composite onto the host framebuffer.
	LayerBlend gputypes.BlendFactor
	MapBlend   gputypes.BlendFactor

	// LayerID identifies the layer to the host.
	LayerID string
}

// Option configures a Layer.
//
// Example:
//
//	layer, err := heatmap.New(points,
//	    heatmap.WithExponent(2),
//	    heatmap.WithPointRadius(500),
//	)
type Option func(*Options)

// DefaultOptions returns the configuration used when no options are given.
func DefaultOptions() Options {
	return Options{
		Opacity:           0.5,
		MinValue:          math.Inf(1),
		MaxValue:          math.Inf(-1),
		Exponent:          3,
		FramebufferFactor: 0.3,
		ColorMap:          DefaultColorMap,
		LayerBlend:        gputypes.BlendFactorSrcAlpha,
		MapBlend:          gputypes.BlendFactorOneMinusSrcAlpha,
	}
}

// WithOpacity sets the surface opacity.
func WithOpacity(opacity float64) Option {
	return func(o *Options) { o.Opacity = opacity }
}

// WithMinValue sets the lower bound of the normalization range.
func WithMinValue(v float64) Option {
	return func(o *Options) { o.MinValue = v }
}

// WithMaxValue sets the upper bound of the normalization range.
func WithMaxValue(v float64) Option {
	return func(o *Options) { o.MaxValue = v }
}

// WithExponent sets the IDW power p.
func WithExponent(p float64) Option {
	return func(o *Options) { o.Exponent = p }
}

// WithFramebufferFactor sets the IDW target scale relative to the canvas.
func WithFramebufferFactor(f float64) Option {
	return func(o *Options) { o.FramebufferFactor = f }
}

// WithROI limits the surface to a polygon. The ring is copied.
func WithROI(ring orb.Ring) Option {
	return func(o *Options) { o.ROI = append(orb.Ring(nil), ring...) }
}

// WithPointRadius limits the surface to meters around each sample.
func WithPointRadius(meters float64) Option {
	return func(o *Options) { o.PointRadius = meters }
}

// WithFasterPointRadius switches the radius test to the IDW pass.
func WithFasterPointRadius(enabled bool) Option {
	return func(o *Options) { o.FasterPointRadius = enabled }
}

// WithAverageThreshold hides values within t of the sample mean.
func WithAverageThreshold(t float64) Option {
	return func(o *Options) { o.AverageThreshold = t }
}

// WithColorMap sets the value to color mapping. Nil restores the default.
func WithColorMap(cm ColorMap) Option {
	return func(o *Options) { o.ColorMap = cm }
}

// WithLayerBlend sets the source blend factor.
func WithLayerBlend(f gputypes.BlendFactor) Option {
	return func(o *Options) { o.LayerBlend = f }
}

// WithMapBlend sets the destination blend factor.
func WithMapBlend(f gputypes.BlendFactor) Option {
	return func(o *Options) { o.MapBlend = f }
}

// WithLayerID sets the layer identifier.
func WithLayerID(id string) Option {
	return func(o *Options) { o.LayerID = id }
}

func invalid(name string, v any, want string) error {
	return fmt.Errorf("%w: %s = %v, want %s", ErrInvalidOption, name, v, want)
}

// validate checks ranges and fills in defaults for nil fields.
func (o *Options) validate() error {
	switch {
	case !(o.Opacity >= 0 && o.Opacity <= 1):
		return invalid("opacity", o.Opacity, "a value in [0, 1]")
	case !(o.Exponent > 0) || math.IsInf(o.Exponent, 0):
		return invalid("exponent", o.Exponent, "a finite value > 0")
	case !(o.FramebufferFactor > 0 && o.FramebufferFactor <= 1):
		return invalid("framebuffer factor", o.FramebufferFactor, "a value in (0, 1]")
	case !(o.PointRadius >= 0) || math.IsInf(o.PointRadius, 0):
		return invalid("point radius", o.PointRadius, "a finite value >= 0")
	case !(o.AverageThreshold >= 0):
		return invalid("average threshold", o.AverageThreshold, "a value >= 0")
	case math.IsNaN(o.MinValue) || math.IsNaN(o.MaxValue):
		return invalid("value range", [2]float64{o.MinValue, o.MaxValue}, "non-NaN bounds")
	}
	for i, p := range o.ROI {
		if !finite(p[0]) || !finite(p[1]) {
			return invalid(fmt.Sprintf("roi[%d]", i), p, "finite coordinates")
		}
	}
	if o.ColorMap == nil {
		o.ColorMap = DefaultColorMap
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
