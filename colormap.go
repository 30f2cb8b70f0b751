package heatmap

import "github.com/gogpu/heatmap/internal/pass"

// ColorMap maps a normalized value in [0, 1] to a color with components in
// [0, 1].
//
// Devices that shade on the host call Color4. GPU devices compile WGSL,
// which must define
//
//	fn value_to_color(value: f32) -> vec3<f32>
//	fn value_to_color4(value: f32, default_opacity: f32) -> vec4<f32>
//
// with the same results as Color and Color4. An empty WGSL selects the
// default ramp.
type ColorMap interface {
	Color(value float32) [3]float32
	Color4(value, opacity float32) [4]float32
	WGSL() string
}

// DefaultColorMap is a blue-green-red ramp: blue at 0, green at 0.5 and
// red at 1. Color4 uses the given opacity as alpha.
var DefaultColorMap ColorMap = pass.RampColorMap{}

// ColorMapFunc adapts Go functions to ColorMap.
//
// Color is required. Color4 defaults to Color with the opacity as alpha.
// Source is the WGSL equivalent; when empty, GPU devices fall back to the
// default ramp and log a warning when the layer is built.
type ColorMapFunc struct {
	ColorFunc  func(value float32) [3]float32
	Color4Func func(value, opacity float32) [4]float32
	Source     string
}

// Color implements ColorMap.
func (f ColorMapFunc) Color(v float32) [3]float32 { return f.ColorFunc(v) }

// Color4 implements ColorMap.
func (f ColorMapFunc) Color4(v, opacity float32) [4]float32 {
	if f.Color4Func != nil {
		return f.Color4Func(v, opacity)
	}
	c := f.ColorFunc(v)
	return [4]float32{c[0], c[1], c[2], opacity}
}

// WGSL implements ColorMap.
func (f ColorMapFunc) WGSL() string {
	if f.Source == "" {
		return pass.DefaultColorMapWGSL
	}
	return f.Source
}
