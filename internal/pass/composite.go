package pass

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/mat4"
)

// RadiusMode selects which channel, if any, limits the surface to sample
// radii during compositing.
type RadiusMode uint32

const (
	// RadiusOff ignores radii.
	RadiusOff RadiusMode = iota
	// RadiusCircles requires the mask green channel.
	RadiusCircles
	// RadiusInShader requires the IDW blue channel.
	RadiusInShader
)

func (m RadiusMode) String() string {
	switch m {
	case RadiusOff:
		return "off"
	case RadiusCircles:
		return "circles"
	case RadiusInShader:
		return "in-shader"
	default:
		return fmt.Sprintf("RadiusMode(%d)", uint32(m))
	}
}

// ColorMap maps a normalized value to a color. WGSL returns a module that
// defines value_to_color and value_to_color4 with the same semantics, or
// "" to use DefaultColorMapWGSL.
type ColorMap interface {
	Color4(value, opacity float32) [4]float32
	WGSL() string
}

// Ramp is the default color ramp: blue at 0, green at 0.5, red at 1.
func Ramp(v float32) [3]float32 {
	return [3]float32{
		max((v-0.5)*2, 0),
		1 - 2*float32(math.Abs(float64(v-0.5))),
		max((0.5-v)*2, 0),
	}
}

// RampColorMap is the ColorMap for Ramp. Color4 uses the given opacity as
// alpha.
type RampColorMap struct{}

func (RampColorMap) Color(v float32) [3]float32 { return Ramp(v) }

func (RampColorMap) Color4(v, opacity float32) [4]float32 {
	c := Ramp(v)
	return [4]float32{c[0], c[1], c[2], opacity}
}

func (RampColorMap) WGSL() string { return DefaultColorMapWGSL }

// CompositeConfig configures a CompositePass.
type CompositeConfig struct {
	RadiusMode       RadiusMode
	Opacity          float32
	ColorMap         ColorMap // nil uses the default ramp
	Average          float32
	AverageThreshold float32

	// LayerBlend and MapBlend are the source and destination blend
	// factors used against the screen.
	LayerBlend gputypes.BlendFactor
	MapBlend   gputypes.BlendFactor
}

// CompositePass colors the interpolated field and blends it onto the
// screen framebuffer.
type CompositePass struct {
	dev gpucore.Device
	res resources
	cfg CompositeConfig

	program gpucore.ProgramID
	quad    gpucore.BufferID
	deleted bool
}

// NewCompositePass compiles the composite program with the configured
// color map.
func NewCompositePass(dev gpucore.Device, cfg CompositeConfig) (*CompositePass, error) {
	if cfg.ColorMap == nil {
		cfg.ColorMap = RampColorMap{}
	}
	if _, ok := cfg.ColorMap.(RampColorMap); !ok {
		if src := cfg.ColorMap.WGSL(); src == "" || src == DefaultColorMapWGSL {
			slogger().Warn("pass: color map has no WGSL source, shader devices draw the default ramp",
				"colormap", fmt.Sprintf("%T", cfg.ColorMap))
		}
	}
	c := &CompositePass{
		dev: dev,
		res: resources{dev: dev},
		cfg: cfg,
	}
	if err := c.init(); err != nil {
		c.res.release()
		return nil, err
	}
	return c, nil
}

func (c *CompositePass) init() error {
	colors := c.cfg.ColorMap.WGSL()
	if colors == "" {
		colors = DefaultColorMapWGSL
	}

	prog, err := c.dev.CreateProgram(&gpucore.ProgramDesc{
		Label:    "heatmap_composite",
		Source:   compositeShaderSource + "\n" + colors,
		Shader:   compositeShader{colors: c.cfg.ColorMap},
		Textures: 2,
		Uniforms: &compositeUniforms{},
	})
	if err != nil {
		return err
	}
	c.program = c.res.program(prog)

	quad, err := c.dev.CreateVertexBuffer("heatmap_composite_quad", fullScreenQuad)
	if err != nil {
		return fmt.Errorf("create composite quad: %w", err)
	}
	c.quad = c.res.buffer(quad)
	return nil
}

// Draw composites onto the screen framebuffer of size width×height using
// the mask and IDW targets. The view matrix is not needed: both inputs
// are already in screen space.
func (c *CompositePass) Draw(_ mat4.Matrix, mask, idw gpucore.TextureID, width, height int) error {
	if c.deleted {
		return ErrDeleted
	}

	rp, err := c.dev.BeginPass(&gpucore.PassDesc{
		Label:  "heatmap_composite",
		Target: gpucore.Screen,
		Width:  width,
		Height: height,
		Blend: gpucore.BlendState{
			Enabled: true,
			Src:     c.cfg.LayerBlend,
			Dst:     c.cfg.MapBlend,
		},
		DepthTest: true,
	})
	if err != nil {
		return fmt.Errorf("begin composite pass: %w", err)
	}

	err = rp.Draw(&gpucore.DrawCall{
		Program:  c.program,
		Vertices: c.quad,
		Topology: gputypes.PrimitiveTopologyTriangleStrip,
		Uniforms: &compositeUniforms{
			screenSize:       f32.Vec2{float32(width), float32(height)},
			opacity:          c.cfg.Opacity,
			average:          c.cfg.Average,
			averageThreshold: c.cfg.AverageThreshold,
			radiusMode:       c.cfg.RadiusMode,
		},
		Textures: []gpucore.TextureID{mask, idw},
	})
	if err != nil {
		_ = rp.End()
		return fmt.Errorf("draw composite: %w", err)
	}
	return rp.End()
}

// SetAverage updates the mean used by the average threshold.
func (c *CompositePass) SetAverage(avg float32) { c.cfg.Average = avg }

// Config returns the current configuration.
func (c *CompositePass) Config() CompositeConfig { return c.cfg }

// Delete releases the pass resources. Later calls do nothing.
func (c *CompositePass) Delete() {
	c.res.release()
	c.deleted = true
}
