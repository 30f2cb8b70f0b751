package pass

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/mat4"
)

// IDWFormat is the texture format of the accumulation target. Devices
// without FeatureFloatBlend get IDWFallbackFormat instead.
const (
	IDWFormat         = gputypes.TextureFormatRGBA32Float
	IDWFallbackFormat = gputypes.TextureFormatRGBA16Float
)

// IDWPass accumulates inverse distance weights over all samples. After
// Draw, each texel holds r = Σ w·value, g = Σ w and, when the radius test
// runs here, b > 0 inside some sample's radius.
//
// Each sample is one additive full-screen draw. The per-draw cost is fixed
// and the shader has no data-dependent loop.
type IDWPass struct {
	dev gpucore.Device
	res resources

	program     gpucore.ProgramID
	texture     gpucore.TextureID
	framebuffer gpucore.FramebufferID
	quad        gpucore.BufferID
	format      gputypes.TextureFormat
	width       int
	height      int

	samples           []Sample
	radius            Radius
	p                 float32
	fasterPointRadius bool
	deleted           bool
}

// NewIDWPass creates an accumulation pass with a width×height target and
// exponent p. With fasterPointRadius set and radii enabled, the radius test
// runs in this pass instead of MaskPass.
func NewIDWPass(dev gpucore.Device, width, height int, samples []Sample, radius Radius, p float32, fasterPointRadius bool) (*IDWPass, error) {
	if err := radius.Check(len(samples)); err != nil {
		return nil, err
	}

	format := IDWFormat
	if !dev.Supports(gpucore.FeatureFloatBlend) {
		format = IDWFallbackFormat
		slogger().Warn("pass: float32 blending unavailable, accumulating in half precision")
	}

	d := &IDWPass{
		dev:               dev,
		res:               resources{dev: dev},
		format:            format,
		width:             width,
		height:            height,
		samples:           samples,
		radius:            radius,
		p:                 p,
		fasterPointRadius: fasterPointRadius,
	}
	if err := d.init(); err != nil {
		d.res.release()
		return nil, err
	}
	return d, nil
}

func (d *IDWPass) init() error {
	prog, err := d.dev.CreateProgram(&gpucore.ProgramDesc{
		Label:    "heatmap_idw",
		Source:   idwShaderSource,
		Shader:   idwShader{},
		Uniforms: &idwUniforms{},
	})
	if err != nil {
		return err
	}
	d.program = d.res.program(prog)

	quad, err := d.dev.CreateVertexBuffer("heatmap_idw_quad", fullScreenQuad)
	if err != nil {
		return fmt.Errorf("create idw quad: %w", err)
	}
	d.quad = d.res.buffer(quad)

	tex, err := d.dev.CreateTexture(&gpucore.TextureDesc{
		Label:  "heatmap_idw",
		Width:  d.width,
		Height: d.height,
		Format: d.format,
	})
	if err != nil {
		return fmt.Errorf("create idw texture: %w", err)
	}
	d.texture = d.res.texture(tex)

	fb, err := d.dev.CreateFramebuffer("heatmap_idw", tex)
	if err != nil {
		return fmt.Errorf("create idw framebuffer: %w", err)
	}
	d.framebuffer = d.res.framebuffer(fb)
	return nil
}

// Draw accumulates every sample for the given view.
func (d *IDWPass) Draw(mvp mat4.Matrix) error {
	if d.deleted {
		return ErrDeleted
	}

	faster := d.fasterPointRadius && d.radius.Enabled()
	var inverse mat4.Matrix
	if faster {
		var ok bool
		if inverse, ok = mat4.Inverse(mvp); !ok {
			slogger().Debug("pass: view matrix is singular, skipping radius test this frame")
			faster = false
		}
	}

	rp, err := d.dev.BeginPass(&gpucore.PassDesc{
		Label:  "heatmap_idw",
		Target: d.framebuffer,
		Width:  d.width,
		Height: d.height,
		Clear:  true,
		Blend:  gpucore.BlendAdditive,
	})
	if err != nil {
		return fmt.Errorf("begin idw pass: %w", err)
	}

	size := f32.Vec2{float32(d.width), float32(d.height)}
	wt := d.weighting()
	skipped := 0
	for i, s := range d.samples {
		xi, ok := mat4.Project(mvp, s.X, s.Y)
		if !ok {
			skipped++
			continue
		}
		err := rp.Draw(&gpucore.DrawCall{
			Program:  d.program,
			Vertices: d.quad,
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			Uniforms: &idwUniforms{
				mvpInverse:        inverse,
				xi:                f32.Vec2{s.X, s.Y},
				xiImageSpace:      xi,
				framebufferSize:   size,
				ui:                s.Value,
				p:                 d.p,
				pointRadius:       d.radius.At(i),
				fasterPointRadius: faster,
				weighting:         wt,
			},
		})
		if err != nil {
			_ = rp.End()
			return fmt.Errorf("draw sample %d: %w", i, err)
		}
	}
	if skipped > 0 {
		slogger().Debug("pass: samples behind the camera skipped", "count", skipped)
	}
	return rp.End()
}

// weighting picks the weight scale for the target format. Full floats use
// plain pixel distances. Half floats measure distances against the target
// diagonal, so the farthest pixel still gets a normal weight, and cap each
// weight so that sum(w) and sum(w*u) stay finite.
func (d *IDWPass) weighting() weighting {
	if d.format != IDWFallbackFormat {
		return weighting{scale: 1, reference: 1, max: MaxWeight}
	}
	peak := 1.0
	for _, s := range d.samples {
		peak = max(peak, math.Abs(float64(s.Value)))
	}
	return weighting{
		scale:     HalfMinWeight,
		reference: float32(math.Hypot(float64(d.width), float64(d.height))),
		max:       float32(HalfMaxWeight / (float64(max(len(d.samples), 1)) * peak)),
	}
}

// UpdatePointsAndDistances replaces the samples and radii used by the next
// Draw.
func (d *IDWPass) UpdatePointsAndDistances(samples []Sample, radius Radius) error {
	if d.deleted {
		return ErrDeleted
	}
	if err := radius.Check(len(samples)); err != nil {
		return err
	}
	d.samples = samples
	d.radius = radius
	return nil
}

// SetTextureSize reallocates the target storage.
func (d *IDWPass) SetTextureSize(width, height int) error {
	if d.deleted {
		return ErrDeleted
	}
	if err := d.dev.ResizeTexture(d.texture, width, height); err != nil {
		return fmt.Errorf("resize idw texture: %w", err)
	}
	d.width, d.height = width, height
	return nil
}

// Texture returns the accumulation target.
func (d *IDWPass) Texture() gpucore.TextureID { return d.texture }

// Format returns the accumulation target format.
func (d *IDWPass) Format() gputypes.TextureFormat { return d.format }

// Size returns the target size.
func (d *IDWPass) Size() (int, int) { return d.width, d.height }

// Delete releases the pass resources. Later calls do nothing.
func (d *IDWPass) Delete() {
	d.res.release()
	d.deleted = true
}
