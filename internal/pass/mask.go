package pass

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/mat4"
)

// MaskFormat is the texture format of the mask target.
const MaskFormat = gputypes.TextureFormatRGBA8Unorm

// MaskPass renders where the heatmap may be shown. Red is 1 inside the
// region of interest; green is 1 inside any sample's radius circle when
// per-sample radii are configured.
type MaskPass struct {
	dev gpucore.Device
	res resources

	program     gpucore.ProgramID
	texture     gpucore.TextureID
	framebuffer gpucore.FramebufferID
	width       int
	height      int

	// Region mesh. fullScreen is set when no polygon was given.
	roiVertices gpucore.BufferID
	roiIndices  gpucore.BufferID
	fullScreen  bool

	// Unit circle fan, created when radii are first enabled.
	circleVertices gpucore.BufferID
	circleIndices  gpucore.BufferID

	samples []Sample
	radius  Radius
	deleted bool
}

// NewMaskPass creates a mask pass with a width×height target. roi is the
// region of interest in projected units; an empty roi covers the whole
// target.
func NewMaskPass(dev gpucore.Device, width, height int, samples []Sample, radius Radius, roi []f32.Vec2) (*MaskPass, error) {
	if err := radius.Check(len(samples)); err != nil {
		return nil, err
	}

	m := &MaskPass{
		dev:     dev,
		res:     resources{dev: dev},
		width:   width,
		height:  height,
		samples: samples,
		radius:  radius,
	}
	if err := m.init(roi); err != nil {
		m.res.release()
		return nil, err
	}
	return m, nil
}

func (m *MaskPass) init(roi []f32.Vec2) error {
	prog, err := m.dev.CreateProgram(&gpucore.ProgramDesc{
		Label:    "heatmap_mask",
		Source:   maskShaderSource,
		Shader:   maskShader{},
		Uniforms: &maskUniforms{},
	})
	if err != nil {
		return err
	}
	m.program = m.res.program(prog)

	tex, err := m.dev.CreateTexture(&gpucore.TextureDesc{
		Label:  "heatmap_mask",
		Width:  m.width,
		Height: m.height,
		Format: MaskFormat,
	})
	if err != nil {
		return fmt.Errorf("create mask texture: %w", err)
	}
	m.texture = m.res.texture(tex)

	fb, err := m.dev.CreateFramebuffer("heatmap_mask", tex)
	if err != nil {
		return fmt.Errorf("create mask framebuffer: %w", err)
	}
	m.framebuffer = m.res.framebuffer(fb)

	if err := m.createRegion(roi); err != nil {
		return err
	}
	if m.radius.Enabled() {
		return m.createCircle()
	}
	return nil
}

func (m *MaskPass) createRegion(roi []f32.Vec2) error {
	if len(roi) == 0 {
		roi = fullScreenRing
		m.fullScreen = true
	}
	indices, err := Triangulate(roi)
	if err != nil {
		return fmt.Errorf("triangulate region: %w", err)
	}
	if len(indices) == 0 {
		slogger().Warn("pass: region of interest is degenerate, nothing will be shown",
			"vertices", len(roi))
		return nil
	}

	vb, err := m.dev.CreateVertexBuffer("heatmap_roi_vertices", roi)
	if err != nil {
		return fmt.Errorf("create region vertices: %w", err)
	}
	m.roiVertices = m.res.buffer(vb)

	ib, err := m.dev.CreateIndexBuffer("heatmap_roi_indices", indices)
	if err != nil {
		return fmt.Errorf("create region indices: %w", err)
	}
	m.roiIndices = m.res.buffer(ib)

	slogger().Debug("pass: region triangulated",
		"vertices", len(roi), "triangles", len(indices)/3, "full_screen", m.fullScreen)
	return nil
}

func (m *MaskPass) createCircle() error {
	if m.circleVertices != gpucore.InvalidID {
		return nil
	}
	vertices, indices := unitCircle()

	vb, err := m.dev.CreateVertexBuffer("heatmap_circle_vertices", vertices)
	if err != nil {
		return fmt.Errorf("create circle vertices: %w", err)
	}
	m.circleVertices = m.res.buffer(vb)

	ib, err := m.dev.CreateIndexBuffer("heatmap_circle_indices", indices)
	if err != nil {
		return fmt.Errorf("create circle indices: %w", err)
	}
	m.circleIndices = m.res.buffer(ib)
	return nil
}

// Draw renders the mask for the given view. width and height are the
// canvas size; the target is reallocated when they change.
func (m *MaskPass) Draw(mvp mat4.Matrix, width, height int) error {
	if m.deleted {
		return ErrDeleted
	}
	if width != m.width || height != m.height {
		if err := m.SetTextureSize(width, height); err != nil {
			return err
		}
	}

	rp, err := m.dev.BeginPass(&gpucore.PassDesc{
		Label:  "heatmap_mask",
		Target: m.framebuffer,
		Width:  m.width,
		Height: m.height,
		Clear:  true,
		Blend:  gpucore.BlendAdditive,
	})
	if err != nil {
		return fmt.Errorf("begin mask pass: %w", err)
	}

	if err := m.drawRegion(rp, mvp); err != nil {
		_ = rp.End()
		return err
	}
	if err := m.drawCircles(rp, mvp); err != nil {
		_ = rp.End()
		return err
	}
	return rp.End()
}

func (m *MaskPass) drawRegion(rp gpucore.RenderPass, mvp mat4.Matrix) error {
	if m.roiIndices == gpucore.InvalidID {
		return nil
	}
	if m.fullScreen {
		mvp = mat4.Identity()
	}
	return rp.Draw(&gpucore.DrawCall{
		Program:  m.program,
		Vertices: m.roiVertices,
		Indices:  m.roiIndices,
		Topology: gputypes.PrimitiveTopologyTriangleList,
		Uniforms: &maskUniforms{mvp: mvp, model: mat4.Identity()},
	})
}

func (m *MaskPass) drawCircles(rp gpucore.RenderPass, mvp mat4.Matrix) error {
	if !m.radius.Enabled() {
		return nil
	}
	for i, s := range m.samples {
		r := m.radius.At(i)
		model := mat4.Identity()
		model.Translate(s.X, s.Y, 0).Scale(r, r, 1)

		err := rp.Draw(&gpucore.DrawCall{
			Program:  m.program,
			Vertices: m.circleVertices,
			Indices:  m.circleIndices,
			Topology: gputypes.PrimitiveTopologyTriangleList,
			Uniforms: &maskUniforms{mvp: mvp, model: model, drawingCircles: true},
		})
		if err != nil {
			return fmt.Errorf("draw circle %d: %w", i, err)
		}
	}
	return nil
}

// UpdatePointsAndDistances replaces the samples and radii used to draw
// circles. The region of interest is not affected.
func (m *MaskPass) UpdatePointsAndDistances(samples []Sample, radius Radius) error {
	if m.deleted {
		return ErrDeleted
	}
	if err := radius.Check(len(samples)); err != nil {
		return err
	}
	if radius.Enabled() {
		if err := m.createCircle(); err != nil {
			return err
		}
	}
	m.samples = samples
	m.radius = radius
	return nil
}

// SetTextureSize reallocates the target.
func (m *MaskPass) SetTextureSize(width, height int) error {
	if m.deleted {
		return ErrDeleted
	}
	if err := m.dev.ResizeTexture(m.texture, width, height); err != nil {
		return fmt.Errorf("resize mask texture: %w", err)
	}
	m.width, m.height = width, height
	return nil
}

// Texture returns the mask target.
func (m *MaskPass) Texture() gpucore.TextureID { return m.texture }

// Size returns the target size.
func (m *MaskPass) Size() (int, int) { return m.width, m.height }

// CirclesDrawn reports whether the green channel carries radius coverage.
func (m *MaskPass) CirclesDrawn() bool { return m.radius.Enabled() }

// Delete releases the pass resources. Later calls do nothing.
func (m *MaskPass) Delete() {
	m.res.release()
	m.deleted = true
}
