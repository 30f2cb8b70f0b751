// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
)

// textureUsage is the usage every texture is created with: render target,
// sampled, and both ends of a copy.
const textureUsage = gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst

type texture struct {
	label  string
	format gputypes.TextureFormat
	width  int
	height int
	tex    hal.Texture
	view   hal.TextureView

	// usage is the last usage recorded for the texture, zero when the HAL
	// tracks the state (after creation or an upload).
	usage gputypes.TextureUsage
}

type program struct {
	label       string
	module      hal.ShaderModule
	bindLayout  hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	textures    int
	uniformSize uint64
}

type buffer struct {
	buf   hal.Buffer
	count uint32
	index bool
}

func supportedFormat(f gputypes.TextureFormat) bool {
	_, ok := bytesPerTexel(f)
	return ok
}

func (d *Device) newTexture(label string, format gputypes.TextureFormat, width, height int) (*texture, error) {
	t := &texture{label: label, format: format}
	if err := d.allocTexture(t, width, height); err != nil {
		return nil, err
	}
	return t, nil
}

// allocTexture (re)creates the storage of t at the given size.
func (d *Device) allocTexture(t *texture, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: texture %q %dx%d", gpucore.ErrInvalidSize, t.label, width, height)
	}
	if !supportedFormat(t.format) {
		return fmt.Errorf("%w: %v", gpucore.ErrUnsupportedFormat, t.format)
	}

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: t.label,
		Size: hal.Extent3D{
			Width:              uint32(width),  //nolint:gosec // checked positive
			Height:             uint32(height), //nolint:gosec // checked positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.format,
		Usage:         textureUsage,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create texture %q: %w", t.label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         t.label + "_view",
		Format:        t.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create texture view %q: %w", t.label, err)
	}

	d.releaseTexture(t)
	t.tex, t.view = tex, view
	t.width, t.height = width, height
	t.usage = 0
	return nil
}

func (d *Device) releaseTexture(t *texture) {
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// resizeTexture reallocates t when its size changes.
func (d *Device) resizeTexture(t *texture, width, height int) error {
	if t.width == width && t.height == height {
		return nil
	}
	return d.allocTexture(t, width, height)
}

// transition records a barrier moving t to usage, if it is not there yet.
func transition(encoder hal.CommandEncoder, t *texture, usage gputypes.TextureUsage) {
	if t.usage != 0 && t.usage != usage {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: t.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: t.usage,
				NewUsage: usage,
			},
		}})
	}
	t.usage = usage
}

// clearTexture fills t with c in a pass of its own.
func (d *Device) clearTexture(t *texture, c f32.Vec4) error {
	encoder, err := d.beginEncoding("clear")
	if err != nil {
		return err
	}
	transition(encoder, t, gputypes.TextureUsageRenderAttachment)
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "clear_" + t.label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearColor(c),
		}},
	})
	rp.End()
	return d.submit(encoder)
}

// writeTexture uploads tightly packed rows covering all of t.
func (d *Device) writeTexture(t *texture, data []byte) {
	size, _ := bytesPerTexel(t.format)
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.width * size), //nolint:gosec // texture sizes fit uint32
			RowsPerImage: uint32(t.height),       //nolint:gosec // texture sizes fit uint32
		},
		&hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1}, //nolint:gosec // texture sizes fit uint32
	)
	t.usage = 0
}

// readback copies t to a staging buffer and returns its padded rows and
// the row pitch.
func (d *Device) readback(t *texture) ([]byte, uint32, error) {
	size, _ := bytesPerTexel(t.format)
	pitch := alignedBytesPerRow(t.width, size)
	w, h := uint32(t.width), uint32(t.height) //nolint:gosec // texture sizes fit uint32
	stagingSize := uint64(pitch) * uint64(h)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_" + t.label,
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.beginEncoding("readback")
	if err != nil {
		return nil, 0, err
	}
	transition(encoder, t, gputypes.TextureUsageCopySrc)
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	if err := d.submit(encoder); err != nil {
		return nil, 0, err
	}

	data := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, 0, fmt.Errorf("wgpu: readback %q: %w", t.label, err)
	}
	return data, pitch, nil
}

// CreateProgram implements gpucore.Device. The WGSL is compiled to SPIR-V
// with naga before the shader module is created.
func (d *Device) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	spirv, err := gpucore.CompileProgram(desc)
	if err != nil {
		return gpucore.InvalidID, err
	}

	p := &program{label: desc.Label, textures: desc.Textures}
	if desc.Uniforms != nil {
		p.uniformSize = uint64(gpucore.UniformSize(desc.Uniforms)) //nolint:gosec // size is non-negative
	}

	p.module, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, &gpucore.CompileError{Label: desc.Label, Err: err}
	}

	var entries []gputypes.BindGroupLayoutEntry
	if p.uniformSize > 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for i := range desc.Textures {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i + 1), //nolint:gosec // small binding index
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}

	p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_layout",
		Entries: entries,
	})
	if err != nil {
		d.releaseProgram(p)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create bind group layout %q: %w", desc.Label, err)
	}
	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		d.releaseProgram(p)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create pipeline layout %q: %w", desc.Label, err)
	}

	id := gpucore.ProgramID(d.allocID())
	d.programs[id] = p
	d.log.Load().Debug("wgpu: program created", "label", desc.Label, "id", id,
		"uniform_size", p.uniformSize, "textures", p.textures)
	return id, nil
}

func (d *Device) releaseProgram(p *program) {
	if p.pipeLayout != nil {
		d.device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		d.device.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil {
		d.device.DestroyShaderModule(p.module)
	}
}

// DestroyProgram implements gpucore.Device. Pipelines built from the
// program are destroyed with it.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	delete(d.programs, id)
	d.dropPipelines(id)
	d.releaseProgram(p)
}

func (d *Device) createBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(max(len(data), 4)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %q: %w", label, err)
	}
	if len(data) > 0 {
		d.queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

// CreateVertexBuffer implements gpucore.Device.
func (d *Device) CreateVertexBuffer(label string, vertices []f32.Vec2) (gpucore.BufferID, error) {
	buf, err := d.createBuffer(label, vertexBytes(vertices), gputypes.BufferUsageVertex)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(d.allocID())
	d.buffers[id] = &buffer{buf: buf, count: uint32(len(vertices))} //nolint:gosec // vertex counts fit uint32
	return id, nil
}

// CreateIndexBuffer implements gpucore.Device.
func (d *Device) CreateIndexBuffer(label string, indices []uint16) (gpucore.BufferID, error) {
	buf, err := d.createBuffer(label, indexBytes(indices), gputypes.BufferUsageIndex)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(d.allocID())
	d.buffers[id] = &buffer{buf: buf, count: uint32(len(indices)), index: true} //nolint:gosec // index counts fit uint32
	return id, nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	if b, ok := d.buffers[id]; ok {
		delete(d.buffers, id)
		d.device.DestroyBuffer(b.buf)
	}
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	t, err := d.newTexture(desc.Label, desc.Format, desc.Width, desc.Height)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.TextureID(d.allocID())
	d.textures[id] = t
	return id, nil
}

// ResizeTexture implements gpucore.Device.
func (d *Device) ResizeTexture(id gpucore.TextureID, width, height int) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	return d.resizeTexture(t, width, height)
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	if t, ok := d.textures[id]; ok {
		delete(d.textures, id)
		d.releaseTexture(t)
	}
}

// CreateFramebuffer implements gpucore.Device.
func (d *Device) CreateFramebuffer(_ string, color gpucore.TextureID) (gpucore.FramebufferID, error) {
	if _, ok := d.textures[color]; !ok {
		return gpucore.Screen, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, color)
	}
	id := gpucore.FramebufferID(d.allocID())
	d.framebuffers[id] = color
	return id, nil
}

// DestroyFramebuffer implements gpucore.Device. Destroying Screen is a
// no-op.
func (d *Device) DestroyFramebuffer(id gpucore.FramebufferID) { delete(d.framebuffers, id) }

// ReadTexture implements gpucore.Device.
func (d *Device) ReadTexture(id gpucore.TextureID) ([]f32.Vec4, error) {
	t, ok := d.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	data, pitch, err := d.readback(t)
	if err != nil {
		return nil, err
	}
	return decodeTexels(t.format, data, t.width, t.height, pitch)
}

func (d *Device) target(id gpucore.FramebufferID) (*texture, error) {
	if id == gpucore.Screen {
		return d.surface, nil
	}
	texID, ok := d.framebuffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: framebuffer %d", gpucore.ErrUnknownResource, id)
	}
	t, ok := d.textures[texID]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d of framebuffer %d", gpucore.ErrUnknownResource, texID, id)
	}
	return t, nil
}
