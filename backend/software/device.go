// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/internal/parallel"
)

// Name is the backend identifier of the software device.
const Name = "software"

// Option configures a Device.
type Option func(*config)

type config struct {
	workers  int
	disabled map[gpucore.Feature]bool
}

// WithWorkers sets the number of shading goroutines. Zero or negative
// uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithoutFeature makes Supports report f as unavailable. Rendering is not
// affected; the option lets hosts exercise their capability handling.
func WithoutFeature(f gpucore.Feature) Option {
	return func(c *config) { c.disabled[f] = true }
}

type program struct {
	label    string
	shader   gpucore.Shader
	textures int
}

type buffer struct {
	vertices []f32.Vec2
	indices  []uint16
}

// Device is a CPU implementation of gpucore.Device.
type Device struct {
	cfg  config
	pool *parallel.WorkerPool
	log  atomic.Pointer[slog.Logger]

	surface *texture

	nextID       uint64
	programs     map[gpucore.ProgramID]*program
	buffers      map[gpucore.BufferID]*buffer
	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]gpucore.TextureID
}

var _ gpucore.Device = (*Device)(nil)

// New creates a device with a transparent black surface of the given size.
func New(width, height int, opts ...Option) *Device {
	cfg := config{disabled: make(map[gpucore.Feature]bool)}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Device{
		cfg:          cfg,
		pool:         parallel.NewWorkerPool(cfg.workers),
		surface:      &texture{label: "surface", format: gputypes.TextureFormatRGBA8Unorm},
		programs:     make(map[gpucore.ProgramID]*program),
		buffers:      make(map[gpucore.BufferID]*buffer),
		textures:     make(map[gpucore.TextureID]*texture),
		framebuffers: make(map[gpucore.FramebufferID]gpucore.TextureID),
	}
	d.log.Store(slog.New(discardHandler{}))
	_ = d.surface.resize(max(width, 1), max(height, 1))
	return d
}

// SetLogger sets the logger for device diagnostics. Nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	d.log.Store(l)
}

// Close stops the shading workers. Resources need not be destroyed first.
func (d *Device) Close() {
	d.pool.Close()
}

// Name implements gpucore.Device.
func (d *Device) Name() string { return Name }

// Supports implements gpucore.Device.
func (d *Device) Supports(f gpucore.Feature) bool {
	switch f {
	case gpucore.FeatureFloatTextures, gpucore.FeatureFloatRenderTargets, gpucore.FeatureFloatBlend:
		return !d.cfg.disabled[f]
	}
	return false
}

// SurfaceSize implements gpucore.Device.
func (d *Device) SurfaceSize() (int, int) { return d.surface.width, d.surface.height }

// ResizeSurface resizes the visible surface and clears it.
func (d *Device) ResizeSurface(width, height int) error {
	return d.surface.resize(width, height)
}

// SetSurface replaces the surface with img, resizing it to img's bounds.
// Pixels are read as straight (non-premultiplied) color.
func (d *Device) SetSurface(img image.Image) error {
	return d.surface.loadImage(img)
}

// Surface returns a copy of the visible surface. Color values are stored
// as rendered, without premultiplying by alpha; for an opaque base scene
// the two are the same.
func (d *Device) Surface() *image.RGBA {
	return d.surface.toRGBA()
}

// ReadSurface is Surface for callers written against devices whose
// readback can fail. It never returns an error.
func (d *Device) ReadSurface() (*image.RGBA, error) {
	return d.surface.toRGBA(), nil
}

func (d *Device) allocID() uint64 {
	d.nextID++
	return d.nextID
}

// CreateProgram implements gpucore.Device. The WGSL source is validated
// even though shading runs through desc.Shader.
func (d *Device) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	if desc.Shader == nil {
		return gpucore.InvalidID, &gpucore.CompileError{Label: desc.Label, Err: gpucore.ErrMissingShader}
	}
	if _, err := gpucore.CompileProgram(desc); err != nil {
		return gpucore.InvalidID, err
	}

	id := gpucore.ProgramID(d.allocID())
	d.programs[id] = &program{label: desc.Label, shader: desc.Shader, textures: desc.Textures}
	d.log.Load().Debug("software: program created", "label", desc.Label, "id", id)
	return id, nil
}

// DestroyProgram implements gpucore.Device.
func (d *Device) DestroyProgram(id gpucore.ProgramID) { delete(d.programs, id) }

// CreateVertexBuffer implements gpucore.Device.
func (d *Device) CreateVertexBuffer(_ string, vertices []f32.Vec2) (gpucore.BufferID, error) {
	id := gpucore.BufferID(d.allocID())
	d.buffers[id] = &buffer{vertices: append([]f32.Vec2(nil), vertices...)}
	return id, nil
}

// CreateIndexBuffer implements gpucore.Device.
func (d *Device) CreateIndexBuffer(_ string, indices []uint16) (gpucore.BufferID, error) {
	id := gpucore.BufferID(d.allocID())
	d.buffers[id] = &buffer{indices: append([]uint16(nil), indices...)}
	return id, nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) { delete(d.buffers, id) }

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	t, err := newTexture(desc)
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
	return t.resize(width, height)
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) { delete(d.textures, id) }

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
	return append([]f32.Vec4(nil), t.texels...), nil
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

// BeginPass implements gpucore.Device.
func (d *Device) BeginPass(desc *gpucore.PassDesc) (gpucore.RenderPass, error) {
	t, err := d.target(desc.Target)
	if err != nil {
		return nil, err
	}
	if desc.Clear {
		t.fill(desc.ClearColor)
	}

	w, h := desc.Width, desc.Height
	if w <= 0 {
		w = t.width
	}
	if h <= 0 {
		h = t.height
	}
	return &renderPass{
		dev:    d,
		target: t,
		width:  w,
		height: h,
		blend:  desc.Blend,
	}, nil
}

// discardHandler is a slog.Handler that drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
