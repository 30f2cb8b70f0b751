// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan backend
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
)

// Name is the backend identifier of the GPU device.
const Name = "wgpu"

// ErrNoAdapter is returned when no GPU adapter can be opened.
var ErrNoAdapter = errors.New("wgpu: no GPU adapter available")

// Option configures a Device.
type Option func(*config)

type config struct {
	floatBlend bool
	timeout    time.Duration
}

// WithFloatBlend declares that the adapter can blend into rgba32float
// targets (the float32-blendable feature).
func WithFloatBlend() Option {
	return func(c *config) { c.floatBlend = true }
}

// WithTimeout sets how long a submission may take before End or a readback
// fails. The default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use.
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g GPUInfo) String() string {
	return fmt.Sprintf("%s (%v, %v)", g.Name, g.DeviceType, g.Backend)
}

// Device implements gpucore.Device on a wgpu HAL device.
//
// Like every gpucore.Device it is driven from a single goroutine.
type Device struct {
	cfg  config
	log  atomic.Pointer[slog.Logger]
	info GPUInfo

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool

	surface *texture

	nextID       uint64
	programs     map[gpucore.ProgramID]*program
	buffers      map[gpucore.BufferID]*buffer
	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]gpucore.TextureID
	pipelines    map[pipelineKey]hal.RenderPipeline
}

var _ gpucore.Device = (*Device)(nil)

// New opens a Vulkan device on the first discrete or integrated adapter and
// creates a transparent surface of the given size.
func New(width, height int, opts ...Option) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d := newDevice(openDev.Device, openDev.Queue, opts)
	d.instance = instance
	d.info = GPUInfo{
		Name:       selected.Info.Name,
		Vendor:     selected.Info.Vendor,
		DeviceType: selected.Info.DeviceType,
		Backend:    selected.Info.Backend,
		Driver:     selected.Info.Driver,
	}
	if err := d.initSurface(width, height); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// NewFromProvider creates a device on the GPU device of a host application.
// The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. Close leaves the shared device open.
func NewFromProvider(provider gpucontext.DeviceProvider, width, height int, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, errors.New("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, errors.New("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errors.New("wgpu: provider HalQueue is not hal.Queue")
	}

	d := newDevice(device, queue, opts)
	d.external = true
	d.info = GPUInfo{Name: "shared"}
	if err := d.initSurface(width, height); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue, opts []Option) *Device {
	cfg := config{timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &Device{
		cfg:          cfg,
		device:       device,
		queue:        queue,
		programs:     make(map[gpucore.ProgramID]*program),
		buffers:      make(map[gpucore.BufferID]*buffer),
		textures:     make(map[gpucore.TextureID]*texture),
		framebuffers: make(map[gpucore.FramebufferID]gpucore.TextureID),
		pipelines:    make(map[pipelineKey]hal.RenderPipeline),
	}
	d.log.Store(slog.New(discardHandler{}))
	return d
}

func (d *Device) initSurface(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: surface %dx%d", gpucore.ErrInvalidSize, width, height)
	}
	t, err := d.newTexture("surface", gputypes.TextureFormatRGBA8Unorm, width, height)
	if err != nil {
		return err
	}
	d.surface = t
	return d.clearTexture(t, f32.Vec4{})
}

// Info returns the adapter the device runs on.
func (d *Device) Info() GPUInfo { return d.info }

// SetLogger sets the logger for device diagnostics. Nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discardHandler{})
	}
	d.log.Store(l)
	l.Debug("wgpu: device", "gpu", d.info.String(), "driver", d.info.Driver, "float_blend", d.cfg.floatBlend)
}

// Close releases every resource the device still holds, then the HAL
// device unless it is shared.
func (d *Device) Close() {
	if d.device == nil {
		return
	}
	for key, p := range d.pipelines {
		d.device.DestroyRenderPipeline(p)
		delete(d.pipelines, key)
	}
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id := range d.buffers {
		d.DestroyBuffer(id)
	}
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	clear(d.framebuffers)
	if d.surface != nil {
		d.releaseTexture(d.surface)
		d.surface = nil
	}

	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}

// Name implements gpucore.Device.
func (d *Device) Name() string { return Name }

// Supports implements gpucore.Device.
func (d *Device) Supports(f gpucore.Feature) bool {
	switch f {
	case gpucore.FeatureFloatTextures, gpucore.FeatureFloatRenderTargets:
		return true
	case gpucore.FeatureFloatBlend:
		return d.cfg.floatBlend
	}
	return false
}

// SurfaceSize implements gpucore.Device.
func (d *Device) SurfaceSize() (int, int) { return d.surface.width, d.surface.height }

// ResizeSurface resizes the visible surface and clears it.
func (d *Device) ResizeSurface(width, height int) error {
	if err := d.resizeTexture(d.surface, width, height); err != nil {
		return err
	}
	return d.clearTexture(d.surface, f32.Vec4{})
}

// SetSurface uploads img as the visible surface, resizing the surface to
// img's bounds. Pixels are read as straight (non-premultiplied) color.
func (d *Device) SetSurface(img image.Image) error {
	data, w, h := encodeRGBA(img)
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: image %dx%d", gpucore.ErrInvalidSize, w, h)
	}
	if w != d.surface.width || h != d.surface.height {
		if err := d.resizeTexture(d.surface, w, h); err != nil {
			return err
		}
	}
	d.writeTexture(d.surface, data)
	return nil
}

// ReadSurface reads the visible surface back from the GPU.
func (d *Device) ReadSurface() (*image.RGBA, error) {
	data, pitch, err := d.readback(d.surface)
	if err != nil {
		return nil, err
	}
	return decodeRGBA(data, d.surface.width, d.surface.height, pitch), nil
}

// SurfaceView returns the texture view of the visible surface, for hosts
// that present it themselves. It is replaced when the surface is resized.
func (d *Device) SurfaceView() hal.TextureView { return d.surface.view }

func (d *Device) allocID() uint64 {
	d.nextID++
	return d.nextID
}

// submit finishes encoding, submits the command buffer and waits for the
// GPU to complete it.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, d.cfg.timeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("wgpu: wait for GPU: timed out after %v", d.cfg.timeout)
	}
	return nil
}

// beginEncoding creates a command encoder ready for recording.
func (d *Device) beginEncoding(label string) (hal.CommandEncoder, error) {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	return encoder, nil
}

// discardHandler is a slog.Handler that drops every record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
