// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/heatmap/gpucore"
)

// recordedDraw is a draw with its resources resolved, ready for encoding.
type recordedDraw struct {
	pipeline  hal.RenderPipeline
	bindGroup hal.BindGroup
	vertices  *buffer
	indices   *buffer
	sampled   []*texture
}

// renderPass records draws and encodes them all on End.
type renderPass struct {
	dev    *Device
	desc   gpucore.PassDesc
	target *texture
	width  int
	height int
	draws  []recordedDraw

	// Per-draw uniform buffers, released after submission.
	uniforms []hal.Buffer
	ended    bool
}

// BeginPass implements gpucore.Device.
func (d *Device) BeginPass(desc *gpucore.PassDesc) (gpucore.RenderPass, error) {
	t, err := d.target(desc.Target)
	if err != nil {
		return nil, err
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
		desc:   *desc,
		target: t,
		width:  min(w, t.width),
		height: min(h, t.height),
	}, nil
}

// Draw implements gpucore.RenderPass.
func (p *renderPass) Draw(call *gpucore.DrawCall) error {
	if p.ended {
		return gpucore.ErrPassEnded
	}
	d := p.dev

	prog, ok := d.programs[call.Program]
	if !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, call.Program)
	}
	if len(call.Textures) != prog.textures {
		return fmt.Errorf("wgpu: program %q binds %d textures, draw supplies %d",
			prog.label, prog.textures, len(call.Textures))
	}
	vb, ok := d.buffers[call.Vertices]
	if !ok || vb.index {
		return fmt.Errorf("%w: vertex buffer %d", gpucore.ErrUnknownResource, call.Vertices)
	}
	var ib *buffer
	if call.Indices != gpucore.InvalidID {
		if ib, ok = d.buffers[call.Indices]; !ok || !ib.index {
			return fmt.Errorf("%w: index buffer %d", gpucore.ErrUnknownResource, call.Indices)
		}
		if call.Topology != gputypes.PrimitiveTopologyTriangleList {
			return fmt.Errorf("wgpu: indexed draws need a triangle list, got %v", call.Topology)
		}
	}
	switch call.Topology {
	case gputypes.PrimitiveTopologyTriangleList, gputypes.PrimitiveTopologyTriangleStrip:
	default:
		return fmt.Errorf("wgpu: unsupported topology %v", call.Topology)
	}

	sampled := make([]*texture, len(call.Textures))
	for i, id := range call.Textures {
		t, ok := d.textures[id]
		if !ok {
			return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
		}
		if t == p.target {
			return fmt.Errorf("wgpu: texture %d is both sampled and rendered to", id)
		}
		sampled[i] = t
	}

	pipeline, err := d.pipeline(pipelineKey{
		program:  call.Program,
		blend:    p.desc.Blend,
		format:   p.target.format,
		topology: call.Topology,
	})
	if err != nil {
		return err
	}
	bg, err := p.bindGroup(prog, call, sampled)
	if err != nil {
		return err
	}

	p.draws = append(p.draws, recordedDraw{
		pipeline:  pipeline,
		bindGroup: bg,
		vertices:  vb,
		indices:   ib,
		sampled:   sampled,
	})
	return nil
}

// bindGroup uploads the draw's uniforms and binds them with its textures.
func (p *renderPass) bindGroup(prog *program, call *gpucore.DrawCall, sampled []*texture) (hal.BindGroup, error) {
	d := p.dev
	var entries []gputypes.BindGroupEntry

	if prog.uniformSize > 0 {
		if call.Uniforms == nil {
			return nil, fmt.Errorf("wgpu: program %q needs uniforms", prog.label)
		}
		var w gpucore.UniformWriter
		call.Uniforms.WriteUniforms(&w)
		data := w.Bytes()
		if uint64(len(data)) != prog.uniformSize {
			return nil, fmt.Errorf("wgpu: program %q uniforms are %d bytes, want %d",
				prog.label, len(data), prog.uniformSize)
		}
		ub, err := d.createBuffer(prog.label+"_uniforms", data, gputypes.BufferUsageUniform)
		if err != nil {
			return nil, err
		}
		p.uniforms = append(p.uniforms, ub)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: 0,
			Resource: gputypes.BufferBinding{
				Buffer: ub.NativeHandle(), Offset: 0, Size: prog.uniformSize,
			},
		})
	}
	for i, t := range sampled {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1), //nolint:gosec // small binding index
			Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
		})
	}

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   prog.label + "_bind_group",
		Layout:  prog.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group %q: %w", prog.label, err)
	}
	return bg, nil
}

// End implements gpucore.RenderPass. It encodes the recorded draws, submits
// them and waits until they complete.
func (p *renderPass) End() error {
	if p.ended {
		return gpucore.ErrPassEnded
	}
	p.ended = true
	defer p.release()

	d := p.dev
	encoder, err := d.beginEncoding(p.desc.Label)
	if err != nil {
		return err
	}

	for _, draw := range p.draws {
		for _, t := range draw.sampled {
			transition(encoder, t, gputypes.TextureUsageTextureBinding)
		}
	}
	transition(encoder, p.target, gputypes.TextureUsageRenderAttachment)

	loadOp := gputypes.LoadOpLoad
	if p.desc.Clear {
		loadOp = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       p.target.view,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearColor(p.desc.ClearColor),
		}},
	})
	rp.SetViewport(0, 0, float32(p.width), float32(p.height), 0, 1)

	for _, draw := range p.draws {
		rp.SetPipeline(draw.pipeline)
		rp.SetBindGroup(0, draw.bindGroup, nil)
		rp.SetVertexBuffer(0, draw.vertices.buf, 0)
		if draw.indices != nil {
			rp.SetIndexBuffer(draw.indices.buf, gputypes.IndexFormatUint16, 0)
			rp.DrawIndexed(draw.indices.count, 1, 0, 0, 0)
		} else {
			rp.Draw(draw.vertices.count, 1, 0, 0)
		}
	}
	rp.End()

	if err := d.submit(encoder); err != nil {
		return fmt.Errorf("pass %q: %w", p.desc.Label, err)
	}
	return nil
}

// release frees the per-draw bind groups and uniform buffers.
func (p *renderPass) release() {
	d := p.dev
	for _, draw := range p.draws {
		d.device.DestroyBindGroup(draw.bindGroup)
	}
	for _, ub := range p.uniforms {
		d.device.DestroyBuffer(ub)
	}
	p.draws = nil
	p.uniforms = nil
}
