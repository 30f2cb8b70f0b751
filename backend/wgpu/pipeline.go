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

// pipelineKey identifies a render pipeline: a program combined with the
// fixed-function state of the pass drawing it.
type pipelineKey struct {
	program  gpucore.ProgramID
	blend    gpucore.BlendState
	format   gputypes.TextureFormat
	topology gputypes.PrimitiveTopology
}

// vertexLayout is the single vec2<f32> position stream every program reads.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: 8,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		},
	}}
}

// pipeline returns the cached pipeline for key, creating it on first use.
func (d *Device) pipeline(key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}
	prog, ok := d.programs[key.program]
	if !ok {
		return nil, fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, key.program)
	}

	p, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  prog.label + "_pipeline",
		Layout: prog.pipeLayout,
		Vertex: hal.VertexState{
			Module:     prog.module,
			EntryPoint: gpucore.VertexEntryPoint,
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     prog.module,
			EntryPoint: gpucore.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    key.format,
				Blend:     blendState(key.blend),
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: key.topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %q: %w", prog.label, err)
	}

	d.pipelines[key] = p
	d.log.Load().Debug("wgpu: pipeline created", "program", prog.label,
		"format", key.format, "blend", key.blend.Enabled, "topology", key.topology)
	return p, nil
}

// dropPipelines destroys the cached pipelines of a program.
func (d *Device) dropPipelines(id gpucore.ProgramID) {
	for key, p := range d.pipelines {
		if key.program == id {
			d.device.DestroyRenderPipeline(p)
			delete(d.pipelines, key)
		}
	}
}
