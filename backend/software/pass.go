// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/heatmap/gpucore"
)

// renderPass executes draws immediately against its target.
type renderPass struct {
	dev    *Device
	target *texture
	width  int
	height int
	blend  gpucore.BlendState
	ended  bool
}

// Draw implements gpucore.RenderPass.
func (p *renderPass) Draw(call *gpucore.DrawCall) error {
	if p.ended {
		return gpucore.ErrPassEnded
	}

	prog, ok := p.dev.programs[call.Program]
	if !ok {
		return fmt.Errorf("%w: program %d", gpucore.ErrUnknownResource, call.Program)
	}
	if len(call.Textures) != prog.textures {
		return fmt.Errorf("software: program %q binds %d textures, draw supplies %d",
			prog.label, prog.textures, len(call.Textures))
	}
	vb, ok := p.dev.buffers[call.Vertices]
	if !ok {
		return fmt.Errorf("%w: vertex buffer %d", gpucore.ErrUnknownResource, call.Vertices)
	}

	indices, err := p.indices(call, len(vb.vertices))
	if err != nil {
		return err
	}

	samplers := make([]gpucore.Sampler, len(call.Textures))
	for i, id := range call.Textures {
		t, ok := p.dev.textures[id]
		if !ok {
			return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
		}
		if t == p.target {
			return fmt.Errorf("software: texture %d is both sampled and rendered to", id)
		}
		samplers[i] = t
	}

	st := &drawState{
		target:   p.target,
		width:    p.width,
		height:   p.height,
		blend:    p.blend,
		shader:   prog.shader,
		uniforms: call.Uniforms,
		samplers: samplers,
	}

	// Run the vertex stage once per vertex.
	window := make([]point, len(vb.vertices))
	visible := make([]bool, len(vb.vertices))
	for i, v := range vb.vertices {
		window[i], visible[i] = st.toWindow(v)
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if !visible[a] || !visible[b] || !visible[c] {
			continue
		}
		st.triangle(p.dev.pool, window[a], window[b], window[c])
	}
	return nil
}

// indices expands the draw's topology into a triangle list.
func (p *renderPass) indices(call *gpucore.DrawCall, vertexCount int) ([]int, error) {
	var src []int
	if call.Indices != gpucore.InvalidID {
		ib, ok := p.dev.buffers[call.Indices]
		if !ok {
			return nil, fmt.Errorf("%w: index buffer %d", gpucore.ErrUnknownResource, call.Indices)
		}
		src = make([]int, len(ib.indices))
		for i, idx := range ib.indices {
			if int(idx) >= vertexCount {
				return nil, fmt.Errorf("software: index %d out of range (%d vertices)", idx, vertexCount)
			}
			src[i] = int(idx)
		}
	} else {
		src = make([]int, vertexCount)
		for i := range src {
			src[i] = i
		}
	}

	switch call.Topology {
	case gputypes.PrimitiveTopologyTriangleList:
		return src, nil
	case gputypes.PrimitiveTopologyTriangleStrip:
		if len(src) < 3 {
			return nil, nil
		}
		out := make([]int, 0, (len(src)-2)*3)
		for i := 0; i+2 < len(src); i++ {
			// Alternate winding so every strip triangle keeps the
			// orientation of the first.
			if i%2 == 0 {
				out = append(out, src[i], src[i+1], src[i+2])
			} else {
				out = append(out, src[i+1], src[i], src[i+2])
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("software: unsupported topology %v", call.Topology)
	}
}

// End implements gpucore.RenderPass.
func (p *renderPass) End() error {
	if p.ended {
		return gpucore.ErrPassEnded
	}
	p.ended = true
	return nil
}
