// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"math"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/internal/parallel"
)

// point is a vertex in window coordinates: origin top-left, y down.
type point struct{ x, y float64 }

// drawState is everything the rasterizer needs for one draw call.
type drawState struct {
	target   *texture
	width    int // viewport
	height   int
	blend    gpucore.BlendState
	shader   gpucore.Shader
	uniforms gpucore.Uniforms
	samplers []gpucore.Sampler
}

// toWindow runs the vertex stage and maps the result to window
// coordinates. ok is false for vertices on or behind the eye plane, which
// the rasterizer does not clip.
func (st *drawState) toWindow(pos f32.Vec2) (point, bool) {
	clip := st.shader.Vertex(st.uniforms, pos)
	if !(clip[3] > 0) {
		return point{}, false
	}
	nx := float64(clip[0] / clip[3])
	ny := float64(clip[1] / clip[3])
	return point{
		x: (nx + 1) * 0.5 * float64(st.width),
		y: (1 - ny) * 0.5 * float64(st.height),
	}, true
}

// edge is the signed doubled area of (a, b, p); positive when p lies on
// the inner side of a→b for a triangle with positive area.
func edge(a, b, p point) float64 {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

// ownsEdge implements the tie-break for pixel centers exactly on an edge.
// A shared edge is walked in opposite directions by its two triangles, so
// exactly one of them owns it.
func ownsEdge(a, b point) bool {
	dy := b.y - a.y
	return dy > 0 || (dy == 0 && b.x < a.x)
}

func covers(w float64, owned bool) bool {
	return w > 0 || (w == 0 && owned)
}

// triangle rasterizes and shades one triangle.
func (st *drawState) triangle(pool *parallel.WorkerPool, a, b, c point) {
	area := edge(a, b, c)
	if area == 0 || math.IsNaN(area) {
		return
	}
	if area < 0 {
		b, c = c, b
	}

	minX := max(int(math.Ceil(min(a.x, b.x, c.x)-0.5)), 0)
	maxX := min(int(math.Floor(max(a.x, b.x, c.x)-0.5)), min(st.width, st.target.width)-1)
	minY := max(int(math.Ceil(min(a.y, b.y, c.y)-0.5)), 0)
	maxY := min(int(math.Floor(max(a.y, b.y, c.y)-0.5)), min(st.height, st.target.height)-1)
	if minX > maxX || minY > maxY {
		return
	}

	ownBC, ownCA, ownAB := ownsEdge(b, c), ownsEdge(c, a), ownsEdge(a, b)

	pool.Rows(minY, maxY+1, func(y0, y1 int) {
		frag := gpucore.Fragment{Textures: st.samplers}
		for y := y0; y < y1; y++ {
			py := float64(y) + 0.5
			for x := minX; x <= maxX; x++ {
				p := point{float64(x) + 0.5, py}
				if !covers(edge(b, c, p), ownBC) ||
					!covers(edge(c, a, p), ownCA) ||
					!covers(edge(a, b, p), ownAB) {
					continue
				}

				frag.Coord = f32.Vec2{float32(p.x), float32(p.y)}
				color, keep := st.shader.Fragment(st.uniforms, &frag)
				if !keep {
					continue
				}
				dst := st.target.texels[y*st.target.width+x]
				st.target.store(x, y, blend(st.blend, color, dst))
			}
		}
	})
}
