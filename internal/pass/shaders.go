package pass

import (
	_ "embed"
	"math"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
	"github.com/gogpu/heatmap/mat4"
)

// Embedded WGSL sources. Each Go shader below implements the same stages
// for devices that shade on the host.

//go:embed shaders/mask.wgsl
var maskShaderSource string

//go:embed shaders/idw.wgsl
var idwShaderSource string

//go:embed shaders/composite.wgsl
var compositeShaderSource string

// DefaultColorMapWGSL defines value_to_color and value_to_color4 for the
// default ramp.
//
//go:embed shaders/colormap.wgsl
var DefaultColorMapWGSL string

// IDW weighting guards, shared with idw.wgsl.
const (
	// MinDistance is the smallest pixel distance used for weighting, so a
	// pixel on top of a sample gets a finite weight.
	MinDistance = 1e-3

	// MaxWeight caps a single sample's weight.
	MaxWeight = 1e20

	// HalfMinWeight is the weight of a sample one target diagonal away on
	// an IDWFallbackFormat target, the smallest normal half float.
	HalfMinWeight = 0x1p-14

	// HalfMaxWeight is the largest finite half float. Per-sample caps on
	// IDWFallbackFormat targets divide it so the sums stay finite.
	HalfMaxWeight = 65504
)

// --- mask ---

type maskUniforms struct {
	mvp            mat4.Matrix
	model          mat4.Matrix
	drawingCircles bool
}

func (u *maskUniforms) WriteUniforms(w *gpucore.UniformWriter) {
	w.Mat4(u.mvp)
	w.Mat4(u.model)
	w.Bool(u.drawingCircles)
}

type maskShader struct{}

func (maskShader) Vertex(u gpucore.Uniforms, pos f32.Vec2) f32.Vec4 {
	mu := u.(*maskUniforms)
	return mat4.Dot(mu.mvp, mat4.Dot(mu.model, f32.Vec4{pos[0], pos[1], 0, 1}))
}

func (maskShader) Fragment(u gpucore.Uniforms, _ *gpucore.Fragment) (f32.Vec4, bool) {
	if u.(*maskUniforms).drawingCircles {
		return f32.Vec4{0, 1, 0, 1}, true
	}
	return f32.Vec4{1, 0, 0, 1}, true
}

// --- idw ---

type idwUniforms struct {
	mvpInverse        mat4.Matrix
	xi                f32.Vec2
	xiImageSpace      f32.Vec2
	framebufferSize   f32.Vec2
	ui                float32
	p                 float32
	pointRadius       float32
	fasterPointRadius bool
	weighting
}

// weighting maps pixel distances into the range of the target format:
// w = min(scale * (reference / d)^p, max).
type weighting struct {
	scale     float32
	reference float32
	max       float32
}

func (u *idwUniforms) WriteUniforms(w *gpucore.UniformWriter) {
	w.Mat4(u.mvpInverse)
	w.Vec2(u.xi)
	w.Vec2(u.xiImageSpace)
	w.Vec2(u.framebufferSize)
	w.F32(u.ui)
	w.F32(u.p)
	w.F32(u.pointRadius)
	w.Bool(u.fasterPointRadius)
	w.F32(u.scale)
	w.F32(u.reference)
	w.F32(u.max)
}

type idwShader struct{}

func (idwShader) Vertex(_ gpucore.Uniforms, pos f32.Vec2) f32.Vec4 {
	return f32.Vec4{pos[0], pos[1], 0, 1}
}

func (idwShader) Fragment(u gpucore.Uniforms, frag *gpucore.Fragment) (f32.Vec4, bool) {
	iu := u.(*idwUniforms)
	size := iu.framebufferSize
	ndc := f32.Vec2{
		frag.Coord[0]/size[0]*2 - 1,
		1 - frag.Coord[1]/size[1]*2,
	}

	w := weight(ndc, iu.xiImageSpace, size, iu.p, iu.weighting)

	var inside float32
	if iu.fasterPointRadius {
		if world, ok := unproject(iu.mvpInverse, ndc); ok {
			dx := float64(world[0] - iu.xi[0])
			dy := float64(world[1] - iu.xi[1])
			if math.Hypot(dx, dy) <= float64(iu.pointRadius) {
				inside = 1
			}
		}
	}
	return f32.Vec4{w * iu.ui, w, inside, 0}, true
}

// weight is the inverse distance weight of a sample at xi for the pixel at
// ndc, with distances measured in target pixels.
func weight(ndc, xi, size f32.Vec2, p float32, wt weighting) float32 {
	dx := float64((ndc[0] - xi[0]) * size[0] * 0.5)
	dy := float64((ndc[1] - xi[1]) * size[1] * 0.5)
	d := max(math.Hypot(dx, dy), MinDistance)
	w := float64(wt.scale) * math.Pow(float64(wt.reference)/d, float64(p))
	return float32(min(w, float64(wt.max)))
}

// unproject intersects the view ray through ndc with the z = 0 plane.
func unproject(inv mat4.Matrix, ndc f32.Vec2) (f32.Vec2, bool) {
	near := mat4.Dot(inv, f32.Vec4{ndc[0], ndc[1], -1, 1})
	far := mat4.Dot(inv, f32.Vec4{ndc[0], ndc[1], 1, 1})
	if near[3] == 0 || far[3] == 0 {
		return f32.Vec2{}, false
	}
	for i := range 3 {
		near[i] /= near[3]
		far[i] /= far[3]
	}
	dz := far[2] - near[2]
	if dz == 0 {
		return f32.Vec2{}, false
	}
	t := -near[2] / dz
	return f32.Vec2{
		near[0] + (far[0]-near[0])*t,
		near[1] + (far[1]-near[1])*t,
	}, true
}

// --- composite ---

type compositeUniforms struct {
	screenSize       f32.Vec2
	opacity          float32
	average          float32
	averageThreshold float32
	radiusMode       RadiusMode
}

func (u *compositeUniforms) WriteUniforms(w *gpucore.UniformWriter) {
	w.Vec2(u.screenSize)
	w.F32(u.opacity)
	w.F32(u.average)
	w.F32(u.averageThreshold)
	w.U32(uint32(u.radiusMode))
}

type compositeShader struct {
	colors ColorMap
}

func (compositeShader) Vertex(_ gpucore.Uniforms, pos f32.Vec2) f32.Vec4 {
	return f32.Vec4{pos[0], pos[1], 0, 1}
}

func (s compositeShader) Fragment(u gpucore.Uniforms, frag *gpucore.Fragment) (f32.Vec4, bool) {
	cu := u.(*compositeUniforms)
	uv := f32.Vec2{frag.Coord[0] / cu.screenSize[0], frag.Coord[1] / cu.screenSize[1]}
	mask := gpucore.LoadUV(frag.Textures[0], uv)
	idw := gpucore.LoadUV(frag.Textures[1], uv)

	switch {
	case mask[0] == 0:
		return f32.Vec4{}, false
	case cu.radiusMode == RadiusCircles && mask[1] == 0:
		return f32.Vec4{}, false
	case cu.radiusMode == RadiusInShader && idw[2] == 0:
		return f32.Vec4{}, false
	case idw[1] == 0:
		return f32.Vec4{}, false
	}

	value := idw[0] / idw[1]
	if !(math.Abs(float64(value)) <= math.MaxFloat32) {
		return f32.Vec4{}, false
	}
	if float32(math.Abs(float64(value-cu.average))) < cu.averageThreshold {
		return f32.Vec4{}, false
	}
	return f32.Vec4(s.colors.Color4(value, cu.opacity)), true
}
