package gpucore

import (
	"errors"
	"math"

	"golang.org/x/image/math/f32"
)

// Common device errors.
var (
	// ErrUnknownResource is returned when an ID does not name a live
	// resource of the expected kind.
	ErrUnknownResource = errors.New("gpucore: unknown resource")

	// ErrPassEnded is returned when recording into a pass after End.
	ErrPassEnded = errors.New("gpucore: render pass already ended")

	// ErrUnsupportedFormat is returned for texture formats a device cannot
	// store or render to.
	ErrUnsupportedFormat = errors.New("gpucore: unsupported texture format")

	// ErrInvalidSize is returned for zero or negative dimensions.
	ErrInvalidSize = errors.New("gpucore: invalid size")
)

// Device is the render device the heatmap passes draw with.
//
// A Device is used from a single goroutine, the one driving the frame
// loop. Draws are executed in recording order.
type Device interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Supports reports whether an optional capability is available.
	Supports(f Feature) bool

	// SurfaceSize returns the size of the visible surface in pixels.
	SurfaceSize() (width, height int)

	// CreateProgram compiles and links a program. Compilation failures
	// are returned as *CompileError.
	CreateProgram(desc *ProgramDesc) (ProgramID, error)
	DestroyProgram(id ProgramID)

	// CreateVertexBuffer uploads vec2<f32> positions.
	CreateVertexBuffer(label string, vertices []f32.Vec2) (BufferID, error)

	// CreateIndexBuffer uploads 16-bit triangle indices.
	CreateIndexBuffer(label string, indices []uint16) (BufferID, error)
	DestroyBuffer(id BufferID)

	CreateTexture(desc *TextureDesc) (TextureID, error)

	// ResizeTexture reallocates the storage of a texture. The contents are
	// undefined afterwards and framebuffers using it stay valid.
	ResizeTexture(id TextureID, width, height int) error
	DestroyTexture(id TextureID)

	// CreateFramebuffer makes a render target writing into color.
	CreateFramebuffer(label string, color TextureID) (FramebufferID, error)
	DestroyFramebuffer(id FramebufferID)

	// BeginPass starts recording a render pass.
	BeginPass(desc *PassDesc) (RenderPass, error)

	// ReadTexture returns the texels of a texture in row-major order,
	// top row first.
	ReadTexture(id TextureID) ([]f32.Vec4, error)
}

// RenderPass records draws into the pass target.
type RenderPass interface {
	Draw(call *DrawCall) error

	// End finishes the pass. Its draws are complete, and their results
	// visible to later passes, once End returns.
	End() error
}

// Shader is the Go implementation of a program's vertex and fragment
// stages, executed by devices that shade on the host.
//
// Fragment may be called from several goroutines at once for the same
// draw, so implementations must not mutate shared state.
type Shader interface {
	// Vertex transforms a vertex position to clip space.
	Vertex(u Uniforms, pos f32.Vec2) f32.Vec4

	// Fragment shades one fragment. keep is false when the fragment is
	// discarded.
	Fragment(u Uniforms, frag *Fragment) (color f32.Vec4, keep bool)
}

// Fragment is the per-pixel input of Shader.Fragment.
type Fragment struct {
	// Coord is the framebuffer position of the pixel center, the value of
	// WGSL @builtin(position).xy.
	Coord f32.Vec2

	// Textures are the draw's textures in binding order.
	Textures []Sampler
}

// Sampler gives a fragment read access to a bound texture.
type Sampler interface {
	Size() (width, height int)

	// Load returns the texel at (x, y). Coordinates are clamped to the
	// texture edge.
	Load(x, y int) f32.Vec4
}

// LoadUV returns the texel nearest to the normalized coordinate uv,
// matching the textureLoad(t, vec2<i32>(uv * dims)) idiom of the WGSL
// programs.
func LoadUV(s Sampler, uv f32.Vec2) f32.Vec4 {
	w, h := s.Size()
	x := math.Floor(float64(uv[0] * float32(w)))
	y := math.Floor(float64(uv[1] * float32(h)))
	return s.Load(int(x), int(y))
}

// NDC converts a fragment coordinate to normalized device coordinates for
// a target of the given size.
func NDC(coord f32.Vec2, width, height int) f32.Vec2 {
	return f32.Vec2{
		coord[0]/float32(width)*2 - 1,
		1 - coord[1]/float32(height)*2,
	}
}
