package gpucore

import (
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// Resource IDs
//
// These opaque IDs represent device resources. Each device maintains a
// mapping between IDs and its own backend resources.

// BufferID is an opaque handle to a vertex or index buffer.
type BufferID uint64

// TextureID is an opaque handle to a 2D texture.
type TextureID uint64

// FramebufferID is an opaque handle to a render target.
type FramebufferID uint64

// ProgramID is an opaque handle to a compiled vertex+fragment program.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// Screen is the framebuffer of the device's visible surface.
const Screen FramebufferID = 0

// Feature identifies an optional device capability.
type Feature uint8

// Capabilities the heatmap passes depend on.
const (
	// FeatureFloatTextures indicates 32-bit float textures can be sampled.
	FeatureFloatTextures Feature = iota + 1

	// FeatureFloatRenderTargets indicates float textures can be rendered to.
	FeatureFloatRenderTargets

	// FeatureFloatBlend indicates additive blending works on 32-bit float
	// render targets.
	FeatureFloatBlend
)

// String returns the feature name.
func (f Feature) String() string {
	switch f {
	case FeatureFloatTextures:
		return "float-textures"
	case FeatureFloatRenderTargets:
		return "float-render-targets"
	case FeatureFloatBlend:
		return "float-blend"
	default:
		return "unknown"
	}
}

// RequiredFeatures lists every feature the heatmap pipeline expects.
var RequiredFeatures = []Feature{
	FeatureFloatTextures,
	FeatureFloatRenderTargets,
	FeatureFloatBlend,
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label  string
	Width  int
	Height int
	Format gputypes.TextureFormat
}

// BlendState configures fixed-function blending for a pass. The same
// factors apply to the color and alpha channels, and the operation is
// always addition.
type BlendState struct {
	Enabled bool
	Src     gputypes.BlendFactor
	Dst     gputypes.BlendFactor
}

// BlendAdditive sums every draw into the target (ONE, ONE).
var BlendAdditive = BlendState{
	Enabled: true,
	Src:     gputypes.BlendFactorOne,
	Dst:     gputypes.BlendFactorOne,
}

// BlendAlpha is standard straight-alpha compositing.
var BlendAlpha = BlendState{
	Enabled: true,
	Src:     gputypes.BlendFactorSrcAlpha,
	Dst:     gputypes.BlendFactorOneMinusSrcAlpha,
}

// PassDesc describes a render pass: the target, how it is initialized and
// the fixed-function state shared by all draws recorded into it.
type PassDesc struct {
	Label string

	// Target is the framebuffer to render into. Screen renders to the
	// visible surface.
	Target FramebufferID

	// Width and Height set the viewport. Zero uses the target size.
	Width, Height int

	// Clear clears the target to ClearColor before the first draw.
	Clear      bool
	ClearColor f32.Vec4

	Blend BlendState

	// DepthTest enables depth testing. Heatmap targets carry no depth
	// attachment, so the test always passes; the flag is kept so a pass
	// states the state it expects.
	DepthTest bool
}

// DrawCall records one draw into a pass.
type DrawCall struct {
	Program ProgramID

	// Vertices holds vec2<f32> positions.
	Vertices BufferID

	// Indices selects indexed drawing when not InvalidID.
	Indices BufferID

	// Topology is PrimitiveTopologyTriangleList or
	// PrimitiveTopologyTriangleStrip.
	Topology gputypes.PrimitiveTopology

	Uniforms Uniforms

	// Textures are bound to bindings 1..len(Textures) in order.
	Textures []TextureID
}
