// Package gpucore provides the render device abstraction shared by the
// heatmap passes and the device backends.
//
// The passes in internal/pass describe their work once, in terms of the
// [Device] interface, and each backend translates it to a concrete
// executor:
//
//	               +------------------+
//	               |  internal/pass   |
//	               | Mask / IDW /     |
//	               | Composite        |
//	               +--------+---------+
//	                        | gpucore.Device
//	         +--------------+--------------+
//	         |                             |
//	+--------v---------+          +--------v---------+
//	| backend/software |          |   backend/wgpu   |
//	| (CPU raster,     |          |  (hal.Device,    |
//	|  Go shaders)     |          |   WGSL shaders)  |
//	+------------------+          +------------------+
//
// # Programs
//
// A program pairs a WGSL source (entry points vs_main and fs_main) with a
// [Shader], the Go implementation of the same stages. Every device
// validates the WGSL through [CompileProgram] when the program is created,
// so a broken shader fails initialization on every backend with a
// [*CompileError] carrying the compiler diagnostic.
//
// Programs share one binding convention: group 0 binding 0 is the uniform
// block written by [Uniforms.WriteUniforms]; bindings 1..n are the
// program's textures in draw order. Vertex input is a single vec2<f32>
// position at location 0.
//
// # Resource Management
//
// Resources are referenced by opaque IDs ([TextureID], [BufferID],
// [FramebufferID], [ProgramID]). The zero ID is invalid for every kind
// except [FramebufferID], where zero names the visible surface ([Screen]).
// Each Create* method has a matching Destroy* method; destroying an
// unknown or already destroyed ID is a no-op.
//
// # Coordinate Conventions
//
// Fragment coordinates have their origin at the top-left of the target,
// with pixel centers at half-integer positions. Normalized device
// coordinates map x=-1 to the left edge and y=+1 to the top edge.
package gpucore
