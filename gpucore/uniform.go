package gpucore

import (
	"encoding/binary"
	"math"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/mat4"
)

// Uniforms is the per-draw parameter block of a program. Software devices
// hand the value to the program's Shader as is; GPU devices serialize it
// with WriteUniforms into the uniform buffer at group 0 binding 0.
type Uniforms interface {
	// WriteUniforms writes the fields in the order of the WGSL struct.
	WriteUniforms(w *UniformWriter)
}

// UniformWriter serializes values following the WGSL uniform address space
// layout rules: f32/i32/u32 align to 4 bytes, vec2 to 8, vec4 and mat4x4
// to 16, and the struct size rounds up to 16.
type UniformWriter struct {
	buf []byte
}

// Reset empties the writer, keeping its buffer.
func (w *UniformWriter) Reset() { w.buf = w.buf[:0] }

func (w *UniformWriter) align(n int) {
	for len(w.buf)%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *UniformWriter) f32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// F32 writes an f32 field.
func (w *UniformWriter) F32(v float32) {
	w.align(4)
	w.f32(v)
}

// U32 writes a u32 field.
func (w *UniformWriter) U32(v uint32) {
	w.align(4)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Bool writes a WGSL-compatible boolean flag as a u32 field.
func (w *UniformWriter) Bool(v bool) {
	if v {
		w.U32(1)
		return
	}
	w.U32(0)
}

// Vec2 writes a vec2<f32> field.
func (w *UniformWriter) Vec2(v f32.Vec2) {
	w.align(8)
	w.f32(v[0])
	w.f32(v[1])
}

// Vec4 writes a vec4<f32> field.
func (w *UniformWriter) Vec4(v f32.Vec4) {
	w.align(16)
	for _, c := range v {
		w.f32(c)
	}
}

// Mat4 writes a mat4x4<f32> field.
func (w *UniformWriter) Mat4(m mat4.Matrix) {
	w.align(16)
	for _, c := range m {
		w.f32(c)
	}
}

// Bytes returns the serialized block padded to a multiple of 16 bytes.
// The slice aliases the writer's buffer until the next Reset.
func (w *UniformWriter) Bytes() []byte {
	w.align(16)
	return w.buf
}

// UniformSize returns the serialized size of u.
func UniformSize(u Uniforms) int {
	var w UniformWriter
	u.WriteUniforms(&w)
	return len(w.Bytes())
}
