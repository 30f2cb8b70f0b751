// Package mat4 implements the 4x4 single-precision transforms the heatmap
// passes exchange with the host and with shaders.
package mat4

import (
	"errors"
	"fmt"

	"golang.org/x/image/math/f32"
)

// ErrSize is returned by FromSlice when the input does not hold 16 values.
var ErrSize = errors.New("mat4: matrix must have 16 elements")

// Matrix is a 4x4 matrix stored in column-major order, the layout used by
// WGSL mat4x4<f32> uniforms and by map hosts handing over their
// model-view-projection matrix:
//
//	| m[0] m[4] m[8]  m[12] |
//	| m[1] m[5] m[9]  m[13] |
//	| m[2] m[6] m[10] m[14] |
//	| m[3] m[7] m[11] m[15] |
type Matrix [16]float32

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FromSlice copies a 16-element column-major slice into a Matrix.
func FromSlice(s []float32) (Matrix, error) {
	var m Matrix
	if len(s) != len(m) {
		return m, fmt.Errorf("%w: got %d", ErrSize, len(s))
	}
	copy(m[:], s)
	return m, nil
}

// Translate post-multiplies m by a translation and returns m for chaining.
func (m *Matrix) Translate(x, y, z float32) *Matrix {
	for i := 0; i < 4; i++ {
		m[12+i] += m[i]*x + m[4+i]*y + m[8+i]*z
	}
	return m
}

// Scale post-multiplies m by a scale and returns m for chaining.
func (m *Matrix) Scale(x, y, z float32) *Matrix {
	for i := 0; i < 4; i++ {
		m[i] *= x
		m[4+i] *= y
		m[8+i] *= z
	}
	return m
}

// Dot returns the product m·v.
func Dot(m Matrix, v f32.Vec4) f32.Vec4 {
	var r f32.Vec4
	for i := 0; i < 4; i++ {
		r[i] = m[i]*v[0] + m[4+i]*v[1] + m[8+i]*v[2] + m[12+i]*v[3]
	}
	return r
}

// Mul returns the product a·b.
func Mul(a, b Matrix) Matrix {
	var r Matrix
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = s
		}
	}
	return r
}

// Ortho returns an orthographic projection mapping the box
// [left,right]×[bottom,top]×[near,far] onto the [-1,1] clip cube.
func Ortho(left, right, bottom, top, near, far float32) Matrix {
	m := Identity()
	m[0] = 2 / (right - left)
	m[5] = 2 / (top - bottom)
	m[10] = -2 / (far - near)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom)
	m[14] = -(far + near) / (far - near)
	return m
}

// Project transforms the world point (x, y, 0) by m and performs the
// perspective divide. ok is false when the point lies on or behind the
// eye plane (w <= 0) and has no normalized device coordinate.
func Project(m Matrix, x, y float32) (ndc f32.Vec2, ok bool) {
	c := Dot(m, f32.Vec4{x, y, 0, 1})
	if c[3] <= 0 {
		return f32.Vec2{}, false
	}
	return f32.Vec2{c[0] / c[3], c[1] / c[3]}, true
}

// Inverse returns the inverse of m computed by cofactor expansion.
// ok is false when the determinant is exactly zero.
func Inverse(m Matrix) (inv Matrix, ok bool) {
	var a [16]float64
	for i, v := range m {
		a[i] = float64(v)
	}

	var c [16]float64
	c[0] = a[5]*a[10]*a[15] - a[5]*a[11]*a[14] - a[9]*a[6]*a[15] +
		a[9]*a[7]*a[14] + a[13]*a[6]*a[11] - a[13]*a[7]*a[10]
	c[4] = -a[4]*a[10]*a[15] + a[4]*a[11]*a[14] + a[8]*a[6]*a[15] -
		a[8]*a[7]*a[14] - a[12]*a[6]*a[11] + a[12]*a[7]*a[10]
	c[8] = a[4]*a[9]*a[15] - a[4]*a[11]*a[13] - a[8]*a[5]*a[15] +
		a[8]*a[7]*a[13] + a[12]*a[5]*a[11] - a[12]*a[7]*a[9]
	c[12] = -a[4]*a[9]*a[14] + a[4]*a[10]*a[13] + a[8]*a[5]*a[14] -
		a[8]*a[6]*a[13] - a[12]*a[5]*a[10] + a[12]*a[6]*a[9]
	c[1] = -a[1]*a[10]*a[15] + a[1]*a[11]*a[14] + a[9]*a[2]*a[15] -
		a[9]*a[3]*a[14] - a[13]*a[2]*a[11] + a[13]*a[3]*a[10]
	c[5] = a[0]*a[10]*a[15] - a[0]*a[11]*a[14] - a[8]*a[2]*a[15] +
		a[8]*a[3]*a[14] + a[12]*a[2]*a[11] - a[12]*a[3]*a[10]
	c[9] = -a[0]*a[9]*a[15] + a[0]*a[11]*a[13] + a[8]*a[1]*a[15] -
		a[8]*a[3]*a[13] - a[12]*a[1]*a[11] + a[12]*a[3]*a[9]
	c[13] = a[0]*a[9]*a[14] - a[0]*a[10]*a[13] - a[8]*a[1]*a[14] +
		a[8]*a[2]*a[13] + a[12]*a[1]*a[10] - a[12]*a[2]*a[9]
	c[2] = a[1]*a[6]*a[15] - a[1]*a[7]*a[14] - a[5]*a[2]*a[15] +
		a[5]*a[3]*a[14] + a[13]*a[2]*a[7] - a[13]*a[3]*a[6]
	c[6] = -a[0]*a[6]*a[15] + a[0]*a[7]*a[14] + a[4]*a[2]*a[15] -
		a[4]*a[3]*a[14] - a[12]*a[2]*a[7] + a[12]*a[3]*a[6]
	c[10] = a[0]*a[5]*a[15] - a[0]*a[7]*a[13] - a[4]*a[1]*a[15] +
		a[4]*a[3]*a[13] + a[12]*a[1]*a[7] - a[12]*a[3]*a[5]
	c[14] = -a[0]*a[5]*a[14] + a[0]*a[6]*a[13] + a[4]*a[1]*a[14] -
		a[4]*a[2]*a[13] - a[12]*a[1]*a[6] + a[12]*a[2]*a[5]
	c[3] = -a[1]*a[6]*a[11] + a[1]*a[7]*a[10] + a[5]*a[2]*a[11] -
		a[5]*a[3]*a[10] - a[9]*a[2]*a[7] + a[9]*a[3]*a[6]
	c[7] = a[0]*a[6]*a[11] - a[0]*a[7]*a[10] - a[4]*a[2]*a[11] +
		a[4]*a[3]*a[10] + a[8]*a[2]*a[7] - a[8]*a[3]*a[6]
	c[11] = -a[0]*a[5]*a[11] + a[0]*a[7]*a[9] + a[4]*a[1]*a[11] -
		a[4]*a[3]*a[9] - a[8]*a[1]*a[7] + a[8]*a[3]*a[5]
	c[15] = a[0]*a[5]*a[10] - a[0]*a[6]*a[9] - a[4]*a[1]*a[10] +
		a[4]*a[2]*a[9] + a[8]*a[1]*a[6] - a[8]*a[2]*a[5]

	det := a[0]*c[0] + a[1]*c[4] + a[2]*c[8] + a[3]*c[12]
	if det == 0 {
		return Matrix{}, false
	}

	invDet := 1 / det
	for i := range c {
		inv[i] = float32(c[i] * invDet)
	}
	return inv, true
}
