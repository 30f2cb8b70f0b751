// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/x448/float16"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
)

// copyPitchAlignment is the WebGPU alignment of BytesPerRow in
// texture-buffer copies.
const copyPitchAlignment = 256

// bytesPerTexel returns the texel size of the formats the device supports.
func bytesPerTexel(f gputypes.TextureFormat) (int, bool) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4, true
	case gputypes.TextureFormatRGBA16Float:
		return 8, true
	case gputypes.TextureFormatRGBA32Float:
		return 16, true
	}
	return 0, false
}

// alignedBytesPerRow returns the padded row pitch for a copy of width
// texels.
func alignedBytesPerRow(width, texelSize int) uint32 {
	row := uint32(width * texelSize) //nolint:gosec // texture sizes fit uint32
	return (row + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// decodeTexels converts a padded readback of a texture to float texels,
// top row first.
func decodeTexels(f gputypes.TextureFormat, data []byte, width, height int, pitch uint32) ([]f32.Vec4, error) {
	size, ok := bytesPerTexel(f)
	if !ok {
		return nil, fmt.Errorf("%w: %v", gpucore.ErrUnsupportedFormat, f)
	}
	if need := int(pitch)*(height-1) + width*size; height > 0 && len(data) < need {
		return nil, fmt.Errorf("wgpu: readback of %d bytes, want %d", len(data), need)
	}

	out := make([]f32.Vec4, width*height)
	for y := range height {
		row := data[int(pitch)*y:]
		for x := range width {
			px := row[x*size : (x+1)*size]
			var c f32.Vec4
			switch f {
			case gputypes.TextureFormatRGBA8Unorm:
				c = f32.Vec4{unorm(px[0]), unorm(px[1]), unorm(px[2]), unorm(px[3])}
			case gputypes.TextureFormatBGRA8Unorm:
				c = f32.Vec4{unorm(px[2]), unorm(px[1]), unorm(px[0]), unorm(px[3])}
			case gputypes.TextureFormatRGBA16Float:
				for i := range c {
					c[i] = float16.Frombits(binary.LittleEndian.Uint16(px[i*2:])).Float32()
				}
			case gputypes.TextureFormatRGBA32Float:
				for i := range c {
					c[i] = math.Float32frombits(binary.LittleEndian.Uint32(px[i*4:]))
				}
			}
			out[y*width+x] = c
		}
	}
	return out, nil
}

func unorm(b byte) float32 { return float32(b) / 255 }

// decodeRGBA copies a padded RGBA8 readback into an image.
func decodeRGBA(data []byte, width, height int, pitch uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		src := data[int(pitch)*y:]
		copy(img.Pix[y*img.Stride:y*img.Stride+width*4], src[:width*4])
	}
	return img
}

// encodeRGBA returns img as tightly packed straight-alpha RGBA8 rows,
// the layout of the surface texture.
func encodeRGBA(img image.Image) (data []byte, width, height int) {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && n.Stride == b.Dx()*4 {
		return n.Pix, b.Dx(), b.Dy()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst.Pix, b.Dx(), b.Dy()
}

// vertexBytes serializes vec2<f32> positions.
func vertexBytes(vertices []f32.Vec2) []byte {
	buf := make([]byte, len(vertices)*8)
	for i, v := range vertices {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(v[1]))
	}
	return buf
}

// indexBytes serializes 16-bit indices, padded to a multiple of 4 bytes
// as buffer writes require.
func indexBytes(indices []uint16) []byte {
	buf := make([]byte, (len(indices)*2+3)&^3)
	for i, v := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// blendState converts the pass blend to a color target blend. Color and
// alpha share the factors.
func blendState(b gpucore.BlendState) *gputypes.BlendState {
	if !b.Enabled {
		return nil
	}
	c := gputypes.BlendComponent{
		SrcFactor: b.Src,
		DstFactor: b.Dst,
		Operation: gputypes.BlendOperationAdd,
	}
	return &gputypes.BlendState{Color: c, Alpha: c}
}

// clearColor converts a clear value to the attachment clear color.
func clearColor(c f32.Vec4) gputypes.Color {
	return gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}
