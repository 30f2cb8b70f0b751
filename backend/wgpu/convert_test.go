// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/google/go-cmp/cmp"
	"github.com/x448/float16"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
)

func TestAlignedBytesPerRow(t *testing.T) {
	tests := []struct {
		width, texel int
		want         uint32
	}{
		{1, 4, 256},
		{64, 4, 256},
		{65, 4, 512},
		{16, 16, 256},
		{100, 8, 1024},
	}
	for _, tt := range tests {
		if got := alignedBytesPerRow(tt.width, tt.texel); got != tt.want {
			t.Errorf("alignedBytesPerRow(%d, %d) = %d, want %d", tt.width, tt.texel, got, tt.want)
		}
	}
}

// padded lays out rows of texels with the given pitch.
func padded(rows [][]byte, pitch int) []byte {
	out := make([]byte, pitch*len(rows))
	for y, row := range rows {
		copy(out[y*pitch:], row)
	}
	return out
}

func TestDecodeTexels(t *testing.T) {
	half := func(vs ...float32) []byte {
		b := make([]byte, 0, len(vs)*2)
		for _, v := range vs {
			b = binary.LittleEndian.AppendUint16(b, float16.Fromfloat32(v).Bits())
		}
		return b
	}
	full := func(vs ...float32) []byte {
		b := make([]byte, 0, len(vs)*4)
		for _, v := range vs {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
		return b
	}

	tests := []struct {
		name   string
		format gputypes.TextureFormat
		rows   [][]byte
		width  int
		want   []f32.Vec4
	}{
		{
			name:   "rgba8",
			format: gputypes.TextureFormatRGBA8Unorm,
			rows:   [][]byte{{255, 0, 0, 255, 0, 51, 0, 0}, {0, 0, 255, 255, 0, 0, 0, 0}},
			width:  2,
			want:   []f32.Vec4{{1, 0, 0, 1}, {0, 0.2, 0, 0}, {0, 0, 1, 1}, {0, 0, 0, 0}},
		},
		{
			name:   "bgra8",
			format: gputypes.TextureFormatBGRA8Unorm,
			rows:   [][]byte{{255, 0, 0, 255}},
			width:  1,
			want:   []f32.Vec4{{0, 0, 1, 1}},
		},
		{
			name:   "rgba16float",
			format: gputypes.TextureFormatRGBA16Float,
			rows:   [][]byte{half(0.5, 2, -1, 1)},
			width:  1,
			want:   []f32.Vec4{{0.5, 2, -1, 1}},
		},
		{
			name:   "rgba32float",
			format: gputypes.TextureFormatRGBA32Float,
			rows:   [][]byte{full(1e6, 0.1, 3, 1)},
			width:  1,
			want:   []f32.Vec4{{1e6, 0.1, 3, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, _ := bytesPerTexel(tt.format)
			pitch := alignedBytesPerRow(tt.width, size)
			data := padded(tt.rows, int(pitch))

			got, err := decodeTexels(tt.format, data, tt.width, len(tt.rows), pitch)
			if err != nil {
				t.Fatalf("decodeTexels() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("decodeTexels() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeTexelsErrors(t *testing.T) {
	_, err := decodeTexels(gputypes.TextureFormatR8Unorm, make([]byte, 256), 1, 1, 256)
	if !errors.Is(err, gpucore.ErrUnsupportedFormat) {
		t.Errorf("decodeTexels(r8) error = %v, want %v", err, gpucore.ErrUnsupportedFormat)
	}
	if _, err := decodeTexels(gputypes.TextureFormatRGBA8Unorm, make([]byte, 200), 2, 2, 256); err == nil {
		t.Error("decodeTexels() with a short readback returned no error")
	}
}

func TestDecodeRGBA(t *testing.T) {
	data := padded([][]byte{{1, 2, 3, 4, 5, 6, 7, 8}, {9, 10, 11, 12, 13, 14, 15, 16}}, 256)
	img := decodeRGBA(data, 2, 2, 256)
	if got, want := img.RGBAAt(1, 1), (color.RGBA{13, 14, 15, 16}); got != want {
		t.Errorf("RGBAAt(1, 1) = %v, want %v", got, want)
	}
	if got, want := img.RGBAAt(0, 1), (color.RGBA{9, 10, 11, 12}); got != want {
		t.Errorf("RGBAAt(0, 1) = %v, want %v", got, want)
	}
}

func TestEncodeRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 12, 21))
	src.SetRGBA(11, 20, color.RGBA{0, 128, 0, 255})

	data, w, h := encodeRGBA(src)
	if w != 2 || h != 1 {
		t.Fatalf("encodeRGBA() size = %dx%d, want 2x1", w, h)
	}
	if diff := cmp.Diff([]byte{0, 0, 0, 0, 0, 128, 0, 255}, data); diff != "" {
		t.Errorf("encodeRGBA() mismatch (-want +got):\n%s", diff)
	}

	n := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	n.Pix[0] = 7
	if data, _, _ := encodeRGBA(n); &data[0] != &n.Pix[0] {
		t.Error("encodeRGBA() copied a tightly packed NRGBA image")
	}
}

func TestVertexAndIndexBytes(t *testing.T) {
	vb := vertexBytes([]f32.Vec2{{1, -2}})
	if len(vb) != 8 {
		t.Fatalf("len(vertexBytes) = %d, want 8", len(vb))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(vb[4:])); got != -2 {
		t.Errorf("vertex y = %v, want -2", got)
	}

	tests := []struct {
		indices []uint16
		wantLen int
	}{
		{nil, 0},
		{[]uint16{1}, 4},
		{[]uint16{1, 2}, 4},
		{[]uint16{1, 2, 3}, 8},
	}
	for _, tt := range tests {
		ib := indexBytes(tt.indices)
		if len(ib) != tt.wantLen {
			t.Errorf("len(indexBytes(%v)) = %d, want %d", tt.indices, len(ib), tt.wantLen)
		}
		for i, v := range tt.indices {
			if got := binary.LittleEndian.Uint16(ib[i*2:]); got != v {
				t.Errorf("indexBytes(%v)[%d] = %d, want %d", tt.indices, i, got, v)
			}
		}
	}
}

func TestBlendState(t *testing.T) {
	if got := blendState(gpucore.BlendState{}); got != nil {
		t.Errorf("blendState(disabled) = %+v, want nil", got)
	}
	got := blendState(gpucore.BlendAlpha)
	want := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	if got == nil || got.Color != want || got.Alpha != want {
		t.Errorf("blendState(BlendAlpha) = %+v, want color and alpha %+v", got, want)
	}
}

func TestClearColor(t *testing.T) {
	got := clearColor(f32.Vec4{0.25, 0.5, 1, 0})
	want := gputypes.Color{R: 0.25, G: 0.5, B: 1, A: 0}
	if got != want {
		t.Errorf("clearColor() = %+v, want %+v", got, want)
	}
}
