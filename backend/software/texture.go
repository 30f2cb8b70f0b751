// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/x448/float16"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
)

// maxHalf is the largest finite RGBA16Float value.
const maxHalf = 65504

// texture is a 2D image of float32 RGBA texels, row-major, top row first.
type texture struct {
	label  string
	width  int
	height int
	format gputypes.TextureFormat
	texels []f32.Vec4
}

func supportedFormat(f gputypes.TextureFormat) bool {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatRGBA32Float:
		return true
	}
	return false
}

func newTexture(desc *gpucore.TextureDesc) (*texture, error) {
	if !supportedFormat(desc.Format) {
		return nil, fmt.Errorf("%w: %v", gpucore.ErrUnsupportedFormat, desc.Format)
	}
	t := &texture{label: desc.Label, format: desc.Format}
	if err := t.resize(desc.Width, desc.Height); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *texture) resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: texture %q %dx%d", gpucore.ErrInvalidSize, t.label, width, height)
	}
	t.width, t.height = width, height
	n := width * height
	if cap(t.texels) >= n {
		t.texels = t.texels[:n]
		clear(t.texels)
	} else {
		t.texels = make([]f32.Vec4, n)
	}
	return nil
}

// Size implements gpucore.Sampler.
func (t *texture) Size() (int, int) { return t.width, t.height }

// Load implements gpucore.Sampler.
func (t *texture) Load(x, y int) f32.Vec4 {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	return t.texels[y*t.width+x]
}

// store writes a texel, quantized to the texture format.
func (t *texture) store(x, y int, c f32.Vec4) {
	t.texels[y*t.width+x] = t.quantize(c)
}

func (t *texture) quantize(c f32.Vec4) f32.Vec4 {
	switch t.format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		for i, v := range c {
			c[i] = float32(unorm8(v)) / 255
		}
	case gputypes.TextureFormatRGBA16Float:
		// Saturate instead of overflowing to infinity.
		for i, v := range c {
			c[i] = float16.Fromfloat32(min(max(v, -maxHalf), maxHalf)).Float32()
		}
	}
	return c
}

func (t *texture) fill(c f32.Vec4) {
	c = t.quantize(c)
	for i := range t.texels {
		t.texels[i] = c
	}
}

// unorm8 converts a float to an 8-bit normalized value. NaN maps to 0.
func unorm8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}

// toRGBA converts the texels to an 8-bit image without premultiplying.
func (t *texture) toRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			c := t.texels[y*t.width+x]
			img.SetRGBA(x, y, color.RGBA{unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])})
		}
	}
	return img
}

// loadImage replaces the texture contents with img, resizing to its bounds.
func (t *texture) loadImage(img image.Image) error {
	b := img.Bounds()
	if err := t.resize(b.Dx(), b.Dy()); err != nil {
		return err
	}
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			t.texels[y*t.width+x] = f32.Vec4{
				float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255,
			}
		}
	}
	return nil
}
