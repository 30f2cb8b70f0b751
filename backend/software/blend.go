// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/gpucore"
)

// blendFactor returns the per-channel weight of a blend factor.
// Unsupported factors weigh as One.
func blendFactor(f gputypes.BlendFactor, src, dst f32.Vec4) f32.Vec4 {
	switch f {
	case gputypes.BlendFactorZero:
		return f32.Vec4{}
	case gputypes.BlendFactorOne:
		return f32.Vec4{1, 1, 1, 1}
	case gputypes.BlendFactorSrc:
		return src
	case gputypes.BlendFactorOneMinusSrc:
		return f32.Vec4{1 - src[0], 1 - src[1], 1 - src[2], 1 - src[3]}
	case gputypes.BlendFactorSrcAlpha:
		return f32.Vec4{src[3], src[3], src[3], src[3]}
	case gputypes.BlendFactorOneMinusSrcAlpha:
		a := 1 - src[3]
		return f32.Vec4{a, a, a, a}
	case gputypes.BlendFactorDst:
		return dst
	case gputypes.BlendFactorOneMinusDst:
		return f32.Vec4{1 - dst[0], 1 - dst[1], 1 - dst[2], 1 - dst[3]}
	case gputypes.BlendFactorDstAlpha:
		return f32.Vec4{dst[3], dst[3], dst[3], dst[3]}
	case gputypes.BlendFactorOneMinusDstAlpha:
		a := 1 - dst[3]
		return f32.Vec4{a, a, a, a}
	default:
		return f32.Vec4{1, 1, 1, 1}
	}
}

// blend combines a fragment with the destination texel using additive
// blend equation src*Src + dst*Dst. With blending disabled the fragment
// replaces the destination.
func blend(state gpucore.BlendState, src, dst f32.Vec4) f32.Vec4 {
	if !state.Enabled {
		return src
	}
	sf := blendFactor(state.Src, src, dst)
	df := blendFactor(state.Dst, src, dst)

	// Zero factors drop the operand entirely so an infinite or NaN
	// operand does not leak through 0*Inf.
	var out f32.Vec4
	for i := range out {
		var s, d float32
		if sf[i] != 0 {
			s = src[i] * sf[i]
		}
		if df[i] != 0 {
			d = dst[i] * df[i]
		}
		out[i] = s + d
	}
	return out
}
