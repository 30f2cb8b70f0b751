// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu implements gpucore.Device on the GPU using gogpu/wgpu.
//
// The device talks to the wgpu HAL directly. It either opens its own
// Vulkan device with New, or shares the device of a host application
// through NewFromProvider, the gpucontext.DeviceProvider pattern used
// across the gogpu ecosystem.
//
// # Programs and pipelines
//
// A gpucore program maps to a WGSL shader module plus a bind group layout
// with the uniform block at binding 0 and the program's textures at
// bindings 1..n. Textures are bound as unfilterable float and read with
// textureLoad, so 32-bit float targets need no filtering support. Render
// pipelines depend on the pass state, and are created on first use for
// each (program, blend, format, topology) combination and cached.
//
// # Passes
//
// A render pass records its draws on the Go side. End encodes them into a
// single command buffer, submits it and waits on a fence, so the results
// are visible to the next pass as gpucore.RenderPass requires. Uniform
// buffers and bind groups are created per draw and released after the
// submission completes.
//
// # Capabilities
//
// WebGPU guarantees sampling and rendering to rgba32float, but additive
// blending into it needs the float32-blendable feature. The device reports
// gpucore.FeatureFloatBlend only when WithFloatBlend is given, and the
// heatmap layer then keeps full precision; otherwise it falls back to
// rgba16float, which blends everywhere.
//
// # Surface
//
// The visible surface is an offscreen RGBA8Unorm texture. SetSurface
// uploads a base scene and ReadSurface reads the composited result back.
// Hosts that present themselves can sample SurfaceView instead.
//
// # Build tags
//
// Build with -tags nogpu to exclude the device and its Vulkan dependency.
// The texel conversion helpers stay available.
package wgpu
