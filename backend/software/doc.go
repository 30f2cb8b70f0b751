// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package software implements gpucore.Device on the CPU.
//
// Textures are stored as float32 RGBA texels and quantized on write to
// the precision of their format, so an RGBA8Unorm target saturates and
// rounds like its GPU counterpart while RGBA32Float accumulates without
// clamping. Triangles are rasterized at pixel centers with a top-left fill
// rule, shaded by the program's Go shader and blended with the pass's
// fixed-function factors.
//
// Each triangle is shaded in parallel row bands on an internal worker
// pool; draws and passes still execute strictly in recording order.
//
// The visible surface is an RGBA8Unorm texture. Load a rendered base scene
// with SetSurface before compositing and fetch the result with Surface.
//
// Example:
//
//	dev := software.New(800, 600)
//	defer dev.Close()
//
//	dev.SetSurface(baseMap)
//	// ... run the heatmap layer against dev ...
//	img := dev.Surface()
package software
