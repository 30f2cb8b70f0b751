// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend provides a registry of render devices for the heatmap
// layer.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is automatically registered on import:
//
//	import "github.com/gogpu/heatmap/backend"
//
// The GPU backend registers itself when its package is imported:
//
//	import _ "github.com/gogpu/heatmap/backend/wgpu"
//
// # Backend Selection
//
// Use Default to create a device from the best available backend, or Get
// to request a specific backend by name:
//
//	// Best available device, falling back to software
//	dev, err := backend.Default(800, 600)
//
//	// Or a specific backend
//	dev, err := backend.Get("software", 800, 600)
//
// # Available Backends
//
//   - "software": CPU rasterizer and shader runner (always available)
//   - "wgpu": GPU device via gogpu/wgpu (Vulkan)
package backend
