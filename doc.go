// Package heatmap renders a continuous heatmap surface over sparse,
// geo-located scalar samples and composites it over an existing scene.
//
// # Overview
//
// Values between samples are interpolated with Inverse Distance Weighting
// (IDW). The surface can be limited to a region-of-interest polygon and to
// a radius around each sample, colored by a pluggable ColorMap, and blended
// onto the host's framebuffer with configurable blend factors.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/heatmap"
//	    "github.com/gogpu/heatmap/backend/software"
//	)
//
//	layer, err := heatmap.New(points,
//	    heatmap.WithExponent(2),
//	    heatmap.WithOpacity(0.6),
//	)
//	if err != nil {
//	    return err
//	}
//	defer layer.Delete()
//
//	dev := software.New(800, 600)
//	if err := layer.Init(dev); err != nil {
//	    return err
//	}
//	if err := layer.Draw(mvp); err != nil {
//	    return err
//	}
//	img := dev.Surface()
//
// # Frame Protocol
//
// A host calls Init once, then per frame PreRender followed by Render with
// the same view matrix. PreRender draws the mask and the IDW accumulation
// into offscreen targets; Render composites them onto the screen
// framebuffer. Resize is called when the canvas changes size and
// UpdatePoints when the data changes. Delete releases everything.
//
// # Coordinates
//
// Samples are projected to the normalized Web Mercator plane (see package
// geo), so the view matrix passed to PreRender and Render maps that plane
// to clip space, as a map renderer's model-view-projection matrix does.
//
// # Devices
//
// Rendering goes through gpucore.Device. backend/software shades on the
// CPU and is always available; backend/wgpu runs the same WGSL programs
// on a GPU through gogpu/wgpu.
package heatmap
