// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"errors"
	"image"
	"log/slog"

	"github.com/gogpu/heatmap/gpucore"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU device.
	BackendSoftware = "software"
	// BackendWGPU is the name of the Pure Go GPU device (gogpu/wgpu).
	BackendWGPU = "wgpu"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or cannot create a device on this machine.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Device is a gpucore.Device that owns its visible surface. Both built-in
// backends implement it; hosts embedding the layer in their own renderer
// only need gpucore.Device.
type Device interface {
	gpucore.Device

	// SetLogger sets the logger for device diagnostics. Nil disables
	// logging.
	SetLogger(l *slog.Logger)

	// ResizeSurface resizes the visible surface and clears it.
	ResizeSurface(width, height int) error

	// SetSurface replaces the surface with img, resizing it to img's
	// bounds.
	SetSurface(img image.Image) error

	// ReadSurface returns a copy of the visible surface.
	ReadSurface() (*image.RGBA, error)

	// Close releases the device. Resources need not be destroyed first.
	Close()
}

// Factory creates a device with a surface of the given size.
type Factory func(width, height int) (Device, error)
