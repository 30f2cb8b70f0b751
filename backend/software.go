// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"fmt"

	"github.com/gogpu/heatmap/backend/software"
	"github.com/gogpu/heatmap/gpucore"
)

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, NewSoftwareDevice)
}

// NewSoftwareDevice creates a CPU device. It is the software Factory.
func NewSoftwareDevice(width, height int) (Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", gpucore.ErrInvalidSize, width, height)
	}
	return software.New(width, height), nil
}

var _ Device = (*software.Device)(nil)
