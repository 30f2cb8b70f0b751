// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package wgpu

import (
	"github.com/gogpu/heatmap/backend"
)

// init registers the GPU backend on package import.
func init() {
	backend.Register(backend.BackendWGPU, func(width, height int) (backend.Device, error) {
		d, err := New(width, height)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

var _ backend.Device = (*Device)(nil)
