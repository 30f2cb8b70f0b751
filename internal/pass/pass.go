// Package pass implements the three render passes of the heatmap pipeline.
//
// MaskPass renders region-of-interest and per-sample radius coverage,
// IDWPass accumulates inverse distance weights with one additive draw per
// sample, and CompositePass turns both into colored pixels on the screen
// framebuffer. Every pass owns its device resources and releases them
// exactly once in Delete.
package pass

import (
	"errors"
	"fmt"

	"github.com/gogpu/heatmap/gpucore"
)

var (
	// ErrDeleted is returned when a pass is used after Delete.
	ErrDeleted = errors.New("pass: used after delete")

	// ErrRadiusMismatch is returned when a per-sample radius set does not
	// have one radius per sample.
	ErrRadiusMismatch = errors.New("pass: radius count does not match sample count")

	// ErrTooManyVertices is returned for geometry that does not fit 16-bit
	// indices.
	ErrTooManyVertices = errors.New("pass: too many vertices for 16-bit indices")
)

// Sample is a preprocessed data point: a position in projected Mercator
// units and a value normalized to [0, 1].
type Sample struct {
	X, Y  float32
	Value float32
}

// Radius selects how samples limit the visible surface. The zero value is
// NoRadius.
type Radius struct {
	enabled bool
	values  []float32
}

// NoRadius disables radius masking.
func NoRadius() Radius { return Radius{} }

// PerSampleRadius limits the surface to circles around each sample. The
// radii are in projected units, index-aligned with the samples.
func PerSampleRadius(radii []float32) Radius {
	return Radius{enabled: true, values: append([]float32(nil), radii...)}
}

// Enabled reports whether radius masking is on.
func (r Radius) Enabled() bool { return r.enabled }

// Len returns the number of radii.
func (r Radius) Len() int { return len(r.values) }

// At returns the radius of sample i, or 0 when masking is off.
func (r Radius) At(i int) float32 {
	if !r.enabled {
		return 0
	}
	return r.values[i]
}

// Check verifies that r can be used with n samples.
func (r Radius) Check(n int) error {
	if r.enabled && len(r.values) != n {
		return fmt.Errorf("%w: %d radii for %d samples", ErrRadiusMismatch, len(r.values), n)
	}
	return nil
}

// resources tracks the device objects owned by a pass.
type resources struct {
	dev          gpucore.Device
	programs     []gpucore.ProgramID
	buffers      []gpucore.BufferID
	textures     []gpucore.TextureID
	framebuffers []gpucore.FramebufferID
	released     bool
}

func (r *resources) program(id gpucore.ProgramID) gpucore.ProgramID {
	r.programs = append(r.programs, id)
	return id
}

func (r *resources) buffer(id gpucore.BufferID) gpucore.BufferID {
	r.buffers = append(r.buffers, id)
	return id
}

func (r *resources) texture(id gpucore.TextureID) gpucore.TextureID {
	r.textures = append(r.textures, id)
	return id
}

func (r *resources) framebuffer(id gpucore.FramebufferID) gpucore.FramebufferID {
	r.framebuffers = append(r.framebuffers, id)
	return id
}

// release destroys everything in reverse order of dependency. Calling it
// again does nothing.
func (r *resources) release() {
	if r.released {
		return
	}
	r.released = true

	for i := len(r.framebuffers) - 1; i >= 0; i-- {
		r.dev.DestroyFramebuffer(r.framebuffers[i])
	}
	for i := len(r.textures) - 1; i >= 0; i-- {
		r.dev.DestroyTexture(r.textures[i])
	}
	for i := len(r.buffers) - 1; i >= 0; i-- {
		r.dev.DestroyBuffer(r.buffers[i])
	}
	for i := len(r.programs) - 1; i >= 0; i-- {
		r.dev.DestroyProgram(r.programs[i])
	}
	r.framebuffers, r.textures, r.buffers, r.programs = nil, nil, nil, nil
}
