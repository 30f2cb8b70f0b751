package gpucore

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// Program entry points every WGSL source must define.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// ErrMissingShader is returned when a program has no Go shader for a device
// that shades on the host.
var ErrMissingShader = errors.New("gpucore: program has no shader implementation")

// ProgramDesc describes a vertex+fragment program.
type ProgramDesc struct {
	Label string

	// Source is the WGSL module defining vs_main and fs_main.
	Source string

	// Shader implements the same stages in Go.
	Shader Shader

	// Textures is the number of textures bound at bindings 1..Textures.
	Textures int

	// Uniforms is a representative uniform block; GPU devices size the
	// uniform buffer from it.
	Uniforms Uniforms
}

// CompileError reports a program that failed to compile or link.
type CompileError struct {
	Label string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpucore: compile program %q: %v", e.Label, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// CompileProgram validates the program's WGSL and returns it compiled to
// SPIR-V words.
func CompileProgram(desc *ProgramDesc) ([]uint32, error) {
	if desc.Source == "" {
		return nil, &CompileError{Label: desc.Label, Err: errors.New("empty source")}
	}

	spirvBytes, err := naga.Compile(desc.Source)
	if err != nil {
		return nil, &CompileError{Label: desc.Label, Err: err}
	}
	if len(spirvBytes)%4 != 0 {
		return nil, &CompileError{
			Label: desc.Label,
			Err:   fmt.Errorf("SPIR-V size %d is not a multiple of 4", len(spirvBytes)),
		}
	}

	// SPIR-V is little-endian 32-bit words
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirv, nil
}
