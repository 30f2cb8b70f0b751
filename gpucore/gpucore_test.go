package gpucore

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/heatmap/mat4"
)

type testUniforms struct {
	mvp   mat4.Matrix
	point f32.Vec2
	value float32
	flag  bool
}

func (u *testUniforms) WriteUniforms(w *UniformWriter) {
	w.Mat4(u.mvp)
	w.Vec2(u.point)
	w.F32(u.value)
	w.Bool(u.flag)
}

func TestUniformWriterLayout(t *testing.T) {
	u := &testUniforms{mvp: mat4.Identity(), point: f32.Vec2{0.25, 0.5}, value: 3, flag: true}

	var w UniformWriter
	u.WriteUniforms(&w)
	b := w.Bytes()

	if len(b) != 80 {
		t.Fatalf("len(Bytes()) = %d, want 80", len(b))
	}
	readF32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	if got := readF32(0); got != 1 {
		t.Errorf("mvp[0] = %v, want 1", got)
	}
	if got := readF32(64); got != 0.25 {
		t.Errorf("point.x at 64 = %v, want 0.25", got)
	}
	if got := readF32(72); got != 3 {
		t.Errorf("value at 72 = %v, want 3", got)
	}
	if got := binary.LittleEndian.Uint32(b[76:]); got != 1 {
		t.Errorf("flag at 76 = %v, want 1", got)
	}

	if got := UniformSize(u); got != 80 {
		t.Errorf("UniformSize() = %d, want 80", got)
	}
}

func TestUniformWriterAlignment(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *UniformWriter)
		want  int
	}{
		{"f32 then vec2", func(w *UniformWriter) { w.F32(1); w.Vec2(f32.Vec2{}) }, 16},
		{"f32 then vec4", func(w *UniformWriter) { w.F32(1); w.Vec4(f32.Vec4{}) }, 32},
		{"three f32", func(w *UniformWriter) { w.F32(1); w.F32(2); w.F32(3) }, 16},
		{"vec2 vec2 f32", func(w *UniformWriter) { w.Vec2(f32.Vec2{}); w.Vec2(f32.Vec2{}); w.F32(0) }, 32},
		{"empty", func(*UniformWriter) {}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w UniformWriter
			tt.write(&w)
			if got := len(w.Bytes()); got != tt.want {
				t.Errorf("len(Bytes()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUniformWriterReset(t *testing.T) {
	var w UniformWriter
	w.Vec4(f32.Vec4{1, 2, 3, 4})
	w.Reset()
	w.F32(5)
	b := w.Bytes()
	if len(b) != 16 {
		t.Fatalf("len(Bytes()) after Reset = %d, want 16", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b)); got != 5 {
		t.Errorf("first field after Reset = %v, want 5", got)
	}
}

func TestFeatureString(t *testing.T) {
	tests := []struct {
		f    Feature
		want string
	}{
		{FeatureFloatTextures, "float-textures"},
		{FeatureFloatRenderTargets, "float-render-targets"},
		{FeatureFloatBlend, "float-blend"},
		{Feature(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Feature(%d).String() = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestNDC(t *testing.T) {
	tests := []struct {
		coord f32.Vec2
		want  f32.Vec2
	}{
		{f32.Vec2{0, 0}, f32.Vec2{-1, 1}},
		{f32.Vec2{100, 50}, f32.Vec2{1, -1}},
		{f32.Vec2{50, 25}, f32.Vec2{0, 0}},
	}
	for _, tt := range tests {
		if got := NDC(tt.coord, 100, 50); got != tt.want {
			t.Errorf("NDC(%v, 100, 50) = %v, want %v", tt.coord, got, tt.want)
		}
	}
}

type gridSampler struct{ w, h int }

func (s gridSampler) Size() (int, int) { return s.w, s.h }

func (s gridSampler) Load(x, y int) f32.Vec4 {
	x = min(max(x, 0), s.w-1)
	y = min(max(y, 0), s.h-1)
	return f32.Vec4{float32(x), float32(y), 0, 1}
}

func TestLoadUV(t *testing.T) {
	s := gridSampler{w: 4, h: 2}
	tests := []struct {
		uv   f32.Vec2
		want f32.Vec4
	}{
		{f32.Vec2{0, 0}, f32.Vec4{0, 0, 0, 1}},
		{f32.Vec2{0.99, 0.99}, f32.Vec4{3, 1, 0, 1}},
		{f32.Vec2{0.5, 0.5}, f32.Vec4{2, 1, 0, 1}},
		{f32.Vec2{1, 1}, f32.Vec4{3, 1, 0, 1}},
		{f32.Vec2{-0.2, 0.2}, f32.Vec4{0, 0, 0, 1}},
	}
	for _, tt := range tests {
		if got := LoadUV(s, tt.uv); got != tt.want {
			t.Errorf("LoadUV(%v) = %v, want %v", tt.uv, got, tt.want)
		}
	}
}

func TestCompileProgram(t *testing.T) {
	const src = `
struct Uniforms {
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.color;
}
`
	spirv, err := CompileProgram(&ProgramDesc{Label: "solid", Source: src})
	if err != nil {
		t.Fatalf("CompileProgram() error = %v", err)
	}
	if len(spirv) == 0 {
		t.Fatal("CompileProgram() returned no SPIR-V")
	}
	// SPIR-V magic number
	if spirv[0] != 0x07230203 {
		t.Errorf("spirv[0] = %#x, want 0x07230203", spirv[0])
	}
}

func TestCompileProgramErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"syntax", "fn vs_main( -> {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileProgram(&ProgramDesc{Label: tt.name, Source: tt.source})
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("CompileProgram() error = %v, want *CompileError", err)
			}
			if ce.Label != tt.name {
				t.Errorf("CompileError.Label = %q, want %q", ce.Label, tt.name)
			}
		})
	}
}
