package mat4

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/mat"
)

var approx = cmpopts.EquateApprox(0, 1e-5)

// perspective builds a right-handed perspective projection.
func perspective(fovy, aspect, near, far float32) Matrix {
	f := float32(1 / math.Tan(float64(fovy)/2))
	return Matrix{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (near - far), -1,
		0, 0, 2 * far * near / (near - far), 0,
	}
}

// mapMatrix resembles what a map host hands over for a tilted view.
func mapMatrix() Matrix {
	m := Mul(perspective(0.6435, 1.5, 0.1, 100), Identity())
	m.Translate(0, 0, -3).Scale(4, 4, 1).Translate(-0.5, -0.5, 0)
	return m
}

func TestInverseIdentity(t *testing.T) {
	inv, ok := Inverse(Identity())
	if !ok {
		t.Fatal("Inverse(Identity()) ok = false, want true")
	}
	if diff := cmp.Diff(Identity(), inv, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Inverse(Identity()) mismatch (-want +got):\n%s", diff)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	translated := Identity()
	translated.Translate(3, -2, 7)

	scaled := Identity()
	scaled.Scale(2, 0.5, 4)

	tests := []struct {
		name string
		m    Matrix
	}{
		{"translation", translated},
		{"scale", scaled},
		{"ortho", Ortho(-2, 6, -1, 3, 0.5, 20)},
		{"perspective map", mapMatrix()},
	}

	vectors := []f32.Vec4{
		{1, 2, 3, 1},
		{-0.5, 0.25, 0, 1},
		{10, -4, 2, 0.5},
		{0, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := Inverse(tt.m)
			if !ok {
				t.Fatal("Inverse() ok = false, want true")
			}
			for _, v := range vectors {
				got := Dot(tt.m, Dot(inv, v))
				if diff := cmp.Diff(v, got, cmpopts.EquateApprox(1e-4, 1e-4)); diff != "" {
					t.Errorf("Dot(M, Dot(inv, %v)) mismatch (-want +got):\n%s", v, diff)
				}
			}
		})
	}
}

func TestInverseMatchesGonum(t *testing.T) {
	m := mapMatrix()

	rowMajor := make([]float64, 16)
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			rowMajor[row*4+col] = float64(m[col*4+row])
		}
	}
	var want mat.Dense
	if err := want.Inverse(mat.NewDense(4, 4, rowMajor)); err != nil {
		t.Fatalf("gonum Inverse() error = %v", err)
	}

	got, ok := Inverse(m)
	if !ok {
		t.Fatal("Inverse() ok = false, want true")
	}
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			w := want.At(row, col)
			g := float64(got[col*4+row])
			if math.Abs(w-g) > 1e-4*math.Max(1, math.Abs(w)) {
				t.Errorf("Inverse()[%d][%d] = %v, want %v", row, col, g, w)
			}
		}
	}
}

func TestInverseSingular(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"zero", Matrix{}},
		{"duplicate columns", Matrix{
			1, 2, 3, 4,
			1, 2, 3, 4,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}},
		{"flattened z", func() Matrix {
			m := Identity()
			m.Scale(1, 1, 0)
			return m
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := Inverse(tt.m)
			if ok {
				t.Fatalf("Inverse() ok = true, want false (got %v)", inv)
			}
			if inv != (Matrix{}) {
				t.Errorf("Inverse() = %v, want zero matrix", inv)
			}
		})
	}
}

func TestTranslateScaleChain(t *testing.T) {
	m := Identity()
	m.Translate(0.25, 0.75, 0).Scale(0.1, 0.1, 1)

	// A unit-circle vertex lands at center + radius.
	got := Dot(m, f32.Vec4{1, 0, 0, 1})
	want := f32.Vec4{0.35, 0.75, 0, 1}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Dot(translate·scale, (1,0,0,1)) mismatch (-want +got):\n%s", diff)
	}

	var tr, sc Matrix = Identity(), Identity()
	tr.Translate(0.25, 0.75, 0)
	sc.Scale(0.1, 0.1, 1)
	if diff := cmp.Diff(Mul(tr, sc), m, approx); diff != "" {
		t.Errorf("chained matrix differs from Mul(T, S) (-want +got):\n%s", diff)
	}
}

func TestDotColumnMajor(t *testing.T) {
	m := Matrix{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	got := Dot(m, f32.Vec4{1, 0, 0, 0})
	if want := (f32.Vec4{1, 2, 3, 4}); got != want {
		t.Errorf("Dot(m, e0) = %v, want %v", got, want)
	}
	got = Dot(m, f32.Vec4{0, 0, 0, 1})
	if want := (f32.Vec4{13, 14, 15, 16}); got != want {
		t.Errorf("Dot(m, e3) = %v, want %v", got, want)
	}
}

func TestProject(t *testing.T) {
	m := Ortho(0, 1, 1, 0, -1, 1)

	ndc, ok := Project(m, 0.5, 0.5)
	if !ok {
		t.Fatal("Project() ok = false, want true")
	}
	if diff := cmp.Diff(f32.Vec2{0, 0}, ndc, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Project(center) mismatch (-want +got):\n%s", diff)
	}

	ndc, _ = Project(m, 0, 0)
	if diff := cmp.Diff(f32.Vec2{-1, 1}, ndc, approx); diff != "" {
		t.Errorf("Project(top-left) mismatch (-want +got):\n%s", diff)
	}

	behind := Matrix{}
	if _, ok := Project(behind, 0.5, 0.5); ok {
		t.Error("Project() with w = 0 ok = true, want false")
	}
}

func TestFromSlice(t *testing.T) {
	s := make([]float32, 16)
	s[0], s[15] = 2, 3
	m, err := FromSlice(s)
	if err != nil {
		t.Fatalf("FromSlice() error = %v", err)
	}
	if m[0] != 2 || m[15] != 3 {
		t.Errorf("FromSlice() = %v, want m[0]=2 m[15]=3", m)
	}

	if _, err := FromSlice(s[:9]); !errors.Is(err, ErrSize) {
		t.Errorf("FromSlice(9 elements) error = %v, want %v", err, ErrSize)
	}
}
