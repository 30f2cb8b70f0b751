package tui

import (
	"image"
	"image/color"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gogpu/heatmap"
	"github.com/gogpu/heatmap/backend"
	"github.com/gogpu/heatmap/internal/dataset"
)

func TestHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	got := halfBlocks(img)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("halfBlocks() has %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		if n := strings.Count(line, "▀"); n != 3 {
			t.Errorf("line %d has %d blocks, want 3", i, n)
		}
	}
}

func TestHexColor(t *testing.T) {
	if got, want := hexColor(color.RGBA{R: 0xff, G: 0x80, B: 0x01, A: 0xff}), "#ff8001"; string(got) != want {
		t.Errorf("hexColor() = %q, want %q", got, want)
	}
}

func TestDownscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	dst := downscale(src, 2, 2)
	if got := dst.Bounds(); got != image.Rect(0, 0, 2, 2) {
		t.Fatalf("downscale() bounds = %v", got)
	}
	got := dst.RGBAAt(1, 1)
	for _, c := range []uint8{got.R, got.G, got.B, got.A} {
		if c < 199 || c > 201 {
			t.Errorf("downscale() pixel = %v, want a uniform 200", got)
			break
		}
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		v, d, lo, hi float64
		want         float64
	}{
		{0.5, 0.1, 0, 1, 0.6},
		{0.95, 0.1, 0, 1, 1},
		{0.05, -0.1, 0, 1, 0},
		{0.3, -0.1, 0.1, 1, 0.2},
		{3, 0.5, 0.5, 16, 3.5},
	}
	for _, tt := range tests {
		if got := step(tt.v, tt.d, tt.lo, tt.hi); got != tt.want {
			t.Errorf("step(%v, %v, %v, %v) = %v, want %v", tt.v, tt.d, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestRadiusSteps(t *testing.T) {
	if got := growRadius(0); got != minRadius {
		t.Errorf("growRadius(0) = %v, want %v", got, minRadius)
	}
	if got := growRadius(1000); got != 2000 {
		t.Errorf("growRadius(1000) = %v, want 2000", got)
	}
	if got := growRadius(maxRadius); got != maxRadius {
		t.Errorf("growRadius(max) = %v, want %v", got, maxRadius)
	}
	if got := shrinkRadius(minRadius); got != 0 {
		t.Errorf("shrinkRadius(min) = %v, want 0", got)
	}
	if got := shrinkRadius(1000); got != 500 {
		t.Errorf("shrinkRadius(1000) = %v, want 500", got)
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	ds := &dataset.Dataset{Points: []heatmap.Point{
		{Lat: 48.1, Lon: 11.5, Val: 1},
		{Lat: 48.2, Lon: 11.6, Val: 5},
		{Lat: 48.15, Lon: 11.7, Val: 3},
	}}
	m := New(Config{
		Dataset: ds,
		Open:    backend.NewSoftwareDevice,
		Params:  DefaultParams(),
		Scale:   2,
	})
	t.Cleanup(m.Close)
	return m
}

func press(m Model, r rune) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return next.(Model)
}

func TestModelRenders(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 24, Height: 10})
	m = next.(Model)

	if m.Err() != nil {
		t.Fatalf("render error = %v", m.Err())
	}
	if !strings.Contains(m.View(), "▀") {
		t.Error("View() has no preview blocks")
	}
	if !strings.Contains(m.status, "software") {
		t.Errorf("status = %q, want the device name", m.status)
	}
}

func TestModelKeys(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 8})
	m = next.(Model)

	m = press(m, 'E')
	if got := m.params.Exponent; got != 3.5 {
		t.Errorf("Exponent after E = %v, want 3.5", got)
	}
	m = press(m, 'R')
	if got := m.params.Radius; got != minRadius {
		t.Errorf("Radius after R = %v, want %v", got, minRadius)
	}
	m = press(m, 'f')
	if !m.params.Faster {
		t.Error("Faster after f = false, want true")
	}
	if m.Err() != nil {
		t.Errorf("render error = %v", m.Err())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
