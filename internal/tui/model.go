// Package tui previews a heatmap layer in the terminal.
package tui

import (
	"math"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gogpu/heatmap"
	"github.com/gogpu/heatmap/backend"
	"github.com/gogpu/heatmap/internal/dataset"
)

// Params are the layer options adjustable from the keyboard.
type Params struct {
	Exponent  float64
	Opacity   float64
	Threshold float64
	Factor    float64
	Radius    float64
	Faster    bool

	// MinValue and MaxValue are passed through unchanged. Use +Inf and
	// -Inf to leave the range to the samples.
	MinValue float64
	MaxValue float64
}

// DefaultParams mirrors heatmap.DefaultOptions.
func DefaultParams() Params {
	o := heatmap.DefaultOptions()
	return Params{
		Exponent: o.Exponent,
		Opacity:  o.Opacity,
		Factor:   o.FramebufferFactor,
		MinValue: math.Inf(1),
		MaxValue: math.Inf(-1),
	}
}

func (p Params) options(ds *dataset.Dataset) []heatmap.Option {
	return []heatmap.Option{
		heatmap.WithExponent(p.Exponent),
		heatmap.WithOpacity(p.Opacity),
		heatmap.WithAverageThreshold(p.Threshold),
		heatmap.WithFramebufferFactor(p.Factor),
		heatmap.WithPointRadius(p.Radius),
		heatmap.WithFasterPointRadius(p.Faster),
		heatmap.WithMinValue(p.MinValue),
		heatmap.WithMaxValue(p.MaxValue),
		heatmap.WithROI(ds.ROI),
	}
}

// Config sets up a Model.
type Config struct {
	Dataset *dataset.Dataset

	// Open creates the render device. Defaults to backend.Default.
	Open backend.Factory

	Params Params

	// Pad widens the view around the samples. Scale is the supersampling
	// factor per preview pixel; zero means 4.
	Pad   float64
	Scale int
}

type Model struct {
	width  int
	height int

	params Params
	keys   keyMap
	help   help.Model

	r *renderer

	frame  string
	status string
	err    error
}

func New(cfg Config) Model {
	if cfg.Open == nil {
		cfg.Open = backend.Default
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 4
	}
	return Model{
		params: cfg.Params,
		keys:   defaultKeys(),
		help:   help.New(),
		r: &renderer{
			ds:    cfg.Dataset,
			open:  cfg.Open,
			pad:   cfg.Pad,
			scale: cfg.Scale,
		},
		status: "heatmap ready",
	}
}

func (m Model) Init() tea.Cmd { return nil }

// Close releases the layer and the device.
func (m Model) Close() { m.r.close() }

// Err returns the error of the last frame, if any.
func (m Model) Err() error { return m.err }
