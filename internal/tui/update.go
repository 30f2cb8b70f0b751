package tui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Radius steps in meters.
const (
	minRadius = 250
	maxRadius = 1e6
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.redraw()
	case tea.KeyMsg:
		p := m.params
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.redraw()
			return m, nil
		case key.Matches(msg, m.keys.ExponentUp):
			p.Exponent = step(p.Exponent, 0.5, 0.5, 16)
		case key.Matches(msg, m.keys.ExponentDown):
			p.Exponent = step(p.Exponent, -0.5, 0.5, 16)
		case key.Matches(msg, m.keys.OpacityUp):
			p.Opacity = step(p.Opacity, 0.1, 0, 1)
		case key.Matches(msg, m.keys.OpacityDown):
			p.Opacity = step(p.Opacity, -0.1, 0, 1)
		case key.Matches(msg, m.keys.ThresholdUp):
			p.Threshold = step(p.Threshold, 0.05, 0, 1)
		case key.Matches(msg, m.keys.ThresholdDown):
			p.Threshold = step(p.Threshold, -0.05, 0, 1)
		case key.Matches(msg, m.keys.FactorUp):
			p.Factor = step(p.Factor, 0.1, 0.1, 1)
		case key.Matches(msg, m.keys.FactorDown):
			p.Factor = step(p.Factor, -0.1, 0.1, 1)
		case key.Matches(msg, m.keys.RadiusUp):
			p.Radius = growRadius(p.Radius)
		case key.Matches(msg, m.keys.RadiusDown):
			p.Radius = shrinkRadius(p.Radius)
		case key.Matches(msg, m.keys.Faster):
			p.Faster = !p.Faster
		default:
			return m, nil
		}
		if p != m.params {
			m.params = p
			m.redraw()
		}
	}
	return m, nil
}

// redraw renders a frame for the current size and parameters.
func (m *Model) redraw() {
	cols, rows := m.previewSize()
	if cols < 1 || rows < 1 {
		return
	}
	img, err := m.r.render(cols, rows, m.params)
	if err != nil {
		m.err = err
		m.status = "render failed: " + err.Error()
		return
	}
	m.err = nil
	m.frame = halfBlocks(img)
	m.status = m.describe()
}

// previewSize is the cell area left for the frame between the title
// line and the footer.
func (m Model) previewSize() (cols, rows int) {
	footer := 2
	if m.help.ShowAll {
		footer = 1 + len(m.keys.FullHelp()[0])
	}
	return m.width, m.height - 1 - footer
}

func (m Model) describe() string {
	radius := "off"
	if m.params.Radius > 0 {
		radius = fmt.Sprintf("%.0fm", m.params.Radius)
		if m.params.Faster {
			radius += " (shader)"
		}
	}
	return fmt.Sprintf("%s  %d samples  avg %.3f  p=%.1f  opacity=%.1f  threshold=%.2f  factor=%.1f  radius=%s",
		m.r.deviceName(), len(m.r.ds.Points), m.r.average(),
		m.params.Exponent, m.params.Opacity, m.params.Threshold, m.params.Factor, radius)
}

// step adds d to v, rounds to hundredths and clamps to [lo, hi].
func step(v, d, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, math.Round((v+d)*100)/100))
}

func growRadius(r float64) float64 {
	if r <= 0 {
		return minRadius
	}
	return math.Min(r*2, maxRadius)
}

func shrinkRadius(r float64) float64 {
	if r/2 < minRadius {
		return 0
	}
	return r / 2
}
