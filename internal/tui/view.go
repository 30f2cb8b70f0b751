package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	cols, rows := m.previewSize()

	header := titleStyle.Render(" heatmap ─ inverse distance weighting preview ")
	header = lipgloss.NewStyle().Width(m.width).Render(header)

	frame := lipgloss.NewStyle().Width(max(cols, 1)).Height(max(rows, 1)).Render(m.frame)

	status := dimStyle.Render(" " + m.status)
	if m.err != nil {
		status = errorStyle.Render(" " + m.status)
	}
	footer := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().MaxWidth(m.width).Render(status),
		" "+m.help.View(m.keys))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, frame, footer)
	return appStyle.Width(m.width).Height(m.height).Render(ui)
}
