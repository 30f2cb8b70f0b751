package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	ExponentUp    key.Binding
	ExponentDown  key.Binding
	OpacityUp     key.Binding
	OpacityDown   key.Binding
	ThresholdUp   key.Binding
	ThresholdDown key.Binding
	FactorUp      key.Binding
	FactorDown    key.Binding
	RadiusUp      key.Binding
	RadiusDown    key.Binding
	Faster        key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		ExponentUp:    key.NewBinding(key.WithKeys("E"), key.WithHelp("E/e", "exponent ±")),
		ExponentDown:  key.NewBinding(key.WithKeys("e")),
		OpacityUp:     key.NewBinding(key.WithKeys("O"), key.WithHelp("O/o", "opacity ±")),
		OpacityDown:   key.NewBinding(key.WithKeys("o")),
		ThresholdUp:   key.NewBinding(key.WithKeys("T"), key.WithHelp("T/t", "threshold ±")),
		ThresholdDown: key.NewBinding(key.WithKeys("t")),
		FactorUp:      key.NewBinding(key.WithKeys("B"), key.WithHelp("B/b", "buffer factor ±")),
		FactorDown:    key.NewBinding(key.WithKeys("b")),
		RadiusUp:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R/r", "radius ×2 ÷2")),
		RadiusDown:    key.NewBinding(key.WithKeys("r")),
		Faster:        key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "radius in shader")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ExponentUp, k.OpacityUp, k.RadiusUp, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ExponentUp, k.OpacityUp, k.ThresholdUp},
		{k.FactorUp, k.RadiusUp, k.Faster},
		{k.Help, k.Quit},
	}
}
