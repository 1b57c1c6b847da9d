package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jask/pinlogin/internal/pinfield"
)

type keyMap struct {
	Back  key.Binding
	Focus key.Binding
	Reset key.Binding
	Quit  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		// handled by the controller itself; bound here for help only
		Back: key.NewBinding(
			key.WithKeys(pinfield.KeyBackspace, pinfield.KeyLeft),
			key.WithHelp("⌫/←", "back"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "clear"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Focus, k.Reset, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
