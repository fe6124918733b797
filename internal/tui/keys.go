package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit     key.Binding
	ForceQ   key.Binding
	Help     key.Binding
	Lookup   key.Binding
	Next     key.Binding
	Previous key.Binding
	Up       key.Binding
	Down     key.Binding
	ShowMap  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQ: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Lookup: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "look up location"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next question"),
		),
		Previous: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "more intense"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "milder"),
		),
		ShowMap: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "view map"),
		),
	}
}
