package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the terminal browser's bindings.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	NextFilter key.Binding
	PrevFilter key.Binding

	Search      key.Binding // Focus the search input.
	SearchLeave key.Binding // Return focus to the card list.

	Toggle key.Binding // Show or hide the selected card's instructions.
	Copy   key.Binding

	Quit key.Binding
}

// DefaultKeyMap uses j/k alongside the arrow keys while the list has focus.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	NextFilter: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next filter"),
	),
	PrevFilter: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-tab", "prev filter"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	SearchLeave: key.NewBinding(
		key.WithKeys("esc", "enter"),
		key.WithHelp("esc", "done"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "instructions"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.NextFilter, k.Down, k.Toggle, k.Copy, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Copy},
		{k.Search, k.SearchLeave, k.NextFilter, k.PrevFilter},
		{k.Quit},
	}
}
