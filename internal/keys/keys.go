// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the terminal overlay.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Guest actions
	ToggleHighlight key.Binding
	ClearTargets    key.Binding
	StartListening  key.Binding

	// General
	ToggleLog key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll log up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll log down"),
		),
		ToggleHighlight: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle highlight mode"),
		),
		ClearTargets: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear drop targets"),
		),
		StartListening: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop and listen"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "toggle log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleHighlight, k.ToggleLog, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},                                        // Navigation
		{k.ToggleHighlight, k.ClearTargets, k.StartListening}, // Guest
		{k.ToggleLog, k.Help, k.Quit},                         // General
	}
}
