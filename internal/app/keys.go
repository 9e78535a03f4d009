package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the kiosk keyboard bindings. Reload accelerators are never
// bound here; the lockdown guard drops them before they reach the model.
type KeyMap struct {
	Settings key.Binding
	Main     key.Binding
	Compact  key.Binding
	Escape   key.Binding
	Up       key.Binding
	Down     key.Binding
	Debug    key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		Main: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "main view"),
		),
		Compact: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compact view"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "event log"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Settings, k.Main, k.Compact, k.Debug, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Settings, k.Main, k.Compact},
		{k.Escape, k.Up, k.Down, k.Debug, k.Quit},
	}
}
