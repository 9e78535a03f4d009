// Package lockdown keeps the operator inside the kiosk UI by dropping
// escape inputs before they reach the application model.
package lockdown

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// reloadKeys are the refresh key and the reload accelerator with the
// primary (ctrl) or secondary (alt/meta) modifier.
var reloadKeys = map[string]bool{
	"f5":     true,
	"ctrl+r": true,
	"alt+r":  true,
}

// Guard filters program input. It holds no state besides its mode.
type Guard struct {
	production bool
	log        zerolog.Logger
}

// New creates a guard. In production the context-menu gesture is dropped
// too; otherwise it is passed through to aid development.
func New(production bool, log zerolog.Logger) *Guard {
	return &Guard{
		production: production,
		log:        log.With().Str("component", "lockdown").Logger(),
	}
}

// Filter is installed with tea.WithFilter. Returning nil drops msg.
func (g *Guard) Filter(_ tea.Model, msg tea.Msg) tea.Msg {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if reloadKeys[msg.String()] {
			g.log.Debug().Str("key", msg.String()).Msg("refresh is disabled")
			return nil
		}
	case tea.MouseMsg:
		if g.production && IsContextMenu(msg) {
			return nil
		}
	}
	return msg
}

// IsContextMenu reports whether msg is the context-menu gesture.
func IsContextMenu(msg tea.MouseMsg) bool {
	return msg.Button == tea.MouseButtonRight && msg.Action == tea.MouseActionPress
}
