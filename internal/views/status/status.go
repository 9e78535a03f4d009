package status

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/earljohn004/centralized-pisonet-app/internal/nav"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/earljohn004/centralized-pisonet-app/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Station   string
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar for the given session snapshot and screen.
func (m Model) View(st session.State, screen nav.Screen) string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Host connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	var serverStr string
	switch st.ServerStatus {
	case session.StatusRequestReceived:
		serverStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("coin slot ready")
	default:
		serverStr = theme.StyleDimmed.Render("coin slot " + st.ServerStatus.String())
	}

	var licStr string
	if st.License.Authorized {
		licStr = lipgloss.NewStyle().Foreground(theme.ColorLicensed).Render("licensed " + st.License.SerialNumber)
	} else {
		licStr = lipgloss.NewStyle().Foreground(theme.ColorUnlicensed).Render("unlicensed")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + serverStr + sep + licStr + sep + theme.StyleDimmed.Render(screen.Route())
	if m.Station != "" {
		content = theme.StyleHeader.Render(m.Station) + sep + content
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
