// Package mainscreen renders the full-screen kiosk view: the cafe banner and
// either the insert-coin prompt or the running session.
package mainscreen

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/earljohn004/centralized-pisonet-app/internal/theme"
)

const (
	defaultCafeName   = "PISONET"
	defaultInsertCoin = "Insert Coin"
)

var (
	styleBanner = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorAccent).
			Padding(1, 4)

	styleCredits = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorCredits)

	stylePrompt = lipgloss.NewStyle().
			Bold(true).
			Blink(true).
			Foreground(theme.ColorBright)
)

// Model holds the main screen layout state.
type Model struct {
	Config client.UIConfig
	Width  int
	Height int
}

// New creates a main screen model.
func New() Model {
	return Model{}
}

// View renders the main screen for st.
func (m Model) View(st session.State) string {
	cafe := m.Config.CafeName
	if cafe == "" {
		cafe = defaultCafeName
	}

	var body string
	if st.Phase == session.PhaseIdle || st.SessionEnded() {
		body = m.insertCoin(st)
	} else {
		body = m.running(st)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		styleBanner.Render(cafe),
		body,
		"",
		theme.StyleDimmed.Render("s: settings  c: compact view"),
	)

	if m.Width == 0 || m.Height == 0 {
		return content
	}
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) insertCoin(st session.State) string {
	prompt := m.Config.InsertCoinText
	if prompt == "" {
		prompt = defaultInsertCoin
	}
	lines := []string{stylePrompt.Render(prompt)}
	if st.SessionEnded() {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ColorEnded).Render("Session ended"))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m Model) running(st session.State) string {
	remaining := st.RemainingSeconds()
	clock := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.RemainingColor(remaining, false)).
		Render(theme.Clock(remaining))

	lines := []string{
		styleCredits.Render(fmt.Sprintf("Credits: %d", st.CoinBalance())),
		"Time left " + clock,
	}
	if m.Config.AutoShutdownText != "" && remaining > 0 && remaining <= 60 {
		lines = append(lines, theme.StyleError.Render(fmt.Sprintf("%s %ds", m.Config.AutoShutdownText, remaining)))
	}
	return theme.StyleBorder.Padding(1, 3).Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}
