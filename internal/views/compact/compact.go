// Package compact renders the small always-on-top session view: balance,
// remaining time and a spring-animated progress bar.
package compact

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/earljohn004/centralized-pisonet-app/internal/theme"
)

const (
	fps      = 30
	barWidth = 24
	// settle is how close the bar must be to its target to stop animating.
	settle = 0.002
)

// FrameMsg advances the bar animation by one frame.
type FrameMsg struct{}

// Frame schedules the next animation frame.
func Frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

// Model holds the compact view and its bar animation.
type Model struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64

	// peak is the largest remaining value seen since the balance last
	// changed; the bar shows remaining as a share of it.
	peak    int
	balance int
}

// New creates a compact view model.
func New() Model {
	return Model{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.7)}
}

// Sync points the bar at st. It reports whether the bar needs animating.
func (m *Model) Sync(st session.State) bool {
	remaining := st.RemainingSeconds()
	if st.CoinBalance() != m.balance {
		m.balance = st.CoinBalance()
		m.peak = remaining
	}
	if remaining > m.peak {
		m.peak = remaining
	}

	switch {
	case st.SessionEnded() || m.peak == 0:
		m.target = 0
	default:
		m.target = float64(remaining) / float64(m.peak)
	}
	return m.Animating()
}

// Step advances the spring one frame. It reports whether another frame is
// needed.
func (m *Model) Step() bool {
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
	if !m.Animating() {
		m.pos, m.vel = m.target, 0
		return false
	}
	return true
}

// Animating reports whether the bar has not yet settled on its target.
func (m Model) Animating() bool {
	return math.Abs(m.pos-m.target) > settle || math.Abs(m.vel) > settle
}

// Fill returns the displayed bar fill in [0, 1].
func (m Model) Fill() float64 {
	return math.Max(0, math.Min(1, m.pos))
}

// View renders the compact panel for st.
func (m Model) View(st session.State) string {
	remaining := st.RemainingSeconds()
	ended := st.SessionEnded()

	var timeStr string
	if ended {
		timeStr = lipgloss.NewStyle().Foreground(theme.ColorEnded).Render("ENDED")
	} else {
		timeStr = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.RemainingColor(remaining, false)).
			Render(theme.Clock(remaining))
	}

	filled := int(math.Round(m.Fill() * barWidth))
	bar := lipgloss.NewStyle().Foreground(theme.RemainingColor(remaining, ended)).Render(strings.Repeat("█", filled)) +
		theme.StyleDimmed.Render(strings.Repeat("░", barWidth-filled))

	content := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s  %s",
			lipgloss.NewStyle().Bold(true).Foreground(theme.ColorCredits).Render(fmt.Sprintf("₱%d", st.CoinBalance())),
			timeStr),
		bar,
		theme.StyleDimmed.Render("m: main view"),
	)
	return theme.StyleBorder.Padding(0, 1).Render(content)
}
