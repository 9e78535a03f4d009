// Package debug provides the development event log overlay, opened with the
// context-menu gesture when the kiosk is not in production mode.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/earljohn004/centralized-pisonet-app/internal/theme"
)

const maxEntries = 200

// Entry kinds.
const (
	KindState = "state"
	KindNav   = "nav"
	KindHost  = "host"
	KindCmd   = "cmd"
	KindErr   = "err"
)

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds the log ring and scroll position.
type Model struct {
	Entries []Entry
	Offset  int // lines scrolled up from the newest entry
	now     func() time.Time
}

// New creates an empty log.
func New() Model {
	return Model{now: time.Now}
}

// Addf appends a formatted entry, dropping the oldest beyond maxEntries.
func (m *Model) Addf(kind, format string, args ...interface{}) {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	m.Entries = append(m.Entries, Entry{Time: now(), Kind: kind, Message: fmt.Sprintf(format, args...)})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// Scroll moves the viewport by n lines; positive n scrolls toward older
// entries.
func (m *Model) Scroll(n int) {
	m.Offset += n
	if limit := len(m.Entries) - 1; m.Offset > limit {
		m.Offset = limit
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

// View renders the log as an overlay panel of the given size.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	rows := height - 6
	if rows < 3 {
		rows = 3
	}

	title := theme.StyleHeader.Render(" EVENT LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %d entries", len(m.Entries)))
	panel := lipgloss.NewStyle().
		Width(innerW).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorAccent)

	if len(m.Entries) == 0 {
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", theme.StyleDimmed.Render("  Nothing logged yet."), "", help))
	}

	end := len(m.Entries) - m.Offset
	start := end - rows
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, end-start)
	for _, e := range m.Entries[start:end] {
		msg := e.Message
		if limit := innerW - 22; limit > 3 && len(msg) > limit {
			msg = msg[:limit-3] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			theme.StyleDimmed.Render(e.Time.Format("15:04:05.000")),
			lipgloss.NewStyle().Foreground(kindColor(e.Kind)).Width(5).Render(e.Kind),
			msg))
	}

	more := ""
	if m.Offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", m.Offset))
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"), more, help))
}

func kindColor(kind string) lipgloss.Color {
	switch kind {
	case KindState:
		return theme.ColorFunded
	case KindNav:
		return theme.ColorAccent
	case KindHost:
		return theme.ColorCredits
	case KindErr:
		return theme.ColorDanger
	default:
		return theme.ColorDimmed
	}
}
