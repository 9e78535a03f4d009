// Package theme provides the Lip Gloss color palette and reusable styles
// for the kiosk TUI. It is a leaf package with no internal imports to avoid
// import cycles.
package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Session colors.
var (
	ColorIdle    = lipgloss.Color("#6b7280")
	ColorFunded  = lipgloss.Color("#22c55e")
	ColorEnding  = lipgloss.Color("#d97706") // last minute
	ColorEnded   = lipgloss.Color("#dc2626")
	ColorCredits = lipgloss.Color("#f59e0b")
)

// License colors.
var (
	ColorLicensed   = lipgloss.Color("#22c55e")
	ColorUnlicensed = lipgloss.Color("#d97706")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#a855f7")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)
)

// RemainingColor returns the countdown color for seconds left.
func RemainingColor(seconds int, ended bool) lipgloss.Color {
	switch {
	case ended:
		return ColorEnded
	case seconds <= 0:
		return ColorIdle
	case seconds <= 60:
		return ColorEnding
	default:
		return ColorFunded
	}
}

// Clock formats seconds as MM:SS, or H:MM:SS from one hour up.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
