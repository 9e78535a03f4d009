// Package settings renders the operator settings screen. Access is gated by
// the host-validated settings password; once unlocked the screen offers the
// license activation form and shows the station's UI configuration.
package settings

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/earljohn004/centralized-pisonet-app/internal/theme"
)

// SubmitPasswordMsg asks the app to validate the settings password.
// Request must be passed back to PasswordResult with the answer.
type SubmitPasswordMsg struct {
	Request  uint64
	Password string
}

// SubmitLicenseMsg asks the app to authorize a license. Request must be
// passed back to LicenseResult with the answer.
type SubmitLicenseMsg struct {
	Request      uint64
	SerialNumber string
	EmailAddress string
}

// Stage is the settings screen access state.
type Stage int

const (
	StageLocked Stage = iota
	StageUnlocked
)

const (
	fieldSerial = iota
	fieldEmail
)

// Model holds the settings screen state.
type Model struct {
	Width int
	// RenderStyle is the glamour style for the UI config panel.
	RenderStyle string

	stage    Stage
	password textinput.Model
	fields   [2]textinput.Model
	focus    int
	pending  bool
	// request identifies the submission in flight. Reset and every submit
	// advance it, so answers to older submissions are ignored.
	request uint64

	notice    string
	noticeErr bool

	config   *client.UIConfig
	rendered string
}

// New creates a locked settings model.
func New() Model {
	pw := textinput.New()
	pw.Placeholder = "settings password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 64

	serial := textinput.New()
	serial.Placeholder = "serial number"
	serial.CharLimit = 64

	email := textinput.New()
	email.Placeholder = "email address"
	email.CharLimit = 128

	return Model{
		RenderStyle: "dark",
		password:    pw,
		fields:      [2]textinput.Model{serial, email},
	}
}

// Reset locks the screen and clears all input. It is called each time the
// settings screen is entered.
func (m Model) Reset() (Model, tea.Cmd) {
	m.stage = StageLocked
	m.pending = false
	m.request++
	m.notice = ""
	m.noticeErr = false
	m.config = nil
	m.rendered = ""
	m.password.Reset()
	for i := range m.fields {
		m.fields[i].Reset()
		m.fields[i].Blur()
	}
	m.focus = fieldSerial
	focus := m.password.Focus()
	return m, tea.Batch(focus, textinput.Blink)
}

// Stage returns the access state.
func (m Model) Stage() Stage { return m.stage }

// Pending reports whether a host call is in flight.
func (m Model) Pending() bool { return m.pending }

// Notice returns the current notice line and whether it is an error.
func (m Model) Notice() (string, bool) { return m.notice, m.noticeErr }

// Update handles input while the settings screen is active.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			if m.stage == StageUnlocked {
				return m.cycleFocus()
			}
		}
	}

	var cmd tea.Cmd
	if m.stage == StageLocked {
		m.password, cmd = m.password.Update(msg)
	} else {
		m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	switch m.stage {
	case StageLocked:
		pw := m.password.Value()
		if pw == "" {
			return m, nil
		}
		m.pending = true
		m.request++
		req := m.request
		m.notice, m.noticeErr = "Checking password...", false
		return m, func() tea.Msg { return SubmitPasswordMsg{Request: req, Password: pw} }
	default:
		serial := strings.TrimSpace(m.fields[fieldSerial].Value())
		email := strings.TrimSpace(m.fields[fieldEmail].Value())
		if serial == "" || email == "" {
			m.notice, m.noticeErr = "Serial number and email are required", true
			return m, nil
		}
		m.pending = true
		m.request++
		req := m.request
		m.notice, m.noticeErr = "Authorizing...", false
		return m, func() tea.Msg {
			return SubmitLicenseMsg{Request: req, SerialNumber: serial, EmailAddress: email}
		}
	}
}

func (m Model) cycleFocus() (Model, tea.Cmd) {
	m.fields[m.focus].Blur()
	m.focus = (m.focus + 1) % len(m.fields)
	cmd := m.fields[m.focus].Focus()
	return m, cmd
}

// awaiting reports whether request is the submission still in flight.
func (m Model) awaiting(request uint64) bool {
	return m.pending && request == m.request
}

// PasswordResult applies the host's answer to the SubmitPasswordMsg with the
// given request. A valid password closes the access modal; anything else
// leaves it open. Answers to any other request are ignored.
func (m Model) PasswordResult(request uint64, valid bool, err error) (Model, tea.Cmd) {
	if m.stage != StageLocked || !m.awaiting(request) {
		return m, nil
	}
	m.pending = false
	switch {
	case err != nil:
		m.notice, m.noticeErr = fmt.Sprintf("Host unavailable: %v", err), true
		return m, nil
	case !valid:
		m.password.Reset()
		m.notice, m.noticeErr = "Incorrect password", true
		return m, nil
	}
	m.stage = StageUnlocked
	m.notice, m.noticeErr = "", false
	m.password.Reset()
	m.password.Blur()
	m.focus = fieldSerial
	cmd := m.fields[fieldSerial].Focus()
	return m, cmd
}

// LicenseResult applies the host's answer to the SubmitLicenseMsg with the
// given request. Answers to any other request are ignored.
func (m Model) LicenseResult(request uint64, authorized bool, err error) Model {
	if m.stage != StageUnlocked || !m.awaiting(request) {
		return m
	}
	m.pending = false
	switch {
	case err != nil:
		m.notice, m.noticeErr = fmt.Sprintf("Host unavailable: %v", err), true
	case !authorized:
		m.notice, m.noticeErr = "Authorization failed", true
	default:
		m.notice, m.noticeErr = "License activated", false
	}
	return m
}

// SetUIConfig stores and renders the station UI configuration.
func (m Model) SetUIConfig(cfg client.UIConfig) Model {
	m.config = &cfg
	m.rendered = m.renderConfig(cfg)
	return m
}

// UIConfigFailed records that the UI configuration could not be fetched.
func (m Model) UIConfigFailed(err error) Model {
	m.config = &client.UIConfig{}
	m.rendered = theme.StyleError.Render(fmt.Sprintf("Display settings unavailable: %v", err))
	return m
}

func (m Model) renderConfig(cfg client.UIConfig) string {
	md := configMarkdown(cfg)
	wrap := m.Width - 8
	if wrap < 40 {
		wrap = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.RenderStyle),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func configMarkdown(cfg client.UIConfig) string {
	var b strings.Builder
	b.WriteString("## Station display\n\n")
	rows := []struct{ label, value string }{
		{"Cafe name", cfg.CafeName},
		{"Station", cfg.StationID},
		{"Insert coin text", cfg.InsertCoinText},
		{"Auto shutdown text", cfg.AutoShutdownText},
		{"Compact window", cfg.CompactWindowPosition},
		{"Background", cfg.BackgroundImage},
		{"Countdown", fmt.Sprintf("%ds", cfg.CountdownSeconds)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "- %s: `%s`\n", r.label, r.value)
	}
	return b.String()
}

// View renders the settings screen. st supplies the current license.
func (m Model) View(st session.State) string {
	title := theme.StyleHeader.Render("SETTINGS")
	var sections []string

	if m.stage == StageLocked {
		sections = []string{
			title,
			"",
			"Enter the settings password to continue.",
			m.password.View(),
		}
	} else {
		lic := lipgloss.NewStyle().Foreground(theme.ColorUnlicensed).Render("not activated")
		if st.License.Authorized {
			lic = lipgloss.NewStyle().Foreground(theme.ColorLicensed).
				Render(fmt.Sprintf("activated (%s, %s)", st.License.SerialNumber, st.License.EmailAddress))
		}
		sections = []string{
			title,
			"",
			"License: " + lic,
			m.fields[fieldSerial].View(),
			m.fields[fieldEmail].View(),
		}
		if m.rendered != "" {
			sections = append(sections, m.rendered)
		} else if m.config == nil {
			sections = append(sections, theme.StyleDimmed.Render("Loading station display settings..."))
		}
	}

	if m.notice != "" {
		style := theme.StyleDimmed
		if m.noticeErr {
			style = theme.StyleError
		}
		sections = append(sections, "", style.Render(m.notice))
	}
	sections = append(sections, "", theme.StyleDimmed.Render("enter: submit  tab: next field  esc: back"))

	return theme.StyleBorder.Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
