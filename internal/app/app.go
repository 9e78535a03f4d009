// Package app is the root Bubble Tea model of the kiosk client. It owns the
// UI context: activating host event subscriptions on start, re-rendering from
// store snapshots when the session or route changes, and tearing everything
// down on quit.
package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/gateway"
	"github.com/earljohn004/centralized-pisonet-app/internal/lockdown"
	"github.com/earljohn004/centralized-pisonet-app/internal/nav"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/earljohn004/centralized-pisonet-app/internal/theme"
	"github.com/earljohn004/centralized-pisonet-app/internal/views/compact"
	"github.com/earljohn004/centralized-pisonet-app/internal/views/debug"
	"github.com/earljohn004/centralized-pisonet-app/internal/views/mainscreen"
	"github.com/earljohn004/centralized-pisonet-app/internal/views/settings"
	"github.com/earljohn004/centralized-pisonet-app/internal/views/status"
	"github.com/rs/zerolog"
)

// Subscriptions installs and releases the host event handlers.
type Subscriptions interface {
	Activate() bool
	Deactivate() int
}

// Commands issues request/response calls to the host.
type Commands interface {
	AuthorizeLicense(ctx context.Context, serialNumber, emailAddress string) (bool, error)
	ValidateSettingsPassword(ctx context.Context, password string) (bool, error)
	UIConfig(ctx context.Context) (client.UIConfig, error)
	Detach()
}

// Transport is the host event stream.
type Transport interface {
	Run(ctx context.Context, pub client.Publisher) error
	Connected() bool
	Changes() <-chan struct{}
	Seq() uint64
}

// Deps are the collaborators of one UI context.
type Deps struct {
	Bus           client.Publisher
	Store         *session.Store
	Router        *nav.Router
	Subscriptions Subscriptions
	Commands      Commands
	Transport     Transport // nil disables the event stream
	Production    bool
	Log           zerolog.Logger
}

type (
	storeChangedMsg     struct{}
	routeChangedMsg     struct{}
	connChangedMsg      struct{}
	transportStoppedMsg struct{ err error }
	passwordResultMsg   struct {
		request uint64
		valid   bool
		err     error
	}
	licenseResultMsg struct {
		request    uint64
		authorized bool
		err        error
	}
	uiConfigMsg struct {
		cfg         client.UIConfig
		err         error
		forSettings bool
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	deps   Deps
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	help   help.Model
	width  int
	height int

	state     session.State
	screen    nav.Screen
	connected bool
	showDebug bool
	animating bool

	statusBar status.Model
	main      mainscreen.Model
	compact   compact.Model
	settings  settings.Model
	debug     debug.Model
}

// New creates the root model.
func New(deps Deps) Model {
	ctx, cancel := context.WithCancel(context.Background())
	keys := DefaultKeyMap()
	keys.Debug.SetEnabled(!deps.Production)

	return Model{
		deps:      deps,
		log:       deps.Log.With().Str("component", "app").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		keys:      keys,
		help:      help.New(),
		state:     deps.Store.Snapshot(),
		screen:    deps.Router.Current(),
		statusBar: status.New(),
		main:      mainscreen.New(),
		compact:   compact.New(),
		settings:  settings.New(),
		debug:     debug.New(),
	}
}

// Init activates the host subscriptions and starts the event stream.
func (m Model) Init() tea.Cmd {
	if m.deps.Subscriptions.Activate() {
		m.log.Info().Msg("host subscriptions activated")
	}

	cmds := []tea.Cmd{
		m.wait(m.deps.Store.Changes(), storeChangedMsg{}),
		m.wait(m.deps.Router.Changes(), routeChangedMsg{}),
		m.fetchUIConfig(false),
	}
	if t := m.deps.Transport; t != nil {
		cmds = append(cmds,
			m.wait(t.Changes(), connChangedMsg{}),
			func() tea.Msg { return transportStoppedMsg{err: t.Run(m.ctx, m.deps.Bus)} },
		)
	}
	return tea.Batch(cmds...)
}

// wait delivers msg the next time ch is signaled.
func (m Model) wait(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.main.Width = msg.Width
		m.main.Height = msg.Height - 6
		m.settings.Width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		// Only reaches the model outside production; the guard drops it
		// otherwise.
		if lockdown.IsContextMenu(msg) {
			m.showDebug = !m.showDebug
		}
		return m, nil

	case storeChangedMsg:
		prev := m.state
		m.state = m.deps.Store.Snapshot()
		m.debug.Addf(debug.KindState, "%s", m.state)
		if prev.License.Authorized != m.state.License.Authorized {
			m.log.Info().Bool("authorized", m.state.License.Authorized).Msg("license changed")
		}
		cmds := []tea.Cmd{m.wait(m.deps.Store.Changes(), storeChangedMsg{})}
		if m.compact.Sync(m.state) && !m.animating {
			m.animating = true
			cmds = append(cmds, compact.Frame())
		}
		return m, tea.Batch(cmds...)

	case routeChangedMsg:
		return m.enterScreen(m.deps.Router.Current())

	case connChangedMsg:
		m.connected = m.deps.Transport.Connected()
		m.statusBar.Connected = m.connected
		m.debug.Addf(debug.KindHost, "connected=%t last_seq=%d", m.connected, m.deps.Transport.Seq())
		return m, m.wait(m.deps.Transport.Changes(), connChangedMsg{})

	case transportStoppedMsg:
		if !client.IsClosed(msg.err) {
			m.log.Error().Err(msg.err).Msg("event stream stopped")
		}
		return m, nil

	case compact.FrameMsg:
		if m.compact.Step() {
			return m, compact.Frame()
		}
		m.animating = false
		return m, nil

	case settings.SubmitPasswordMsg:
		m.debug.Addf(debug.KindCmd, "validate_password")
		return m, m.validatePassword(msg.Request, msg.Password)

	case settings.SubmitLicenseMsg:
		m.debug.Addf(debug.KindCmd, "authorize %s", msg.SerialNumber)
		return m, m.authorize(msg.Request, msg.SerialNumber, msg.EmailAddress)

	case passwordResultMsg:
		if errors.Is(msg.err, gateway.ErrDetached) || m.screen != nav.ScreenSettings {
			return m, nil
		}
		var cmd tea.Cmd
		m.settings, cmd = m.settings.PasswordResult(msg.request, msg.valid, msg.err)
		return m, cmd

	case licenseResultMsg:
		if errors.Is(msg.err, gateway.ErrDetached) {
			return m, nil
		}
		if msg.err == nil && !msg.authorized {
			m.debug.Addf(debug.KindErr, "authorization failed")
		}
		if m.screen == nav.ScreenSettings {
			m.settings = m.settings.LicenseResult(msg.request, msg.authorized, msg.err)
		}
		return m, nil

	case uiConfigMsg:
		return m.applyUIConfig(msg), nil
	}

	if m.screen == nav.ScreenSettings {
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) enterScreen(next nav.Screen) (tea.Model, tea.Cmd) {
	prev := m.screen
	m.screen = next
	cmds := []tea.Cmd{m.wait(m.deps.Router.Changes(), routeChangedMsg{})}
	if prev == next {
		return m, tea.Batch(cmds...)
	}

	m.log.Info().Str("screen", next.String()).Str("from", prev.String()).Msg("navigated")
	m.debug.Addf(debug.KindNav, "%s -> %s", prev, next)
	if next == nav.ScreenSettings {
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Reset()
		cmds = append(cmds, cmd, m.fetchUIConfig(true))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) applyUIConfig(msg uiConfigMsg) Model {
	if errors.Is(msg.err, gateway.ErrDetached) {
		return m
	}
	if msg.err != nil {
		m.debug.Addf(debug.KindErr, "ui_config: %v", msg.err)
		if msg.forSettings && m.screen == nav.ScreenSettings {
			m.settings = m.settings.UIConfigFailed(msg.err)
		}
		return m
	}
	m.main.Config = msg.cfg
	m.statusBar.Station = msg.cfg.StationID
	if msg.forSettings && m.screen == nav.ScreenSettings {
		m.settings = m.settings.SetUIConfig(msg.cfg)
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.teardown()
		return m, tea.Quit
	}

	if m.showDebug {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.showDebug = false
		case key.Matches(msg, m.keys.Up):
			m.debug.Scroll(1)
		case key.Matches(msg, m.keys.Down):
			m.debug.Scroll(-1)
		}
		return m, nil
	}

	if m.screen == nav.ScreenSettings {
		if key.Matches(msg, m.keys.Escape) {
			m.goRoute(nav.ScreenMain.Route())
			return m, nil
		}
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Settings) && m.screen == nav.ScreenMain:
		m.goRoute(nav.ScreenSettings.Route())
	case key.Matches(msg, m.keys.Main):
		m.goRoute(nav.ScreenMain.Route())
	case key.Matches(msg, m.keys.Compact):
		m.goRoute(nav.ScreenCompact.Route())
	case key.Matches(msg, m.keys.Debug):
		m.showDebug = true
	}
	return m, nil
}

func (m Model) goRoute(path string) {
	if err := m.deps.Router.Go(path); err != nil {
		m.log.Warn().Err(err).Str("route", path).Msg("route link ignored")
	}
}

// teardown ends the UI context: handlers are released, late host responses
// are discarded and the event stream stops.
func (m Model) teardown() {
	n := m.deps.Subscriptions.Deactivate()
	m.deps.Commands.Detach()
	m.cancel()
	m.log.Info().Int("released", n).Msg("ui context torn down")
}

func (m Model) validatePassword(request uint64, password string) tea.Cmd {
	ctx, cmds := m.ctx, m.deps.Commands
	return func() tea.Msg {
		ok, err := cmds.ValidateSettingsPassword(ctx, password)
		return passwordResultMsg{request: request, valid: ok, err: err}
	}
}

func (m Model) authorize(request uint64, serial, email string) tea.Cmd {
	ctx, cmds := m.ctx, m.deps.Commands
	return func() tea.Msg {
		ok, err := cmds.AuthorizeLicense(ctx, serial, email)
		return licenseResultMsg{request: request, authorized: ok, err: err}
	}
}

func (m Model) fetchUIConfig(forSettings bool) tea.Cmd {
	ctx, cmds := m.ctx, m.deps.Commands
	return func() tea.Msg {
		cfg, err := cmds.UIConfig(ctx)
		return uiConfigMsg{cfg: cfg, err: err, forSettings: forSettings}
	}
}

// View renders the active screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	var body string
	switch {
	case m.showDebug:
		body = m.debug.View(m.width, m.height-4)
	case m.screen == nav.ScreenCompact:
		body = m.compact.View(m.state)
	case m.screen == nav.ScreenSettings:
		body = m.settings.View(m.state)
	default:
		body = m.main.View(m.state)
	}

	sections := []string{m.statusBar.View(m.state, m.screen), body}
	if !m.connected && m.deps.Transport != nil {
		sections = append(sections, theme.StyleError.Render("  Host unreachable, reconnecting..."))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
