// Package subscription binds the host event stream to the session store and
// the navigation policy.
//
// A Manager is activated once per root UI context. Activate installs one
// handler per bound event and keeps the returned tokens; Deactivate releases
// exactly those tokens. Re-activating an active manager does nothing, so a
// UI that calls Activate on every render cannot accumulate duplicate
// handlers.
package subscription

import (
	"sync"

	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/eventbus"
	"github.com/earljohn004/centralized-pisonet-app/internal/nav"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bus is the subscription surface of the host event bus.
type Bus interface {
	Subscribe(name string, h eventbus.Handler) eventbus.Token
	Unsubscribe(tok eventbus.Token) bool
}

// Manager owns the host event subscriptions of one UI context.
type Manager struct {
	bus    Bus
	store  *session.Store
	router *nav.Router
	log    zerolog.Logger

	mu         sync.Mutex
	tokens     []eventbus.Token
	activation string
}

// New creates an inactive manager.
func New(bus Bus, store *session.Store, router *nav.Router, log zerolog.Logger) *Manager {
	return &Manager{
		bus:    bus,
		store:  store,
		router: router,
		log:    log.With().Str("component", "subscription").Logger(),
	}
}

// bindings lists the handled events in installation order.
func (m *Manager) bindings() []struct {
	name    string
	handler eventbus.Handler
} {
	return []struct {
		name    string
		handler eventbus.Handler
	}{
		{client.EventRegistrationAcknowledged, m.onRegistrationAcknowledged},
		{client.EventCreditAdded, m.onCreditAdded},
		{client.EventCountdownTick, m.onCountdownTick},
		{client.EventCountdownFinished, m.onCountdownFinished},
		{client.EventLicenseInitialized, m.onLicenseInitialized},
		{client.EventNavigateToSettings, m.onNavigateToSettings},
	}
}

// Activate installs the event handlers. It returns false and installs
// nothing when the manager is already active.
func (m *Manager) Activate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens != nil {
		return false
	}

	m.activation = uuid.NewString()
	bindings := m.bindings()
	m.tokens = make([]eventbus.Token, 0, len(bindings))
	for _, b := range bindings {
		m.tokens = append(m.tokens, m.bus.Subscribe(b.name, b.handler))
	}

	m.log.Info().
		Str("activation", m.activation).
		Int("subscriptions", len(m.tokens)).
		Msg("subscriptions installed")
	return true
}

// Deactivate releases the handlers installed by the current activation and
// returns how many were released. Tokens the bus no longer knows are
// skipped. Calling Deactivate on an inactive manager returns 0.
func (m *Manager) Deactivate() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens == nil {
		return 0
	}

	released := 0
	for _, tok := range m.tokens {
		if m.bus.Unsubscribe(tok) {
			released++
		} else {
			m.log.Debug().Str("event", tok.Name()).Msg("subscription already released")
		}
	}

	m.log.Info().
		Str("activation", m.activation).
		Int("released", released).
		Msg("subscriptions released")

	m.tokens = nil
	m.activation = ""
	return released
}

// Active reports whether handlers are installed.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens != nil
}

// Tokens returns a copy of the tokens held by the current activation.
func (m *Manager) Tokens() []eventbus.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]eventbus.Token(nil), m.tokens...)
}
