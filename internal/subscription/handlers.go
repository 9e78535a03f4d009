package subscription

import (
	"errors"

	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/eventbus"
	"github.com/earljohn004/centralized-pisonet-app/internal/nav"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/goccy/go-json"
)

var (
	errMissingPayload = errors.New("missing payload")
	errNegative       = errors.New("negative value")
	errMissingField   = errors.New("missing license field")
)

func (m *Manager) onRegistrationAcknowledged(ev eventbus.Event) {
	m.log.Info().Str("event", ev.Name).RawJSON("payload", rawOrNull(ev.Payload)).Msg("registration acknowledged")
	m.store.SetServerStatus(session.StatusRequestReceived)
}

func (m *Manager) onCreditAdded(ev eventbus.Event) {
	credits, err := decodeCount(ev.Payload)
	if err != nil {
		m.malformed(ev, err)
		return
	}
	m.log.Info().Str("event", ev.Name).Int("credits", credits).Msg("credit added")
	m.store.AddCredit(credits)
	m.navigate(ev, nav.Trigger{Kind: nav.TriggerCreditAdded})
}

func (m *Manager) onCountdownTick(ev eventbus.Event) {
	seconds, err := decodeCount(ev.Payload)
	if err != nil {
		m.malformed(ev, err)
		return
	}
	if !m.store.SetRemainingSeconds(seconds) {
		m.log.Debug().Str("event", ev.Name).Int("seconds", seconds).Msg("tick ignored, session ended")
	}
}

func (m *Manager) onCountdownFinished(ev eventbus.Event) {
	m.log.Info().Str("event", ev.Name).Msg("countdown finished")
	m.store.MarkSessionEnded()
	m.navigate(ev, nav.Trigger{Kind: nav.TriggerCountdownFinished})
}

func (m *Manager) onLicenseInitialized(ev eventbus.Event) {
	var p client.LicensePayload
	if err := decode(ev.Payload, &p); err != nil {
		m.malformed(ev, err)
		return
	}
	if p.Authorized == nil || p.SerialNumber == nil || p.EmailAddress == nil {
		m.malformed(ev, errMissingField)
		return
	}

	info := session.License{
		Authorized:   *p.Authorized,
		SerialNumber: *p.SerialNumber,
		EmailAddress: *p.EmailAddress,
	}
	if !m.store.SetLicense(info) {
		m.log.Warn().Str("event", ev.Name).Msg("refusing to de-authorize an authorized license")
		return
	}
	m.log.Info().Str("event", ev.Name).Bool("authorized", info.Authorized).Msg("license initialized")
}

func (m *Manager) onNavigateToSettings(ev eventbus.Event) {
	var open bool
	if err := decode(ev.Payload, &open); err != nil {
		m.malformed(ev, err)
		return
	}
	m.navigate(ev, nav.Trigger{Kind: nav.TriggerSettingsRequested, Flag: open})
}

func (m *Manager) navigate(ev eventbus.Event, t nav.Trigger) {
	if m.router == nil {
		return
	}
	if screen, ok := m.router.Apply(t); ok {
		m.log.Debug().Str("event", ev.Name).Str("screen", screen.String()).Msg("navigated")
	}
}

func (m *Manager) malformed(ev eventbus.Event, err error) {
	m.log.Warn().
		Err(err).
		Str("event", ev.Name).
		Uint64("seq", ev.Seq).
		Str("payload", string(ev.Payload)).
		Msg("malformed payload, mutation skipped")
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errMissingPayload
	}
	return json.Unmarshal(raw, v)
}

// decodeCount decodes a non-negative integer payload.
func decodeCount(raw json.RawMessage) (int, error) {
	var n int
	if err := decode(raw, &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}

func rawOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
