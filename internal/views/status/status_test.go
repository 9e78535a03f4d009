package status

import (
	"strings"
	"testing"

	"github.com/earljohn004/centralized-pisonet-app/internal/nav"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestViewDefaults(t *testing.T) {
	m := New()
	m.Width = 120
	v := m.View(session.NewStore().Snapshot(), nav.ScreenMain)

	assert.Contains(t, v, "Connecting")
	assert.Contains(t, v, "coin slot offline")
	assert.Contains(t, v, "unlicensed")
	assert.Contains(t, v, "/show_main")
}

func TestViewConnectedAndLicensed(t *testing.T) {
	store := session.NewStore()
	store.SetServerStatus(session.StatusRequestReceived)
	store.SetLicense(session.License{Authorized: true, SerialNumber: "SN-1"})

	m := New()
	m.Width = 120
	m.Connected = true
	m.Station = "station-01"
	v := m.View(store.Snapshot(), nav.ScreenCompact)

	assert.Contains(t, v, "Host connected")
	assert.Contains(t, v, "coin slot ready")
	assert.Contains(t, v, "licensed SN-1")
	assert.Contains(t, v, "station-01")
	assert.False(t, strings.Contains(v, "unlicensed"))
}
