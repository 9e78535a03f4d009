package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStationKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.yaml")
	yaml := `
server:
  port: 4000
  password: "letmein"
ui:
  cafe_name: "Test Cafe"
licenses:
  - serial_number: SN1
    email_address: a@b.com
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	st, err := LoadStation(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, st.Server.Port)
	assert.Equal(t, "127.0.0.1", st.Server.Host)
	assert.Equal(t, "pair-id-123", st.Server.PairID)
	assert.Equal(t, "Test Cafe", st.UI.CafeName)
	assert.Equal(t, "station-01", st.UI.StationID)
	assert.Equal(t, 60, st.Countdown.SecondsPerCredit)
	assert.Equal(t, time.Second, st.Countdown.TickInterval)
	assert.True(t, st.Accepts("SN1", "a@b.com"))
	assert.False(t, st.Accepts("SN1", "other@b.com"))
}

func TestLoadStationValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.yaml")
	require.NoError(t, os.WriteFile(path, []byte("countdown:\n  seconds_per_credit: 0\n"), 0o644))

	_, err := LoadStation(path)
	assert.Error(t, err)
}

func TestSaveAndLoadStation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "station.yaml")
	st := DefaultStation()
	st.License = LicenseRecord{Authorized: true, SerialNumber: "SN9", EmailAddress: "z@z"}
	st.Countdown.TickInterval = 250 * time.Millisecond

	require.NoError(t, SaveStation(path, st))
	got, err := LoadStation(path)
	require.NoError(t, err)
	assert.Equal(t, st, got)
}

func TestLoadOrInitStation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station.yaml")

	st, created, err := LoadOrInitStation(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, DefaultStation(), st)

	_, created, err = LoadOrInitStation(path)
	require.NoError(t, err)
	assert.False(t, created)
}
