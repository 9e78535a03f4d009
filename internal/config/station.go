package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"gopkg.in/yaml.v3"
)

// Station is the host-side configuration of one kiosk station.
type Station struct {
	Server    StationServer   `yaml:"server"`
	License   LicenseRecord   `yaml:"license"`
	Licenses  []LicenseKey    `yaml:"licenses,omitempty"`
	UI        client.UIConfig `yaml:"ui"`
	Countdown CountdownConfig `yaml:"countdown"`
}

// StationServer configures the host listener and its secrets.
type StationServer struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Token    string `yaml:"token"`
	PairID   string `yaml:"pair_id"`
	Password string `yaml:"password"`
}

// LicenseRecord is the station's current license.
type LicenseRecord struct {
	Authorized   bool   `yaml:"authorized"`
	SerialNumber string `yaml:"serial_number"`
	EmailAddress string `yaml:"email_address"`
}

// LicenseKey is a serial/email pair the host accepts.
type LicenseKey struct {
	SerialNumber string `yaml:"serial_number"`
	EmailAddress string `yaml:"email_address"`
}

// CountdownConfig converts credits into session time.
type CountdownConfig struct {
	SecondsPerCredit int           `yaml:"seconds_per_credit"`
	TickInterval     time.Duration `yaml:"tick_interval"`
}

// DefaultStation returns a station with the stock cafe settings.
func DefaultStation() *Station {
	return &Station{
		Server: StationServer{
			Host:   "127.0.0.1",
			Port:   3000,
			PairID: "pair-id-123",
		},
		UI: client.UIConfig{
			CafeName:              "MPG Cafe",
			StationID:             "station-01",
			InsertCoinText:        "Insert Coin",
			AutoShutdownText:      "Auto Shutdown in",
			CompactWindowPosition: "top-right",
			BackgroundImage:       "none",
			CountdownSeconds:      100,
		},
		Countdown: CountdownConfig{
			SecondsPerCredit: 60,
			TickInterval:     time.Second,
		},
	}
}

// LoadStation reads a station file. Fields missing from the file keep their
// defaults.
func LoadStation(path string) (*Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	st := DefaultStation()
	if err := yaml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parse station %s: %w", path, err)
	}
	if st.Countdown.SecondsPerCredit <= 0 {
		return nil, fmt.Errorf("countdown.seconds_per_credit must be > 0")
	}
	if st.Countdown.TickInterval <= 0 {
		return nil, fmt.Errorf("countdown.tick_interval must be > 0")
	}
	return st, nil
}

// SaveStation writes st to path, creating the directory if needed.
func SaveStation(path string, st *Station) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir station dir: %w", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal station: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write station: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadOrInitStation loads path, writing the default station first when the
// file does not exist.
func LoadOrInitStation(path string) (*Station, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveStation(path, DefaultStation()); err != nil {
			return nil, false, err
		}
		st, err := LoadStation(path)
		return st, true, err
	}
	st, err := LoadStation(path)
	return st, false, err
}

// Accepts reports whether serial/email is one of the station's license keys.
func (s *Station) Accepts(serialNumber, emailAddress string) bool {
	for _, k := range s.Licenses {
		if k.SerialNumber == serialNumber && k.EmailAddress == emailAddress {
			return true
		}
	}
	return false
}
