// Package client talks to the kiosk host process: a WebSocket stream of host
// events and HTTP request/response commands. Types mirror the host wire
// contract without importing host packages.
package client

import (
	"github.com/goccy/go-json"
)

// Host event names.
const (
	EventRegistrationAcknowledged = "registration-acknowledged"
	EventCreditAdded              = "credit-added"
	EventCountdownTick            = "countdown-tick"
	EventCountdownFinished        = "countdown-finished"
	EventLicenseInitialized       = "license-initialized"
	EventNavigateToSettings       = "navigate-to-settings"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LicensePayload is the body of license-initialized. Pointer fields let the
// receiver tell a missing field from a zero value.
type LicensePayload struct {
	Authorized   *bool   `json:"authorized"`
	SerialNumber *string `json:"serialNumber"`
	EmailAddress *string `json:"emailAddress"`
}

// --- HTTP request/response types ---

// AuthorizeRequest is sent to /api/v1/authorize.
type AuthorizeRequest struct {
	SerialNumber string `json:"serialNumber"`
	EmailAddress string `json:"emailAddress"`
}

// AuthorizeResponse is returned by /api/v1/authorize.
type AuthorizeResponse struct {
	Authorized bool `json:"authorized"`
}

// PasswordRequest is sent to /api/v1/validate_password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// PasswordResponse is returned by /api/v1/validate_password.
type PasswordResponse struct {
	Valid bool `json:"valid"`
}

// UIConfig is returned by /api/v1/ui_config. It is informational only.
type UIConfig struct {
	CafeName              string `json:"cafeName" yaml:"cafe_name"`
	StationID             string `json:"stationId" yaml:"station_id"`
	InsertCoinText        string `json:"insertCoinText" yaml:"insert_coin_text"`
	AutoShutdownText      string `json:"autoShutdownText" yaml:"autoshutdown_text"`
	CompactWindowPosition string `json:"compactWindowPosition" yaml:"smwindow_position"`
	BackgroundImage       string `json:"backgroundImage" yaml:"background_img"`
	CountdownSeconds      int    `json:"countdownSeconds" yaml:"countdown_timer"`
}

// RegisterRequest is sent by a coin controller to /api/v1/register.
type RegisterRequest struct {
	PairID  string `json:"pair_id"`
	Address string `json:"address"`
	HWID    string `json:"hwid"`
}

// RegisterResponse is returned by /api/v1/register.
type RegisterResponse struct {
	Status        bool   `json:"status"`
	ServerHWID    string `json:"server_hwid"`
	ServerAddress string `json:"server_address"`
	Text          string `json:"text"`
}

// AddTimeRequest is sent by a coin controller to /api/v1/addtime.
type AddTimeRequest struct {
	Credits int `json:"credits"`
}

// AddTimeResponse is returned by /api/v1/addtime.
type AddTimeResponse struct {
	Status bool   `json:"status"`
	Text   string `json:"text"`
}

// SettingsRequest is sent to /api/v1/settings to ask the client to open the
// settings screen.
type SettingsRequest struct {
	Open bool `json:"open"`
}
