package session

import "fmt"

// ServerStatus reports whether the host has acknowledged registration.
type ServerStatus int

const (
	StatusOffline ServerStatus = iota
	StatusRequestReceived
)

var statusNames = map[ServerStatus]string{
	StatusOffline:         "offline",
	StatusRequestReceived: "request_received",
}

func (s ServerStatus) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Phase is the session lifecycle. Balance and remaining seconds only exist
// inside a phase, so "ended and funded" cannot be represented.
type Phase int

const (
	PhaseIdle   Phase = iota // no credit inserted since start
	PhaseFunded              // credit inserted, countdown running
	PhaseEnded               // countdown finished; balance and seconds frozen
)

var phaseNames = map[Phase]string{
	PhaseIdle:   "idle",
	PhaseFunded: "funded",
	PhaseEnded:  "ended",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return "unknown"
}

// License is the last known authorization result relayed by the host.
type License struct {
	Authorized   bool   `json:"authorized"`
	SerialNumber string `json:"serialNumber"`
	EmailAddress string `json:"emailAddress"`
}

// State is an immutable snapshot of the session. Values are copied out of
// the store; mutating one has no effect on the store.
type State struct {
	Version      uint64
	ServerStatus ServerStatus
	Phase        Phase
	License      License

	balance   int
	remaining int
}

// CoinBalance returns the credits for the active (or last ended) session.
func (s State) CoinBalance() int { return s.balance }

// RemainingSeconds returns the countdown value. It is only meaningful while
// the session has not ended.
func (s State) RemainingSeconds() int { return s.remaining }

// SessionEnded reports whether the countdown finished and no credit has
// arrived since.
func (s State) SessionEnded() bool { return s.Phase == PhaseEnded }

func (s State) String() string {
	return fmt.Sprintf("v%d %s %s balance=%d remaining=%d authorized=%t",
		s.Version, s.ServerStatus, s.Phase, s.balance, s.remaining, s.License.Authorized)
}
