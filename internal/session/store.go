// Package session holds the kiosk session state. The Store is the only
// writer of that state; everything else reads snapshots.
package session

import (
	"sync"
)

// Store owns one SessionState. It is created once per client and injected
// into the components that need it.
type Store struct {
	mu      sync.RWMutex
	state   State
	changes chan struct{}
}

// NewStore returns a store holding the defaults: offline, idle, zero
// balance, zero time, unauthorized.
func NewStore() *Store {
	return &Store{
		state:   State{ServerStatus: StatusOffline, Phase: PhaseIdle},
		changes: make(chan struct{}, 1),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Changes is signaled after every applied mutation. Bursts coalesce into a
// single pending signal.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) SetServerStatus(status ServerStatus) {
	s.apply(func(st *State) bool {
		st.ServerStatus = status
		return true
	})
}

// AddCredit records the host's new credit total. The host sends totals, not
// deltas. Any ended session is reopened.
func (s *Store) AddCredit(amount int) {
	s.apply(func(st *State) bool {
		st.Phase = PhaseFunded
		st.balance = amount
		return true
	})
}

// SetRemainingSeconds overwrites the countdown. It is dropped while the
// session is ended and reports whether it was applied.
func (s *Store) SetRemainingSeconds(seconds int) bool {
	return s.apply(func(st *State) bool {
		if st.Phase == PhaseEnded {
			return false
		}
		if st.Phase == PhaseIdle {
			st.Phase = PhaseFunded
		}
		st.remaining = seconds
		return true
	})
}

// MarkSessionEnded freezes balance and remaining seconds until the next
// credit.
func (s *Store) MarkSessionEnded() {
	s.apply(func(st *State) bool {
		st.Phase = PhaseEnded
		return true
	})
}

// SetLicense overwrites the license record. A running session never loses
// authorization, so an unauthorized record replacing an authorized one is
// refused and false is returned.
func (s *Store) SetLicense(info License) bool {
	return s.apply(func(st *State) bool {
		if st.License.Authorized && !info.Authorized {
			return false
		}
		st.License = info
		return true
	})
}

func (s *Store) apply(mutate func(*State) bool) bool {
	s.mu.Lock()
	ok := mutate(&s.state)
	if ok {
		s.state.Version++
	}
	s.mu.Unlock()

	if ok {
		select {
		case s.changes <- struct{}{}:
		default:
		}
	}
	return ok
}
