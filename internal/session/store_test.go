package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore()
	st := s.Snapshot()

	assert.Equal(t, StatusOffline, st.ServerStatus)
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, 0, st.CoinBalance())
	assert.Equal(t, 0, st.RemainingSeconds())
	assert.False(t, st.SessionEnded())
	assert.Equal(t, License{}, st.License)
	assert.Equal(t, uint64(0), st.Version)
}

func TestAddCreditKeepsLastTotal(t *testing.T) {
	tests := []struct {
		name    string
		credits []int
	}{
		{"single", []int{5}},
		{"increasing", []int{1, 5, 10}},
		{"decreasing", []int{10, 3}},
		{"zero last", []int{4, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			for _, c := range tt.credits {
				s.AddCredit(c)
				assert.False(t, s.Snapshot().SessionEnded(), "ended after credit %d", c)
			}
			assert.Equal(t, tt.credits[len(tt.credits)-1], s.Snapshot().CoinBalance())
		})
	}
}

func TestCreditReopensEndedSession(t *testing.T) {
	s := NewStore()
	s.AddCredit(5)
	s.MarkSessionEnded()
	require.True(t, s.Snapshot().SessionEnded())

	s.AddCredit(10)
	st := s.Snapshot()
	assert.False(t, st.SessionEnded())
	assert.Equal(t, PhaseFunded, st.Phase)
	assert.Equal(t, 10, st.CoinBalance())
}

func TestEndedFreezesCountdown(t *testing.T) {
	s := NewStore()
	s.AddCredit(5)
	require.True(t, s.SetRemainingSeconds(30))
	s.MarkSessionEnded()

	assert.False(t, s.SetRemainingSeconds(12), "tick applied to ended session")
	st := s.Snapshot()
	assert.Equal(t, 30, st.RemainingSeconds())
	assert.Equal(t, 5, st.CoinBalance())

	s.AddCredit(1)
	assert.True(t, s.SetRemainingSeconds(60))
	assert.Equal(t, 60, s.Snapshot().RemainingSeconds())
}

func TestTickWhileIdleStartsCountdown(t *testing.T) {
	s := NewStore()
	require.True(t, s.SetRemainingSeconds(15))

	st := s.Snapshot()
	assert.Equal(t, PhaseFunded, st.Phase)
	assert.Equal(t, 15, st.RemainingSeconds())
	assert.Equal(t, 0, st.CoinBalance())
}

func TestSetLicenseNeverDeauthorizes(t *testing.T) {
	s := NewStore()
	require.True(t, s.SetLicense(License{SerialNumber: "old"}))

	authorized := License{Authorized: true, SerialNumber: "SN1", EmailAddress: "a@b.com"}
	require.True(t, s.SetLicense(authorized))

	assert.False(t, s.SetLicense(License{Authorized: false, SerialNumber: "x"}))
	assert.Equal(t, authorized, s.Snapshot().License)

	other := License{Authorized: true, SerialNumber: "SN2", EmailAddress: "c@d.com"}
	assert.True(t, s.SetLicense(other))
	assert.Equal(t, other, s.Snapshot().License)
}

func TestVersionCountsAppliedMutations(t *testing.T) {
	s := NewStore()
	s.SetServerStatus(StatusRequestReceived)
	s.AddCredit(2)
	s.MarkSessionEnded()
	s.SetRemainingSeconds(3) // dropped: ended

	assert.Equal(t, uint64(3), s.Snapshot().Version)
}

func TestChangesCoalesce(t *testing.T) {
	s := NewStore()
	s.AddCredit(1)
	s.AddCredit(2)
	s.AddCredit(3)

	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a pending change signal")
	}
	select {
	case <-s.Changes():
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.SetLicense(License{SerialNumber: "original"})

	st := s.Snapshot()
	st.License.SerialNumber = "mutated"

	assert.Equal(t, "original", s.Snapshot().License.SerialNumber)
}

func TestConcurrentMutationsSerialized(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.AddCredit(n)
		}(i)
		go func(n int) {
			defer wg.Done()
			s.SetRemainingSeconds(n)
			_ = s.Snapshot().CoinBalance()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(100), s.Snapshot().Version)
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "offline", StatusOffline.String())
	assert.Equal(t, "request_received", StatusRequestReceived.String())
	assert.Equal(t, "ended", PhaseEnded.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
