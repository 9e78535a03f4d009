package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	authorize func(ctx context.Context, serial, email string) (bool, error)
	password  func(ctx context.Context, pw string) (bool, error)
	uiConfig  func(ctx context.Context) (client.UIConfig, error)
}

func (h *fakeHost) Authorize(ctx context.Context, serial, email string) (bool, error) {
	return h.authorize(ctx, serial, email)
}

func (h *fakeHost) ValidatePassword(ctx context.Context, pw string) (bool, error) {
	return h.password(ctx, pw)
}

func (h *fakeHost) GetUIConfig(ctx context.Context) (client.UIConfig, error) {
	return h.uiConfig(ctx)
}

func answer(v bool) func(context.Context, string, string) (bool, error) {
	return func(context.Context, string, string) (bool, error) { return v, nil }
}

func blockUntilDone(ctx context.Context, _, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestAuthorizeLicenseTrue(t *testing.T) {
	store := session.NewStore()
	g := New(&fakeHost{authorize: answer(true)}, store, Policy{}, zerolog.Nop())

	ok, err := g.AuthorizeLicense(context.Background(), "SN1", "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, session.License{Authorized: true, SerialNumber: "SN1", EmailAddress: "a@b.com"}, store.Snapshot().License)
}

func TestAuthorizeLicenseFalseLeavesStore(t *testing.T) {
	store := session.NewStore()
	g := New(&fakeHost{authorize: answer(false)}, store, Policy{}, zerolog.Nop())

	ok, err := g.AuthorizeLicense(context.Background(), "SN1", "a@b.com")
	require.NoError(t, err)
	assert.False(t, ok)

	st := store.Snapshot()
	assert.False(t, st.License.Authorized)
	assert.Equal(t, "", st.License.SerialNumber)
	assert.Equal(t, uint64(0), st.Version)
}

func TestAuthorizeFalseKeepsPriorLicense(t *testing.T) {
	store := session.NewStore()
	prior := session.License{SerialNumber: "OLD", EmailAddress: "old@x"}
	store.SetLicense(prior)

	g := New(&fakeHost{authorize: answer(false)}, store, Policy{}, zerolog.Nop())
	g.AuthorizeLicense(context.Background(), "SN1", "a@b.com")

	assert.Equal(t, prior, store.Snapshot().License)
}

func TestValidateSettingsPassword(t *testing.T) {
	store := session.NewStore()
	host := &fakeHost{password: func(_ context.Context, pw string) (bool, error) {
		return pw == "letmein", nil
	}}
	g := New(host, store, Policy{}, zerolog.Nop())

	ok, err := g.ValidateSettingsPassword(context.Background(), "letmein")
	require.NoError(t, err)
	assert.True(t, ok)

	for i := 0; i < 3; i++ {
		ok, err = g.ValidateSettingsPassword(context.Background(), "nope")
		require.NoError(t, err)
		assert.False(t, ok, "no lockout, just false")
	}
	assert.Equal(t, uint64(0), store.Snapshot().Version, "password checks never touch the store")
}

func TestTimeoutPolicy(t *testing.T) {
	store := session.NewStore()
	g := New(&fakeHost{authorize: blockUntilDone}, store, Policy{Timeout: 20 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	ok, err := g.AuthorizeLicense(context.Background(), "SN1", "a@b.com")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, store.Snapshot().License.Authorized)
}

func TestRetryTransportErrors(t *testing.T) {
	var calls atomic.Int32
	host := &fakeHost{authorize: func(context.Context, string, string) (bool, error) {
		if calls.Add(1) < 3 {
			return false, errors.New("connection refused")
		}
		return true, nil
	}}
	store := session.NewStore()
	g := New(host, store, Policy{Retries: 2, Backoff: time.Millisecond}, zerolog.Nop())

	ok, err := g.AuthorizeLicense(context.Background(), "SN1", "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("connection refused")
	host := &fakeHost{authorize: func(context.Context, string, string) (bool, error) {
		calls.Add(1)
		return false, boom
	}}
	g := New(host, session.NewStore(), Policy{Retries: 1, Backoff: time.Millisecond}, zerolog.Nop())

	_, err := g.AuthorizeLicense(context.Background(), "SN1", "a@b.com")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNegativeAnswerNotRetried(t *testing.T) {
	var calls atomic.Int32
	host := &fakeHost{authorize: func(context.Context, string, string) (bool, error) {
		calls.Add(1)
		return false, nil
	}}
	g := New(host, session.NewStore(), Policy{Retries: 3}, zerolog.Nop())

	g.AuthorizeLicense(context.Background(), "SN1", "a@b.com")
	assert.Equal(t, int32(1), calls.Load())
}

func TestResponseAfterDetachDiscarded(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	host := &fakeHost{authorize: func(context.Context, string, string) (bool, error) {
		close(entered)
		<-release
		return true, nil
	}}
	store := session.NewStore()
	g := New(host, store, Policy{}, zerolog.Nop())

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		ok, err := g.AuthorizeLicense(context.Background(), "SN1", "a@b.com")
		done <- result{ok, err}
	}()

	<-entered
	g.Detach()
	close(release)

	r := <-done
	assert.False(t, r.ok)
	assert.ErrorIs(t, r.err, ErrDetached)
	assert.False(t, store.Snapshot().License.Authorized)
}

func TestDetachedRejectsNewCalls(t *testing.T) {
	var calls atomic.Int32
	host := &fakeHost{password: func(context.Context, string) (bool, error) {
		calls.Add(1)
		return true, nil
	}}
	g := New(host, session.NewStore(), Policy{}, zerolog.Nop())
	g.Detach()

	_, err := g.ValidateSettingsPassword(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDetached)
	assert.Equal(t, int32(0), calls.Load())

	// Detach is permanent for the UI context.
	g.Detach()
	_, err = g.ValidateSettingsPassword(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDetached)
	assert.Equal(t, int32(0), calls.Load())
}

func TestUIConfig(t *testing.T) {
	want := client.UIConfig{CafeName: "MPG Cafe", CountdownSeconds: 100}
	host := &fakeHost{uiConfig: func(context.Context) (client.UIConfig, error) { return want, nil }}
	g := New(host, session.NewStore(), Policy{}, zerolog.Nop())

	got, err := g.UIConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPolicyReturnsConfigured(t *testing.T) {
	p := Policy{Timeout: 2 * time.Second, Retries: 3, Backoff: 10 * time.Millisecond}
	g := New(&fakeHost{}, session.NewStore(), p, zerolog.Nop())
	assert.Equal(t, p, g.Policy())
}
