// Package gateway issues request/response commands to the host and applies
// successful results to the session store.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/earljohn004/centralized-pisonet-app/internal/session"
	"github.com/rs/zerolog"
)

// ErrDetached is returned when a response arrives after Detach. The response
// is dropped without touching the store.
var ErrDetached = errors.New("gateway detached")

// Host is the command surface of the host process.
type Host interface {
	Authorize(ctx context.Context, serialNumber, emailAddress string) (bool, error)
	ValidatePassword(ctx context.Context, password string) (bool, error)
	GetUIConfig(ctx context.Context) (client.UIConfig, error)
}

// Policy bounds host calls. A zero Timeout waits for the host indefinitely.
// Retries applies to transport errors only; a negative answer is final.
type Policy struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// Gateway relays commands to the host.
type Gateway struct {
	host   Host
	store  *session.Store
	policy Policy
	log    zerolog.Logger

	mu       sync.Mutex
	epoch    uint64
	detached bool
}

// New creates a gateway that writes successful results into store.
func New(host Host, store *session.Store, policy Policy, log zerolog.Logger) *Gateway {
	return &Gateway{
		host:   host,
		store:  store,
		policy: policy,
		log:    log.With().Str("component", "gateway").Logger(),
	}
}

// Policy returns the configured call policy.
func (g *Gateway) Policy() Policy { return g.policy }

// AuthorizeLicense asks the host to authorize the pair. On success the
// license is recorded as authorized; on a negative answer the store is left
// unchanged.
func (g *Gateway) AuthorizeLicense(ctx context.Context, serialNumber, emailAddress string) (bool, error) {
	epoch, err := g.begin()
	if err != nil {
		return false, err
	}

	var ok bool
	err = g.call(ctx, "authorize", func(ctx context.Context) error {
		var err error
		ok, err = g.host.Authorize(ctx, serialNumber, emailAddress)
		return err
	})
	if err != nil {
		g.log.Error().Err(err).Str("serial", serialNumber).Msg("authorize failed")
		return false, err
	}
	if !ok {
		g.log.Info().Str("serial", serialNumber).Msg("license not authorized")
		return false, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.detached || g.epoch != epoch {
		g.log.Warn().Str("serial", serialNumber).Msg("discarding authorize response after teardown")
		return false, ErrDetached
	}
	g.store.SetLicense(session.License{
		Authorized:   true,
		SerialNumber: serialNumber,
		EmailAddress: emailAddress,
	})
	g.log.Info().Str("serial", serialNumber).Msg("license authorized")
	return true, nil
}

// ValidateSettingsPassword asks the host whether password unlocks the
// settings screen. There is no lockout; callers may retry at once.
func (g *Gateway) ValidateSettingsPassword(ctx context.Context, password string) (bool, error) {
	epoch, err := g.begin()
	if err != nil {
		return false, err
	}

	var ok bool
	err = g.call(ctx, "validate_password", func(ctx context.Context) error {
		var err error
		ok, err = g.host.ValidatePassword(ctx, password)
		return err
	})
	if err != nil {
		g.log.Error().Err(err).Msg("password validation failed")
		return false, err
	}
	if !g.current(epoch) {
		return false, ErrDetached
	}
	if !ok {
		g.log.Info().Msg("settings password rejected")
	}
	return ok, nil
}

// UIConfig fetches the station's display configuration.
func (g *Gateway) UIConfig(ctx context.Context) (client.UIConfig, error) {
	epoch, err := g.begin()
	if err != nil {
		return client.UIConfig{}, err
	}

	var cfg client.UIConfig
	err = g.call(ctx, "ui_config", func(ctx context.Context) error {
		var err error
		cfg, err = g.host.GetUIConfig(ctx)
		return err
	})
	if err != nil {
		g.log.Error().Err(err).Msg("ui config fetch failed")
		return client.UIConfig{}, err
	}
	if !g.current(epoch) {
		return client.UIConfig{}, ErrDetached
	}
	return cfg, nil
}

// Detach marks the owning UI context as torn down. Calls in flight finish
// but their results are discarded.
func (g *Gateway) Detach() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.detached = true
	g.epoch++
}

func (g *Gateway) begin() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.detached {
		return 0, ErrDetached
	}
	return g.epoch, nil
}

func (g *Gateway) current(epoch uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.detached && g.epoch == epoch
}

// call runs fn under the policy: each attempt gets its own timeout and
// transport errors are retried after a fixed backoff.
func (g *Gateway) call(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= g.policy.Retries; attempt++ {
		if attempt > 0 {
			g.log.Debug().Str("op", op).Int("attempt", attempt+1).Err(err).Msg("retrying host call")
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(g.policy.Backoff):
			}
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if g.policy.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, g.policy.Timeout)
		}
		err = fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
