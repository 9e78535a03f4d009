package host

import (
	"context"
	"sync"
	"time"

	"github.com/earljohn004/centralized-pisonet-app/internal/client"
	"github.com/rs/zerolog"
)

// Emitter publishes host events.
type Emitter interface {
	Emit(event string, payload interface{})
}

// Countdown turns inserted credits into session time. Credits accumulate
// into a balance; each credit buys SecondsPerCredit seconds.
type Countdown struct {
	emit             Emitter
	secondsPerCredit int
	interval         time.Duration
	log              zerolog.Logger

	mu        sync.Mutex
	balance   int
	remaining int
}

func NewCountdown(emit Emitter, secondsPerCredit int, interval time.Duration, log zerolog.Logger) *Countdown {
	return &Countdown{
		emit:             emit,
		secondsPerCredit: secondsPerCredit,
		interval:         interval,
		log:              log.With().Str("component", "countdown").Logger(),
	}
}

// AddCredits adds credits to the running session (or starts one) and emits
// the new balance total.
func (c *Countdown) AddCredits(credits int) int {
	c.mu.Lock()
	c.balance += credits
	c.remaining += credits * c.secondsPerCredit
	balance := c.balance
	remaining := c.remaining
	c.mu.Unlock()

	c.log.Info().Int("credits", credits).Int("balance", balance).Int("remaining", remaining).Msg("credits added")
	c.emit.Emit(client.EventCreditAdded, balance)
	return balance
}

// Tick advances the countdown by one second. It emits countdown-tick while
// time remains and countdown-finished when it reaches zero.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if c.remaining == 0 {
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	if remaining == 0 {
		c.balance = 0
	}
	c.mu.Unlock()

	c.emit.Emit(client.EventCountdownTick, remaining)
	if remaining == 0 {
		c.log.Info().Msg("countdown finished")
		c.emit.Emit(client.EventCountdownFinished, nil)
	}
}

// Run ticks until ctx is cancelled.
func (c *Countdown) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick()
		}
	}
}

// State returns the current balance and remaining seconds.
func (c *Countdown) State() (balance, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance, c.remaining
}

// SetRate changes the seconds bought per credit for future credits.
func (c *Countdown) SetRate(secondsPerCredit int) {
	c.mu.Lock()
	c.secondsPerCredit = secondsPerCredit
	c.mu.Unlock()
}
