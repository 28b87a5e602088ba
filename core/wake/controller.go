// Package wake implements the wake-retry controller. A networked vehicle
// sleeps to save power; waking it is slow and unreliable, so reachability is
// established with bounded polling rather than failing fast or retrying
// forever.
package wake

import (
	"context"
	"errors"
	"time"

	"github.com/evsched/evsched/core/device"
	"github.com/evsched/evsched/core/events"
	"github.com/evsched/evsched/core/inactivity"
	"github.com/evsched/evsched/core/logger"
	"github.com/evsched/evsched/core/model"
	"github.com/evsched/evsched/internal/eventbus"
)

// ErrDeviceUnreachable is returned when every wake attempt is exhausted
// without obtaining a valid state snapshot.
var ErrDeviceUnreachable = errors.New("wake: device unreachable")

const (
	// DefaultMaxAttempts bounds the wake polling loop.
	DefaultMaxAttempts = 20
	// DefaultDelay is the fixed pause between attempts.
	DefaultDelay = 5 * time.Second
)

// Config tunes the polling loop. Zero values fall back to the defaults.
type Config struct {
	MaxAttempts int           `json:"max_attempts"`
	Delay       time.Duration `json:"-"`
	DelaySecs   int           `json:"delay_seconds"`
}

// Controller ensures the vehicle is reachable and returns a fresh snapshot.
type Controller struct {
	sink        inactivity.Sink
	log         logger.Logger
	bus         eventbus.EventBus
	maxAttempts int
	delay       time.Duration
}

// Option adjusts the controller.
type Option func(*Controller)

// WithBus attaches the event bus on which each finished wake sequence is
// published as an events.WakeEvent.
func WithBus(bus eventbus.EventBus) Option {
	return func(c *Controller) { c.bus = bus }
}

// NewController builds a Controller. sink receives the awake hint before any
// fetch is attempted.
func NewController(sink inactivity.Sink, log logger.Logger, cfg Config, opts ...Option) *Controller {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := cfg.Delay
	if delay == 0 && cfg.DelaySecs > 0 {
		delay = time.Duration(cfg.DelaySecs) * time.Second
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	c := &Controller{sink: sink, log: log, maxAttempts: attempts, delay: delay}
	for _, o := range opts {
		o(c)
	}
	return c
}

// EnsureAwake marks the vehicle as needing to stay awake and fetches a state
// snapshot. If the first fetch is already valid no wake signal is sent.
// Otherwise it wakes, re-fetches and sleeps the fixed delay between attempts,
// up to the configured maximum. The polling loop blocks only the calling
// invocation.
func (c *Controller) EnsureAwake(ctx context.Context, dev device.Client) (model.StateSnapshot, error) {
	c.sink.SetMode(inactivity.ModeAwake)

	snap := dev.QueryState(ctx)
	if snap.Valid {
		wakeAttempts.Observe(0)
		c.report(0, true)
		return snap, nil
	}

	for i := 0; i < c.maxAttempts; i++ {
		dev.Wake(ctx)
		if snap = dev.QueryState(ctx); snap.Valid {
			wakeAttempts.Observe(float64(i + 1))
			c.report(i+1, true)
			c.log.Debugf("vehicle woke after %d attempts", i+1)
			return snap, nil
		}
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			wakeFailures.Inc()
			c.report(i+1, false)
			return model.StateSnapshot{}, ErrDeviceUnreachable
		}
	}
	wakeFailures.Inc()
	c.report(c.maxAttempts, false)
	c.log.Warnf("vehicle unreachable after %d wake attempts", c.maxAttempts)
	return model.StateSnapshot{}, ErrDeviceUnreachable
}

func (c *Controller) report(attempts int, woken bool) {
	if c.bus != nil {
		c.bus.Publish(events.WakeEvent{Attempts: attempts, Woken: woken})
	}
}
