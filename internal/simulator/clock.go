// Package simulator implements a virtual clock: a steppable weekday &
// time-of-day pointer used for previewing shift activation without waiting
// for real time to pass.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/fleetyard/shift-monitor/pkg/pubsub"
)

// PlaybackState is a snapshot of the virtual clock.
type PlaybackState struct {
	Instant schedule.Instant `json:"instant"`
	Speed   int              `json:"speed"`
	Running bool             `json:"running"`
	Engaged bool             `json:"engaged"`
}

// Clock is a virtual clock over the recurring week. While running, each tick
// of the (real-time) ticker advances the simulated instant by Speed simulated
// minutes, wrapping to the next weekday past midnight.
//
// The clock starts disengaged: Instant returns the real current instant until
// the first Play or SetInstant, and again after ResetToNow. Every state
// change, ticks included, is published to subscribers.
type Clock struct {
	*pubsub.Publisher[schedule.Instant]
	interval time.Duration
	timeNow  func() time.Time
	logger   *slog.Logger

	lock    sync.RWMutex
	current schedule.Instant
	speed   int
	running bool
	engaged bool
}

// New creates a Clock that ticks at the given real-time interval.
func New(interval time.Duration, logger *slog.Logger) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	c := Clock{
		Publisher: pubsub.New[schedule.Instant](logger.With(slog.String("component", "registry"))),
		interval:  interval,
		timeNow:   time.Now,
		logger:    logger,
		speed:     1,
	}
	c.current = schedule.Now(c.timeNow())
	return &c
}

// Run drives the clock until the context is cancelled.
func (c *Clock) Run(ctx context.Context) error {
	c.logger.Debug("started", slog.Duration("interval", c.interval))
	defer c.logger.Debug("stopped")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if instant, ok := c.tick(); ok {
				c.Publish(instant)
			}
		}
	}
}

// tick advances the simulated instant by Speed minutes. It does nothing while
// the clock is paused.
func (c *Clock) tick() (schedule.Instant, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.running {
		return schedule.Instant{}, false
	}
	c.current = c.current.Add(c.speed)
	return c.current, true
}

// Play starts the clock from its current instant.
func (c *Clock) Play() {
	c.lock.Lock()
	if !c.engaged {
		c.current = schedule.Now(c.timeNow())
	}
	c.running = true
	c.engaged = true
	instant := c.current
	c.lock.Unlock()

	c.logger.Debug("playing", slog.String("instant", instant.String()))
	c.Publish(instant)
}

// Pause freezes the clock. The simulated instant is retained.
func (c *Clock) Pause() {
	c.lock.Lock()
	c.running = false
	instant := c.current
	c.lock.Unlock()

	c.logger.Debug("paused", slog.String("instant", instant.String()))
	c.Publish(instant)
}

// SetSpeed sets the number of simulated minutes per tick. It takes effect at
// the next tick boundary.
func (c *Clock) SetSpeed(speed int) error {
	if speed < 1 {
		return fmt.Errorf("invalid speed: %d", speed)
	}
	c.lock.Lock()
	c.speed = speed
	c.lock.Unlock()
	return nil
}

// SetInstant seeks the clock to an explicit weekday & time of day. Seeking
// engages the clock but does not start it.
func (c *Clock) SetInstant(instant schedule.Instant) error {
	if !instant.Time.Valid() {
		return fmt.Errorf("invalid time of day: %d", instant.Time)
	}
	c.lock.Lock()
	c.current = instant
	c.engaged = true
	c.lock.Unlock()

	c.logger.Debug("seeked", slog.String("instant", instant.String()))
	c.Publish(instant)
	return nil
}

// ResetToNow stops the clock and reverts it, and all subscribers, to the real
// current instant.
func (c *Clock) ResetToNow() {
	c.lock.Lock()
	c.current = schedule.Now(c.timeNow())
	c.running = false
	c.engaged = false
	instant := c.current
	c.lock.Unlock()

	c.logger.Debug("reset", slog.String("instant", instant.String()))
	c.Publish(instant)
}

// Instant returns the instant the clock currently points at: the simulated
// one while engaged, the real current instant otherwise.
func (c *Clock) Instant() schedule.Instant {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if !c.engaged {
		return schedule.Now(c.timeNow())
	}
	return c.current
}

// State returns a snapshot of the clock.
func (c *Clock) State() PlaybackState {
	c.lock.RLock()
	defer c.lock.RUnlock()
	instant := c.current
	if !c.engaged {
		instant = schedule.Now(c.timeNow())
	}
	return PlaybackState{
		Instant: instant,
		Speed:   c.speed,
		Running: c.running,
		Engaged: c.engaged,
	}
}
