package simulator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClock_Tick(t *testing.T) {
	c := New(time.Second, testLogger())
	require.NoError(t, c.SetInstant(schedule.Instant{Weekday: time.Monday, Time: schedule.MakeTimeOfDay(8, 0)}))

	_, ticked := c.tick()
	assert.False(t, ticked, "paused clock must not tick")

	c.Play()
	instant, ticked := c.tick()
	require.True(t, ticked)
	assert.Equal(t, schedule.Instant{Weekday: time.Monday, Time: schedule.MakeTimeOfDay(8, 1)}, instant)
}

func TestClock_Wraparound(t *testing.T) {
	c := New(time.Second, testLogger())
	require.NoError(t, c.SetInstant(schedule.Instant{Weekday: time.Saturday, Time: 1439}))
	require.NoError(t, c.SetSpeed(2))
	c.Play()

	instant, ticked := c.tick()
	require.True(t, ticked)
	assert.Equal(t, schedule.Instant{Weekday: time.Sunday, Time: 1}, instant)
}

func TestClock_ResetToNow(t *testing.T) {
	c := New(time.Second, testLogger())
	c.timeNow = func() time.Time { return time.Date(2026, time.August, 28, 14, 30, 0, 0, time.Local) }
	realNow := schedule.Instant{Weekday: time.Friday, Time: schedule.MakeTimeOfDay(14, 30)}

	assert.Equal(t, realNow, c.Instant(), "disengaged clock follows real time")

	simulated := schedule.Instant{Weekday: time.Monday, Time: schedule.MakeTimeOfDay(3, 0)}
	require.NoError(t, c.SetInstant(simulated))
	assert.Equal(t, simulated, c.Instant())
	assert.True(t, c.State().Engaged)

	c.ResetToNow()
	assert.Equal(t, realNow, c.Instant())
	state := c.State()
	assert.False(t, state.Engaged)
	assert.False(t, state.Running)
}

func TestClock_Subscription(t *testing.T) {
	c := New(10*time.Millisecond, testLogger())
	require.NoError(t, c.SetSpeed(5))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error)
	go func() { errCh <- c.Run(ctx) }()

	ch := c.Subscribe()
	defer c.Unsubscribe(ch)

	go c.Play()
	first := <-ch

	var last schedule.Instant
	for range 3 {
		last = <-ch
	}
	assert.NotEqual(t, first, last)

	// drain any tick published between the last read and shutdown
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
			case <-stop:
				return
			}
		}
	}()

	cancel()
	assert.NoError(t, <-errCh)
	close(stop)
}

func TestClock_SetSpeed(t *testing.T) {
	c := New(time.Second, testLogger())
	assert.Error(t, c.SetSpeed(0))
	assert.NoError(t, c.SetSpeed(60))
	assert.Equal(t, 60, c.State().Speed)
}
