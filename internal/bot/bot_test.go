package bot

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clambin/go-common/set"
	"github.com/fleetyard/shift-monitor/internal/poller"
	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/fleetyard/shift-monitor/internal/simulator"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ SlackApp = &fakeSlackApp{}

type fakeSlackApp struct {
	commands map[string]func(slack.SlashCommand, *socketmode.Client)
}

func (f *fakeSlackApp) AddSlashCommand(name string, handler func(slack.SlashCommand, *socketmode.Client)) {
	if f.commands == nil {
		f.commands = make(map[string]func(slack.SlashCommand, *socketmode.Client))
	}
	f.commands[name] = handler
}

func (f *fakeSlackApp) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

var _ poller.Poller = &fakePoller{}

type fakePoller struct {
	ch        chan poller.Update
	refreshes atomic.Int32
}

func (f *fakePoller) Subscribe() chan poller.Update    { return f.ch }
func (f *fakePoller) Unsubscribe(_ chan poller.Update) {}
func (f *fakePoller) Refresh()                         { f.refreshes.Add(1) }

var _ Controls = &fakeControls{}

type fakeControls struct {
	state  simulator.PlaybackState
	resets int
}

func (f *fakeControls) Play()                { f.state.Running, f.state.Engaged = true, true }
func (f *fakeControls) Pause()               { f.state.Running = false }
func (f *fakeControls) SetSpeed(speed int) error {
	if speed < 1 {
		return assert.AnError
	}
	f.state.Speed = speed
	return nil
}
func (f *fakeControls) SetInstant(instant schedule.Instant) error {
	f.state.Instant = instant
	f.state.Engaged = true
	return nil
}
func (f *fakeControls) ResetToNow() { f.resets++; f.state.Engaged = false; f.state.Running = false }
func (f *fakeControls) State() simulator.PlaybackState { return f.state }

func testUpdate() poller.Update {
	return poller.Update{Shifts: schedule.Shifts{
		{
			ID:        "s1",
			VehicleID: "v1",
			Name:      "night run",
			Start:     schedule.MakeTimeOfDay(20, 0),
			End:       schedule.MakeTimeOfDay(6, 0),
			Weekdays:  set.New(time.Friday),
			Enabled:   true,
		},
		{
			ID:        "s2",
			VehicleID: "v1",
			Name:      "early run",
			Start:     schedule.MakeTimeOfDay(5, 0),
			End:       schedule.MakeTimeOfDay(9, 0),
			Weekdays:  set.New(time.Saturday),
			Enabled:   true,
		},
	}}
}

func testBot(t *testing.T) (*Bot, *fakeSlackApp, *fakePoller, *fakeControls) {
	t.Helper()
	app := fakeSlackApp{}
	p := fakePoller{ch: make(chan poller.Update, 1)}
	controls := fakeControls{state: simulator.PlaybackState{Speed: 1}}
	b := New(&app, &p, &controls, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return b, &app, &p, &controls
}

func TestBot_Commands(t *testing.T) {
	_, app, _, _ := testBot(t)
	for _, command := range []string{"/shifts", "/conflicts", "/simulate", "/play", "/pause", "/speed", "/clock", "/refresh"} {
		assert.Contains(t, app.commands, command)
	}
}

func TestBot_OnShifts(t *testing.T) {
	b, _, _, _ := testBot(t)

	attachment := b.onShifts(context.Background())
	assert.Equal(t, "bad", attachment.Color)

	b.setUpdate(testUpdate())
	attachment = b.onShifts(context.Background())
	assert.Equal(t, "good", attachment.Color)
	assert.Contains(t, attachment.Text, "night run (v1): 20:00-06:00 on Fri (overnight)")
	assert.Contains(t, attachment.Text, "early run")

	attachment = b.onShifts(context.Background(), "v2")
	assert.Equal(t, "bad", attachment.Color)
	assert.Contains(t, attachment.Text, "no shifts found")
}

func TestBot_OnConflicts(t *testing.T) {
	b, _, _, _ := testBot(t)
	b.setUpdate(testUpdate())

	// the overnight shift spills into saturday morning, overlapping the
	// early run between 05:00 and 06:00
	attachment := b.onConflicts(context.Background())
	assert.Equal(t, "warning", attachment.Color)
	assert.Contains(t, attachment.Text, "v1: s1 & s2 overlap on Sat")
}

func TestBot_OnSimulate(t *testing.T) {
	b, _, _, controls := testBot(t)
	b.setUpdate(testUpdate())

	attachment := b.onSimulate(context.Background(), "friday", "22:00")
	assert.Equal(t, "good", attachment.Color)
	assert.Equal(t, schedule.Instant{Weekday: time.Friday, Time: schedule.MakeTimeOfDay(22, 0)}, controls.state.Instant)
	assert.Contains(t, attachment.Text, "night run (v1)")

	attachment = b.onSimulate(context.Background(), "someday", "22:00")
	assert.Equal(t, "bad", attachment.Color)

	attachment = b.onSimulate(context.Background(), "friday")
	assert.Equal(t, "bad", attachment.Color)
	assert.Contains(t, attachment.Text, "Usage")
}

func TestBot_Playback(t *testing.T) {
	b, _, _, controls := testBot(t)

	attachment := b.onPlay(context.Background())
	assert.Equal(t, "good", attachment.Color)
	assert.True(t, controls.state.Running)

	attachment = b.onSpeed(context.Background(), "60")
	assert.Equal(t, "good", attachment.Color)
	assert.Equal(t, 60, controls.state.Speed)

	attachment = b.onSpeed(context.Background(), "fast")
	assert.Equal(t, "bad", attachment.Color)

	attachment = b.onPause(context.Background())
	assert.Equal(t, "good", attachment.Color)
	assert.False(t, controls.state.Running)

	attachment = b.onClock(context.Background())
	assert.Contains(t, attachment.Title, "paused")

	attachment = b.onClock(context.Background(), "reset")
	assert.Equal(t, 1, controls.resets)
	assert.Contains(t, attachment.Title, "clock reset")
}

func TestBot_OnRefresh(t *testing.T) {
	b, _, p, _ := testBot(t)
	b.onRefresh(context.Background())
	assert.Equal(t, int32(1), p.refreshes.Load())
}

func TestBot_Run(t *testing.T) {
	b, _, p, _ := testBot(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() { errCh <- b.Run(ctx) }()

	p.ch <- testUpdate()
	assert.Eventually(t, func() bool {
		_, ok := b.getUpdate()
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
}

func TestTokenizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "friday 22:00", want: []string{"friday", "22:00"}},
		{name: "quoted", input: `"night run" v1`, want: []string{"night run", "v1"}},
		{name: "fancy quotes", input: "“night run” v1", want: []string{"night run", "v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenizeText(tt.input))
		})
	}
}

func TestParseInstant(t *testing.T) {
	instant, err := parseInstant("sat", "06:30")
	require.NoError(t, err)
	assert.Equal(t, schedule.Instant{Weekday: time.Saturday, Time: schedule.MakeTimeOfDay(6, 30)}, instant)

	_, err = parseInstant("sat")
	assert.Error(t, err)
	_, err = parseInstant("sat", "25:00")
	assert.Error(t, err)
}
