package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/slack-go/slack"
)

func (b *Bot) onShifts(_ context.Context, args ...string) slack.Attachment {
	update, ok := b.getUpdate()
	if !ok {
		return slack.Attachment{
			Color: "bad",
			Text:  "no updates yet. please check back later",
		}
	}

	shifts := update.Shifts
	if len(args) > 0 {
		shifts = shifts.ForVehicle(args[0])
	}

	if len(shifts) == 0 {
		return slack.Attachment{
			Color: "bad",
			Text:  "no shifts found",
		}
	}

	instant := b.controls.State().Instant
	text := make([]string, 0, len(shifts))
	for _, shift := range shifts {
		line := describeShift(shift)
		if shift.IsActiveAt(instant) {
			line += " *active*"
		}
		text = append(text, line)
	}

	return slack.Attachment{
		Color: "good",
		Title: "shifts:",
		Text:  strings.Join(text, "\n"),
	}
}

func describeShift(shift schedule.Shift) string {
	days := make([]string, 0, 7)
	for _, day := range shift.SortedWeekdays() {
		days = append(days, day.String()[:3])
	}
	line := fmt.Sprintf("%s (%s): %s-%s on %s",
		shift.Name, shift.VehicleID, shift.Start, shift.End, strings.Join(days, ","),
	)
	if shift.CrossesMidnight() {
		line += " (overnight)"
	}
	if !shift.Enabled {
		line += " [disabled]"
	}
	return line
}

func (b *Bot) onConflicts(_ context.Context, _ ...string) slack.Attachment {
	update, ok := b.getUpdate()
	if !ok {
		return slack.Attachment{
			Color: "bad",
			Text:  "no updates yet. please check back later",
		}
	}

	conflicts := update.Shifts.FindOverlaps()
	if len(conflicts) == 0 {
		return slack.Attachment{
			Color: "good",
			Text:  "no overlapping shifts",
		}
	}

	text := make([]string, 0, len(conflicts))
	for _, conflict := range conflicts {
		days := make([]string, 0, len(conflict.Weekdays))
		for _, day := range conflict.Weekdays {
			days = append(days, day.String()[:3])
		}
		text = append(text, fmt.Sprintf("%s: %s & %s overlap on %s",
			conflict.VehicleID, conflict.ShiftA, conflict.ShiftB, strings.Join(days, ","),
		))
	}

	return slack.Attachment{
		Color: "warning",
		Title: "conflicts:",
		Text:  strings.Join(text, "\n"),
	}
}

func (b *Bot) onSimulate(_ context.Context, args ...string) slack.Attachment {
	instant, err := parseInstant(args...)
	if err != nil {
		return slack.Attachment{
			Color: "bad",
			Text:  err.Error() + "\nUsage: /simulate <weekday> <HH:MM>",
		}
	}
	if err = b.controls.SetInstant(instant); err != nil {
		return slack.Attachment{Color: "bad", Text: err.Error()}
	}
	return b.activationSummary("simulating " + instant.String())
}

func parseInstant(args ...string) (schedule.Instant, error) {
	var instant schedule.Instant
	if len(args) != 2 {
		return instant, fmt.Errorf("expected a weekday and a time")
	}
	day, err := schedule.ParseWeekday(args[0])
	if err != nil {
		return instant, err
	}
	timeOfDay, err := schedule.ParseTimeOfDay(args[1])
	if err != nil {
		return instant, err
	}
	return schedule.Instant{Weekday: day, Time: timeOfDay}, nil
}

func (b *Bot) onPlay(_ context.Context, _ ...string) slack.Attachment {
	b.controls.Play()
	state := b.controls.State()
	return slack.Attachment{
		Color: "good",
		Text:  fmt.Sprintf("clock running from %s at %dx", state.Instant, state.Speed),
	}
}

func (b *Bot) onPause(_ context.Context, _ ...string) slack.Attachment {
	b.controls.Pause()
	return b.activationSummary("clock paused at " + b.controls.State().Instant.String())
}

func (b *Bot) onSpeed(_ context.Context, args ...string) slack.Attachment {
	if len(args) != 1 {
		return slack.Attachment{Color: "bad", Text: "Usage: /speed <minutes per tick>"}
	}
	speed, err := strconv.Atoi(args[0])
	if err == nil {
		err = b.controls.SetSpeed(speed)
	}
	if err != nil {
		return slack.Attachment{Color: "bad", Text: "invalid speed: " + args[0]}
	}
	return slack.Attachment{Color: "good", Text: fmt.Sprintf("clock speed set to %dx", speed)}
}

func (b *Bot) onClock(_ context.Context, args ...string) slack.Attachment {
	if len(args) == 1 && args[0] == "reset" {
		b.controls.ResetToNow()
		return b.activationSummary("clock reset to " + b.controls.State().Instant.String())
	}

	state := b.controls.State()
	var mode string
	switch {
	case !state.Engaged:
		mode = "tracking real time"
	case state.Running:
		mode = fmt.Sprintf("simulating at %dx", state.Speed)
	default:
		mode = "paused"
	}
	return b.activationSummary(state.Instant.String() + " (" + mode + ")")
}

func (b *Bot) onRefresh(_ context.Context, _ ...string) slack.Attachment {
	b.poller.Refresh()
	return slack.Attachment{Text: "refreshing fleet data"}
}

// activationSummary reports the clock position plus the shifts active at that
// instant.
func (b *Bot) activationSummary(title string) slack.Attachment {
	update, ok := b.getUpdate()
	if !ok {
		return slack.Attachment{Color: "good", Text: title}
	}

	active := update.ActiveAt(b.controls.State().Instant)
	text := "no active shifts"
	if len(active) > 0 {
		lines := make([]string, 0, len(active))
		for _, shift := range active {
			lines = append(lines, shift.Name+" ("+shift.VehicleID+")")
		}
		text = "active: " + strings.Join(lines, ", ")
	}

	return slack.Attachment{
		Color: "good",
		Title: title,
		Text:  text,
	}
}
