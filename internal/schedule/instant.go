package schedule

import (
	"fmt"
	"time"
)

// Instant is a point in the recurring week: a weekday plus a time of day.
// It is not an absolute timestamp; the same Instant recurs every week.
type Instant struct {
	Weekday time.Weekday `json:"weekday"`
	Time    TimeOfDay    `json:"time"`
}

// Now converts a wall-clock time to the Instant it falls on, in t's location.
func Now(t time.Time) Instant {
	return Instant{
		Weekday: t.Weekday(),
		Time:    MakeTimeOfDay(t.Hour(), t.Minute()),
	}
}

// Add advances the instant by the given number of minutes, wrapping to the
// next weekday past midnight. Negative offsets are not supported.
func (i Instant) Add(minutes int) Instant {
	total := int(i.Time) + minutes
	days := total / MinutesPerDay
	return Instant{
		Weekday: time.Weekday((int(i.Weekday) + days) % 7),
		Time:    TimeOfDay(total % MinutesPerDay),
	}
}

func (i Instant) String() string {
	return fmt.Sprintf("%s %s", i.Weekday, i.Time)
}

func previousWeekday(day time.Weekday) time.Weekday {
	return time.Weekday((int(day) + 6) % 7)
}

func nextWeekday(day time.Weekday) time.Weekday {
	return time.Weekday((int(day) + 1) % 7)
}
