// Package schedule implements the recurring weekly operating windows
// ("shifts") for vehicles: the value types, the activation rules that decide
// which shifts are active at a given instant, and conflict detection between
// shifts of the same vehicle.
//
// All temporal logic operates on (weekday, minute-of-day) pairs, never on
// calendar dates. Converting an absolute time to this representation is the
// caller's responsibility (see Now).
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/clambin/go-common/set"
)

// MinutesPerDay is the number of minutes in a day. TimeOfDay values are
// always in the range [0, MinutesPerDay).
const MinutesPerDay = 24 * 60

// TimeOfDay is a local time expressed as minutes since midnight.
type TimeOfDay int

// MakeTimeOfDay returns the TimeOfDay for the provided hour & minute.
func MakeTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	t := MakeTimeOfDay(hour, minute)
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

var (
	ErrNoWeekdays     = errors.New("shift must have at least one weekday")
	ErrInvalidWindow  = errors.New("shift must be at least one minute long")
	ErrInvalidTime    = errors.New("time of day must be between 00:00 and 23:59")
	ErrMissingVehicle = errors.New("shift must belong to a vehicle")
)

// Shift is a recurring weekly operating window for one vehicle. The window
// [Start, End) applies on every weekday in Weekdays. A window whose End is
// less than or equal to its Start crosses midnight and spills into the next
// calendar day.
type Shift struct {
	ID        string
	VehicleID string
	Name      string
	Start     TimeOfDay
	End       TimeOfDay
	Weekdays  set.Set[time.Weekday]
	Enabled   bool
	ZoneIDs   []string
}

// Validate checks the shift definition invariants. Shifts must be validated
// before they enter the model: the activation rules assume a valid shift.
func (s Shift) Validate() error {
	if s.VehicleID == "" {
		return ErrMissingVehicle
	}
	if !s.Start.Valid() || !s.End.Valid() {
		return ErrInvalidTime
	}
	if s.Start == s.End {
		return ErrInvalidWindow
	}
	if len(s.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	return nil
}

// CrossesMidnight reports whether the shift's window spills into the next
// calendar day.
func (s Shift) CrossesMidnight() bool {
	return s.End <= s.Start
}

// Duration returns the length of the shift's window.
func (s Shift) Duration() time.Duration {
	return time.Duration(s.DurationMinutes()) * time.Minute
}

// DurationMinutes returns the length of the shift's window in minutes.
func (s Shift) DurationMinutes() int {
	if s.CrossesMidnight() {
		return MinutesPerDay - int(s.Start) + int(s.End)
	}
	return int(s.End) - int(s.Start)
}

// SortedWeekdays returns the shift's weekdays in Sunday-first order.
func (s Shift) SortedWeekdays() []time.Weekday {
	days := make([]time.Weekday, 0, len(s.Weekdays))
	for day := range s.Weekdays {
		days = append(days, day)
	}
	slices.Sort(days)
	return days
}

type shiftJSON struct {
	ID        string   `json:"id"`
	VehicleID string   `json:"vehicleId"`
	Name      string   `json:"name"`
	Start     int      `json:"startLocal"`
	End       int      `json:"endLocal"`
	Weekdays  []int    `json:"activeWeekdays"`
	Enabled   bool     `json:"enabled"`
	ZoneIDs   []string `json:"zoneIds,omitempty"`
}

func (s Shift) MarshalJSON() ([]byte, error) {
	days := s.SortedWeekdays()
	dto := shiftJSON{
		ID:        s.ID,
		VehicleID: s.VehicleID,
		Name:      s.Name,
		Start:     int(s.Start),
		End:       int(s.End),
		Weekdays:  make([]int, len(days)),
		Enabled:   s.Enabled,
		ZoneIDs:   s.ZoneIDs,
	}
	for i, day := range days {
		dto.Weekdays[i] = int(day)
	}
	return json.Marshal(dto)
}

func (s *Shift) UnmarshalJSON(body []byte) error {
	var dto shiftJSON
	if err := json.Unmarshal(body, &dto); err != nil {
		return err
	}
	*s = Shift{
		ID:        dto.ID,
		VehicleID: dto.VehicleID,
		Name:      dto.Name,
		Start:     TimeOfDay(dto.Start),
		End:       TimeOfDay(dto.End),
		Weekdays:  set.New[time.Weekday](),
		Enabled:   dto.Enabled,
		ZoneIDs:   dto.ZoneIDs,
	}
	for _, day := range dto.Weekdays {
		if day < 0 || day > 6 {
			return fmt.Errorf("invalid weekday: %d", day)
		}
		s.Weekdays.Add(time.Weekday(day))
	}
	return nil
}

// Shifts is a list of shift definitions, possibly spanning multiple vehicles.
type Shifts []Shift

// ForVehicle returns the shifts belonging to the given vehicle, in input order.
func (s Shifts) ForVehicle(vehicleID string) Shifts {
	result := make(Shifts, 0, len(s))
	for _, shift := range s {
		if shift.VehicleID == vehicleID {
			result = append(result, shift)
		}
	}
	return result
}

// Vehicles returns the distinct vehicle ids, in first-seen order.
func (s Shifts) Vehicles() []string {
	seen := set.New[string]()
	vehicles := make([]string, 0, len(s))
	for _, shift := range s {
		if !seen.Contains(shift.VehicleID) {
			seen.Add(shift.VehicleID)
			vehicles = append(vehicles, shift.VehicleID)
		}
	}
	return vehicles
}
