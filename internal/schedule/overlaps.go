package schedule

import (
	"slices"
	"strings"
	"time"

	"github.com/clambin/go-common/set"
)

// Conflict is a pair of shifts of the same vehicle whose windows overlap,
// with the weekday(s) on which the overlap occurs.
type Conflict struct {
	VehicleID string
	ShiftA    string
	ShiftB    string
	Weekdays  []time.Weekday
}

// interval is one contiguous stretch of minutes on a single weekday. Crossing
// shifts expand to two intervals per weekday, one on each side of midnight.
type interval struct {
	shiftID string
	start   TimeOfDay
	end     TimeOfDay // exclusive; MinutesPerDay for end-of-day
}

// FindOverlaps detects conflicting shift pairs. Only shifts of the same
// vehicle can conflict. All intervals are half-open, so a shift ending at the
// exact minute another one starts does not conflict with it.
func (s Shifts) FindOverlaps() []Conflict {
	conflicts := make(map[[3]string]set.Set[time.Weekday])

	for _, vehicleID := range s.Vehicles() {
		findVehicleOverlaps(s.ForVehicle(vehicleID), vehicleID, conflicts)
	}

	result := make([]Conflict, 0, len(conflicts))
	for key, days := range conflicts {
		weekdays := make([]time.Weekday, 0, len(days))
		for day := range days {
			weekdays = append(weekdays, day)
		}
		slices.Sort(weekdays)
		result = append(result, Conflict{VehicleID: key[0], ShiftA: key[1], ShiftB: key[2], Weekdays: weekdays})
	}
	slices.SortFunc(result, func(a, b Conflict) int {
		if c := strings.Compare(a.ShiftA, b.ShiftA); c != 0 {
			return c
		}
		return strings.Compare(a.ShiftB, b.ShiftB)
	})
	return result
}

func findVehicleOverlaps(shifts Shifts, vehicleID string, conflicts map[[3]string]set.Set[time.Weekday]) {
	byWeekday := make(map[time.Weekday][]interval)
	for _, shift := range shifts {
		for day, span := range expand(shift) {
			byWeekday[day] = append(byWeekday[day], span...)
		}
	}

	for day, intervals := range byWeekday {
		slices.SortFunc(intervals, func(a, b interval) int { return int(a.start) - int(b.start) })
		for i := range intervals {
			for j := i + 1; j < len(intervals); j++ {
				a, b := intervals[i], intervals[j]
				if a.shiftID == b.shiftID {
					continue
				}
				if a.start < b.end && b.start < a.end {
					key := pairKey(vehicleID, a.shiftID, b.shiftID)
					if _, ok := conflicts[key]; !ok {
						conflicts[key] = set.New[time.Weekday]()
					}
					conflicts[key].Add(day)
				}
			}
		}
	}
}

// expand converts a shift into weekday-tagged minute intervals. A midnight
// crossing shift on weekday d covers [start, 24:00) on d and [00:00, end) on
// the day after d.
func expand(shift Shift) map[time.Weekday][]interval {
	spans := make(map[time.Weekday][]interval, len(shift.Weekdays))
	for day := range shift.Weekdays {
		if !shift.CrossesMidnight() {
			spans[day] = append(spans[day], interval{shiftID: shift.ID, start: shift.Start, end: shift.End})
			continue
		}
		spans[day] = append(spans[day], interval{shiftID: shift.ID, start: shift.Start, end: MinutesPerDay})
		next := nextWeekday(day)
		spans[next] = append(spans[next], interval{shiftID: shift.ID, start: 0, end: shift.End})
	}
	return spans
}

func pairKey(vehicleID, a, b string) [3]string {
	if a > b {
		a, b = b, a
	}
	return [3]string{vehicleID, a, b}
}
