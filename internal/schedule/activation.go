package schedule

// IsActiveAt reports whether the shift's window covers the given instant.
//
// A window that does not cross midnight is active on its weekdays between
// Start (inclusive) and End (exclusive). A window that crosses midnight is
// active from Start to the end of the day on each of its weekdays, and from
// midnight to End on the following day.
func (s Shift) IsActiveAt(instant Instant) bool {
	if !s.Enabled {
		return false
	}
	today := s.Weekdays.Contains(instant.Weekday)
	if !s.CrossesMidnight() {
		return today && instant.Time >= s.Start && instant.Time < s.End
	}
	if today && instant.Time >= s.Start {
		return true
	}
	return s.Weekdays.Contains(previousWeekday(instant.Weekday)) && instant.Time < s.End
}

// ActiveAt filters shifts down to those active at the given instant,
// preserving input order.
func (s Shifts) ActiveAt(instant Instant) Shifts {
	active := make(Shifts, 0, len(s))
	for _, shift := range s {
		if shift.IsActiveAt(instant) {
			active = append(active, shift)
		}
	}
	return active
}
