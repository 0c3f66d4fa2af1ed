package poller

import (
	"log/slog"
	"time"

	"github.com/fleetyard/shift-monitor/internal/fleetapi"
	"github.com/fleetyard/shift-monitor/internal/schedule"
)

// Update is one snapshot of the fleet: all watched shift definitions plus
// the zone catalog, keyed by zone id.
type Update struct {
	Shifts schedule.Shifts         `json:"shifts"`
	Zones  map[string]fleetapi.Zone `json:"zones"`
}

// GetZone looks up a zone by id.
func (u Update) GetZone(id string) (fleetapi.Zone, bool) {
	zone, ok := u.Zones[id]
	return zone, ok
}

// GetShift looks up a shift by id.
func (u Update) GetShift(id string) (schedule.Shift, bool) {
	for _, shift := range u.Shifts {
		if shift.ID == id {
			return shift, true
		}
	}
	return schedule.Shift{}, false
}

// ActiveAt returns the shifts active at the given instant, in input order.
func (u Update) ActiveAt(instant schedule.Instant) schedule.Shifts {
	return u.Shifts.ActiveAt(instant)
}

func (u Update) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("shifts", len(u.Shifts)),
		slog.Int("zones", len(u.Zones)),
		slog.Int("vehicles", len(u.Shifts.Vehicles())),
		slog.Int("active_now", len(u.ActiveAt(schedule.Now(time.Now())))),
	)
}
