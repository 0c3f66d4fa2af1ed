// Package zonefeed maintains the live view of geographic zones covered by
// currently active shifts. It polls the fleet API, intersects the result with
// the locally evaluated activation state and resolves each linked zone to a
// normalized shape.
package zonefeed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/clambin/go-common/set"
	"github.com/fleetyard/shift-monitor/internal/fleetapi"
	"github.com/fleetyard/shift-monitor/internal/geometry"
	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/fleetyard/shift-monitor/internal/timeline"
	"github.com/fleetyard/shift-monitor/pkg/pubsub"
)

// ZoneSource provides shift definitions, the zone catalog and, on servers
// that support it, a server-side active-shift snapshot.
type ZoneSource interface {
	GetShifts(ctx context.Context, vehicleIDs []string) (schedule.Shifts, error)
	GetActiveShifts(ctx context.Context, vehicleIDs []string, at *schedule.Instant) (schedule.Shifts, error)
	GetZones(ctx context.Context) ([]fleetapi.Zone, error)
}

// InstantSource tells the feed which instant to evaluate activation at,
// typically a simulator Clock.
type InstantSource interface {
	Instant() schedule.Instant
}

// ActiveZone is one zone covered by an active shift, resolved to a drawable
// shape and colored by vehicle.
type ActiveZone struct {
	fleetapi.Zone
	Shape     *geometry.Shape `json:"shape,omitempty"`
	Color     string          `json:"color"`
	ShiftID   string          `json:"shiftId"`
	ShiftName string          `json:"shiftName"`
	VehicleID string          `json:"vehicleId"`
}

// Feed polls the fleet API and publishes the active zones for the watched
// vehicles. Polls never overlap: the next poll starts only after the previous
// one finished.
type Feed struct {
	*pubsub.Publisher[[]ActiveZone]
	source   ZoneSource
	clock    InstantSource
	cache    *geometry.Cache
	interval time.Duration
	logger   *slog.Logger
	refresh  chan struct{}

	lock       sync.RWMutex
	vehicles   []string
	running    bool
	generation int
	// activeEndpoint is cleared on the first ErrNotSupported. After that the
	// feed evaluates activation from the shift definitions only.
	activeEndpoint bool
}

func New(source ZoneSource, clock InstantSource, vehicles []string, interval time.Duration, logger *slog.Logger) *Feed {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Feed{
		Publisher:      pubsub.New[[]ActiveZone](logger.With(slog.String("component", "registry"))),
		source:         source,
		clock:          clock,
		cache:          geometry.NewCache(),
		interval:       interval,
		logger:         logger,
		refresh:        make(chan struct{}, 1),
		vehicles:       vehicles,
		activeEndpoint: true,
	}
}

func (f *Feed) Run(ctx context.Context) error {
	f.logger.Debug("started", slog.Duration("interval", f.interval))
	defer f.logger.Debug("stopped")

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-f.refresh:
		}

		if !f.Running() {
			continue
		}
		if err := f.poll(ctx); err != nil {
			f.logger.Error("failed to refresh active zones", slog.Any("err", err))
		}
	}
}

// Start enables polling and triggers an immediate poll.
func (f *Feed) Start() {
	f.lock.Lock()
	f.running = true
	f.lock.Unlock()
	f.kick()
}

// Stop disables polling. The last published zones remain available through
// Latest.
func (f *Feed) Stop() {
	f.lock.Lock()
	f.running = false
	f.lock.Unlock()
}

// Running reports whether the feed is currently polling.
func (f *Feed) Running() bool {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.running
}

// SetVehicles replaces the watched vehicle set. A poll already in flight for
// the old set is discarded, and a fresh poll is triggered if the feed is
// running.
func (f *Feed) SetVehicles(vehicles []string) {
	f.lock.Lock()
	f.vehicles = vehicles
	f.generation++
	running := f.running
	f.lock.Unlock()
	if running {
		f.kick()
	}
}

// Latest returns the most recently published active zones, or nil before the
// first poll.
func (f *Feed) Latest() []ActiveZone {
	zones, _ := f.Last()
	return zones
}

// Refresh triggers an immediate poll if the feed is running.
func (f *Feed) Refresh() {
	f.kick()
}

// ServeHTTP serves the latest active zones as JSON, or 503 while no poll has
// completed yet.
func (f *Feed) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	zones, ok := f.Last()
	if !ok {
		http.Error(w, "no update yet", http.StatusServiceUnavailable)
		f.kick()
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(zones); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (f *Feed) kick() {
	select {
	case f.refresh <- struct{}{}:
	default:
	}
}

func (f *Feed) poll(ctx context.Context) error {
	f.lock.RLock()
	generation := f.generation
	vehicles := f.vehicles
	f.lock.RUnlock()

	start := time.Now()
	zones, err := f.collect(ctx, vehicles)
	if err != nil {
		return err
	}

	// a result for an old vehicle set, or one that completed after Stop, is
	// discarded rather than applied
	f.lock.RLock()
	stale := generation != f.generation || !f.running
	f.lock.RUnlock()
	if stale {
		f.logger.Debug("discarding stale poll result")
		return nil
	}

	f.Publish(zones)
	f.logger.Debug("active zones refreshed",
		slog.Int("zones", len(zones)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (f *Feed) collect(ctx context.Context, vehicles []string) ([]ActiveZone, error) {
	instant := f.clock.Instant()

	shifts, err := f.source.GetShifts(ctx, vehicles)
	if err != nil {
		return nil, err
	}
	active := shifts.ActiveAt(instant)

	if f.useActiveEndpoint() {
		upstream, err := f.source.GetActiveShifts(ctx, vehicles, &instant)
		switch {
		case errors.Is(err, fleetapi.ErrNotSupported):
			f.disableActiveEndpoint()
		case err != nil:
			return nil, err
		default:
			// the local evaluation is authoritative: upstream results only
			// ever narrow it down
			active = intersect(active, upstream)
		}
	}

	catalog, err := f.source.GetZones(ctx)
	if err != nil {
		return nil, err
	}
	zonesByID := make(map[string]fleetapi.Zone, len(catalog))
	for _, zone := range catalog {
		zonesByID[zone.ID] = zone
	}

	colors := timeline.VehicleColors(shifts)
	activeZones := make([]ActiveZone, 0, len(active))
	for _, shift := range active {
		for _, zoneID := range shift.ZoneIDs {
			zone, ok := zonesByID[zoneID]
			if !ok {
				f.logger.Warn("shift references unknown zone",
					slog.String("shift", shift.ID),
					slog.String("zone", zoneID),
				)
				continue
			}
			activeZones = append(activeZones, ActiveZone{
				Zone:      zone,
				Shape:     f.cache.Get(zone.ID, zone.Geometry),
				Color:     colors[shift.VehicleID],
				ShiftID:   shift.ID,
				ShiftName: shift.Name,
				VehicleID: shift.VehicleID,
			})
		}
	}
	return activeZones, nil
}

func (f *Feed) useActiveEndpoint() bool {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.activeEndpoint
}

func (f *Feed) disableActiveEndpoint() {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.activeEndpoint {
		f.activeEndpoint = false
		f.logger.Info("server does not report active shifts, evaluating locally")
	}
}

func intersect(local, upstream schedule.Shifts) schedule.Shifts {
	ids := set.New[string]()
	for _, shift := range upstream {
		ids.Add(shift.ID)
	}
	result := make(schedule.Shifts, 0, len(local))
	for _, shift := range local {
		if ids.Contains(shift.ID) {
			result = append(result, shift)
		}
	}
	return result
}
