// Package poller periodically fetches shift definitions and the zone catalog
// from the fleet API and publishes the combined snapshot to subscribers.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/fleetyard/shift-monitor/internal/fleetapi"
	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/fleetyard/shift-monitor/pkg/pubsub"
)

type Poller interface {
	Subscribe() chan Update
	Unsubscribe(ch chan Update)
	Refresh()
}

type FleetGetter interface {
	GetShifts(ctx context.Context, vehicleIDs []string) (schedule.Shifts, error)
	GetZones(ctx context.Context) ([]fleetapi.Zone, error)
}

var _ Poller = &ShiftPoller{}

type ShiftPoller struct {
	Client FleetGetter
	*pubsub.Publisher[Update]
	vehicles []string
	interval time.Duration
	logger   *slog.Logger
	refresh  chan struct{}
}

// New creates a ShiftPoller watching the given vehicles. An empty vehicle
// list watches the whole fleet.
func New(client FleetGetter, vehicles []string, interval time.Duration, logger *slog.Logger) *ShiftPoller {
	return &ShiftPoller{
		Client:    client,
		Publisher: pubsub.New[Update](logger.With(slog.String("component", "registry"))),
		vehicles:  vehicles,
		interval:  interval,
		logger:    logger,
		refresh:   make(chan struct{}),
	}
}

func (p *ShiftPoller) Run(ctx context.Context) error {
	p.logger.Debug("started", slog.Duration("interval", p.interval))
	defer p.logger.Debug("stopped")

	timer := time.NewTicker(p.interval)
	defer timer.Stop()

	for {
		shouldPoll := false
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			shouldPoll = true
		case <-p.refresh:
			shouldPoll = true
		}

		if shouldPoll {
			if err := p.poll(ctx); err != nil {
				p.logger.Error("failed to get fleet data", slog.Any("err", err))
			}
		}
	}
}

// Refresh triggers an immediate poll.
func (p *ShiftPoller) Refresh() {
	p.refresh <- struct{}{}
}

func (p *ShiftPoller) poll(ctx context.Context) error {
	start := time.Now()
	update, err := p.update(ctx)
	if err == nil {
		p.Publisher.Publish(update)
		p.logger.Debug("poll completed", slog.Duration("duration", time.Since(start)))
	}
	return err
}

func (p *ShiftPoller) update(ctx context.Context) (Update, error) {
	var update Update
	var err error
	update.Shifts, err = p.Client.GetShifts(ctx, p.vehicles)
	if err == nil {
		update.Zones, err = p.getZones(ctx)
	}
	return update, err
}

func (p *ShiftPoller) getZones(ctx context.Context) (map[string]fleetapi.Zone, error) {
	zones, err := p.Client.GetZones(ctx)
	if err != nil {
		return nil, err
	}
	zoneMap := make(map[string]fleetapi.Zone, len(zones))
	for _, zone := range zones {
		zoneMap[zone.ID] = zone
	}
	return zoneMap, nil
}
