// Package collector exports the state of the monitored fleet as Prometheus
// metrics. Metrics are computed on scrape from the latest fleet snapshot.
package collector

import (
	"log/slog"

	"github.com/fleetyard/shift-monitor/internal/poller"
	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	shiftsDesc = prometheus.NewDesc(
		prometheus.BuildFQName("shift_monitor", "", "shifts"),
		"Number of configured shifts per vehicle",
		[]string{"vehicle"},
		nil,
	)
	shiftActiveDesc = prometheus.NewDesc(
		prometheus.BuildFQName("shift_monitor", "", "shift_active"),
		"Whether the shift is currently active (1) or not (0)",
		[]string{"shift_id", "shift_name", "vehicle"},
		nil,
	)
	zonesDesc = prometheus.NewDesc(
		prometheus.BuildFQName("shift_monitor", "", "zones"),
		"Number of zones in the catalog",
		nil,
		nil,
	)
	conflictsDesc = prometheus.NewDesc(
		prometheus.BuildFQName("shift_monitor", "", "shift_conflicts"),
		"Number of overlapping shift pairs per vehicle",
		[]string{"vehicle"},
		nil,
	)
)

// Updates provides the latest fleet snapshot.
type Updates interface {
	Last() (poller.Update, bool)
}

// InstantSource tells the collector at which instant to evaluate activation.
type InstantSource interface {
	Instant() schedule.Instant
}

var _ prometheus.Collector = &Collector{}

// Collector implements prometheus.Collector. Before the first fleet snapshot
// it emits no metrics.
type Collector struct {
	Updates Updates
	Clock   InstantSource
	Logger  *slog.Logger
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- shiftsDesc
	ch <- shiftActiveDesc
	ch <- zonesDesc
	ch <- conflictsDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	update, ok := c.Updates.Last()
	if !ok {
		c.Logger.Warn("no fleet snapshot yet, skipping scrape")
		return
	}
	instant := c.Clock.Instant()

	for _, vehicleID := range update.Shifts.Vehicles() {
		ch <- prometheus.MustNewConstMetric(shiftsDesc, prometheus.GaugeValue,
			float64(len(update.Shifts.ForVehicle(vehicleID))), vehicleID,
		)
	}

	for _, shift := range update.Shifts {
		var active float64
		if shift.IsActiveAt(instant) {
			active = 1
		}
		ch <- prometheus.MustNewConstMetric(shiftActiveDesc, prometheus.GaugeValue,
			active, shift.ID, shift.Name, shift.VehicleID,
		)
	}

	ch <- prometheus.MustNewConstMetric(zonesDesc, prometheus.GaugeValue, float64(len(update.Zones)))

	conflicts := make(map[string]int)
	for _, conflict := range update.Shifts.FindOverlaps() {
		conflicts[conflict.VehicleID]++
	}
	for _, vehicleID := range update.Shifts.Vehicles() {
		ch <- prometheus.MustNewConstMetric(conflictsDesc, prometheus.GaugeValue,
			float64(conflicts[vehicleID]), vehicleID,
		)
	}
}
