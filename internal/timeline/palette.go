package timeline

import "github.com/fleetyard/shift-monitor/internal/schedule"

// palette holds the fixed set of block colors. Vehicles are assigned a color
// by first-seen order among the input shifts, cycling when the palette runs
// out. As long as the first-seen order of vehicles is stable, re-layouts keep
// the same colors.
var palette = []string{
	"#1f77b4",
	"#ff7f0e",
	"#2ca02c",
	"#d62728",
	"#9467bd",
	"#8c564b",
	"#e377c2",
	"#7f7f7f",
	"#bcbd22",
	"#17becf",
}

// VehicleColors assigns each vehicle in the shift list its palette color.
func VehicleColors(shifts schedule.Shifts) map[string]string {
	colors := make(map[string]string)
	for i, vehicleID := range shifts.Vehicles() {
		colors[vehicleID] = palette[i%len(palette)]
	}
	return colors
}
