// Package timeline converts shift definitions into positioned blocks on a
// 7-column by 24-hour weekly grid, for rendering by a UI layer.
package timeline

import (
	"time"

	"github.com/fleetyard/shift-monitor/internal/schedule"
)

// MinBlockHeight is the minimum height of a block in pixels. Very short
// shifts are still rendered at this height so they remain clickable.
const MinBlockHeight = 8.0

// Block is one renderable rectangle in a weekday column. A midnight crossing
// shift produces two blocks per weekday: the evening part, and a continuation
// block at the top of the next weekday's column.
type Block struct {
	ShiftID      string       `json:"shiftId"`
	ShiftName    string       `json:"shiftName"`
	VehicleID    string       `json:"vehicleId"`
	Weekday      time.Weekday `json:"weekday"`
	Top          float64      `json:"top"`
	Height       float64      `json:"height"`
	Color        string       `json:"color"`
	Continuation bool         `json:"continuation,omitempty"`
}

// Marker is the horizontal "now" line: a y offset within one weekday column.
type Marker struct {
	Weekday time.Weekday `json:"weekday"`
	Y       float64      `json:"y"`
}

// Layout positions all shifts on the weekly grid. Block order is
// deterministic: shifts in input order, weekdays in Sunday-first order.
func Layout(shifts schedule.Shifts, pixelsPerHour float64) []Block {
	colors := VehicleColors(shifts)

	blocks := make([]Block, 0, len(shifts))
	for _, shift := range shifts {
		color := colors[shift.VehicleID]
		for _, day := range shift.SortedWeekdays() {
			if !shift.CrossesMidnight() {
				blocks = append(blocks, makeBlock(shift, day, shift.Start, int(shift.End), pixelsPerHour, color, false))
				continue
			}
			blocks = append(blocks,
				makeBlock(shift, day, shift.Start, schedule.MinutesPerDay, pixelsPerHour, color, false),
				makeBlock(shift, nextWeekday(day), 0, int(shift.End), pixelsPerHour, color, true),
			)
		}
	}
	return blocks
}

// NowMarker positions the "now" line for the given instant. It must be
// recomputed whenever the driving instant (real or simulated) changes.
func NowMarker(instant schedule.Instant, pixelsPerHour float64) Marker {
	return Marker{
		Weekday: instant.Weekday,
		Y:       timeOfDayToY(instant.Time, pixelsPerHour),
	}
}

func makeBlock(shift schedule.Shift, day time.Weekday, start schedule.TimeOfDay, end int, pixelsPerHour float64, color string, continuation bool) Block {
	height := max(float64(end-int(start))/60*pixelsPerHour, MinBlockHeight)
	return Block{
		ShiftID:      shift.ID,
		ShiftName:    shift.Name,
		VehicleID:    shift.VehicleID,
		Weekday:      day,
		Top:          timeOfDayToY(start, pixelsPerHour),
		Height:       height,
		Color:        color,
		Continuation: continuation,
	}
}

func timeOfDayToY(t schedule.TimeOfDay, pixelsPerHour float64) float64 {
	return float64(t) / 60 * pixelsPerHour
}

func nextWeekday(day time.Weekday) time.Weekday {
	return time.Weekday((int(day) + 1) % 7)
}
