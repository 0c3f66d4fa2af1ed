package schedule

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/clambin/go-common/set"
	"gopkg.in/yaml.v3"
)

// shiftConfig is the file representation of a Shift. Times are "HH:MM"
// strings and weekdays are day names, which reads better than raw minutes.
type shiftConfig struct {
	ID       string    `yaml:"id"`
	Vehicle  string    `yaml:"vehicle"`
	Name     string    `yaml:"name"`
	Start    timestamp `yaml:"start"`
	End      timestamp `yaml:"end"`
	Days     []weekday `yaml:"days"`
	Disabled bool      `yaml:"disabled,omitempty"`
	Zones    []string  `yaml:"zones,omitempty"`
}

// Load reads shift definitions from a YAML document. Definitions that fail
// validation make the whole load fail: an invalid shift never enters the
// model.
func Load(in io.Reader, logger *slog.Logger) (Shifts, error) {
	var config struct {
		Shifts []shiftConfig `yaml:"shifts"`
	}
	if err := yaml.NewDecoder(in).Decode(&config); err != nil {
		return nil, err
	}

	shifts := make(Shifts, 0, len(config.Shifts))
	for _, cfg := range config.Shifts {
		shift := Shift{
			ID:        cfg.ID,
			VehicleID: cfg.Vehicle,
			Name:      cfg.Name,
			Start:     TimeOfDay(cfg.Start),
			End:       TimeOfDay(cfg.End),
			Weekdays:  set.New[time.Weekday](),
			Enabled:   !cfg.Disabled,
			ZoneIDs:   cfg.Zones,
		}
		for _, day := range cfg.Days {
			shift.Weekdays.Add(time.Weekday(day))
		}
		if err := shift.Validate(); err != nil {
			return nil, fmt.Errorf("invalid shift %q: %w", cfg.ID, err)
		}
		shifts = append(shifts, shift)
		logger.Debug("shift definition loaded",
			slog.String("id", shift.ID),
			slog.String("vehicle", shift.VehicleID),
			slog.String("window", shift.Start.String()+"-"+shift.End.String()),
		)
	}
	return shifts, nil
}

type timestamp TimeOfDay

func (t *timestamp) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseTimeOfDay(node.Value)
	if err != nil {
		return err
	}
	*t = timestamp(parsed)
	return nil
}

func (t timestamp) MarshalYAML() (any, error) {
	return TimeOfDay(t).String(), nil
}

type weekday time.Weekday

var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday converts a day name ("friday") or its three letter
// abbreviation ("fri") to a time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(s)
	if day, ok := dayNames[name]; ok {
		return day, nil
	}
	if len(name) == 3 {
		for full, day := range dayNames {
			if strings.HasPrefix(full, name) {
				return day, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid weekday: %q", s)
}

func (d *weekday) UnmarshalYAML(node *yaml.Node) error {
	day, err := ParseWeekday(node.Value)
	if err != nil {
		return err
	}
	*d = weekday(day)
	return nil
}

func (d weekday) MarshalYAML() (any, error) {
	return strings.ToLower(time.Weekday(d).String()), nil
}
