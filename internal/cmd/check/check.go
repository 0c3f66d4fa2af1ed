// Package check implements the check command: it validates a shift schedule
// file and reports overlapping shifts.
package check

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/spf13/cobra"
)

var Cmd = cobra.Command{
	Use:   "check <schedule file>",
	Short: "validates a shift schedule file and reports overlapping shifts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(cmd.OutOrStdout(), args[0])
	},
}

func check(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	shifts, err := schedule.Load(f, slog.Default())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%d shifts for %d vehicles\n", len(shifts), len(shifts.Vehicles()))

	conflicts := shifts.FindOverlaps()
	if len(conflicts) == 0 {
		_, _ = fmt.Fprintln(w, "no overlapping shifts")
		return nil
	}

	for _, conflict := range conflicts {
		days := make([]string, 0, len(conflict.Weekdays))
		for _, day := range conflict.Weekdays {
			days = append(days, day.String())
		}
		_, _ = fmt.Fprintf(w, "%s: %s and %s overlap on %s\n",
			conflict.VehicleID, conflict.ShiftA, conflict.ShiftB, strings.Join(days, ", "),
		)
	}
	return fmt.Errorf("found %d overlapping shift pairs", len(conflicts))
}
