package main

import (
	"log/slog"
	"os"

	"github.com/fleetyard/shift-monitor/internal/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		slog.Error("failed to start", "err", err)
		os.Exit(1)
	}
}
