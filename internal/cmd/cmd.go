package cmd

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/clambin/go-common/charmer"
	"github.com/fleetyard/shift-monitor/internal/cmd/check"
	"github.com/fleetyard/shift-monitor/internal/cmd/monitor"
	"github.com/fleetyard/shift-monitor/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilename string
	RootCmd        = cobra.Command{
		Use:     "shift-monitor",
		Short:   "Monitors recurring weekly shift windows for a vehicle fleet",
		Version: version.BuildVersion,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts := slog.HandlerOptions{}
			if viper.GetBool("debug") {
				opts.Level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &opts)))
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	_ = charmer.SetPersistentFlags(&RootCmd, viper.GetViper(), args)

	RootCmd.AddCommand(&monitor.Cmd, &check.Cmd)
}

var args = charmer.Arguments{
	"debug":              charmer.Argument{Default: false, Help: "Log debug messages"},
	"fleet.url":          charmer.Argument{Default: "http://localhost:8080", Help: "Fleet API URL"},
	"fleet.token":        charmer.Argument{Default: "", Help: "Fleet API bearer token"},
	"fleet.vehicles":     charmer.Argument{Default: "", Help: "Vehicles to watch (comma separated, empty for all)"},
	"poller.interval":    charmer.Argument{Default: 30 * time.Second, Help: "Fleet poller interval"},
	"simulator.interval": charmer.Argument{Default: time.Second, Help: "Virtual clock tick interval"},
	"zones.interval":     charmer.Argument{Default: time.Minute, Help: "Active zone feed interval"},
	"zones.enabled":      charmer.Argument{Default: true, Help: "Start the active zone feed"},
	"exporter.addr":      charmer.Argument{Default: ":9090", Help: "Address of Prometheus exporter"},
	"server.addr":        charmer.Argument{Default: ":8080", Help: "Address of the API server"},
	"slack.token":        charmer.Argument{Default: "", Help: "Slack token"},
}

func initConfig() {
	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("/etc/shift-monitor/")
		viper.AddConfigPath("$HOME/.shift-monitor")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("SHIFT_MONITOR")
	viper.AutomaticEnv()

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		slog.Error("failed to read config file", "err", err)
		os.Exit(1)
	}
}
