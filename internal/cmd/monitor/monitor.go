// Package monitor implements the long-running monitor command: it assembles
// the fleet poller, the virtual clock, the active zone feed, the Prometheus
// exporter, the API server and (optionally) the Slack bot, and runs them
// until interrupted.
package monitor

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/clambin/go-common/slackbot"
	"github.com/fleetyard/shift-monitor/internal/bot"
	"github.com/fleetyard/shift-monitor/internal/collector"
	"github.com/fleetyard/shift-monitor/internal/fleetapi"
	"github.com/fleetyard/shift-monitor/internal/health"
	"github.com/fleetyard/shift-monitor/internal/poller"
	"github.com/fleetyard/shift-monitor/internal/simulator"
	"github.com/fleetyard/shift-monitor/internal/timeline"
	"github.com/fleetyard/shift-monitor/internal/version"
	"github.com/fleetyard/shift-monitor/internal/zonefeed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var Cmd = cobra.Command{
	Use:   "monitor",
	Short: "runs the shift monitor",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := New(viper.GetViper(), version.BuildVersion, prometheus.DefaultRegisterer, slog.Default())
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return m.Run(ctx)
	},
}

// Task is a component that runs until its context is cancelled.
type Task interface {
	Run(ctx context.Context) error
}

// Monitor holds all running components of the shift monitor.
type Monitor struct {
	tasks   []Task
	version string
	logger  *slog.Logger
}

func New(cfg *viper.Viper, buildVersion string, registry prometheus.Registerer, logger *slog.Logger) (*Monitor, error) {
	m := Monitor{version: buildVersion, logger: logger}

	apiMetrics := fleetapi.NewMetrics("shift_monitor", "api")
	registry.MustRegister(apiMetrics)
	client := fleetapi.New(cfg.GetString("fleet.url"), cfg.GetString("fleet.token"), apiMetrics)

	vehicles := splitVehicles(cfg.GetString("fleet.vehicles"))

	p := poller.New(client, vehicles, cfg.GetDuration("poller.interval"), logger.With(slog.String("component", "poller")))
	m.tasks = append(m.tasks, p)

	clock := simulator.New(cfg.GetDuration("simulator.interval"), logger.With(slog.String("component", "simulator")))
	m.tasks = append(m.tasks, clock)

	feed := zonefeed.New(client, clock, vehicles, cfg.GetDuration("zones.interval"), logger.With(slog.String("component", "zonefeed")))
	if cfg.GetBool("zones.enabled") {
		feed.Start()
	}
	m.tasks = append(m.tasks, feed)

	registry.MustRegister(&collector.Collector{
		Updates: p,
		Clock:   clock,
		Logger:  logger.With(slog.String("component", "collector")),
	})

	h := health.New(p, logger.With(slog.String("component", "health")))
	m.tasks = append(m.tasks, h)

	tl := timeline.NewHandler(p, clock, logger.With(slog.String("component", "timeline")))
	m.tasks = append(m.tasks, tl)

	mux := http.NewServeMux()
	mux.Handle("/health", h)
	mux.Handle("/timeline", tl)
	mux.Handle("/zones", feed)
	m.tasks = append(m.tasks, &httpServer{
		addr:    cfg.GetString("server.addr"),
		handler: mux,
		logger:  logger.With(slog.String("component", "server")),
	})

	promMux := http.NewServeMux()
	promMux.Handle("/metrics", promhttp.Handler())
	m.tasks = append(m.tasks, &httpServer{
		addr:    cfg.GetString("exporter.addr"),
		handler: promMux,
		logger:  logger.With(slog.String("component", "exporter")),
	})

	if token := cfg.GetString("slack.token"); token != "" {
		app := slackbot.New(
			token,
			slackbot.WithName("shift-monitor "+buildVersion),
			slackbot.WithLogger(logger.With(slog.String("component", "slackbot"))),
		)
		m.tasks = append(m.tasks, bot.New(app, p, clock, logger.With(slog.String("component", "bot"))))
	}

	return &m, nil
}

// Run starts all components and waits for them to terminate.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("shift monitor starting", slog.String("version", m.version))
	defer m.logger.Info("shift monitor stopped")

	g, ctx := errgroup.WithContext(ctx)
	for _, task := range m.tasks {
		g.Go(func() error { return task.Run(ctx) })
	}
	return g.Wait()
}

func splitVehicles(value string) []string {
	if value == "" {
		return nil
	}
	vehicles := strings.Split(value, ",")
	for i := range vehicles {
		vehicles[i] = strings.TrimSpace(vehicles[i])
	}
	return vehicles
}
