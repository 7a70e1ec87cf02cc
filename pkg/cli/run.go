package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/surge-monitor/pkg/config"
	"github.com/devicelab-dev/surge-monitor/pkg/logger"
	"github.com/devicelab-dev/surge-monitor/pkg/metrics"
	"github.com/devicelab-dev/surge-monitor/pkg/monitor"
	"github.com/devicelab-dev/surge-monitor/pkg/scheduler"
	"github.com/devicelab-dev/surge-monitor/pkg/store"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Measure the configured route until interrupted",
	Description: `Restart the app, enter the route and record the quoted fares, then wait
the base interval plus a random jitter and repeat. Stops cleanly on Ctrl+C and
exits non-zero if the automation session is lost.

Examples:
  surge-monitor run
  surge-monitor run --once
  surge-monitor run --metrics-addr :9102
  surge-monitor run --watch`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "once",
			Usage: "Run a single measurement and exit",
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "Serve Prometheus metrics on this address (e.g. :9102)",
			EnvVars: []string{"SURGE_METRICS_ADDR"},
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for the interval jitter (0 = time-based)",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Apply UI selector and timing changes from the config file at the next cycle",
		},
	},
	Action: runMonitor,
}

func runMonitor(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if v := c.String("metrics-addr"); v != "" {
		cfg.Metrics.Addr = v
	}
	if c.IsSet("seed") {
		cfg.Schedule.Seed = c.Uint64("seed")
	}

	closeLog, err := initLogging(c, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	printBanner(c.App.Writer, cfg.Route.Label())

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec *metrics.Recorder
	if cfg.Metrics.Addr != "" {
		rec = metrics.New(metrics.DefaultConfig())
		errCh := rec.Serve(ctx, cfg.Metrics.Addr)
		go func() {
			if err := <-errCh; err != nil {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
		logger.Info("Serving metrics on %s/metrics", cfg.Metrics.Addr)
	}

	session, err := connect(cfg)
	if err != nil {
		return err
	}
	defer closeSession(session)

	maxCycles := 0
	if c.Bool("once") {
		maxCycles = 1
	}

	cycle := newLiveCycle(monitor.Deps{
		Session: session,
		Profile: cfg.UI,
		Metrics: rec,
	}, cfg.Route)
	if c.Bool("watch") {
		watchProfile(ctx, configPath(c), cycle)
	}
	writer := store.NewCSVWriter(cfg.OutputPath())
	logger.Info("Saving measurements to %s", writer.Path())

	sched := scheduler.New(cfg.SchedulerConfig(maxCycles), session, cycle, writer, scheduler.WithMetrics(rec))
	notifySystemd(daemon.SdNotifyReady)
	defer notifySystemd(daemon.SdNotifyStopping)
	if err := sched.Run(ctx); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "%s✗ Monitor stopped: %v%s\n", color(colorRed), err, color(colorReset))
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s✓ Monitor finished%s\n", color(colorGreen), color(colorReset))
	return nil
}

// liveCycle runs the measurement cycle with the most recently applied UI
// profile. Profile changes take effect at the next Run.
type liveCycle struct {
	mu    sync.Mutex
	deps  monitor.Deps
	route monitor.Route
	cycle *monitor.Cycle
}

func newLiveCycle(deps monitor.Deps, route monitor.Route) *liveCycle {
	return &liveCycle{deps: deps, route: route, cycle: monitor.NewCycle(deps, route)}
}

func (l *liveCycle) Run() monitor.Outcome {
	l.mu.Lock()
	cycle := l.cycle
	l.mu.Unlock()
	return cycle.Run()
}

func (l *liveCycle) SetProfile(p monitor.Profile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deps.Profile = p
	l.cycle = monitor.NewCycle(l.deps, l.route)
}

// configPath returns the file loadConfig read, or "" for built-in defaults.
func configPath(c *cli.Context) string {
	if path := c.String("config"); path != "" {
		return path
	}
	return config.FindFile(config.GetHome())
}

// watchProfile applies UI profile edits from path to cycle until ctx is done.
func watchProfile(ctx context.Context, path string, cycle *liveCycle) {
	if path == "" {
		logger.Warn("No config file to watch, using built-in UI profile")
		return
	}
	w, err := config.NewWatcher(path, config.DefaultSettle, func(cfg *config.Config) {
		cycle.SetProfile(cfg.UI)
	})
	if err != nil {
		logger.Warn("Config watch disabled: %v", err)
		return
	}
	logger.Info("Watching %s for UI profile changes", path)
	go w.Run(ctx)
}

// notifySystemd reports state when running as a systemd notify unit and is
// a no-op elsewhere.
func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Debug("sd_notify %s failed: %v", state, err)
		return
	}
	if sent {
		logger.Debug("Notified systemd: %s", state)
	}
}
