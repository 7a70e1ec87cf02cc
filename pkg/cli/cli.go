// Package cli provides the command-line interface for surge-monitor.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/surge-monitor/pkg/config"
	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/driver/appium"
	"github.com/devicelab-dev/surge-monitor/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Config file (default: config.yaml or config.yml in the home directory)",
		EnvVars: []string{"SURGE_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "CSV file measurements are appended to",
		EnvVars: []string{"SURGE_OUTPUT"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: []string{"SURGE_LOG_LEVEL"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Also write JSON logs to this file",
		EnvVars: []string{"SURGE_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging (same as --log-level debug)",
		EnvVars: []string{"SURGE_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// openSession connects to the automation server. Replaced in tests.
var openSession = func(serverURL string, caps map[string]interface{}) (core.Session, error) {
	return appium.Open(serverURL, caps)
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "surge-monitor",
		Usage:   "Periodic ride price sampling through Appium",
		Version: Version,
		Description: `surge-monitor drives the ride-hailing app on a connected Android device,
enters a fixed route at randomized intervals and appends the quoted fares
for every category to a CSV log.

Examples:
  surge-monitor run
  surge-monitor run --once
  surge-monitor --config monitor.yaml run --metrics-addr :9102
  surge-monitor inspect --wait
  surge-monitor history`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			inspectCommand,
			historyCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(config.GetHome())
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if v := c.String("appium-url"); v != "" {
		cfg.Appium.URL = v
	}
	if v := c.String("output"); v != "" {
		cfg.Output = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	if v := c.String("log-file"); v != "" {
		cfg.Log.File = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogging starts the global logger. The returned func flushes it.
func initLogging(c *cli.Context, cfg *config.Config) (func(), error) {
	err := logger.InitWithWriter(logger.Config{
		Level:   cfg.Log.Level,
		File:    cfg.LogFilePath(),
		Console: true,
	}, c.App.Writer)
	if err != nil {
		return nil, err
	}
	return logger.Close, nil
}

// connect opens the driver session described by cfg.
func connect(cfg *config.Config) (core.Session, error) {
	logger.Info("Connecting to Appium at %s", cfg.Appium.URL)
	session, err := openSession(cfg.Appium.URL, cfg.SessionCapabilities())
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Appium.URL, err)
	}
	return session, nil
}

// closeSession releases the driver session, logging failures.
func closeSession(session core.Session) {
	logger.Info("Closing driver session")
	if err := session.Close(); err != nil {
		logger.Warn("Failed to close session: %v", err)
	}
}
