// Package config handles configuration for surge-monitor.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/monitor"
	"github.com/devicelab-dev/surge-monitor/pkg/scheduler"
)

// Config represents the monitor configuration (config.yaml).
type Config struct {
	// Connection
	Appium AppiumConfig `yaml:"appium"`
	App    string       `yaml:"app"` // package / bundle id of the monitored app

	// What to measure and how often
	Route    monitor.Route  `yaml:"route"`
	Schedule ScheduleConfig `yaml:"schedule"`

	// Where results and logs go. Relative paths resolve against GetHome().
	Output string    `yaml:"output"`
	Log    LogConfig `yaml:"log"`

	Metrics MetricsConfig `yaml:"metrics"`

	// App-specific selectors and timings
	UI monitor.Profile `yaml:"ui"`
}

// AppiumConfig selects the automation server and session capabilities.
type AppiumConfig struct {
	URL          string                 `yaml:"url"`
	Capabilities map[string]interface{} `yaml:"capabilities"` // merged over the defaults
}

// ScheduleConfig controls the measurement loop.
type ScheduleConfig struct {
	Base         time.Duration `yaml:"base"`
	JitterMin    time.Duration `yaml:"jitterMin"`
	JitterMax    time.Duration `yaml:"jitterMax"`
	RestartPause time.Duration `yaml:"restartPause"`
	Seed         uint64        `yaml:"seed"` // 0 = time-based
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional JSON log file
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// Default returns the configuration for monitoring Bolt on a local Appium server.
func Default() *Config {
	sched := scheduler.DefaultConfig()
	return &Config{
		Appium: AppiumConfig{
			URL:          "http://localhost:4723",
			Capabilities: DefaultCapabilities(),
		},
		App: sched.AppID,
		Route: monitor.Route{
			Origin:      "Dworzec Główny Wschód w Krakowie",
			Destination: "Bronowicka 57 Kraków",
		},
		Schedule: ScheduleConfig{
			Base:         sched.Base,
			JitterMin:    sched.JitterMin,
			JitterMax:    sched.JitterMax,
			RestartPause: sched.RestartPause,
		},
		Output: filepath.Join("data", "prices_bolt.csv"),
		Log:    LogConfig{Level: "info"},
		UI:     monitor.DefaultProfile(),
	}
}

// DefaultCapabilities returns the UiAutomator2 session capabilities for the
// Bolt Android client.
func DefaultCapabilities() map[string]interface{} {
	return map[string]interface{}{
		"platformName":            "Android",
		"automationName":          "UiAutomator2",
		"deviceName":              "Android",
		"appPackage":              "ee.mtakso.client",
		"appActivity":             ".activity.SplashHomeActivity",
		"appWaitActivity":         "*",
		"language":                "pl",
		"locale":                  "PL",
		"noReset":                 true,
		"fullReset":               false,
		"ensureWebviewsHavePages": true,
		"nativeWebScreenshot":     true,
		"newCommandTimeout":       3600,
		"connectHardwareKeyboard": true,
		"autoGrantPermissions":    true,
	}
}

// Load loads configuration from a file on top of Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// FindFile returns the config file in dir, preferring config.yaml over
// config.yml, or "" when there is none.
func FindFile(dir string) string {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFromDir loads the config file found by FindFile, or the defaults when
// the directory has none.
func LoadFromDir(dir string) (*Config, error) {
	if path := FindFile(dir); path != "" {
		return Load(path)
	}
	return Default(), nil
}

// Validate checks the configuration for values the monitor cannot run with.
func (c *Config) Validate() error {
	if c.App == "" {
		return core.ErrInvalidConfig.WithMessage("app is required")
	}
	if u, err := url.Parse(c.Appium.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("appium.url %q is not a valid URL", c.Appium.URL))
	}
	if strings.TrimSpace(c.Route.Origin) == "" || strings.TrimSpace(c.Route.Destination) == "" {
		return core.ErrInvalidConfig.WithMessage("route.origin and route.destination are required")
	}
	if c.Output == "" {
		return core.ErrInvalidConfig.WithMessage("output is required")
	}
	if err := c.SchedulerConfig(0).Validate(); err != nil {
		return err
	}
	return c.UI.Validate()
}

// SchedulerConfig returns the loop settings. maxCycles 0 runs forever.
func (c *Config) SchedulerConfig(maxCycles int) scheduler.Config {
	return scheduler.Config{
		AppID:        c.App,
		Route:        c.Route.Label(),
		Base:         c.Schedule.Base,
		JitterMin:    c.Schedule.JitterMin,
		JitterMax:    c.Schedule.JitterMax,
		RestartPause: c.Schedule.RestartPause,
		Seed:         c.Schedule.Seed,
		MaxCycles:    maxCycles,
	}
}

// w3cCapabilities are the capability names that need no vendor prefix.
var w3cCapabilities = map[string]bool{
	"platformName":              true,
	"browserName":               true,
	"browserVersion":            true,
	"acceptInsecureCerts":       true,
	"pageLoadStrategy":          true,
	"proxy":                     true,
	"setWindowRect":             true,
	"timeouts":                  true,
	"strictFileInteractability": true,
	"unhandledPromptBehavior":   true,
	"webSocketUrl":              true,
}

// SessionCapabilities returns the capabilities in W3C form: non-standard
// names get the "appium:" prefix unless they already carry a vendor prefix.
func (c *Config) SessionCapabilities() map[string]interface{} {
	out := make(map[string]interface{}, len(c.Appium.Capabilities))
	for name, value := range c.Appium.Capabilities {
		if !w3cCapabilities[name] && !strings.Contains(name, ":") {
			name = "appium:" + name
		}
		out[name] = value
	}
	return out
}

// OutputPath returns the CSV log path, resolved against the home directory.
func (c *Config) OutputPath() string {
	return Resolve(c.Output)
}

// LogFilePath returns the log file path, or "" when file logging is off.
func (c *Config) LogFilePath() string {
	if c.Log.File == "" {
		return ""
	}
	return Resolve(c.Log.File)
}
