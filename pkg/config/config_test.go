package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
appium:
  url: http://10.0.0.5:4723
  capabilities:
    deviceName: Pixel 7
    udid: emulator-5554
route:
  origin: Rynek Główny
  destination: Lotnisko Balice
schedule:
  base: 15m
  jitterMin: 1m
  jitterMax: 90s
  seed: 7
output: /var/lib/surge/prices.csv
log:
  level: debug
  file: logs/monitor.log
metrics:
  addr: ":9102"
ui:
  searchAttempts: 5
  wakePoint: "50%, 30%"
  suggestionFallbackPoint: "50%, 700"
  timings:
    mapSettle: 12s
`
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Appium.URL != "http://10.0.0.5:4723" {
		t.Errorf("appium url = %q", cfg.Appium.URL)
	}
	if cfg.Appium.Capabilities["deviceName"] != "Pixel 7" {
		t.Errorf("deviceName = %v", cfg.Appium.Capabilities["deviceName"])
	}
	// defaults not named in the file survive
	if cfg.Appium.Capabilities["automationName"] != "UiAutomator2" {
		t.Errorf("automationName = %v", cfg.Appium.Capabilities["automationName"])
	}
	if cfg.Route.Origin != "Rynek Główny" || cfg.Route.Destination != "Lotnisko Balice" {
		t.Errorf("route = %+v", cfg.Route)
	}
	if cfg.Schedule.Base != 15*time.Minute || cfg.Schedule.JitterMax != 90*time.Second || cfg.Schedule.Seed != 7 {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if cfg.Schedule.RestartPause != 3*time.Second {
		t.Errorf("restartPause = %v, want default 3s", cfg.Schedule.RestartPause)
	}
	if cfg.Log.Level != "debug" || cfg.Metrics.Addr != ":9102" {
		t.Errorf("log = %+v, metrics = %+v", cfg.Log, cfg.Metrics)
	}
	if cfg.UI.SearchAttempts != 5 {
		t.Errorf("searchAttempts = %d", cfg.UI.SearchAttempts)
	}
	if got := cfg.UI.WakePoint.String(); got != "50%, 30%" {
		t.Errorf("wakePoint = %q", got)
	}
	if got := cfg.UI.SuggestionFallbackPoint.String(); got != "50%, 700" {
		t.Errorf("suggestionFallbackPoint = %q", got)
	}
	if cfg.UI.Timings.MapSettle != 12*time.Second || cfg.UI.Timings.PriceSettle != 2*time.Second {
		t.Errorf("timings = %+v", cfg.UI.Timings)
	}
	if len(cfg.UI.PopupTexts) != 7 {
		t.Errorf("popupTexts = %v, want defaults", cfg.UI.PopupTexts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `route: [invalid yaml`)

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_InvalidPoint(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "ui:\n  wakePoint: \"150%, 10%\"\n")

	if _, err := Load(path); err == nil {
		t.Error("expected error for out of range point")
	}
}

func TestLoad_EmptyConfigUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", ``))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := Default()
	if cfg.Route != def.Route || cfg.Schedule != def.Schedule || cfg.Output != def.Output {
		t.Errorf("got %+v, want defaults", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadFromDir_ConfigYaml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `app: com.example.ride`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App != "com.example.ride" {
		t.Errorf("expected app com.example.ride, got %s", cfg.App)
	}
}

func TestLoadFromDir_ConfigYml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", `output: out.csv`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output != "out.csv" {
		t.Errorf("expected output out.csv, got %s", cfg.Output)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App != "ee.mtakso.client" {
		t.Errorf("expected default app, got %s", cfg.App)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `app: from.yaml`)
	writeConfig(t, dir, "config.yml", `app: from.yml`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should prefer config.yaml
	if cfg.App != "from.yaml" {
		t.Errorf("expected app from.yaml, got %s", cfg.App)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing app", func(c *Config) { c.App = "" }},
		{"bad url", func(c *Config) { c.Appium.URL = "localhost" }},
		{"missing origin", func(c *Config) { c.Route.Origin = " " }},
		{"missing output", func(c *Config) { c.Output = "" }},
		{"inverted jitter", func(c *Config) { c.Schedule.JitterMax = time.Second }},
		{"missing card selector", func(c *Config) { c.UI.CardContainerID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if core.CategoryOf(err) != core.ErrCategoryConfig {
				t.Errorf("category = %v, want config", core.CategoryOf(err))
			}
		})
	}
}

func TestSessionCapabilities(t *testing.T) {
	cfg := Default()
	cfg.Appium.Capabilities["appium:udid"] = "abc"

	caps := cfg.SessionCapabilities()

	if caps["platformName"] != "Android" {
		t.Errorf("platformName = %v", caps["platformName"])
	}
	if caps["appium:automationName"] != "UiAutomator2" {
		t.Errorf("appium:automationName = %v", caps["appium:automationName"])
	}
	if caps["appium:newCommandTimeout"] != 3600 {
		t.Errorf("appium:newCommandTimeout = %v", caps["appium:newCommandTimeout"])
	}
	if caps["appium:udid"] != "abc" {
		t.Errorf("appium:udid = %v", caps["appium:udid"])
	}
	if _, ok := caps["noReset"]; ok {
		t.Error("noReset left without vendor prefix")
	}
}

func TestSchedulerConfig(t *testing.T) {
	cfg := Default()
	sc := cfg.SchedulerConfig(1)

	if sc.Route != "Dworzec Główny Wschód w Krakowie -> Bronowicka 57 Kraków" {
		t.Errorf("route = %q", sc.Route)
	}
	if sc.MaxCycles != 1 || sc.Base != 30*time.Minute || sc.AppID != "ee.mtakso.client" {
		t.Errorf("scheduler config = %+v", sc)
	}
}

func TestOutputPath(t *testing.T) {
	ResetHome()
	t.Setenv("SURGE_MONITOR_HOME", "/srv/surge")
	defer ResetHome()

	cfg := Default()
	if got, want := cfg.OutputPath(), filepath.Join("/srv/surge", "data", "prices_bolt.csv"); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}

	cfg.Output = "/tmp/x.csv"
	if got := cfg.OutputPath(); got != "/tmp/x.csv" {
		t.Errorf("OutputPath() = %q", got)
	}

	if got := cfg.LogFilePath(); got != "" {
		t.Errorf("LogFilePath() = %q, want empty", got)
	}
}
