package config

import (
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("SURGE_MONITOR_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_FallbackNotEmpty(t *testing.T) {
	ResetHome()
	t.Setenv("SURGE_MONITOR_HOME", "")

	if got := GetHome(); got == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("SURGE_MONITOR_HOME", "/first")

	first := GetHome()

	// Changing env must not affect the cached value
	t.Setenv("SURGE_MONITOR_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestGetDebugDir(t *testing.T) {
	ResetHome()
	t.Setenv("SURGE_MONITOR_HOME", "/test/home")

	got := GetDebugDir()
	want := filepath.Join("/test/home", "debug")
	if got != want {
		t.Errorf("GetDebugDir() = %q, want %q", got, want)
	}
}

func TestResolve(t *testing.T) {
	ResetHome()
	t.Setenv("SURGE_MONITOR_HOME", "/test/home")

	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"/abs/file.csv", "/abs/file.csv"},
		{"data/prices.csv", filepath.Join("/test/home", "data", "prices.csv")},
	}
	for _, tt := range tests {
		if got := Resolve(tt.path); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
