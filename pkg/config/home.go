package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "SURGE_MONITOR_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the surge-monitor home directory.
//
// Resolution order:
//  1. $SURGE_MONITOR_HOME environment variable
//  2. Parent of the binary's directory (if binary is in <home>/bin/)
//  3. Current working directory (development fallback)
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetDebugDir returns <home>/debug, where inspect dumps page sources.
func GetDebugDir() string {
	return filepath.Join(GetHome(), "debug")
}

// Resolve returns path unchanged if absolute, otherwise joined to GetHome().
func Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetHome(), path)
}

func resolveHome() string {
	// 1. Environment variable
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	// 2. Binary-relative: if binary is at <home>/bin/surge-monitor, use <home>
	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		binDir := filepath.Dir(execPath)
		if filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	// 3. Current working directory
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return "."
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
