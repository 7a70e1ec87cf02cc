package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/devicelab-dev/surge-monitor/pkg/logger"
)

// DefaultSettle is how long the watcher waits after the last change before
// reloading, so an editor's burst of writes results in one reload.
const DefaultSettle = 500 * time.Millisecond

// Watcher reloads a config file when it changes on disk and hands every
// valid result to a callback. Invalid edits are logged and skipped.
type Watcher struct {
	path     string
	settle   time.Duration
	fsw      *fsnotify.Watcher
	onReload func(*Config)
}

// NewWatcher starts watching path. The parent directory is watched so that
// editors replacing the file through a rename are noticed.
func NewWatcher(path string, settle time.Duration, onReload func(*Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{path: abs, settle: settle, fsw: fsw, onReload: onReload}, nil
}

// Run delivers reloads until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.settle)
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Warn("Ignoring config change in %s: %v", w.path, err)
		return
	}
	logger.Info("Reloaded config from %s", w.path)
	w.onReload(cfg)
}
