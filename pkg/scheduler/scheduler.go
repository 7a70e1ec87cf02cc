// Package scheduler repeats measurement cycles at a jittered interval,
// restarting the app before each one and persisting successful results.
package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/logger"
	"github.com/devicelab-dev/surge-monitor/pkg/metrics"
	"github.com/devicelab-dev/surge-monitor/pkg/monitor"
	"github.com/devicelab-dev/surge-monitor/pkg/quote"
)

// Writer persists measurement records.
type Writer interface {
	Append(rec quote.Record) error
}

// Cycle runs one measurement.
type Cycle interface {
	Run() monitor.Outcome
}

// Config controls the loop.
type Config struct {
	AppID string
	Route string // persisted route label

	Base         time.Duration // fixed part of the inter-cycle delay
	JitterMin    time.Duration
	JitterMax    time.Duration
	RestartPause time.Duration // between terminating and activating the app

	Seed      uint64 // 0 picks a time-based seed
	MaxCycles int    // 0 runs until cancelled
}

// DefaultConfig returns a 30 minute base interval with 3 to 6 minutes of jitter.
func DefaultConfig() Config {
	return Config{
		AppID:        "ee.mtakso.client",
		Base:         30 * time.Minute,
		JitterMin:    3 * time.Minute,
		JitterMax:    6 * time.Minute,
		RestartPause: 3 * time.Second,
	}
}

// Validate checks the interval bounds.
func (c Config) Validate() error {
	switch {
	case c.AppID == "":
		return core.ErrInvalidConfig.WithMessage("app id is required")
	case c.Base < 0 || c.JitterMin < 0 || c.RestartPause < 0:
		return core.ErrInvalidConfig.WithMessage("intervals must not be negative")
	case c.JitterMax < c.JitterMin:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("jitter max %s is below jitter min %s", c.JitterMax, c.JitterMin))
	case c.MaxCycles < 0:
		return core.ErrInvalidConfig.WithMessage("max cycles must not be negative")
	}
	return nil
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock makes every wait go through clock. Waits still return early
// once the context is cancelled.
func WithClock(clock core.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
		s.wait = func(ctx context.Context, d time.Duration) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			clock.Sleep(d)
			return ctx.Err()
		}
	}
}

// WithMetrics records loop metrics.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = r }
}

// Scheduler runs cycles until cancelled or the session is lost.
type Scheduler struct {
	cfg     Config
	session core.Session
	cycle   Cycle
	writer  Writer
	clock   core.Clock
	metrics *metrics.Recorder
	rng     *rand.Rand
	wait    func(ctx context.Context, d time.Duration) error
}

// New creates a scheduler.
func New(cfg Config, session core.Session, cycle Cycle, writer Writer, opts ...Option) *Scheduler {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s := &Scheduler{
		cfg:     cfg,
		session: session,
		cycle:   cycle,
		writer:  writer,
		clock:   core.RealClock{},
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
		wait:    sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextDelay draws the wait before the next cycle: Base plus a uniform
// jitter in [JitterMin, JitterMax].
func (s *Scheduler) NextDelay() time.Duration {
	jitter := s.cfg.JitterMin
	if span := s.cfg.JitterMax - s.cfg.JitterMin; span > 0 {
		jitter += time.Duration(s.rng.Int64N(int64(span) + 1))
	}
	return s.cfg.Base + jitter
}

// Run loops until ctx is cancelled, MaxCycles is reached, or the session
// is lost. Cancellation is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info("Monitoring %s every %s (+%s..%s)", s.cfg.Route, s.cfg.Base, s.cfg.JitterMin, s.cfg.JitterMax)

	for n := 1; ; n++ {
		if ctx.Err() != nil {
			logger.Info("Monitor stopped")
			return nil
		}

		logger.Info("--- Cycle %d ---", n)
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				logger.Info("Monitor stopped")
				return nil
			}
			logger.Error("Session lost, stopping: %v", err)
			return err
		}

		if s.cfg.MaxCycles > 0 && n >= s.cfg.MaxCycles {
			return nil
		}

		delay := s.NextDelay()
		next := s.clock.Now().Add(delay)
		s.metrics.SetNextCycle(next)
		logger.Info("Next measurement in %s (at %s)", delay.Round(time.Second), next.Format("15:04:05"))

		if err := s.wait(ctx, delay); err != nil {
			logger.Info("Monitor stopped")
			return nil
		}
	}
}

// runOnce restarts the app, runs a cycle and terminates the app again.
// It returns only session-fatal or cancellation errors.
func (s *Scheduler) runOnce(ctx context.Context) error {
	if err := s.lifecycle("terminate", s.session.TerminateApp); err != nil {
		return err
	}
	if err := s.wait(ctx, s.cfg.RestartPause); err != nil {
		return err
	}
	if err := s.lifecycle("activate", s.session.ActivateApp); err != nil {
		return err
	}

	out := s.cycle.Run()
	termErr := s.lifecycle("terminate", s.session.TerminateApp)
	s.handle(out)

	if out.Kind == monitor.OutcomeFailure && core.IsSessionFatal(out.Err) {
		return out.Err
	}
	return termErr
}

// lifecycle calls an app start/stop operation. Failures other than a lost
// session are logged and ignored.
func (s *Scheduler) lifecycle(name string, op func(appID string) error) error {
	err := op(s.cfg.AppID)
	if err == nil {
		return nil
	}
	if core.IsSessionFatal(err) {
		return fmt.Errorf("%s %s: %w", name, s.cfg.AppID, err)
	}
	logger.Warn("Could not %s %s: %v", name, s.cfg.AppID, err)
	return nil
}

func (s *Scheduler) handle(out monitor.Outcome) {
	switch out.Kind {
	case monitor.OutcomeSuccess:
		rec := quote.Record{Timestamp: s.clock.Now(), Route: s.cfg.Route, Quotes: out.Quotes}
		err := s.writer.Append(rec)
		s.metrics.RecordWrite(err)
		if err != nil {
			logger.Error("Could not save %d prices: %v", len(out.Quotes), err)
			return
		}
		logger.Info("Saved %d prices in %s: %s", len(out.Quotes), out.Duration.Round(time.Second), summary(out.Quotes))
	case monitor.OutcomeEmpty:
		logger.Warn("No prices found, nothing saved")
	case monitor.OutcomeFailure:
		logger.Error("Cycle failed after %s: %v", out.State, out.Err)
	}
}

func summary(set quote.Set) string {
	parts := make([]string, 0, len(set))
	for _, name := range set.Names() {
		parts = append(parts, name+"="+set[name].String())
	}
	return strings.Join(parts, ", ")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
