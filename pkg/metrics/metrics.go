// Package metrics exposes Prometheus metrics for the measurement loop.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects cycle metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	quotes        prometheus.Gauge
	records       *prometheus.CounterVec
	fallbackTaps  *prometheus.CounterVec
	popups        *prometheus.CounterVec
	nextCycle     prometheus.Gauge
}

// Config sets metric name prefixes.
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig returns the default name prefixes.
func DefaultConfig() Config {
	return Config{
		Namespace: "surge",
		Subsystem: "monitor",
	}
}

// New creates a Recorder.
func New(cfg Config) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cycles_total",
			Help:      "Measurement cycles by outcome and last reached state.",
		}, []string{"outcome", "state"}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Wall-clock duration of a measurement cycle.",
			Buckets:   []float64{15, 30, 45, 60, 90, 120, 180, 300},
		}),
		quotes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "last_quote_categories",
			Help:      "Number of fare categories in the last successful cycle.",
		}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "records_total",
			Help:      "Measurement records handed to the log writer, by result.",
		}, []string{"result"}),
		fallbackTaps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "fallback_taps_total",
			Help:      "Blind coordinate taps issued when element lookup failed.",
		}, []string{"step"}),
		popups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "popups_dismissed_total",
			Help:      "Popups dismissed, by matched phrase or label.",
		}, []string{"match"}),
		nextCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "next_cycle_timestamp_seconds",
			Help:      "Unix time of the next scheduled cycle.",
		}),
	}
}

// ObserveCycle records one finished cycle.
func (r *Recorder) ObserveCycle(outcome, state string, d time.Duration) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(outcome, state).Inc()
	r.cycleDuration.Observe(d.Seconds())
}

// SetQuoteCount records the number of categories in a successful cycle.
func (r *Recorder) SetQuoteCount(n int) {
	if r == nil {
		return
	}
	r.quotes.Set(float64(n))
}

// RecordWrite records a log writer append.
func (r *Recorder) RecordWrite(err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.records.WithLabelValues("error").Inc()
		return
	}
	r.records.WithLabelValues("ok").Inc()
}

// RecordFallbackTap records a blind tap issued by step.
func (r *Recorder) RecordFallbackTap(step string) {
	if r == nil {
		return
	}
	r.fallbackTaps.WithLabelValues(step).Inc()
}

// RecordPopup records a dismissed popup.
func (r *Recorder) RecordPopup(match string) {
	if r == nil {
		return
	}
	r.popups.WithLabelValues(match).Inc()
}

// SetNextCycle records when the next cycle is due.
func (r *Recorder) SetNextCycle(t time.Time) {
	if r == nil {
		return
	}
	r.nextCycle.Set(float64(t.Unix()))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics HTTP server on addr and stops it when ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) <-chan error {
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh
}
