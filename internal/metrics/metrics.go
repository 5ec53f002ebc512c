// Package metrics exposes Prometheus instrumentation for screening runs.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sepa-screener/internal/screener"
)

// Symbol outcomes recorded by RecordSymbol.
const (
	OutcomeEvaluated = "evaluated"
	OutcomeNoResult  = "no_result"
	OutcomeFailed    = "failed"
	OutcomeNoData    = "no_data"
)

// Metrics holds the run instrumentation on its own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	Runs          prometheus.Counter
	Symbols       *prometheus.CounterVec
	Passes        *prometheus.CounterVec
	Grades        *prometheus.CounterVec
	PhaseDuration *prometheus.HistogramVec
	LastRun       prometheus.Gauge
}

// New creates the screener metrics and registers them with Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sepa_runs_total",
			Help: "Total number of completed screening runs",
		}),
		Symbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sepa_symbols_total",
			Help: "Symbols processed by outcome",
		}, []string{"outcome"}),
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sepa_passes_total",
			Help: "Final results passing each pattern",
		}, []string{"pattern"}),
		Grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sepa_grades_total",
			Help: "Final results by grade",
		}, []string{"grade"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sepa_phase_duration_seconds",
			Help:    "Duration of each run phase in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"phase"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sepa_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
	}
	m.Registry.MustRegister(
		m.Runs, m.Symbols, m.Passes, m.Grades, m.PhaseDuration, m.LastRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RecordSymbol(outcome string) {
	if m == nil {
		return
	}
	m.Symbols.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordResults counts pattern passes and grades for a finished batch.
func (m *Metrics) RecordResults(results []screener.Result, at time.Time) {
	if m == nil {
		return
	}
	for _, r := range results {
		if r.PassesTemplate {
			m.Passes.WithLabelValues("template").Inc()
		}
		if r.PassesVCP {
			m.Passes.WithLabelValues("vcp").Inc()
		}
		if r.PassesBreakout {
			m.Passes.WithLabelValues("breakout").Inc()
		}
		m.Grades.WithLabelValues(string(r.Grade)).Inc()
	}
	m.Runs.Inc()
	m.LastRun.Set(float64(at.Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
