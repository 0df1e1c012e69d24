// Package metrics holds the prometheus collectors for sampling runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one App. Each instance owns its
// registry, so several Apps can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	// RunsTotal counts completed sampling calls per mode.
	RunsTotal *prometheus.CounterVec
	// DrawsTotal counts draws per mode.
	DrawsTotal *prometheus.CounterVec
	// DegenerateTotal counts sampling calls in which every draw had zero weight.
	DegenerateTotal prometheus.Counter
	// Duration observes the wall time of a sampling call per mode.
	Duration *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bayes_sampling_runs_total",
				Help: "Total number of sampling calls completed",
			},
			[]string{"mode"},
		),
		DrawsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bayes_draws_total",
				Help: "Total number of likelihood-weighted draws",
			},
			[]string{"mode"},
		),
		DegenerateTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bayes_degenerate_runs_total",
				Help: "Sampling calls whose evidence gave every draw zero weight",
			},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bayes_sampling_duration_seconds",
				Help:    "Wall time of a sampling call",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"mode"},
		),
	}
	m.registry.MustRegister(
		m.RunsTotal,
		m.DrawsTotal,
		m.DegenerateTotal,
		m.Duration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveRun records one finished sampling call.
func (m *Metrics) ObserveRun(mode string, draws int, degenerate bool, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(mode).Inc()
	m.DrawsTotal.WithLabelValues(mode).Add(float64(draws))
	m.Duration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if degenerate {
		m.DegenerateTotal.Inc()
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
