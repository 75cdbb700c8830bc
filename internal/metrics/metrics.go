// Package metrics turns progress events into Prometheus series.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/roguepath/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements ports.Notifier and owns its registry.
type Collector struct {
	registry *prometheus.Registry

	events     *prometheus.CounterVec
	runs       *prometheus.CounterVec
	scores     prometheus.Histogram
	activeRuns prometheus.Gauge
	paths      *prometheus.CounterVec
}

// New creates a collector registered on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roguepath_events_total",
				Help: "Total number of progress events by type",
			},
			[]string{"type"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roguepath_runs_finished_total",
				Help: "Room runs that reached a terminal state, by outcome",
			},
			[]string{"outcome"},
		),
		scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "roguepath_run_score",
				Help:    "Scores of successful room runs",
				Buckets: prometheus.ExponentialBuckets(10, 2, 10),
			},
		),
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "roguepath_active_runs",
				Help: "Room runs currently started and not yet settled",
			},
		),
		paths: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roguepath_paths_total",
				Help: "Path lifecycle transitions",
			},
			[]string{"state"},
		),
	}
	c.registry.MustRegister(c.events, c.runs, c.scores, c.activeRuns, c.paths)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Notify updates the series affected by evt.
func (c *Collector) Notify(ctx context.Context, evt domain.Event) {
	c.events.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case domain.EventRunStarted:
		c.activeRuns.Inc()
	case domain.EventRunEnded:
		c.activeRuns.Dec()
		c.runs.WithLabelValues("succeeded").Inc()
		c.scores.Observe(float64(evt.Score))
	case domain.EventRunFailed:
		c.activeRuns.Dec()
		c.runs.WithLabelValues("failed").Inc()
	case domain.EventPathCreated:
		c.paths.WithLabelValues("created").Inc()
	case domain.EventPathCompleted:
		c.paths.WithLabelValues("completed").Inc()
	case domain.EventPathFailed:
		c.paths.WithLabelValues("failed").Inc()
	}
}
