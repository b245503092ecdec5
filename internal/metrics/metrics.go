// Package metrics provides Prometheus metrics for the janitor bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	UpdatesTotal       *prometheus.CounterVec
	SweepsTotal        prometheus.Counter
	SweepRemovedTotal  prometheus.Counter
	SweepFailuresTotal prometheus.Counter
	SnapshotOpsTotal   *prometheus.CounterVec
	CaptionsCleaned    prometheus.Counter
	AutoRepliesTotal   prometheus.Counter
	TrackedUsers       prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		UpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janitor_updates_total",
				Help: "Total number of handled Telegram updates by route and status.",
			},
			[]string{"route", "status"},
		),
		SweepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "janitor_sweeps_total",
				Help: "Total number of expiry sweeps run.",
			},
		),
		SweepRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "janitor_sweep_removed_total",
				Help: "Total number of users removed by the sweeper.",
			},
		),
		SweepFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "janitor_sweep_failures_total",
				Help: "Total number of per-user removal failures during sweeps.",
			},
		),
		SnapshotOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "janitor_snapshot_ops_total",
				Help: "Snapshot store operations by op and status.",
			},
			[]string{"op", "status"},
		),
		CaptionsCleaned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "janitor_captions_cleaned_total",
				Help: "Total number of file-channel captions edited by the cleaner.",
			},
		),
		AutoRepliesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "janitor_auto_replies_total",
				Help: "Total number of auto-reply copies triggered in groups.",
			},
		),
		TrackedUsers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "janitor_tracked_users",
				Help: "Number of users currently tracked for expiry.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.UpdatesTotal)
	reg.MustRegister(m.SweepsTotal)
	reg.MustRegister(m.SweepRemovedTotal)
	reg.MustRegister(m.SweepFailuresTotal)
	reg.MustRegister(m.SnapshotOpsTotal)
	reg.MustRegister(m.CaptionsCleaned)
	reg.MustRegister(m.AutoRepliesTotal)
	reg.MustRegister(m.TrackedUsers)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordUpdate increments the update counter for a dispatcher route.
func (m *Metrics) RecordUpdate(route, status string) {
	m.UpdatesTotal.WithLabelValues(route, status).Inc()
}

// RecordSnapshotOp increments the snapshot operation counter.
func (m *Metrics) RecordSnapshotOp(op, status string) {
	m.SnapshotOpsTotal.WithLabelValues(op, status).Inc()
}

// RecordSweep records the outcome of one sweep pass.
func (m *Metrics) RecordSweep(removed, failed int) {
	m.SweepsTotal.Inc()
	m.SweepRemovedTotal.Add(float64(removed))
	m.SweepFailuresTotal.Add(float64(failed))
}

// SetTrackedUsers sets the tracked-user gauge.
func (m *Metrics) SetTrackedUsers(count int) {
	m.TrackedUsers.Set(float64(count))
}
