package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics contains the ingest metrics.
type Metrics struct {
	IngestsTotal   *prometheus.CounterVec
	RowsTotal      *prometheus.CounterVec
	RowErrorsTotal *prometheus.CounterVec
	RowsWritten    *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	Active         prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the ingest metrics and registers them, along with the
// Go runtime and process collectors, on a registry of their own.
func NewMetrics() *Metrics {
	m := &Metrics{
		IngestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sheetrow",
				Subsystem: "ingest",
				Name:      "total",
				Help:      "Total number of ingests by template and final phase",
			},
			[]string{"template", "phase"},
		),

		RowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sheetrow",
				Subsystem: "rows",
				Name:      "total",
				Help:      "Total number of rows read by outcome (ok, failed)",
			},
			[]string{"template", "outcome"},
		),

		RowErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sheetrow",
				Subsystem: "rows",
				Name:      "errors_total",
				Help:      "Total number of cell and row errors by error code",
			},
			[]string{"template", "code"},
		),

		RowsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sheetrow",
				Subsystem: "rows",
				Name:      "written_total",
				Help:      "Total number of rows written to the database",
			},
			[]string{"template"},
		),

		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sheetrow",
				Subsystem: "ingest",
				Name:      "duration_seconds",
				Help:      "Ingest duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"template"},
		),

		Active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sheetrow",
				Subsystem: "ingest",
				Name:      "active",
				Help:      "Number of ingests in progress",
			},
		),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.IngestsTotal,
		m.RowsTotal,
		m.RowErrorsTotal,
		m.RowsWritten,
		m.Duration,
		m.Active,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRows counts one folded chunk.
func (m *Metrics) RecordRows(template string, ok, failed int) {
	m.RowsTotal.WithLabelValues(template, "ok").Add(float64(ok))
	m.RowsTotal.WithLabelValues(template, "failed").Add(float64(failed))
}

// RecordRowError counts one cell or row error.
func (m *Metrics) RecordRowError(template, code string) {
	m.RowErrorsTotal.WithLabelValues(template, code).Inc()
}

// RecordWritten counts rows written to the database.
func (m *Metrics) RecordWritten(template string, n int64) {
	m.RowsWritten.WithLabelValues(template).Add(float64(n))
}

// RecordIngest records a finished ingest.
func (m *Metrics) RecordIngest(template string, phase Phase, duration time.Duration) {
	m.IngestsTotal.WithLabelValues(template, string(phase)).Inc()
	m.Duration.WithLabelValues(template).Observe(duration.Seconds())
}
