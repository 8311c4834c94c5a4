// Package metrics holds the Prometheus metrics of a folio run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics of a run, on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Positions         prometheus.Gauge
	Unresolved        *prometheus.GaugeVec // labels: kind=quote|sector
	MarketValue       prometheus.Gauge
	TickersCorrelated prometheus.Gauge
	TickersDropped    prometheus.Gauge
	PipelineDuration  *prometheus.HistogramVec // labels: pipeline
	PipelineErrors    *prometheus.CounterVec   // labels: pipeline
	TablesWritten     prometheus.Counter
	LastSuccess       prometheus.Gauge
}

// New registers and returns all metrics.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Positions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "folio_positions",
			Help: "Open positions in the ledger",
		}),
		Unresolved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "folio_unresolved",
			Help: "Positions without a quote or a sector",
		}, []string{"kind"}),
		MarketValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "folio_market_value",
			Help: "Total market value of the resolved positions",
		}),
		TickersCorrelated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "folio_tickers_correlated",
			Help: "Tickers in the correlation matrix",
		}),
		TickersDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "folio_tickers_dropped",
			Help: "Configured tickers without price history",
		}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_pipeline_duration_seconds",
			Help:    "Pipeline computation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline"}),
		PipelineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_pipeline_errors_total",
			Help: "Aborted pipelines",
		}, []string{"pipeline"}),
		TablesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_tables_written_total",
			Help: "Tables written to the sink",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "folio_last_success_timestamp_seconds",
			Help: "Unix time of the last run that wrote all its tables",
		}),
	}
	m.Registry.MustRegister(
		m.Positions,
		m.Unresolved,
		m.MarketValue,
		m.TickersCorrelated,
		m.TickersDropped,
		m.PipelineDuration,
		m.PipelineErrors,
		m.TablesWritten,
		m.LastSuccess,
	)
	return m
}

// Observe records the duration of a pipeline since start.
func (m *Metrics) Observe(pipeline string, start time.Time) {
	m.PipelineDuration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())
}

// Push sends all metrics to a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if job == "" {
		job = "folio"
	}
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
