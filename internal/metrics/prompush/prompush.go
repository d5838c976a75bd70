// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Batch jobs have no long-lived scrape endpoint, so collected metrics are
// pushed to a Pushgateway at the end of the run. All Prometheus-specific
// dependencies live here; the rest of the project depends only on
// metrics.Backend.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"clinetl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec // pipeline_stage_total
	stageDuration *prometheus.SummaryVec // pipeline_stage_duration_seconds
	rowCounter    *prometheus.CounterVec // pipeline_rows_total
	batchCounter  prometheus.Counter     // pipeline_batches_total
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway "job" grouping key; gatewayURL is the base URL of the server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "clinetl"
	}

	reg := prometheus.NewRegistry()

	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_total",
			Help: "Total number of pipeline stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "pipeline_stage_duration_seconds",
			Help:       "Duration of pipeline stages in seconds, partitioned by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_rows_total",
			Help: "Row-level counts per kind (loaded, rejected_estimated, transformed, inserted).",
		},
		[]string{"kind"},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_batches_total",
			Help: "Total number of warehouse batches flushed for this job.",
		},
	)

	if err := reg.Register(stageCounter); err != nil {
		return nil, fmt.Errorf("prompush: register stage counter: %w", err)
	}
	if err := reg.Register(stageDuration); err != nil {
		return nil, fmt.Errorf("prompush: register stage summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}
	if err := reg.Register(batchCounter); err != nil {
		return nil, fmt.Errorf("prompush: register batch counter: %w", err)
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
		rowCounter:    rowCounter,
		batchCounter:  batchCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "pipeline_stage_total":
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)

	case "pipeline_rows_total":
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case "pipeline_batches_total":
		b.batchCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "pipeline_stage_duration_seconds" {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
