// Package metrics holds the prometheus collectors shared by the store, the
// data manager and the backend client. Each process gets its own registry.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "microplastics"

// Metrics groups every collector the application records into.
type Metrics struct {
	Registry *prometheus.Registry

	StoreReads      *prometheus.CounterVec
	StoreWrites     *prometheus.CounterVec
	ScansAdded      *prometheus.CounterVec
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StoreReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_reads_total",
				Help:      "Record reads by key and result (hit, miss, error).",
			},
			[]string{"key", "result"},
		),
		StoreWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_writes_total",
				Help:      "Record writes by key and result (ok, error).",
			},
			[]string{"key", "result"},
		),
		ScansAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_added_total",
				Help:      "Scans recorded by severity category.",
			},
			[]string{"category"},
		),
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_requests_total",
				Help:      "Requests to the analysis backend by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		BackendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Latency of analysis backend requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}

	m.Registry.MustRegister(
		m.StoreReads,
		m.StoreWrites,
		m.ScansAdded,
		m.BackendRequests,
		m.BackendLatency,
	)

	return m
}

// ObserveBackend records one finished backend request.
func (m *Metrics) ObserveBackend(endpoint, outcome string, elapsed time.Duration) {
	m.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	m.BackendLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// WriteText writes every gathered metric family in the prometheus text
// exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
