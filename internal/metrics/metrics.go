// Package metrics counts transformed records for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "schemamap"

// Metrics holds the transformer collectors, labelled by backend. A nil
// *Metrics records nothing.
type Metrics struct {
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	batches  prometheus.Counter
}

// New registers the collectors with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Number of records transformed.",
		}, []string{"backend"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_errors_total",
			Help:      "Number of records whose transformation failed.",
		}, []string{"backend"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_duration_seconds",
			Help:      "Time spent transforming one record.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"backend"}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Number of batches transformed.",
		}),
	}
}

// ObserveRecord records one transformation that started at start.
func (m *Metrics) ObserveRecord(backend string, start time.Time, err error) {
	if m == nil {
		return
	}

	m.records.WithLabelValues(backend).Inc()
	m.duration.WithLabelValues(backend).Observe(time.Since(start).Seconds())

	if err != nil {
		m.failures.WithLabelValues(backend).Inc()
	}
}

// ObserveBatch counts one batch.
func (m *Metrics) ObserveBatch() {
	if m == nil {
		return
	}

	m.batches.Inc()
}

// Handler serves the metrics of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return reg
}
