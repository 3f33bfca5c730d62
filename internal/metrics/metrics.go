// Package metrics exposes Prometheus counters for the household meter service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "householdmeter"

// Metrics holds the service counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	readingsCreated      *prometheus.CounterVec
	pricesCreated        *prometheus.CounterVec
	importRowsCreated    prometheus.Counter
	validationRejections *prometheus.CounterVec
}

// New registers all counters on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		readingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_created_total",
			Help:      "Meter readings created, by meter type.",
		}, []string{"meter_type"}),
		pricesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prices_created_total",
			Help:      "Utility prices created, by meter type.",
		}, []string{"meter_type"}),
		importRowsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_readings_created_total",
			Help:      "Meter readings created through bulk CSV import.",
		}),
		validationRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejections_total",
			Help:      "Requests rejected by business-rule validation, by rule.",
		}, []string{"rule"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		m.readingsCreated,
		m.pricesCreated,
		m.importRowsCreated,
		m.validationRejections,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ReadingCreated counts a persisted reading.
func (m *Metrics) ReadingCreated(meterType string) {
	if m == nil {
		return
	}
	m.readingsCreated.WithLabelValues(meterType).Inc()
}

// PriceCreated counts a persisted price.
func (m *Metrics) PriceCreated(meterType string) {
	if m == nil {
		return
	}
	m.pricesCreated.WithLabelValues(meterType).Inc()
}

// ImportReadingsCreated counts readings created by a bulk import pass.
func (m *Metrics) ImportReadingsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRowsCreated.Add(float64(n))
}

// ValidationRejected counts a business-rule rejection.
func (m *Metrics) ValidationRejected(rule string) {
	if m == nil {
		return
	}
	m.validationRejections.WithLabelValues(rule).Inc()
}
