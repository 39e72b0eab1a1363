// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the counters of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	blocksFetched    prometheus.Counter
	spectraCollected *prometheus.CounterVec
	triggersFound    prometheus.Counter
	triggersExported *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		blocksFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "burst_blocks_fetched_total",
			Help: "Total blocks delivered by the stream.",
		}),
		spectraCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burst_spectra_collected_total",
			Help: "Total spectra accepted by source identifier.",
		}, []string{"identifier"}),
		triggersFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "burst_triggers_found_total",
			Help: "Total triggers above threshold.",
		}),
		triggersExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burst_triggers_exported_total",
			Help: "Total triggers handed to an exporter by result.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burst_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
	}
	m.registry.MustRegister(
		m.blocksFetched,
		m.spectraCollected,
		m.triggersFound,
		m.triggersExported,
		m.httpRequests,
	)
	return m
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) BlockFetched() {
	if m == nil {
		return
	}
	m.blocksFetched.Inc()
}

func (m *Metrics) SpectraCollected(identifier string, n int) {
	if m == nil {
		return
	}
	m.spectraCollected.WithLabelValues(identifier).Add(float64(n))
}

func (m *Metrics) TriggersFound(n int) {
	if m == nil {
		return
	}
	m.triggersFound.Add(float64(n))
}

func (m *Metrics) TriggerExported(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.triggersExported.WithLabelValues(status).Inc()
}

func (m *Metrics) HTTPRequest(route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
}
