package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	calculations  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	hedgeRatio    *prometheus.GaugeVec
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hedgeratio",
			Name:      "calculations_total",
			Help:      "Hedge ratio calculations by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hedgeratio",
			Name:      "fetch_duration_seconds",
			Help:      "Price history fetch latency by source and result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "result"}),
		hedgeRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hedgeratio",
			Name:      "last_hedge_ratio",
			Help:      "Most recent hedge ratio per pair.",
		}, []string{"spot", "futures"}),
	}
	m.registry.MustRegister(m.calculations, m.fetchDuration, m.hedgeRatio)
	return m
}

// ObserveCalculation counts one calculation; outcome is "ok" or an error class.
func (m *Metrics) ObserveCalculation(outcome string) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one provider round trip.
func (m *Metrics) ObserveFetch(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchDuration.WithLabelValues(source, result).Observe(d.Seconds())
}

// SetHedgeRatio publishes the latest ratio for a pair.
func (m *Metrics) SetHedgeRatio(spot, futures string, h float64) {
	if m == nil {
		return
	}
	m.hedgeRatio.WithLabelValues(spot, futures).Set(h)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
