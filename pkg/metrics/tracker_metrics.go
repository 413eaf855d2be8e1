// Package metrics exposes the service's Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracker"

// Metrics holds all service metrics.
type Metrics struct {
	// Filter metrics
	Verdicts     *prometheus.CounterVec
	RegistrySize prometheus.Gauge
	CacheEntries prometheus.GaugeFunc

	// Catalog provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	reg prometheus.Registerer
}

// New registers every metric with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_verdicts_total",
			Help:      "Content filter verdicts by stage, reason and outcome.",
		}, []string{"stage", "reason", "allowed"}),
		RegistrySize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "keyword_registry_size",
			Help:      "Number of unsafe keyword ids currently enforced.",
		}),
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Catalog provider requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ProviderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Catalog provider request latency.",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// RecordVerdict counts one filter verdict.
func (m *Metrics) RecordVerdict(stage, reason string, allowed bool) {
	m.Verdicts.WithLabelValues(stage, reason, strconv.FormatBool(allowed)).Inc()
}

// ObserveProviderRequest records one outbound catalog call.
func (m *Metrics) ObserveProviderRequest(endpoint, outcome string, d time.Duration) {
	m.ProviderRequests.WithLabelValues(endpoint, outcome).Inc()
	m.ProviderDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(route, method string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// SetRegistrySize updates the registry gauge.
func (m *Metrics) SetRegistrySize(n int) {
	m.RegistrySize.Set(float64(n))
}

// WatchCacheSize exports fn as the verdict cache entry gauge.
func (m *Metrics) WatchCacheSize(fn func() int) {
	m.CacheEntries = promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "keyword_cache_entries",
		Help:      "Entries held by the keyword verdict cache.",
	}, func() float64 { return float64(fn()) })
}
