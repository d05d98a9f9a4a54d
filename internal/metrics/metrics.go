// Package metrics provides Prometheus metrics for the wanted directory backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Cache metrics
	CacheHits    *prometheus.CounterVec
	CacheMisses  *prometheus.CounterVec
	CacheSets    *prometheus.CounterVec
	CacheDeletes *prometheus.CounterVec
	CacheExpired *prometheus.CounterVec
	CacheClears  prometheus.Counter
	CacheKeys    *prometheus.GaugeVec

	// Upstream metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates metrics registered on a fresh registry under the given namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(namespace, reg, reg)
}

// NewWithRegistry creates metrics registered on reg and exposed from g.
func NewWithRegistry(namespace string, reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups that found a live entry",
		}, []string{"category"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that found nothing or an expired entry",
		}, []string{"category"}),
		CacheSets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "sets_total",
			Help:      "Entries written to the cache",
		}, []string{"category"}),
		CacheDeletes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "deletes_total",
			Help:      "Entries explicitly deleted from the cache",
		}, []string{"category"}),
		CacheExpired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "expired_total",
			Help:      "Expired entries removed by the background sweep",
		}, []string{"category"}),
		CacheClears: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "clears_total",
			Help:      "Full cache clears",
		}),
		CacheKeys: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "keys",
			Help:      "Live keys per category at the last stats snapshot",
		}, []string{"category"}),

		UpstreamRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream API requests by endpoint and outcome",
		}, []string{"endpoint", "status"}),
		UpstreamRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream API request latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		gatherer: g,
	}
}

// RecordHit records a cache hit.
func (m *Metrics) RecordHit(category string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(category).Inc()
}

// RecordMiss records a cache miss.
func (m *Metrics) RecordMiss(category string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(category).Inc()
}

// RecordSet records a cache write.
func (m *Metrics) RecordSet(category string) {
	if m == nil {
		return
	}
	m.CacheSets.WithLabelValues(category).Inc()
}

// RecordDelete records an explicit cache delete.
func (m *Metrics) RecordDelete(category string) {
	if m == nil {
		return
	}
	m.CacheDeletes.WithLabelValues(category).Inc()
}

// RecordExpired records entries removed by a sweep.
func (m *Metrics) RecordExpired(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheExpired.WithLabelValues(category).Add(float64(n))
}

// RecordClear records a full cache clear.
func (m *Metrics) RecordClear() {
	if m == nil {
		return
	}
	m.CacheClears.Inc()
}

// UpdateCacheKeys updates the live key gauge for a category.
func (m *Metrics) UpdateCacheKeys(category string, n int) {
	if m == nil {
		return
	}
	m.CacheKeys.WithLabelValues(category).Set(float64(n))
}

// RecordUpstreamRequest records an upstream API call.
func (m *Metrics) RecordUpstreamRequest(endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the /metrics exposition handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
