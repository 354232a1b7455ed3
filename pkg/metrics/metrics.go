// Package metrics defines the prometheus collectors exported by the bridge service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bridge_service"

// Invalidation reasons for cache entries
const (
	ReasonStale        = "stale"
	ReasonHashMismatch = "hash_mismatch"
	ReasonCorrupt      = "corrupt"
	ReasonSearch       = "search"
)

// Metrics holds every collector on its own registry. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups       *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	cacheWriteFailures prometheus.Counter
	sweepDeletions     *prometheus.CounterVec
	upstreamDuration   *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response_cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		cacheInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response_cache",
			Name:      "invalidations_total",
			Help:      "Cache entries deleted on read by reason.",
		}, []string{"reason"}),
		cacheWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response_cache",
			Name:      "write_failures_total",
			Help:      "Cache writes that failed and removed the key.",
		}),
		sweepDeletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "response_cache",
			Name:      "sweep_deletions_total",
			Help:      "Keys removed by the cache sweep by reason.",
		}, []string{"reason"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bridge_api",
			Name:      "request_duration_seconds",
			Help:      "Latency of bridge API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheLookups,
		m.cacheInvalidations,
		m.cacheWriteFailures,
		m.sweepDeletions,
		m.upstreamDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) CacheInvalidated(reason string) {
	if m != nil {
		m.cacheInvalidations.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) CacheWriteFailed() {
	if m != nil {
		m.cacheWriteFailures.Inc()
	}
}

func (m *Metrics) SweepDeleted(reason string) {
	if m != nil {
		m.sweepDeletions.WithLabelValues(reason).Inc()
	}
}

// ObserveUpstream records one bridge API call; status 0 means the request never got a response
func (m *Metrics) ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	if m != nil {
		m.upstreamDuration.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m != nil {
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}
