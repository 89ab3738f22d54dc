package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Resolution chain metrics
	ResolveAttemptTotal *prometheus.CounterVec
	ResolveDuration     *prometheus.HistogramVec

	// Artifact cache metrics
	CacheHitTotal  *prometheus.CounterVec
	CacheMissTotal *prometheus.CounterVec

	// Discovery metrics
	DiscoveryProbeHitRate prometheus.Gauge
	DiscoveryMapSize      *prometheus.GaugeVec

	// Analytics metrics
	AnalyticsDuration *prometheus.HistogramVec
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics creates a new Metrics instance with all required metrics
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	// Return existing instance if already created
	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		// HTTP request metrics
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		// Resolution chain metrics
		ResolveAttemptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resolve_attempts_total",
			Help: "Total number of per-source resolution attempts",
		}, []string{"artifact", "source", "outcome"}),

		ResolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resolve_duration_seconds",
			Help:    "Full resolution chain duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"artifact", "outcome"}),

		// Artifact cache metrics
		CacheHitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artifact_cache_hits_total",
			Help: "Total number of artifact cache hits",
		}, []string{"artifact"}),

		CacheMissTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artifact_cache_misses_total",
			Help: "Total number of artifact cache misses",
		}, []string{"artifact"}),

		// Discovery metrics
		DiscoveryProbeHitRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "discovery_probe_hit_rate",
			Help: "Hit rate of the last discovery sample-probe pass",
		}),

		DiscoveryMapSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "discovery_map_size",
			Help: "Number of ids per artifact type in the discovery map",
		}, []string{"artifact"}),

		// Analytics metrics
		AnalyticsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_duration_seconds",
			Help:    "Analytics computation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"computation"}),
	}

	// Register metrics with the default registry
	registerMetrics(m)

	// Store as global instance
	globalMetrics = m

	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	// Try to register each metric, ignore if already registered
	registerOrGet(m.HTTPRequestTotal)
	registerOrGet(m.HTTPRequestDuration)
	registerOrGet(m.ResolveAttemptTotal)
	registerOrGet(m.ResolveDuration)
	registerOrGet(m.CacheHitTotal)
	registerOrGet(m.CacheMissTotal)
	registerOrGet(m.DiscoveryProbeHitRate)
	registerOrGet(m.DiscoveryMapSize)
	registerOrGet(m.AnalyticsDuration)
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		// If already registered, return the existing collector
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}
