package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"guildsnap/internal/structures"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObserveCapture(duration time.Duration, success bool)
	IncRestoreJobs(status string)
	ObserveRestoreDuration(duration time.Duration)
	IncRestoreOperations(op string, result string)
	SetRestoresInFlight(count int)
}

type MetricsProvider struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	capturesTotal     *prometheus.CounterVec
	captureDuration   prometheus.Histogram
	restoreJobs       *prometheus.CounterVec
	restoreDuration   prometheus.Histogram
	restoreOperations *prometheus.CounterVec
	restoresInFlight  prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObserveCapture(duration time.Duration, success bool) {
	result := "ok"
	if !success {
		result = "error"
	}
	m.capturesTotal.WithLabelValues(result).Inc()
	m.captureDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncRestoreJobs(status string) {
	m.restoreJobs.WithLabelValues(status).Inc()
}

func (m *MetricsProvider) ObserveRestoreDuration(duration time.Duration) {
	m.restoreDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncRestoreOperations(op string, result string) {
	m.restoreOperations.WithLabelValues(op, result).Inc()
}

func (m *MetricsProvider) SetRestoresInFlight(count int) {
	m.restoresInFlight.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildsnap_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guildsnap_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guildsnap_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "guildsnap_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		capturesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildsnap_captures_total",
			Help: "Total number of snapshot captures by result",
		}, []string{"result"}),

		captureDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "guildsnap_capture_duration_seconds",
			Help:    "Duration of snapshot captures in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		restoreJobs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildsnap_restore_jobs_total",
			Help: "Total number of restore jobs by terminal status",
		}, []string{"status"}),

		restoreDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "guildsnap_restore_duration_seconds",
			Help:    "Duration of restore jobs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),

		restoreOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "guildsnap_restore_operations_total",
			Help: "Total number of restore operations by kind and result",
		}, []string{"op", "result"}),

		restoresInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "guildsnap_restores_in_flight",
			Help: "Number of restore jobs currently running",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObserveCapture(_ time.Duration, _ bool)           {}
func (n *noopMetrics) IncRestoreJobs(_ string)                          {}
func (n *noopMetrics) ObserveRestoreDuration(_ time.Duration)           {}
func (n *noopMetrics) IncRestoreOperations(_ string, _ string)          {}
func (n *noopMetrics) SetRestoresInFlight(_ int)                        {}
