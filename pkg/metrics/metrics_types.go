package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "astra"

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Translation Metrics
	TranslationsTotal    *prometheus.CounterVec
	TranslationDuration  *prometheus.HistogramVec
	TranslationEdges     *prometheus.HistogramVec
	TranslationInputSize *prometheus.HistogramVec
	BatchFilesTotal      *prometheus.CounterVec

	// Graph serving metrics
	GraphCacheHits      prometheus.Counter
	GraphCacheMisses    prometheus.Counter
	GraphCacheEvictions prometheus.Counter
	GraphsLoaded        prometheus.Gauge
	GraphNodes          *prometheus.GaugeVec
	LiveClients         prometheus.Gauge
	LiveEventsTotal     *prometheus.CounterVec
	WatchEventsTotal    *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initHTTPMetrics()
	r.initTranslateMetrics()
	r.initGraphMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
