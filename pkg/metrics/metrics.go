package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize observes the size of an HTTP response body.
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight marks the start of a request.
func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }

// DecHTTPRequestsInFlight marks the end of a request.
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }

// RecordTranslation records one translated input. A non-nil err counts as
// a failure and skips the size histograms.
func (r *Registry) RecordTranslation(kind string, duration time.Duration, inputBytes, edges int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.TranslationsTotal.WithLabelValues(kind, status).Inc()
	r.TranslationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err == nil {
		r.TranslationEdges.WithLabelValues(kind).Observe(float64(edges))
		r.TranslationInputSize.WithLabelValues(kind).Observe(float64(inputBytes))
	}
}

// RecordBatchFile counts a file visited by a directory translation.
func (r *Registry) RecordBatchFile(status string) {
	r.BatchFilesTotal.WithLabelValues(status).Inc()
}

// RecordCacheLookup counts a graph cache hit or miss.
func (r *Registry) RecordCacheLookup(hit bool) {
	if hit {
		r.GraphCacheHits.Inc()
		return
	}
	r.GraphCacheMisses.Inc()
}

// SetGraphGroups replaces the per-group node gauges.
func (r *Registry) SetGraphGroups(groups map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GraphNodes.Reset()
	for group, n := range groups {
		r.GraphNodes.WithLabelValues(group).Set(float64(n))
	}
}

// UpdateSystemMetrics refreshes the runtime gauges.
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
