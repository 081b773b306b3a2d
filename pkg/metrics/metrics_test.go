package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.TranslationsTotal == nil {
		t.Error("TranslationsTotal not initialized")
	}
	if r.GraphCacheHits == nil {
		t.Error("GraphCacheHits not initialized")
	}
	if r.LiveClients == nil {
		t.Error("LiveClients not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/api/graphs", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/translate", "201", 200*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/graphs", "404", 50*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/api/graphs", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, counter); got != 1 {
		t.Errorf("Counter value = %v, want 1", got)
	}
}

func TestRecordTranslation(t *testing.T) {
	r := NewRegistry()

	r.RecordTranslation("cyclonedx", 10*time.Millisecond, 2048, 12, nil)
	r.RecordTranslation("cyclonedx", 5*time.Millisecond, 100, 0, errors.New("bad json"))
	r.RecordTranslation("buildinfo", 20*time.Millisecond, 4096, 40, nil)

	if got := counterValue(t, r.TranslationsTotal.WithLabelValues("cyclonedx", "success")); got != 1 {
		t.Errorf("cyclonedx success = %v, want 1", got)
	}
	if got := counterValue(t, r.TranslationsTotal.WithLabelValues("cyclonedx", "error")); got != 1 {
		t.Errorf("cyclonedx error = %v, want 1", got)
	}

	hist, err := r.TranslationEdges.GetMetricWithLabelValues("cyclonedx")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := hist.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("Edge samples = %v, want 1 (failures are not observed)", metric.Histogram.GetSampleCount())
	}
	if metric.Histogram.GetSampleSum() != 12 {
		t.Errorf("Edge sum = %v, want 12", metric.Histogram.GetSampleSum())
	}
}

func TestRecordCacheLookup(t *testing.T) {
	r := NewRegistry()
	r.RecordCacheLookup(true)
	r.RecordCacheLookup(true)
	r.RecordCacheLookup(false)

	if got := counterValue(t, r.GraphCacheHits); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := counterValue(t, r.GraphCacheMisses); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestSetGraphGroups(t *testing.T) {
	r := NewRegistry()
	r.SetGraphGroups(map[string]int{"Principal": 1, "Step": 3})
	r.SetGraphGroups(map[string]int{"Artifact": 7})

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "astra_graph_nodes" {
			continue
		}
		if len(f.GetMetric()) != 1 {
			t.Fatalf("graph_nodes series = %d, want 1 after reset", len(f.GetMetric()))
		}
		if v := f.GetMetric()[0].GetGauge().GetValue(); v != 7 {
			t.Errorf("Artifact nodes = %v, want 7", v)
		}
		return
	}
	t.Error("astra_graph_nodes not gathered")
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics(time.Now().Add(-time.Minute))

	var metric dto.Metric
	if err := r.UptimeSeconds.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 60 {
		t.Errorf("Uptime = %v, want >= 60", metric.Gauge.GetValue())
	}

	metric.Reset()
	if err := r.GoRoutines.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 1 {
		t.Errorf("Goroutines = %v, want >= 1", metric.Gauge.GetValue())
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordHTTPRequest("GET", "/test", "200", 10*time.Millisecond)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/test", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, counter); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/", "200", time.Millisecond)
	r.RecordTranslation("spdx", time.Millisecond, 1, 1, nil)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Fatal("No metrics registered")
	}
	for _, m := range metrics {
		if !strings.HasPrefix(m.GetName(), "astra_") {
			t.Errorf("Metric %s does not have astra_ prefix", m.GetName())
		}
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordBatchFile("success")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `astra_batch_files_total{status="success"} 1`) {
		t.Errorf("exposition missing batch counter:\n%s", rec.Body.String())
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordHTTPRequest("GET", "/api/graphs", "200", 10*time.Millisecond)
	}
}

func BenchmarkRecordTranslation(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordTranslation("buildinfo", 5*time.Millisecond, 4096, 30, nil)
	}
}
