package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTranslateMetrics() {
	r.TranslationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "translations_total",
			Help:      "Total number of inputs translated, by input kind and outcome",
		},
		[]string{"kind", "status"},
	)

	r.TranslationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "translation_duration_seconds",
			Help:      "Time to parse one input and write its outputs",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	r.TranslationEdges = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "translation_edges",
			Help:      "Number of catalog edges produced per input",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"kind"},
	)

	r.TranslationInputSize = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "translation_input_bytes",
			Help:      "Size of translated inputs in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"kind"},
	)

	r.BatchFilesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "batch_files_total",
			Help:      "Files visited by directory translations, by outcome",
		},
		[]string{"status"},
	)
}
