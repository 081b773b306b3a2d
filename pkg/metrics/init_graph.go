package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphCacheHits = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "graph_cache_hits_total",
			Help:      "Graph lookups served from the cache",
		},
	)

	r.GraphCacheMisses = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "graph_cache_misses_total",
			Help:      "Graph lookups that had to read the output directory",
		},
	)

	r.GraphCacheEvictions = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "graph_cache_evictions_total",
			Help:      "Graphs evicted from the cache",
		},
	)

	r.GraphsLoaded = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graphs_cached",
			Help:      "Number of graphs currently cached",
		},
	)

	r.GraphNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_nodes",
			Help:      "Nodes per group in the most recently loaded graph",
		},
		[]string{"group"},
	)

	r.LiveClients = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "live_clients",
			Help:      "Connected websocket viewers",
		},
	)

	r.LiveEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "live_events_total",
			Help:      "Events broadcast to websocket viewers",
		},
		[]string{"type"},
	)

	r.WatchEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "watch_events_total",
			Help:      "Filesystem events handled by the input watcher",
		},
		[]string{"op"},
	)
}
