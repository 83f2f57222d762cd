// Package metrics exposes the prometheus collectors the catalog and
// pipeline packages report against. Registration is explicit rather than
// via promauto so a caller can build an isolated Registry in tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every collector this service reports, mirroring the
// per-subsystem collector grouping used for HPC telemetry collectors
// elsewhere in the ecosystem.
type Registry struct {
	CatalogRefreshTotal    *prometheus.CounterVec
	CatalogRefreshDuration prometheus.Histogram
	CatalogLayerFeatures   *prometheus.GaugeVec

	ProximityBatchDuration prometheus.Histogram
	ProximityGridFallback  prometheus.Counter

	PipelineRunDuration  prometheus.Histogram
	PipelineSitesDropped *prometheus.CounterVec
}

// NewRegistry constructs a Registry with its collectors initialized but not
// yet registered against any prometheus.Registerer.
func NewRegistry() *Registry {
	return &Registry{
		CatalogRefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infranodal",
			Subsystem: "catalog",
			Name:      "refresh_total",
			Help:      "Count of catalog refresh attempts by outcome (success, error).",
		}, []string{"outcome"}),
		CatalogRefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "infranodal",
			Subsystem: "catalog",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent fetching and indexing a new catalog snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		CatalogLayerFeatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "infranodal",
			Subsystem: "catalog",
			Name:      "layer_features",
			Help:      "Number of features indexed per infrastructure layer in the current catalog snapshot.",
		}, []string{"layer"}),
		ProximityBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "infranodal",
			Subsystem: "proximity",
			Name:      "batch_duration_seconds",
			Help:      "Time spent running the batch proximity engine over a set of sites.",
			Buckets:   prometheus.DefBuckets,
		}),
		ProximityGridFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "infranodal",
			Subsystem: "proximity",
			Name:      "grid_fallback_total",
			Help:      "Count of nearest-feature queries that fell back to a full linear scan.",
		}),
		PipelineRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "infranodal",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "End-to-end duration of one scoring pipeline run.",
			Buckets:   prometheus.DefBuckets,
		}),
		PipelineSitesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "infranodal",
			Subsystem: "pipeline",
			Name:      "sites_dropped_total",
			Help:      "Count of sites dropped during pipeline processing, by stage.",
		}, []string{"stage"}),
	}
}

// MustRegister registers every collector in the Registry against reg.
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		r.CatalogRefreshTotal,
		r.CatalogRefreshDuration,
		r.CatalogLayerFeatures,
		r.ProximityBatchDuration,
		r.ProximityGridFallback,
		r.PipelineRunDuration,
		r.PipelineSitesDropped,
	)
}
