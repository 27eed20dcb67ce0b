package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Store metrics
	AssetsStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hoard_assets_stored_total",
			Help: "Total number of assets registered with the store",
		},
	)

	AssetsLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hoard_assets_loaded_total",
			Help: "Total number of asset records loaded from the backend",
		},
	)

	AssetUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoard_asset_updates_total",
			Help: "Total number of asset updates by outcome",
		},
		[]string{"outcome"},
	)

	// Gateway metrics
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoard_queries_total",
			Help: "Total number of gateway queries by method and status",
		},
		[]string{"method", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hoard_query_duration_seconds",
			Help:    "Gateway query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Script loader metrics
	ScriptLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoard_script_loads_total",
			Help: "Total number of script action loads by outcome",
		},
		[]string{"outcome"},
	)

	ScriptCacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hoard_script_cache_invalidations_total",
			Help: "Total number of cached script factories dropped after file changes",
		},
	)
)

func init() {
	prometheus.MustRegister(AssetsStored)
	prometheus.MustRegister(AssetsLoaded)
	prometheus.MustRegister(AssetUpdatesTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(ScriptLoadsTotal)
	prometheus.MustRegister(ScriptCacheInvalidations)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
