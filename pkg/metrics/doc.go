/*
Package metrics provides Prometheus metrics collection and exposition for
the asset store.

The metrics package defines and registers all metrics using the Prometheus
client library, periodically samples store statistics through a background
collector, and tracks component health for the liveness and readiness
endpoints.

# Metric Catalog

Store metrics:

hoard_assets_stored_total:
  - Type: Counter
  - Description: Assets registered with the store
  - Incremented on every successful Store call

hoard_assets_loaded_total:
  - Type: Counter
  - Description: Asset records loaded from the persistence backend
  - Cache hits do not count

hoard_asset_updates_total{outcome}:
  - Type: CounterVec
  - Labels: outcome (success, failure, skipped)
  - Description: Asset updates by outcome

hoard_assets_cached:
  - Type: Gauge
  - Description: Assets currently held in the in-memory cache
  - Sampled by the collector every 15 seconds

hoard_next_asset_id:
  - Type: Gauge
  - Description: The id the next stored asset will receive

Gateway metrics:

hoard_queries_total{method, status}:
  - Type: CounterVec
  - Labels: method (GET, POST), status (HTTP status code)
  - Description: Gateway queries by method and response status

hoard_query_duration_seconds{method}:
  - Type: HistogramVec
  - Labels: method
  - Description: Gateway query duration

Script loader metrics:

hoard_script_loads_total{outcome}:
  - Type: CounterVec
  - Labels: outcome (hit, compiled, error)
  - Description: Script action loads by outcome

hoard_script_cache_invalidations_total:
  - Type: Counter
  - Description: Cached script factories dropped after source file changes

# Usage

Recording metrics:

	metrics.AssetsStored.Inc()
	metrics.QueriesTotal.WithLabelValues("GET", "200").Inc()

Timing an operation:

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryDuration, r.Method)

Running the collector:

	collector := metrics.NewCollector(store.Stats)
	collector.Start()
	defer collector.Stop()

Health tracking:

	metrics.RegisterComponent("store", true, "")
	metrics.UpdateComponent("backend", false, "write failed")

The readiness endpoint reports ready only when the store, backend and
gateway components are registered and healthy.

# Exposition

Handler returns the standard promhttp handler; the gateway's health server
mounts it at /metrics next to /health and /ready.
*/
package metrics
