// Package metrics provides the Prometheus registry and HTTP handler for the
// trending feed. All metrics are defined in their respective packages
// (search, cache, ratelimit, pager) to keep the packages modular and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gatherer collects the metrics every package registers via promauto.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics handler for Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Quota Metrics (pkg/ratelimit):
//   - trending_rate_limit_remaining (Gauge): Search requests left in the current window
//   - trending_rate_limit_rejects_total (Counter): Requests failed locally on a spent quota
//
// Cache Metrics (pkg/cache):
//   - trending_cache_hits_total{layer="redis"} (Counter): Stored responses found for revalidation
//   - trending_cache_misses_total (Counter): Lookups without a stored response
//   - trending_cache_stored_bytes{layer="redis"} (Counter): Bytes written to the store
//   - trending_cache_not_modified_total (Counter): 304 answers served from the store
//   - trending_cache_conditional_requests_total (Counter): Requests sent with validators
//   - trending_cache_errors_total{operation} (Counter): Store operation errors
//
// Request Metrics (pkg/search):
//   - trending_search_requests_total{status} (Counter): Requests by HTTP status
//   - trending_search_request_duration_seconds (Histogram): Request duration
//   - trending_search_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Controller Metrics (pkg/pager):
//   - trending_pager_loads_total{mode, result} (Counter): Settled loads (success, error, stale)
//   - trending_pager_guard_drops_total{reason} (Counter): Loads ignored by a guard (loading, exhausted, invalid_page, not_next)
//   - trending_pager_duplicates_dropped_total (Counter): Items dropped in accumulate mode as already loaded
//
// Example Prometheus Queries:
//
//   # Revalidation Rate
//   rate(trending_cache_not_modified_total[5m]) / rate(trending_search_requests_total[5m])
//
//   # Quota Status
//   trending_rate_limit_remaining < 3
//
//   # Load Failure Rate
//   sum(rate(trending_pager_loads_total{result="error"}[5m])) / sum(rate(trending_pager_loads_total[5m]))
//
//   # Redundant Proximity Intents
//   rate(trending_pager_guard_drops_total{reason="loading"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(trending_search_request_duration_seconds_bucket[5m]))
