package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks stored entries found by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_cache_hits_total",
			Help: "Total number of stored responses found for revalidation",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks lookups without a stored entry
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trending_cache_misses_total",
			Help: "Total number of lookups without a stored response",
		},
	)

	// CacheStoredBytes tracks bytes written by layer
	CacheStoredBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_cache_stored_bytes",
			Help: "Total bytes of response data written to the store",
		},
		[]string{"layer"},
	)

	// NotModifiedResponses tracks 304 answers served from the store
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trending_cache_not_modified_total",
			Help: "Total number of 304 Not Modified answers served from the store",
		},
	)

	// ConditionalRequestsSent tracks requests carrying validators
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trending_cache_conditional_requests_total",
			Help: "Total number of requests sent with If-None-Match or If-Modified-Since",
		},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "touch"
	)
)
