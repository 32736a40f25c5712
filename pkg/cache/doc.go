// Package cache stores search responses in Redis so that repeated page loads
// can be revalidated with conditional requests.
//
// Entries are never served without asking upstream first: the client always
// sends the request, attaching If-None-Match (or If-Modified-Since) from the
// stored entry, and only substitutes the stored body when upstream answers
// 304 Not Modified. GitHub does not count 304 answers against the search
// quota, which is the point of keeping the store at all.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient, cache.DefaultRetention)
//
//	key := cache.CacheKey{
//		Endpoint:    "/search/repositories",
//		QueryParams: url.Values{"q": {"created:>2026-10-05"}, "page": {"1"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// plain request
//	}
//	cache.AddConditionalHeaders(req, entry)
//
// # Metrics
//
//   - trending_cache_hits_total{layer="redis"} - Stored entries found
//   - trending_cache_misses_total - No stored entry
//   - trending_cache_stored_bytes{layer="redis"} - Bytes written to Redis
//   - trending_cache_not_modified_total - 304 answers served from the store
//   - trending_cache_conditional_requests_total - Requests sent with validators
//   - trending_cache_errors_total{operation} - Store operation errors
package cache
