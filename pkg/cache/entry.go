package cache

import (
	"net/http"
	"time"
)

// CacheEntry represents a stored search response.
type CacheEntry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag validator for If-None-Match
	ETag string `json:"etag"`

	// LastModified validator for If-Modified-Since
	LastModified time.Time `json:"last_modified"`

	// StatusCode is the HTTP status code of the stored response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// CachedAt is when the response was stored
	CachedAt time.Time `json:"cached_at"`

	// RetainUntil bounds how long the entry is kept for revalidation.
	// It is not a freshness lifetime.
	RetainUntil time.Time `json:"retain_until"`
}

// IsExpired returns true once the retention window has passed.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.RetainUntil)
}

// TTL returns the remaining retention.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.RetainUntil)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// HasValidator reports whether the entry can back a conditional request.
func (e *CacheEntry) HasValidator() bool {
	return e != nil && (e.ETag != "" || !e.LastModified.IsZero())
}
