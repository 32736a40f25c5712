package cache

import (
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces every key this package writes.
const keyPrefix = "trending"

// CacheKey identifies a stored response.
type CacheKey struct {
	// Endpoint is the upstream path (e.g. "/search/repositories")
	Endpoint string

	// QueryParams are the request query parameters
	QueryParams url.Values

	// Accept is the negotiated media type; different media types are
	// different representations and must not share validators.
	Accept string
}

// String generates a deterministic key.
// Format: trending:endpoint:param1=val1:param2=val2[:accept=type]
//
// Example:
//
//	trending:search/repositories:order=desc:page=2:per_page=30:q=created:>2026-10-05:sort=stars
func (k CacheKey) String() string {
	parts := []string{keyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		names := make([]string, 0, len(k.QueryParams))
		for name := range k.QueryParams {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, name+"="+k.QueryParams.Get(name))
		}
	}

	if k.Accept != "" {
		parts = append(parts, "accept="+k.Accept)
	}

	return strings.Join(parts, ":")
}
