package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "endpoint only",
			key:  CacheKey{Endpoint: "/search/repositories"},
			want: "trending:search/repositories",
		},
		{
			name: "query params are sorted",
			key: CacheKey{
				Endpoint: "/search/repositories",
				QueryParams: url.Values{
					"sort":     {"stars"},
					"page":     {"2"},
					"per_page": {"30"},
				},
			},
			want: "trending:search/repositories:page=2:per_page=30:sort=stars",
		},
		{
			name: "accept is part of the key",
			key: CacheKey{
				Endpoint:    "/search/repositories",
				QueryParams: url.Values{"page": {"1"}},
				Accept:      "application/vnd.github.v3+json",
			},
			want: "trending:search/repositories:page=1:accept=application/vnd.github.v3+json",
		},
		{
			name: "empty endpoint",
			key:  CacheKey{},
			want: "trending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := CacheKey{Endpoint: "/search/repositories", QueryParams: url.Values{"q": {"x"}, "page": {"1"}}}
	b := CacheKey{Endpoint: "search/repositories/", QueryParams: url.Values{"page": {"1"}, "q": {"x"}}}

	if a.String() != b.String() {
		t.Errorf("keys differ: %q vs %q", a.String(), b.String())
	}
}
