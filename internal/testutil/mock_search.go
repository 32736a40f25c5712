// Package testutil provides testing utilities for the trending feed.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// SearchPath is the path the mock serves repository search on.
const SearchPath = "/search/repositories"

// maxResults mirrors search.MaxResults.
const maxResults = 1000

// MockResponse defines a canned response for a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSearchAPI is a configurable mock of the repository search API.
//
// By default it serves Total synthetic repositories, paged by the page and
// per_page query parameters and cut off at search.MaxResults like the real
// API (pages starting past it answer 422), with a per-page ETag that answers matching
// If-None-Match requests with 304. Every response carries X-RateLimit-*
// headers counting down from QuotaLimit.
type MockSearchAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	failures map[int]MockResponse
	delay    time.Duration

	total      int
	quotaLimit int
	remaining  int
	resetAt    time.Time

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	LastQuery         url.Values
	PagesRequested    []int
}

// NewMockSearchAPI creates a mock serving total repositories.
func NewMockSearchAPI(total int) *MockSearchAPI {
	mock := &MockSearchAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		failures:   make(map[int]MockResponse),
		total:      total,
		quotaLimit: 30,
		remaining:  30,
		resetAt:    time.Now().Add(time.Minute),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = r.URL.Query()
		mock.PagesRequested = append(mock.PagesRequested, page)
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		if mock.remaining > 0 {
			mock.remaining--
		}
		delay := mock.delay
		mock.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		failure, failing := mock.failures[page]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}
		if failing && r.URL.Path == SearchPath {
			mock.writeQuotaHeaders(w)
			writeMockResponse(w, failure)
			return
		}

		mock.searchHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSearchAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSearchAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSearchAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
	m.PagesRequested = nil
}

// SetTotal changes how many repositories the search matches.
func (m *MockSearchAPI) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// SetDelay delays every response, for tests that need a load in flight.
func (m *MockSearchAPI) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetQuota sets the quota reported in X-RateLimit-* headers.
func (m *MockSearchAPI) SetQuota(limit, remaining int, resetAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotaLimit = limit
	m.remaining = remaining
	m.resetAt = resetAt
}

// FailPage makes requests for page answer with resp until ClearFailures.
func (m *MockSearchAPI) FailPage(page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[page] = resp
}

// ClearFailures removes all FailPage overrides.
func (m *MockSearchAPI) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[int]MockResponse)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSearchAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockSearchAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeMockResponse(w, resp)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSearchAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockSearchAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetPagesRequested returns the page numbers requested so far, in order.
func (m *MockSearchAPI) GetPagesRequested() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.PagesRequested...)
}

// searchHandler serves the synthetic result set.
func (m *MockSearchAPI) searchHandler(w http.ResponseWriter, r *http.Request) {
	m.writeQuotaHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = 30
	}

	m.mu.RLock()
	total := m.total
	m.mu.RUnlock()

	if (page-1)*perPage >= maxResults {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Only the first 1000 search results are available"}`))
		return
	}
	reachable := min(total, maxResults)

	etag := fmt.Sprintf(`"page-%d-%d-%d"`, page, perPage, total)
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	items := make([]map[string]any, 0, perPage)
	for i := (page - 1) * perPage; i < page*perPage && i < reachable; i++ {
		items = append(items, Repo(int64(i+1)))
	}

	body, _ := json.Marshal(map[string]any{
		"total_count":        total,
		"incomplete_results": false,
		"items":              items,
	})

	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (m *MockSearchAPI) writeQuotaHeaders(w http.ResponseWriter) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.quotaLimit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(m.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(m.resetAt.Unix(), 10))
	w.Header().Set("X-RateLimit-Resource", "search")
}

func writeMockResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// Repo returns the synthetic repository object with the given id.
func Repo(id int64) map[string]any {
	return map[string]any{
		"id":        id,
		"name":      fmt.Sprintf("repo-%d", id),
		"full_name": fmt.Sprintf("owner-%d/repo-%d", id, id),
		"owner": map[string]any{
			"login":      fmt.Sprintf("owner-%d", id),
			"id":         id + 1000,
			"avatar_url": fmt.Sprintf("https://avatars.example.com/u/%d", id+1000),
			"html_url":   fmt.Sprintf("https://github.com/owner-%d", id),
		},
		"html_url":         fmt.Sprintf("https://github.com/owner-%d/repo-%d", id, id),
		"description":      fmt.Sprintf("Repository number %d", id),
		"language":         "Go",
		"stargazers_count": 1000 - int(id),
		"forks_count":      int(id % 7),
		"created_at":       "2026-10-10T12:00:00Z",
	}
}

// NewForbiddenResponse creates the 403 the API sends once the search quota is gone.
func NewForbiddenResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"message":"API rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type":          "application/json; charset=utf-8",
			"X-RateLimit-Remaining": "0",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"Server Error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewUnprocessableResponse creates the 422 sent for an invalid query.
func NewUnprocessableResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       `{"message":"Validation Failed"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>upstream proxy error</html>`,
		Headers: map[string]string{
			"Content-Type": "text/html",
		},
	}
}
