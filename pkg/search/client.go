// Package search provides the HTTP client for the GitHub repository search
// API with quota tracking, conditional-request revalidation and error
// classification.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/gh-trending-feed/pkg/cache"
	"github.com/Sternrassler/gh-trending-feed/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for search client operations.
var (
	searchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trending_search_requests_total",
		Help: "Total search requests by status",
	}, []string{"status"})

	searchRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trending_search_request_duration_seconds",
		Help:    "Search request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	searchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trending_search_errors_total",
		Help: "Total search errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public GitHub REST API root.
	DefaultBaseURL = "https://api.github.com"

	// AcceptMediaType is the versioned JSON media type requested upstream.
	AcceptMediaType = "application/vnd.github.v3+json"

	searchPath = "/search/repositories"

	// maxErrorBodyRead bounds how much of an error body is read.
	maxErrorBodyRead = 64 << 10
)

// Client is the search API client.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root; DefaultBaseURL when empty.
	BaseURL string

	// User-Agent header (REQUIRED by GitHub)
	UserAgent string

	// Redis backs the revalidation cache and the shared quota state.
	// Optional: nil keeps quota state in memory and disables the cache.
	Redis *redis.Client

	// CacheRetention is how long responses are kept for revalidation.
	CacheRetention time.Duration

	// RateLimit paces outgoing requests (requests per second, 0 = unpaced).
	RateLimit float64

	// HTTPTimeout is the transport timeout (0 = none).
	HTTPTimeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, userAgent string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		UserAgent:      userAgent,
		Redis:          redis,
		CacheRetention: cache.DefaultRetention,
		RateLimit:      1,
		HTTPTimeout:    30 * time.Second,
	}
}

// New creates a new search client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must be >= 0 (got %v)", cfg.RateLimit)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger := log.With().Str("component", "search-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		config:      cfg,
		logger:      logger,
	}

	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis, cfg.CacheRetention)
	}

	return c, nil
}

// FetchPage requests one page of search results and decodes it.
// Non-2xx answers become *UpstreamError, undecodable bodies
// *MalformedResponseError, and failures to reach the API *TransportError.
// A body without an "items" field decodes as an empty page.
func (c *Client) FetchPage(ctx context.Context, pq PageQuery) (*Page, error) {
	if err := pq.Validate(); err != nil {
		return nil, fmt.Errorf("invalid page query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+searchPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.URL.RawQuery = pq.Values().Encode()

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyRead))
		errClass := classifyStatus(resp)
		searchErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Int("page", pq.Page).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Search request error")

		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       snippet(body),
			ErrorClass: errClass,
		}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		searchErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
	}

	page.Number = pq.Page
	page.PerPage = pq.PerPage
	page.NotModified = resp.Header.Get(notModifiedHeader) != ""
	if page.Items == nil {
		page.Items = []Repository{}
	}

	c.logger.Debug().
		Int("page", pq.Page).
		Int("items", len(page.Items)).
		Bool("full", page.Full()).
		Bool("not_modified", page.NotModified).
		Msg("Search page decoded")

	return &page, nil
}

// notModifiedHeader marks responses rebuilt from the revalidation store.
const notModifiedHeader = "X-Trending-Revalidated"

// Do performs an HTTP request with quota checks, pacing, revalidation and
// error classification. Responses with any status are returned to the
// caller; only failures to obtain a response are errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	startTime := time.Now()
	defer func() {
		searchRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check quota
	allowed, state, err := c.rateLimiter.CheckQuota(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Quota check failed, sending request anyway")
	} else if !allowed {
		searchRequestsTotal.WithLabelValues("rate_limited").Inc()
		searchErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
		return nil, fmt.Errorf("%w until %s", ErrQuotaExhausted, state.ResetAt.Format(time.RFC3339))
	}

	// Step 2: Pace
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for request slot: %w", err)
		}
	}

	// Step 3: Look up a stored response for revalidation
	cacheKey := cache.CacheKey{
		Endpoint:    req.URL.Path,
		QueryParams: req.URL.Query(),
		Accept:      AcceptMediaType,
	}

	var cachedEntry *cache.CacheEntry
	if c.cache != nil {
		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	if cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 4: Headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", AcceptMediaType)

	// Step 5: Execute
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("search request: %w", ctxErr)
		}
		c.logger.Warn().Err(err).Msg("HTTP request failed")
		searchErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		searchRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &TransportError{Err: err}
	}

	searchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	// Step 6: Record quota
	if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	// Step 7: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		resp.Body.Close()
		cache.NotModifiedResponses.Inc()
		c.logger.Debug().Msg("304 Not Modified - using stored response")

		if err := c.cache.Touch(ctx, cacheKey, cachedEntry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to extend cache retention")
		}

		out := cache.EntryToResponse(cachedEntry, resp.Header)
		out.Header.Set(notModifiedHeader, "1")
		out.Request = req
		return out, nil
	}

	// Step 8: Store successful responses
	if resp.StatusCode == http.StatusOK && c.cache != nil {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			resp.Body.Close()
			return nil, &TransportError{Err: err}
		}
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// RateLimitState returns the last recorded search quota.
func (c *Client) RateLimitState(ctx context.Context) (*ratelimit.RateLimitState, error) {
	return c.rateLimiter.GetState(ctx)
}

// Ping checks the optional Redis backing store.
func (c *Client) Ping(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Ping(ctx)
}

// Close releases idle connections. The Redis client is owned by the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
