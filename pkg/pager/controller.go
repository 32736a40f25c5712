package pager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/gh-trending-feed/pkg/logging"
	"github.com/Sternrassler/gh-trending-feed/pkg/search"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for the controller.
var (
	pagerLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trending_pager_loads_total",
		Help: "Settled page loads by mode and result (success, error, stale)",
	}, []string{"mode", "result"})

	pagerGuardDropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trending_pager_guard_drops_total",
		Help: "Load requests ignored by the controller guards, by reason",
	}, []string{"reason"})

	pagerDuplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trending_pager_duplicates_dropped_total",
		Help: "Items dropped in accumulate mode because their ID was already loaded",
	})
)

// PageFetcher retrieves one page of search results.
// *search.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, pq search.PageQuery) (*search.Page, error)
}

// Config holds controller configuration.
type Config struct {
	// Mode is fixed for the lifetime of the controller.
	Mode Mode

	// PageSize is the per_page sent upstream (default: 30, max: 100).
	PageSize int

	// WindowDays is how far back the created: qualifier reaches (default: 10).
	WindowDays int

	// Sort and Order default to stars/desc.
	Sort  string
	Order string

	// Now is the clock used to pin the query (default: time.Now).
	Now func() time.Time

	// Logger defaults to the global logger with component "pager".
	Logger *zerolog.Logger
}

// DefaultConfig returns the replace-mode configuration with upstream defaults.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeReplace,
		PageSize:   search.DefaultPageSize,
		WindowDays: search.DefaultWindowDays,
		Sort:       search.DefaultSort,
		Order:      search.DefaultOrder,
		Now:        time.Now,
	}
}

// Controller is the paginated fetch controller. All methods are safe for
// concurrent use; the mutex is never held across a fetch.
type Controller struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger

	mu     sync.Mutex
	state  LoadState
	query  search.Query
	gen    uint64
	cancel context.CancelFunc

	subs    map[int]chan LoadState
	nextSub int
}

// New creates a controller and opens its first session. Zero values in cfg
// select the defaults.
func New(fetcher PageFetcher, cfg Config) (*Controller, error) {
	if fetcher == nil {
		return nil, errors.New("page fetcher is required")
	}

	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode

	if cfg.PageSize == 0 {
		cfg.PageSize = search.DefaultPageSize
	}
	if cfg.PageSize < 1 || cfg.PageSize > search.MaxPageSize {
		return nil, fmt.Errorf("page_size must be within 1..%d (got %d)", search.MaxPageSize, cfg.PageSize)
	}
	if cfg.WindowDays == 0 {
		cfg.WindowDays = search.DefaultWindowDays
	}
	if cfg.WindowDays < 0 {
		return nil, fmt.Errorf("window_days must be > 0 (got %d)", cfg.WindowDays)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := logging.NewLogger("pager")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	c := &Controller{
		fetcher: fetcher,
		config:  cfg,
		logger:  logger.With().Str("mode", string(mode)).Logger(),
		state:   LoadState{Mode: mode},
		subs:    make(map[int]chan LoadState),
	}

	c.mu.Lock()
	c.beginSessionLocked()
	c.mu.Unlock()

	return c, nil
}

// Mode returns the controller's lifecycle mode.
func (c *Controller) Mode() Mode {
	return c.config.Mode
}

// State returns the current snapshot.
func (c *Controller) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a new session and loads page 1. It reports whether the
// page 1 request was issued.
func (c *Controller) Start(ctx context.Context) bool {
	c.mu.Lock()
	c.beginSessionLocked()
	c.mu.Unlock()

	return c.LoadPage(ctx, 1)
}

// Reset ends the current session without loading. An in-flight request is
// cancelled and its response, if any, is discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beginSessionLocked()
}

// LoadNext loads the page after the current one.
func (c *Controller) LoadNext(ctx context.Context) bool {
	c.mu.Lock()
	next := c.state.Next()
	c.mu.Unlock()

	return c.LoadPage(ctx, next)
}

// LoadPrev loads the page before the current one. Only replace mode
// navigates backward.
func (c *Controller) LoadPrev(ctx context.Context) bool {
	c.mu.Lock()
	prev := c.state.Page - 1
	c.mu.Unlock()

	if c.config.Mode != ModeReplace || prev < 1 {
		c.drop(prev, DropInvalidPage)
		return false
	}
	return c.LoadPage(ctx, prev)
}

// LoadPage requests page n and blocks until it settles. It returns false
// without side effects when a guard rejects the request: n < 1, a load
// already in flight, a forward load after exhaustion, or in accumulate
// mode any page other than the next one.
//
// Failures are recorded in LoadState.Err and never returned.
func (c *Controller) LoadPage(ctx context.Context, n int) bool {
	c.mu.Lock()
	if ok, reason := c.state.Allow(n); !ok {
		c.mu.Unlock()
		c.drop(n, reason)
		return false
	}

	c.setLocked(Reduce(c.state, LoadRequested{Page: n}))
	gen := c.gen
	session := c.state.Session
	pq := search.PageQuery{Query: c.query, Page: n, PerPage: c.config.PageSize}

	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	startTime := time.Now()
	page, err := c.fetcher.FetchPage(fetchCtx, pq)
	duration := time.Since(startTime)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		pagerLoadsTotal.WithLabelValues(string(c.config.Mode), "stale").Inc()
		c.logger.Debug().
			Str("session", session).
			Int("page", n).
			Msg("Discarding response from an ended session")
		return true
	}
	c.cancel = nil

	if err != nil {
		pagerLoadsTotal.WithLabelValues(string(c.config.Mode), "error").Inc()
		c.logger.Warn().
			Err(err).
			Str("session", session).
			Int("page", n).
			Str("error_class", string(search.ClassOf(err))).
			Dur("duration", duration).
			Msg("Page load failed")

		c.setLocked(Reduce(c.state, LoadFailed{Page: n, Err: err.Error()}))
		return true
	}

	var items []search.Repository
	if page != nil {
		items = page.Items
	}

	before := len(c.state.Items)
	next := Reduce(c.state, LoadSucceeded{Page: n, PageSize: c.config.PageSize, Items: items})
	if c.config.Mode == ModeAccumulate {
		if dropped := before + len(items) - len(next.Items); dropped > 0 {
			pagerDuplicatesDropped.Add(float64(dropped))
			c.logger.Debug().
				Str("session", session).
				Int("page", n).
				Int("duplicates", dropped).
				Msg("Dropped items already loaded")
		}
	}
	c.setLocked(next)

	pagerLoadsTotal.WithLabelValues(string(c.config.Mode), "success").Inc()
	c.logger.Info().
		Str("session", session).
		Int("page", n).
		Int("items", len(items)).
		Int("total_items", len(next.Items)).
		Bool("exhausted", next.Exhausted).
		Dur("duration", duration).
		Msg("Page loaded")

	return true
}

// Subscribe returns a channel receiving the latest snapshot after every
// change, starting with the current one. Slow receivers only miss
// intermediate snapshots. The returned func unsubscribes and closes the
// channel.
func (c *Controller) Subscribe() (<-chan LoadState, func()) {
	ch := make(chan LoadState, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

// beginSessionLocked cancels any in-flight request, re-pins the query and
// clears the state. c.mu must be held.
func (c *Controller) beginSessionLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++

	c.query = search.CreatedSince(c.config.Now(), c.config.WindowDays, c.config.Sort, c.config.Order)
	session := uuid.NewString()
	c.setLocked(Reduce(c.state, SessionStarted{Session: session, Query: c.query.String()}))

	c.logger.Info().
		Str("session", session).
		Str("query", c.query.Qualifier).
		Msg("Session started")
}

// setLocked swaps in s and notifies subscribers. c.mu must be held.
func (c *Controller) setLocked(s LoadState) {
	c.state = s
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func (c *Controller) drop(n int, reason DropReason) {
	pagerGuardDropsTotal.WithLabelValues(string(reason)).Inc()
	c.logger.Debug().
		Int("page", n).
		Str("reason", string(reason)).
		Msg("Load request dropped")
}
