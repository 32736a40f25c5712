package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/gh-trending-feed/pkg/pager"
	"github.com/rs/zerolog/log"
)

// ErrPageFailed is returned, wrapped, when a page load settles with an error.
var ErrPageFailed = errors.New("page load failed")

// Config holds walker configuration.
type Config struct {
	// Timeout per page load.
	Timeout time.Duration

	// ProgressEvery logs progress after this many pages (0 disables).
	ProgressEvery int
}

// DefaultConfig returns the default walker configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:       15 * time.Second,
		ProgressEvery: 5,
	}
}

// Controller is the controller surface the walker needs.
// *pager.Controller implements it.
type Controller interface {
	Start(ctx context.Context) bool
	LoadNext(ctx context.Context) bool
	State() pager.LoadState
}

// Walker loads consecutive pages through a controller.
type Walker struct {
	config Config
}

// NewWalker creates a new walker.
func NewWalker(config Config) *Walker {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.ProgressEvery < 0 {
		config.ProgressEvery = 0
	}
	return &Walker{config: config}
}

// Walk starts a new session on ctrl and loads pages until the result set
// is exhausted or maxPages pages have loaded (maxPages <= 0 means no
// limit). The final state is returned even when err is non-nil.
func (w *Walker) Walk(ctx context.Context, ctrl Controller, maxPages int) (pager.LoadState, error) {
	start := time.Now()

	if !w.load(ctx, ctrl.Start) {
		return ctrl.State(), errors.New("first page was not issued")
	}
	state := ctrl.State()
	if err := checkState(state); err != nil {
		return state, err
	}

	log.Info().
		Str("session", state.Session).
		Str("query", state.Query).
		Int("max_pages", maxPages).
		Msg("Starting page walk")

	pages := 1
	for !state.Exhausted && (maxPages <= 0 || pages < maxPages) {
		if err := ctx.Err(); err != nil {
			log.Debug().
				Int("pages", pages).
				Msg("Walk stopping (context cancelled)")
			return state, fmt.Errorf("walk cancelled after %d pages: %w", pages, err)
		}

		if !w.load(ctx, ctrl.LoadNext) {
			// A guard dropped the load; nothing further can be fetched.
			break
		}
		state = ctrl.State()
		if err := checkState(state); err != nil {
			log.Warn().
				Str("session", state.Session).
				Int("pages", pages).
				Str("error", state.Err).
				Msg("Page failed - returning partial results")
			return state, fmt.Errorf("partial data after %d pages: %w", pages, err)
		}
		pages++

		if w.config.ProgressEvery > 0 && pages%w.config.ProgressEvery == 0 {
			log.Info().
				Int("pages", pages).
				Int("items", len(state.Items)).
				Msg("Walk progress")
		}
	}

	log.Info().
		Str("session", state.Session).
		Int("pages", pages).
		Int("items", len(state.Items)).
		Bool("exhausted", state.Exhausted).
		Dur("duration", time.Since(start)).
		Msg("Walk complete")

	return state, nil
}

// load runs one controller load under the per-page timeout.
func (w *Walker) load(ctx context.Context, fn func(context.Context) bool) bool {
	pageCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()
	return fn(pageCtx)
}

// checkState converts a settled failure into an error. Failures never
// move the cursor, so the failed page is the next one.
func checkState(state pager.LoadState) error {
	if state.Err != "" {
		return fmt.Errorf("%w: page %d: %s", ErrPageFailed, state.Next(), state.Err)
	}
	return nil
}
