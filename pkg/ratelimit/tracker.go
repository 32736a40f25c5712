package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trending_rate_limit_remaining",
		Help: "Search requests remaining in the current GitHub rate limit window",
	})

	rateLimitRejectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trending_rate_limit_rejects_total",
		Help: "Requests failed locally because the quota was known to be exhausted",
	})
)

// Tracker records quota state. With a Redis client the state is shared by
// every process using the same token; without one it is kept in memory.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger

	mu    sync.RWMutex
	local RateLimitState
	now   func() time.Time
}

// NewTracker creates a new quota tracker. redisClient may be nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// GetState returns the last recorded quota. A zero state (Known() == false)
// is returned when nothing has been observed yet.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	if t.redis == nil {
		t.mu.RLock()
		state := t.local
		t.mu.RUnlock()
		return &state, nil
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if errors.Is(err, redis.Nil) {
		return &RateLimitState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	limit, err := t.redis.Get(ctx, RedisKeyLimit).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get limit: %w", err)
	}

	remaining, err := t.redis.Get(ctx, RedisKeyRemaining).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	var lastUpdate time.Time
	if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
		return nil, fmt.Errorf("parse last update: %w", err)
	}

	return &RateLimitState{
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}, nil
}

// UpdateFromHeaders parses the X-RateLimit-* headers and records them.
// Responses without the headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get("X-RateLimit-Remaining")
	if remainStr == "" {
		return nil
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Remaining header: %w", err)
	}

	resetStr := headers.Get("X-RateLimit-Reset")
	if resetStr == "" {
		return fmt.Errorf("X-RateLimit-Reset header missing")
	}

	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse X-RateLimit-Reset header: %w", err)
	}

	limit := 0
	if limitStr := headers.Get("X-RateLimit-Limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return fmt.Errorf("parse X-RateLimit-Limit header: %w", err)
		}
	}

	state := RateLimitState{
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    time.Unix(resetEpoch, 0),
		LastUpdate: t.now(),
	}

	if t.redis != nil {
		lastUpdateJSON, err := json.Marshal(state.LastUpdate)
		if err != nil {
			return fmt.Errorf("marshal last update: %w", err)
		}

		// Keys expire with the window so a stale zero never outlives it.
		ttl := time.Until(state.ResetAt) + time.Minute
		if ttl < time.Minute {
			ttl = time.Minute
		}

		pipe := t.redis.Pipeline()
		pipe.Set(ctx, RedisKeyLimit, limit, ttl)
		pipe.Set(ctx, RedisKeyRemaining, remaining, ttl)
		pipe.Set(ctx, RedisKeyResetTimestamp, resetEpoch, ttl)
		pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("store rate limit state in redis: %w", err)
		}
	} else {
		t.mu.Lock()
		t.local = state
		t.mu.Unlock()
	}

	rateLimitRemaining.Set(float64(remaining))

	event := t.logger.Debug()
	if state.IsLow() {
		event = t.logger.Warn()
	}
	event.
		Int("rate_remaining", remaining).
		Int("rate_limit", limit).
		Str("resource", headers.Get("X-RateLimit-Resource")).
		Time("reset_at", state.ResetAt).
		Msg("Search quota updated")

	return nil
}

// CheckQuota reports whether a request may be sent. It returns false, with
// the current state, only when the quota is known to be exhausted.
func (t *Tracker) CheckQuota(ctx context.Context) (bool, *RateLimitState, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.Exhausted(t.now()) {
		t.logger.Warn().
			Int("rate_remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Search quota exhausted - failing request locally")
		rateLimitRejectsTotal.Inc()
		return false, state, nil
	}

	return true, state, nil
}
