// Package ratelimit records the search quota GitHub reports on every
// response (X-RateLimit-Limit, -Remaining, -Reset, -Resource) so that a
// request which is certain to be refused can fail fast with a clear error.
// It does not throttle or schedule requests.
package ratelimit

import (
	"time"
)

// Redis keys for quota state storage.
const (
	RedisKeyLimit          = "trending:rate_limit:limit"
	RedisKeyRemaining      = "trending:rate_limit:remaining"
	RedisKeyResetTimestamp = "trending:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "trending:rate_limit:last_update"
)

// LowWatermark is the remaining quota at which updates are logged as warnings.
const LowWatermark = 2

// RateLimitState represents the last quota GitHub reported.
type RateLimitState struct {
	// Limit is the request allowance for the window (X-RateLimit-Limit).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window (X-RateLimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (X-RateLimit-Reset, epoch seconds).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded. Zero means unknown.
	LastUpdate time.Time `json:"last_update"`
}

// Known reports whether any quota headers have been observed.
func (s *RateLimitState) Known() bool {
	return !s.LastUpdate.IsZero()
}

// Exhausted reports whether the quota is known to be spent for a window that
// has not reset yet.
func (s *RateLimitState) Exhausted(now time.Time) bool {
	return s.Known() && s.Remaining <= 0 && now.Before(s.ResetAt)
}

// IsLow reports whether the remaining quota is at or below LowWatermark.
func (s *RateLimitState) IsLow() bool {
	return s.Known() && s.Remaining <= LowWatermark
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
