package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func quotaHeaders(limit, remaining int, reset time.Time) http.Header {
	h := http.Header{}
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
	h.Set("X-RateLimit-Resource", "search")
	return h
}

func TestUpdateFromHeaders_InMemory(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	ctx := context.Background()
	reset := time.Now().Add(45 * time.Second).Truncate(time.Second)

	if err := tracker.UpdateFromHeaders(ctx, quotaHeaders(10, 7, reset)); err != nil {
		t.Fatalf("UpdateFromHeaders() error: %v", err)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error: %v", err)
	}
	if state.Limit != 10 || state.Remaining != 7 {
		t.Errorf("state = %+v, want limit 10 remaining 7", state)
	}
	if !state.ResetAt.Equal(reset) {
		t.Errorf("ResetAt = %v, want %v", state.ResetAt, reset)
	}
	if !state.Known() {
		t.Error("state should be known after update")
	}
}

func TestUpdateFromHeaders_InvalidHeaders(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())

	tests := []struct {
		name        string
		remaining   string
		reset       string
		limit       string
		shouldError bool
	}{
		{name: "missing remaining header", reset: "1700000000", shouldError: false},
		{name: "invalid remaining header", remaining: "many", reset: "1700000000", shouldError: true},
		{name: "missing reset header", remaining: "3", shouldError: true},
		{name: "invalid reset header", remaining: "3", reset: "soon", shouldError: true},
		{name: "invalid limit header", remaining: "3", reset: "1700000000", limit: "x", shouldError: true},
		{name: "all headers missing", shouldError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.remaining != "" {
				headers.Set("X-RateLimit-Remaining", tt.remaining)
			}
			if tt.reset != "" {
				headers.Set("X-RateLimit-Reset", tt.reset)
			}
			if tt.limit != "" {
				headers.Set("X-RateLimit-Limit", tt.limit)
			}

			err := tracker.UpdateFromHeaders(context.Background(), headers)
			if tt.shouldError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.shouldError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestCheckQuota(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		remaining int
		reset     time.Duration
		allowed   bool
	}{
		{name: "quota left", remaining: 3, reset: time.Minute, allowed: true},
		{name: "spent, window open", remaining: 0, reset: time.Minute, allowed: false},
		{name: "spent, window reset", remaining: 0, reset: -time.Minute, allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(nil, zerolog.Nop())
			if err := tracker.UpdateFromHeaders(ctx, quotaHeaders(10, tt.remaining, time.Now().Add(tt.reset))); err != nil {
				t.Fatalf("UpdateFromHeaders() error: %v", err)
			}

			allowed, state, err := tracker.CheckQuota(ctx)
			if err != nil {
				t.Fatalf("CheckQuota() error: %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("CheckQuota() = %v, want %v (state %+v)", allowed, tt.allowed, state)
			}
		})
	}
}

func TestCheckQuota_UnknownStateAllows(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())

	allowed, state, err := tracker.CheckQuota(context.Background())
	if err != nil {
		t.Fatalf("CheckQuota() error: %v", err)
	}
	if !allowed {
		t.Error("unknown quota must not block requests")
	}
	if state.Known() {
		t.Error("state should be unknown")
	}
}
