// Package ratelimit implements a sliding-window request limiter keyed by client.
//
// Each key owns a log of request timestamps. On every gated call the log is
// pruned to the trailing window; when the surviving count has reached the
// configured maximum the call is rejected, otherwise the current timestamp is
// appended. Where the log lives is decided by a Store: MemoryStore keeps it in
// process (single instance only; state resets on restart), RedisStore keeps it
// in a shared sorted set so several replicas enforce one budget.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Store records hits in a per-key sliding window log.
type Store interface {
	// Hit drops entries for key at or before now-window and, when fewer than
	// limit remain, appends now. It returns the number of entries left in the
	// window and whether now was recorded.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (int, bool, error)
}

// Config holds rate limiter configuration.
type Config struct {
	Window time.Duration
	Max    int
}

// Decision is the outcome of a single gated call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the retry hint up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// Limiter gates calls per key.
type Limiter struct {
	store  Store
	clock  Clock
	window time.Duration
	max    int
}

// New creates a new Limiter.
func New(store Store, clock Clock, cfg Config) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("ratelimit: store is required")
	}
	if clock == nil {
		return nil, errors.New("ratelimit: clock is required")
	}
	if cfg.Window <= 0 || cfg.Max <= 0 {
		return nil, fmt.Errorf("ratelimit: window and max must be > 0 (got %s, %d)", cfg.Window, cfg.Max)
	}
	return &Limiter{
		store:  store,
		clock:  clock,
		window: cfg.Window,
		max:    cfg.Max,
	}, nil
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow records a call for key if the window has room. A store error is
// returned alongside an allowing Decision so callers can fail open.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, recorded, err := l.store.Hit(ctx, key, l.clock.Now(), l.window, l.max)
	if err != nil {
		return Decision{Allowed: true, Limit: l.max, Remaining: l.max}, fmt.Errorf("rate limit hit: %w", err)
	}
	if !recorded {
		return Decision{
			Allowed:    false,
			Limit:      l.max,
			Remaining:  0,
			RetryAfter: l.window,
		}, nil
	}
	return Decision{
		Allowed:   true,
		Limit:     l.max,
		Remaining: max(l.max-count, 0),
	}, nil
}
