// Package ratelimit implements fixed-window request limiting. Requests are
// counted in non-overlapping buckets aligned to wall-clock time; each
// endpoint class carries its own window length and ceiling. Counters live
// in Redis for multi-instance deployments or in a process-local store for
// single-instance use, selected explicitly at wiring time.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidLimit  = errors.New("limit must be positive")
	ErrInvalidWindow = errors.New("window must be positive")
	ErrStoreRequired = errors.New("store is required")
)

// Result reports the outcome of a single rate-limit check.
type Result struct {
	Allowed   bool
	Count     int64     // requests observed in the current window, including this one
	Limit     int       // window ceiling
	Remaining int       // requests left in the window, never negative
	ResetAt   time.Time // when the current window ends
}

// RetryAfter returns how long to wait before the next request may be
// allowed. Zero when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter checks whether a keyed request fits the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Store is the counter backend. IncrementAndGet must be a single atomic
// increment-and-read: a separate read-then-write would let two racing
// requests both observe a stale under-limit count.
type Store interface {
	IncrementAndGet(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// FixedWindow counts requests per key in wall-clock-aligned buckets.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
}

// NewFixedWindow creates a limiter for the given class budget.
func NewFixedWindow(store Store, class Class) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if class.Limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, class.Limit)
	}
	if class.Window <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidWindow, class.Window)
	}
	return &FixedWindow{
		store:  store,
		limit:  class.Limit,
		window: class.Window,
		prefix: class.Name,
	}, nil
}

// Allow consumes one slot for key and reports whether it fit the window.
func (l *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := l.store.IncrementAndGet(ctx, l.prefix+":"+key, l.window)
	if err != nil {
		return nil, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= int64(l.limit),
		Count:     count,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// windowBounds returns the aligned bucket start and end for now.
func windowBounds(now time.Time, window time.Duration) (start, end time.Time) {
	start = now.Truncate(window)
	return start, start.Add(window)
}
