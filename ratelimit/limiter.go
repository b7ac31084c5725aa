// Package ratelimit implements fixed-window request counters keyed by actor and action.
package ratelimit

import (
	"context"
	"time"
)

// Result describes a key's budget after one tracked request.
type Result struct {
	Limit     int
	Remaining int
	Reset     time.Time // end of the current window
	Allowed   bool
}

// RetryAfter is the wait until the window resets, never negative.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if d := r.Reset.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Limiter counts one request against key. The counter starts at zero when a
// window opens and resets once window has elapsed. A request is allowed while
// the count stays within limit; the first request over the limit locks the key
// until the window resets. Remaining counts what is left after this request, so
// the limit-th request is allowed with Remaining 0. Only Allowed signals a
// rejection.
type Limiter interface {
	Track(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

type bucket struct {
	WindowStart time.Time
	Count       int
	LockedUntil time.Time
}

// advance applies one request at now and reports the outcome.
func (b *bucket) advance(now time.Time, limit int, window time.Duration) Result {
	if b.WindowStart.IsZero() || !now.Before(b.WindowStart.Add(window)) {
		b.WindowStart = now
		b.Count = 0
		b.LockedUntil = time.Time{}
	}
	reset := b.WindowStart.Add(window)

	if now.Before(b.LockedUntil) {
		return Result{Limit: limit, Remaining: 0, Reset: reset, Allowed: false}
	}

	b.Count++
	if b.Count > limit {
		b.LockedUntil = reset
		return Result{Limit: limit, Remaining: 0, Reset: reset, Allowed: false}
	}
	return Result{Limit: limit, Remaining: limit - b.Count, Reset: reset, Allowed: true}
}
