package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// New returns a limiter pacing outbound provider calls at the given rate,
// or nil when rps is zero or negative (no pacing).
func New(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Wait blocks until the limiter permits a call. A nil limiter permits
// everything immediately.
func Wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
