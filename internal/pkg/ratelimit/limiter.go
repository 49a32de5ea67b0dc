// Package ratelimit provides the token-bucket limiter shared by source fetchers.
package ratelimit

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// DefaultRate is the default number of requests per second.
const DefaultRate = 1.0

// Limiter throttles callers to a fixed number of operations per second.
// Tokens refill continuously; the bucket holds a single token, so a burst
// never exceeds one request and N back-to-back calls span (N-1)/rate seconds.
// Safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
	rate    float64
}

// New creates a limiter allowing perSecond operations per second.
// A non-positive or infinite rate disables limiting.
func New(perSecond float64) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		limit = rate.Inf
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		rate:    perSecond,
	}
}

// Acquire blocks until a token is available.
// It only fails when ctx is done before the token arrives.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Rate returns the configured operations per second.
func (l *Limiter) Rate() float64 {
	return l.rate
}
