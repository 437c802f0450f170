// Package ratelimiter throttles expensive operations with a token bucket.
//
// The handle manager uses it to bound how many uncached tree searches run
// per second: a search can read every directory along a hash-consistent
// path, so a burst of stale handles would otherwise turn into a burst of
// full-tree scans.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate. All methods are safe for
// concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerSecond sustained and burst
// immediate requests.
//
// requestsPerSecond = 0 means unlimited. A zero burst with a non-zero rate
// is raised to the rate, since a bucket of size 0 admits nothing.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = requestsPerSecond
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow consumes a token if one is available and reports whether it did.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Unlimited reports whether the limiter admits everything.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}

// Burst returns the bucket size.
func (r *RateLimiter) Burst() int {
	return r.limiter.Burst()
}
