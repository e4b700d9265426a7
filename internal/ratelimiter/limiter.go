package ratelimiter

import "golang.org/x/time/rate"

// Limiter is a single token bucket guarding the /play endpoint.
// Burst is set equal to the rate so no capacity is saved up beyond the
// configured per-second maximum.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter granting ratePerSec tokens per second.
func New(ratePerSec int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Allow reports whether a token is available right now, consuming it if so.
// The frontend rejects the request instead of queueing it when this is false.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
