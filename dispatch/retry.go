package dispatch

import (
	"errors"
	"math/rand"
	"time"
)

// Policy configures retries of a single logical call.
type Policy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // delay after the first failure
	MaxDelay    time.Duration // cap of the exponential delay
	Jitter      time.Duration // random extra delay in [0, Jitter)
}

// DefaultPolicy returns 5 attempts, 1s base delay doubling up to 30s, plus
// up to 1s of jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      time.Second,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

// Delay returns the wait before attempt+1 after attempt failed. A positive
// server hint replaces the exponential delay, capped at 4*MaxDelay.
func (p Policy) Delay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		return min(hint, 4*p.MaxDelay)
	}
	shift := min(max(attempt-1, 0), 30)
	d := p.BaseDelay << shift
	if d <= 0 || d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}
	return d
}

// Retryable reports whether err should be retried. Errors opt in through a
// Retryable() bool method anywhere in their chain, so plain context errors
// are never retried.
func Retryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// RetryAfter returns the server's retry hint carried by err, or 0.
func RetryAfter(err error) time.Duration {
	var h interface{ RetryAfter() time.Duration }
	if errors.As(err, &h) {
		return h.RetryAfter()
	}
	return 0
}
