package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// rateLimiter is a token bucket gating request starts.
type rateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// newRateLimiter returns a limiter for rpm requests per minute with a burst
// of one, or nil when rpm <= 0.
func newRateLimiter(rpm int) *rateLimiter {
	if rpm <= 0 {
		return nil
	}
	return &rateLimiter{
		tokens:     1,
		maxTokens:  1,
		refillRate: float64(rpm) / 60.0,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *rateLimiter) Wait(ctx context.Context) error {
	for {
		wait := r.reserve()
		if wait <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// reserve takes a token if one is available and returns 0, otherwise it
// returns how long until the next token.
func (r *rateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.tokens += now.Sub(r.lastRefill).Seconds() * r.refillRate
	r.lastRefill = now
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	return time.Duration((1 - r.tokens) / r.refillRate * float64(time.Second))
}

// pauseState is the global rate-limit pause: when the server asks for a
// break, every worker waits until it is over.
type pauseState struct {
	mu       sync.Mutex
	paused   int32 // atomic: 1 = paused
	pauseEnd time.Time
}

func (p *pauseState) isPaused() bool {
	return atomic.LoadInt32(&p.paused) == 1
}

// pause extends the pause to at least d from now.
func (p *pauseState) pause(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if end := time.Now().Add(d); end.After(p.pauseEnd) {
		p.pauseEnd = end
	}
	atomic.StoreInt32(&p.paused, 1)
}

// wait blocks until the pause is over.
func (p *pauseState) wait(ctx context.Context) error {
	for p.isPaused() {
		p.mu.Lock()
		remaining := time.Until(p.pauseEnd)
		if remaining <= 0 {
			atomic.StoreInt32(&p.paused, 0)
		}
		p.mu.Unlock()
		if remaining <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(remaining, 100*time.Millisecond)):
		}
	}
	return nil
}
