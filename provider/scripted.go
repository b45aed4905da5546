package provider

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ScriptFunc answers the n-th call (starting at 1) to a Scripted provider.
type ScriptFunc func(ctx context.Context, req Request, n int) (string, error)

// Scripted is a Chat double answering from a function. It records every
// request and the highest number of concurrent calls.
type Scripted struct {
	fn    ScriptFunc
	delay time.Duration

	mu       sync.Mutex
	requests []Request

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewScripted returns a Scripted provider. Each call sleeps for delay
// before answering, which makes overlapping calls observable.
func NewScripted(fn ScriptFunc, delay time.Duration) *Scripted {
	return &Scripted{fn: fn, delay: delay}
}

// Complete implements Chat.
func (s *Scripted) Complete(ctx context.Context, req Request) (string, error) {
	n := s.calls.Add(1)
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if cur <= p || s.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", &Error{Transient: true, Err: ctx.Err()}
		case <-time.After(s.delay):
		}
	}
	return s.fn(ctx, req, int(n))
}

// Calls returns the number of calls made.
func (s *Scripted) Calls() int { return int(s.calls.Load()) }

// Peak returns the highest number of concurrent calls observed.
func (s *Scripted) Peak() int { return int(s.peak.Load()) }

// Requests returns a copy of all requests received, in arrival order.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RateLimited returns the error of an HTTP 429 response with a Retry-After
// hint of d.
func RateLimited(d time.Duration) error {
	return &Error{Status: http.StatusTooManyRequests, Transient: true, Delay: d, Err: errors.New("rate limit exceeded")}
}

// BadRequest returns the error of an HTTP 400 response.
func BadRequest(msg string) error {
	return &Error{Status: http.StatusBadRequest, Err: errors.New(msg)}
}
