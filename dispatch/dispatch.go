// Package dispatch runs model calls under one global concurrency bound with
// retry, backoff, a request rate gate and a shared rate-limit pause.
//
// Every attempt of every call passes, in order: the global pause, the rate
// gate and the semaphore. The semaphore is released before backing off, so
// a sleeping retry never blocks other work.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures a Dispatcher.
type Options struct {
	MaxConcurrent     int           // global bound on in-flight calls; <1 means 1
	Retry             Policy        // zero fields take DefaultPolicy values
	RequestsPerMinute int           // 0 disables the rate gate
	RequestTimeout    time.Duration // per attempt; 0 means none

	// OnLog receives retry and pause notices.
	OnLog func(format string, args ...any)
}

// Dispatcher is safe for concurrent use. One Dispatcher is shared by all
// files and locales of a run.
type Dispatcher struct {
	sem     chan struct{}
	policy  Policy
	limiter *rateLimiter
	pause   pauseState
	timeout time.Duration
	onLog   func(string, ...any)

	inFlight atomic.Int64
	peak     atomic.Int64
	calls    atomic.Int64
	retries  atomic.Int64
}

// New returns a Dispatcher for opts.
func New(opts Options) *Dispatcher {
	n := opts.MaxConcurrent
	if n < 1 {
		n = 1
	}
	onLog := opts.OnLog
	if onLog == nil {
		onLog = func(string, ...any) {}
	}
	return &Dispatcher{
		sem:     make(chan struct{}, n),
		policy:  opts.Retry.withDefaults(),
		limiter: newRateLimiter(opts.RequestsPerMinute),
		timeout: opts.RequestTimeout,
		onLog:   onLog,
	}
}

// Limit returns the concurrency bound.
func (d *Dispatcher) Limit() int { return cap(d.sem) }

// Peak returns the highest number of calls that were in flight at once.
func (d *Dispatcher) Peak() int { return int(d.peak.Load()) }

// Calls returns the number of attempts made so far.
func (d *Dispatcher) Calls() int { return int(d.calls.Load()) }

// Retries returns the number of attempts that were retries.
func (d *Dispatcher) Retries() int { return int(d.retries.Load()) }

func (d *Dispatcher) acquire(ctx context.Context) error {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	n := d.inFlight.Add(1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return nil
}

func (d *Dispatcher) release() {
	d.inFlight.Add(-1)
	<-d.sem
}

// Do runs fn as one logical call, retrying transient failures per the
// policy. It returns the number of attempts made and the final error.
//
// Once ctx is done no new attempt starts. An attempt already running gets a
// context detached from ctx and bounded by RequestTimeout, so it can finish.
func (d *Dispatcher) Do(ctx context.Context, label string, fn func(context.Context) error) (int, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := d.gate(ctx); err != nil {
			return attempt - 1, cancelled(err, lastErr)
		}

		err := d.attempt(ctx, fn)
		d.release()
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if !Retryable(err) {
			return attempt, err
		}
		if attempt >= d.policy.MaxAttempts {
			return attempt, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		hint := RetryAfter(err)
		delay := d.policy.Delay(attempt, hint)
		if hint > 0 {
			d.pause.pause(delay)
			d.onLog("%s: rate limited, pausing all requests for %s", label, delay.Round(time.Millisecond))
		} else {
			d.onLog("%s: attempt %d/%d failed: %v; retrying in %s", label, attempt, d.policy.MaxAttempts, err, delay.Round(time.Millisecond))
		}
		d.retries.Add(1)

		select {
		case <-ctx.Done():
			return attempt, cancelled(ctx.Err(), lastErr)
		case <-time.After(delay):
		}
	}
}

// gate waits for the pause, the rate gate and a semaphore slot. On success
// the caller owns a slot and must release it.
func (d *Dispatcher) gate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.pause.wait(ctx); err != nil {
		return err
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return d.acquire(ctx)
}

func (d *Dispatcher) attempt(ctx context.Context, fn func(context.Context) error) error {
	d.calls.Add(1)
	callCtx := context.WithoutCancel(ctx)
	var cancel context.CancelFunc
	if d.timeout > 0 {
		callCtx, cancel = context.WithTimeout(callCtx, d.timeout)
	} else {
		callCtx, cancel = context.WithCancel(callCtx)
	}
	defer cancel()
	return fn(callCtx)
}

func cancelled(ctxErr, last error) error {
	if last == nil {
		return ctxErr
	}
	return fmt.Errorf("%w (last error: %v)", ctxErr, last)
}

// ---------------------------------------------------------------------------
// Fan-out
// ---------------------------------------------------------------------------

// Job is one logical call producing a T.
type Job[T any] struct {
	Label string
	Run   func(context.Context) (T, error)
}

// Outcome is the result of one Job.
type Outcome[T any] struct {
	Label    string
	Value    T
	Err      error
	Attempts int
}

// RunAll starts every job concurrently through d and waits for all of them.
// Outcomes are returned in job order. A failed job never cancels another;
// jobs that could not start because ctx was done report ctx.Err().
func RunAll[T any](ctx context.Context, d *Dispatcher, jobs []Job[T]) []Outcome[T] {
	out := make([]Outcome[T], len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		out[i].Label = job.Label
		if err := ctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		wg.Add(1)
		go func(i int, job Job[T]) {
			defer wg.Done()
			var v T
			n, err := d.Do(ctx, job.Label, func(c context.Context) error {
				var err error
				v, err = job.Run(c)
				return err
			})
			out[i].Value, out[i].Err, out[i].Attempts = v, err, n
		}(i, job)
	}
	wg.Wait()
	return out
}
