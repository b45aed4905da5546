// Package provider talks to the upstream chat model.
//
// Chat is the only thing the rest of proptrans needs: one system prompt, one
// user prompt, one text answer. Failures come back as *Error so the
// dispatcher can tell transient problems from fatal ones.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"
)

// Request is one chat completion call.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float32
	JSON        bool // ask for a JSON object response
	MaxTokens   int  // 0 leaves the server default
}

// Chat completes one request.
type Chat interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Error is a failed model call.
type Error struct {
	Status    int           // HTTP status, 0 for transport errors
	Transient bool          // worth retrying
	Delay     time.Duration // server Retry-After hint, 0 when absent
	Err       error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model API error (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("model API error: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the call may succeed when repeated.
func (e *Error) Retryable() bool { return e.Transient }

// RetryAfter returns the server's requested delay.
func (e *Error) RetryAfter() time.Duration { return e.Delay }

// StatusRetryable classifies HTTP status codes: 408, 409, 429 and 5xx are
// transient, everything else is fatal.
func StatusRetryable(status int) bool {
	switch {
	case status == 408, status == 409, status == 429:
		return true
	case status >= 500:
		return true
	}
	return false
}

// transportRetryable reports network failures worth another attempt:
// timeouts, resets and truncated responses.
func transportRetryable(err error) bool {
	var ne net.Error
	switch {
	case errors.As(err, &ne) && ne.Timeout():
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return true
	}
	return false
}
