package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestStatusRetryable(t *testing.T) {
	tests := map[int]bool{
		200: false, 400: false, 401: false, 404: false, 422: false,
		408: true, 409: true, 429: true, 500: true, 502: true, 503: true,
	}
	for status, want := range tests {
		if got := StatusRetryable(status); got != want {
			t.Errorf("StatusRetryable(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		header http.Header
		want   time.Duration
	}{
		{"none", http.Header{}, 0},
		{"seconds", http.Header{"Retry-After": {"7"}}, 7 * time.Second},
		{"fractional", http.Header{"Retry-After": {"1.5"}}, 1500 * time.Millisecond},
		{"duration", http.Header{"Retry-After": {"250ms"}}, 250 * time.Millisecond},
		{"ms header", http.Header{"Retry-After-Ms": {"400"}}, 400 * time.Millisecond},
		{"http date", http.Header{"Retry-After": {now.Add(30 * time.Second).Format(http.TimeFormat)}}, 30 * time.Second},
		{"past date", http.Header{"Retry-After": {now.Add(-time.Minute).Format(http.TimeFormat)}}, 0},
		{"garbage", http.Header{"Retry-After": {"soon"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRetryAfter(tt.header, now); got != tt.want {
				t.Errorf("ParseRetryAfter = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestErrorInterfaces(t *testing.T) {
	err := fmt.Errorf("chunk de#1: %w", RateLimited(3*time.Second))

	var r interface{ Retryable() bool }
	if !errors.As(err, &r) || !r.Retryable() {
		t.Error("rate limit error should be retryable")
	}
	var h interface{ RetryAfter() time.Duration }
	if !errors.As(err, &h) || h.RetryAfter() != 3*time.Second {
		t.Error("rate limit error should carry its hint")
	}
	if BadRequest("nope").(*Error).Retryable() {
		t.Error("400 must not be retryable")
	}
}

// chatServer fakes the chat completions endpoint.
func chatServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"}},
	})
	return string(b)
}

func TestOpenAI_Complete(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, body map[string]any) {
		if body["model"] != "gpt-test" {
			t.Errorf("model = %v", body["model"])
		}
		if rf, ok := body["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
			t.Errorf("response_format = %v, want json_object", body["response_format"])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completion(`{"translations":{"a":"b"}}`))
	})

	p := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	got, err := p.Complete(context.Background(), Request{Model: "gpt-test", System: "s", User: "u", JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `{"translations":{"a":"b"}}` {
		t.Errorf("content = %q", got)
	}
}

func TestOpenAI_RateLimitCarriesHint(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	})

	p := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	_, err := p.Complete(context.Background(), Request{Model: "m", User: "u"})
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if pe.Status != http.StatusTooManyRequests || !pe.Retryable() || pe.RetryAfter() != 2*time.Second {
		t.Errorf("error = %+v", pe)
	}
}

func TestOpenAI_BadRequestIsFatal(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	})

	p := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	_, err := p.Complete(context.Background(), Request{Model: "m", User: "u"})
	var pe *Error
	if !errors.As(err, &pe) || pe.Retryable() || pe.Status != http.StatusBadRequest {
		t.Errorf("err = %v, want fatal 400", err)
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted(func(_ context.Context, req Request, n int) (string, error) {
		return fmt.Sprintf("%s-%d", req.User, n), nil
	}, 5*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Complete(context.Background(), Request{User: "x"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if s.Calls() != 4 || len(s.Requests()) != 4 {
		t.Errorf("Calls() = %d, Requests() = %d", s.Calls(), len(s.Requests()))
	}
	if s.Peak() < 2 {
		t.Errorf("Peak() = %d, want concurrent calls observed", s.Peak())
	}
}
