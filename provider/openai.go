package provider

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string        // custom endpoint (optional)
	Timeout time.Duration // per request; 0 means none
}

// OpenAI implements Chat with the OpenAI chat completions API or any
// server speaking it.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment
	config.HTTPClient = &hintClient{client: &http.Client{Transport: transport, Timeout: cfg.Timeout}}
	return &OpenAI{client: openai.NewClientWithConfig(config)}
}

// Complete sends req and returns the first choice's content.
func (p *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	hint := &retryHint{}
	ctx = context.WithValue(ctx, retryHintKey{}, hint)

	creq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", classify(err, hint.get())
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Transient: true, Err: errors.New("no choices in response")}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &Error{Transient: true, Err: errors.New("empty response content")}
	}
	return content, nil
}

// classify maps go-openai and transport errors to *Error.
func classify(err error, delay time.Duration) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Status:    apiErr.HTTPStatusCode,
			Transient: StatusRetryable(apiErr.HTTPStatusCode),
			Delay:     delay,
			Err:       err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Status:    reqErr.HTTPStatusCode,
			Transient: StatusRetryable(reqErr.HTTPStatusCode),
			Delay:     delay,
			Err:       err,
		}
	}
	return &Error{Transient: transportRetryable(err), Err: err}
}

// ---------------------------------------------------------------------------
// Retry-After capture
// ---------------------------------------------------------------------------

// go-openai does not expose response headers of failed calls, so the HTTP
// client records Retry-After into a holder carried by the request context.

type retryHintKey struct{}

type retryHint struct {
	mu sync.Mutex
	d  time.Duration
}

func (h *retryHint) set(d time.Duration) {
	h.mu.Lock()
	h.d = d
	h.mu.Unlock()
}

func (h *retryHint) get() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.d
}

type hintClient struct {
	client *http.Client
}

func (c *hintClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil || resp == nil {
		return resp, err
	}
	if h, ok := req.Context().Value(retryHintKey{}).(*retryHint); ok {
		if d := ParseRetryAfter(resp.Header, time.Now()); d > 0 {
			h.set(d)
		}
	}
	return resp, nil
}

// ParseRetryAfter reads the server's retry hint from header. It accepts
// retry-after-ms, and Retry-After as seconds, a Go duration ("500ms") or an
// HTTP date. Returns 0 when no usable hint is present.
func ParseRetryAfter(header http.Header, now time.Time) time.Duration {
	if v := strings.TrimSpace(header.Get("Retry-After-Ms")); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil && ms > 0 {
			return time.Duration(ms * float64(time.Millisecond))
		}
	}
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
