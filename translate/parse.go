package translate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Failure reasons, as they appear in the report.
const (
	ReasonKeySet       = "key-set-mismatch"
	ReasonMalformed    = "malformed-response"
	ReasonModelError   = "model-error"
	ReasonReviewFailed = "review-failed"
	ReasonCancelled    = "cancelled"
)

// KeySetError reports a response whose keys differ from the request's.
// The whole chunk is rejected.
type KeySetError struct {
	Missing []string
	Extra   []string
}

func (e *KeySetError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}
	return ReasonKeySet + ": " + strings.Join(parts, "; ")
}

// ResponseError reports a response that is not the expected JSON. It is not
// retried.
type ResponseError struct {
	Err     error
	Excerpt string
}

func (e *ResponseError) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("%s: %v", ReasonMalformed, e.Err)
	}
	return fmt.Sprintf("%s: %v\nResponse: %s", ReasonMalformed, e.Err, e.Excerpt)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// Reason maps a chunk error to its report reason.
func Reason(err error) string {
	var ks *KeySetError
	var re *ResponseError
	switch {
	case errors.As(err, &ks):
		return ReasonKeySet
	case errors.As(err, &re):
		return ReasonMalformed
	case isCancelled(err):
		return ReasonCancelled
	}
	return ReasonModelError
}

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// jsonObject extracts the outermost JSON object from a model response,
// dropping markdown fences and chatter around it.
func jsonObject(content string) (map[string]json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, &ResponseError{Err: errors.New("no JSON object in response"), Excerpt: truncate(content, 300)}
	}
	content = content[start : end+1]

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, &ResponseError{Err: err, Excerpt: truncate(content, 300)}
	}
	return obj, nil
}

// unwrap returns obj[field] when it is an object, else obj itself.
func unwrap(obj map[string]json.RawMessage, field string) (map[string]json.RawMessage, error) {
	raw, ok := obj[field]
	if !ok {
		return obj, nil
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, &ResponseError{Err: fmt.Errorf("%q is not an object: %w", field, err)}
	}
	return inner, nil
}

// checkKeys compares the response keys with the requested ones.
func checkKeys(got map[string]json.RawMessage, want []string) error {
	seen := make(map[string]bool, len(want))
	var missing, extra []string
	for _, k := range want {
		seen[k] = true
		if _, ok := got[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range got {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return &KeySetError{Missing: missing, Extra: extra}
}

// parseTranslations reads {"translations": {key: value}} or a bare
// {key: value} object. The key set must equal keys.
func parseTranslations(content string, keys []string) (map[string]string, error) {
	obj, err := jsonObject(content)
	if err != nil {
		return nil, err
	}
	if obj, err = unwrap(obj, "translations"); err != nil {
		return nil, err
	}
	if err := checkKeys(obj, keys); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(obj))
	for k, raw := range obj {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &ResponseError{Err: fmt.Errorf("value of %q is not a string", k)}
		}
		out[k] = s
	}
	return out, nil
}

// Verdict is the reviewer's decision for one key.
type Verdict struct {
	Corrected bool
	Value     string // set when Corrected
}

type reviewItem struct {
	Verdict string  `json:"verdict"`
	Value   *string `json:"value"`
}

// parseReviews reads {"reviews": {key: {"verdict": ..., "value": ...}}}.
// A plain string value is a correction.
func parseReviews(content string, keys []string) (map[string]Verdict, error) {
	obj, err := jsonObject(content)
	if err != nil {
		return nil, err
	}
	if obj, err = unwrap(obj, "reviews"); err != nil {
		return nil, err
	}
	if err := checkKeys(obj, keys); err != nil {
		return nil, err
	}
	out := make(map[string]Verdict, len(obj))
	for k, raw := range obj {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, &ResponseError{Err: fmt.Errorf("review of %q: %w", k, err)}
			}
			out[k] = Verdict{Corrected: true, Value: s}
			continue
		}
		var item reviewItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, &ResponseError{Err: fmt.Errorf("review of %q: %w", k, err)}
		}
		switch strings.ToLower(item.Verdict) {
		case "unchanged", "ok", "":
			if item.Value != nil && item.Verdict == "" {
				out[k] = Verdict{Corrected: true, Value: *item.Value}
			} else {
				out[k] = Verdict{}
			}
		case "corrected":
			if item.Value == nil {
				return nil, &ResponseError{Err: fmt.Errorf("review of %q: corrected without value", k)}
			}
			out[k] = Verdict{Corrected: true, Value: *item.Value}
		default:
			return nil, &ResponseError{Err: fmt.Errorf("review of %q: unknown verdict %q", k, item.Verdict)}
		}
	}
	return out, nil
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
