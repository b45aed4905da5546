// Package translate drafts translations of .properties entries with a chat
// model (phase 1) and has a second call review the drafts (phase 2).
//
// Both phases send one request per chunk through the shared dispatcher and
// expect a JSON object back whose key set equals the request's. A chunk whose
// response is malformed or has the wrong keys fails as a whole; nothing is
// ever partially accepted. Neither phase touches the disk.
package translate

import (
	"context"
	"errors"
	"log"

	"github.com/minios-linux/proptrans/cache"
	"github.com/minios-linux/proptrans/chunk"
	"github.com/minios-linux/proptrans/dispatch"
	"github.com/minios-linux/proptrans/glossary"
	"github.com/minios-linux/proptrans/provider"
)

// Default sampling temperatures.
const (
	DefaultTemperature       = 0.3
	DefaultReviewTemperature = 0.1
)

// Options configures a Translator or a Reviewer.
type Options struct {
	// Chat is the upstream model.
	Chat provider.Chat
	// Dispatcher bounds and retries every model call. Shared across the run.
	Dispatcher *dispatch.Dispatcher
	// Model is the phase 1 model name.
	Model string
	// ReviewModel is the phase 2 model name. Defaults to Model.
	ReviewModel string
	// Temperature for phase 1. 0 means DefaultTemperature.
	Temperature float32
	// ReviewTemperature for phase 2. 0 means DefaultReviewTemperature.
	ReviewTemperature float32
	// MaxTokens caps the response length. 0 leaves the server default.
	MaxTokens int
	// Glossary supplies terms, style rules and brand terms. May be nil.
	Glossary *glossary.Store
	// Prompts overrides the built-in system prompts. May be nil.
	Prompts *PromptsConfig
	// Cache serves known translations as drafts without a model call. May be nil.
	Cache cache.Cache
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
	// OnError emits error messages.
	OnError func(format string, args ...any)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) debug(format string, args ...any) {
	if o.Verbose {
		log.Printf("[DEBUG] "+format, args...)
	}
}

func (o Options) withDefaults() Options {
	if o.ReviewModel == "" {
		o.ReviewModel = o.Model
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.ReviewTemperature == 0 {
		o.ReviewTemperature = DefaultReviewTemperature
	}
	if o.Glossary == nil {
		o.Glossary = glossary.Empty()
	}
	if o.Dispatcher == nil {
		o.Dispatcher = dispatch.New(dispatch.Options{})
	}
	return o
}

// Result is one translated value.
type Result struct {
	Key    string
	Value  string
	Source string
	Locale string
	// Cached marks a draft served from the translation memory.
	Cached bool
}

// Failure is a chunk that produced no results.
type Failure struct {
	Label    string
	Keys     []string
	Reason   string
	Err      error
	Attempts int
}

// Phase is the outcome of translating or reviewing one locale.
type Phase struct {
	Results   []Result
	Failures  []Failure
	CacheHits int
}

// FailedKeys returns the keys of all failed chunks.
func (p Phase) FailedKeys() []string {
	var keys []string
	for _, f := range p.Failures {
		keys = append(keys, f.Keys...)
	}
	return keys
}

// Job is the phase 1 work for one locale file.
type Job struct {
	Locale       string
	LanguageName string
	Chunks       []chunk.Chunk
	// Examples are existing translations shown to the model for consistency.
	Examples []Example
}

// Translator runs phase 1.
type Translator struct {
	opts Options
}

// NewTranslator returns a Translator for opts.
func NewTranslator(opts Options) *Translator {
	return &Translator{opts: opts.withDefaults()}
}

// Translate drafts every entry of job's chunks. Chunks run concurrently
// through the dispatcher; a failed chunk never affects another.
func (t *Translator) Translate(ctx context.Context, job Job) Phase {
	var out Phase
	var jobs []dispatch.Job[[]Result]
	var sent []chunk.Chunk

	for _, c := range job.Chunks {
		pending := c.Entries[:0:0]
		for _, e := range c.Entries {
			if v, ok := t.cached(ctx, job.Locale, e.Value); ok {
				out.Results = append(out.Results, Result{Key: e.Key, Value: v, Source: e.Value, Locale: job.Locale, Cached: true})
				out.CacheHits++
				continue
			}
			pending = append(pending, e)
		}
		if len(pending) == 0 {
			continue
		}
		c.Entries = pending
		sent = append(sent, c)
		jobs = append(jobs, dispatch.Job[[]Result]{
			Label: c.Label(),
			Run: func(ctx context.Context) ([]Result, error) {
				return t.translateChunk(ctx, job, c)
			},
		})
	}
	if out.CacheHits > 0 {
		t.opts.log("%s: %d entries served from translation memory", job.Locale, out.CacheHits)
	}

	for i, o := range dispatch.RunAll(ctx, t.opts.Dispatcher, jobs) {
		if o.Err != nil {
			t.opts.logError("%s: translation failed: %v", o.Label, o.Err)
			out.Failures = append(out.Failures, Failure{
				Label:    o.Label,
				Keys:     sent[i].Keys(),
				Reason:   Reason(o.Err),
				Err:      o.Err,
				Attempts: o.Attempts,
			})
			continue
		}
		out.Results = append(out.Results, o.Value...)
	}
	return out
}

func (t *Translator) cached(ctx context.Context, locale, source string) (string, bool) {
	if t.opts.Cache == nil {
		return "", false
	}
	return t.opts.Cache.Get(ctx, cache.Key(locale, t.opts.Model, source))
}

func (t *Translator) translateChunk(ctx context.Context, job Job, c chunk.Chunk) ([]Result, error) {
	mapping := make(map[string]string)
	values := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		protected, m := Protect(e.Value)
		values[i] = protected
		for token, orig := range m {
			mapping[token] = orig
		}
	}

	req := provider.Request{
		Model:       t.opts.Model,
		System:      systemPrompt(&t.opts, PromptTranslate, job.Locale, job.LanguageName),
		User:        translatePrompt(t.opts.Glossary, job, c, values),
		Temperature: t.opts.Temperature,
		JSON:        true,
		MaxTokens:   t.opts.MaxTokens,
	}
	t.opts.debug("%s: sending %d entries (~%d tokens) to %s", c.Label(), len(c.Entries), c.EstimatedTokens, req.Model)

	content, err := t.opts.Chat.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	got, err := parseTranslations(content, c.Keys())
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(c.Entries))
	for i, e := range c.Entries {
		results[i] = Result{
			Key:    e.Key,
			Value:  cleanWrapped(Restore(got[e.Key], mapping), e.Value),
			Source: e.Value,
			Locale: job.Locale,
		}
	}
	return results, nil
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
