package translate

import (
	"context"

	"github.com/minios-linux/proptrans/chunk"
	"github.com/minios-linux/proptrans/dispatch"
	"github.com/minios-linux/proptrans/propfile"
	"github.com/minios-linux/proptrans/provider"
)

// ReviewJob is the phase 2 work for one locale file.
type ReviewJob struct {
	Locale       string
	LanguageName string
	Drafts       []Result
	// Budget is the token budget of one review chunk.
	Budget int
}

// Reviewer runs phase 2. Only its output is final.
type Reviewer struct {
	opts Options
}

// NewReviewer returns a Reviewer for opts.
func NewReviewer(opts Options) *Reviewer {
	return &Reviewer{opts: opts.withDefaults()}
}

// Review re-batches the drafts by job.Budget and asks the review model to
// confirm or correct each one. Keys of failed review chunks are returned in
// Failures with ReasonReviewFailed and get no result.
func (r *Reviewer) Review(ctx context.Context, job ReviewJob) Phase {
	drafts := make(map[string]Result, len(job.Drafts))
	entries := make([]propfile.Entry, len(job.Drafts))
	for i, d := range job.Drafts {
		drafts[d.Key] = d
		// Both texts go into the request, so both count against the budget.
		entries[i] = propfile.Entry{Key: d.Key, Value: d.Source + "\n" + d.Value}
	}

	chunks := chunk.Split(job.Locale, entries, job.Budget)
	jobs := make([]dispatch.Job[[]Result], len(chunks))
	for i, c := range chunks {
		jobs[i] = dispatch.Job[[]Result]{
			Label: "review:" + c.Label(),
			Run: func(ctx context.Context) ([]Result, error) {
				return r.reviewChunk(ctx, job, c.Keys(), drafts)
			},
		}
	}

	var out Phase
	for i, o := range dispatch.RunAll(ctx, r.opts.Dispatcher, jobs) {
		if o.Err != nil {
			reason := ReasonReviewFailed
			if isCancelled(o.Err) {
				reason = ReasonCancelled
			}
			r.opts.logError("%s: review failed: %v", o.Label, o.Err)
			out.Failures = append(out.Failures, Failure{
				Label:    o.Label,
				Keys:     chunks[i].Keys(),
				Reason:   reason,
				Err:      o.Err,
				Attempts: o.Attempts,
			})
			continue
		}
		out.Results = append(out.Results, o.Value...)
	}
	return out
}

func (r *Reviewer) reviewChunk(ctx context.Context, job ReviewJob, keys []string, drafts map[string]Result) ([]Result, error) {
	batch := make([]Result, len(keys))
	for i, k := range keys {
		batch[i] = drafts[k]
	}

	req := provider.Request{
		Model:       r.opts.ReviewModel,
		System:      systemPrompt(&r.opts, PromptReview, job.Locale, job.LanguageName),
		User:        reviewPrompt(r.opts.Glossary, job.Locale, batch),
		Temperature: r.opts.ReviewTemperature,
		JSON:        true,
		MaxTokens:   r.opts.MaxTokens,
	}
	r.opts.debug("review %s: sending %d drafts to %s", job.Locale, len(batch), req.Model)

	content, err := r.opts.Chat.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	verdicts, err := parseReviews(content, keys)
	if err != nil {
		return nil, err
	}

	corrected := 0
	for i, d := range batch {
		if v := verdicts[d.Key]; v.Corrected {
			batch[i].Value = cleanWrapped(v.Value, d.Source)
			if batch[i].Value != d.Value {
				corrected++
			}
		}
		batch[i].Cached = false
	}
	if corrected > 0 {
		r.opts.debug("review %s: %d of %d drafts corrected", job.Locale, corrected, len(batch))
	}
	return batch, nil
}
