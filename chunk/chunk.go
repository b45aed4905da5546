// Package chunk splits entries into token-budgeted batches, one model call
// each. Splitting is greedy and keeps source order; an entry is never split.
package chunk

import (
	"fmt"

	"github.com/minios-linux/proptrans/propfile"
)

// BytesPerToken is the divisor of the token estimate.
const BytesPerToken = 4

// Chunk is one batch of entries for a single model call.
type Chunk struct {
	Locale          string
	Index           int // position within its split, starting at 0
	Entries         []propfile.Entry
	EstimatedTokens int
	// Oversized marks a single entry that alone exceeds the budget.
	Oversized bool
}

// Keys returns the keys of the chunk's entries in order.
func (c Chunk) Keys() []string {
	keys := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Label identifies the chunk in logs and reports.
func (c Chunk) Label() string {
	return fmt.Sprintf("%s#%d", c.Locale, c.Index+1)
}

// OversizedPolicy decides what happens to oversized chunks.
type OversizedPolicy string

const (
	// OversizedSend sends the entry alone and notes it in the report.
	OversizedSend OversizedPolicy = "send"
	// OversizedSkip never sends the entry and reports it.
	OversizedSkip OversizedPolicy = "skip"
)

// ParsePolicy validates a policy name. Empty means OversizedSend.
func ParsePolicy(s string) (OversizedPolicy, error) {
	switch OversizedPolicy(s) {
	case "", OversizedSend:
		return OversizedSend, nil
	case OversizedSkip:
		return OversizedSkip, nil
	}
	return "", fmt.Errorf("unknown oversized entry policy %q (want send or skip)", s)
}

// EstimateTokens returns ceil(utf8 bytes / BytesPerToken). It is a cheap
// proxy, not a tokenizer.
func EstimateTokens(s string) int {
	return (len(s) + BytesPerToken - 1) / BytesPerToken
}

// Cost is the estimated token cost of one entry, including its separator
// and a newline.
func Cost(e propfile.Entry) int {
	return EstimateTokens(e.Key+"="+e.Value) + 1
}

// Split packs entries greedily into chunks of at most budget estimated
// tokens. A budget <= 0 yields a single chunk.
func Split(locale string, entries []propfile.Entry, budget int) []Chunk {
	if len(entries) == 0 {
		return nil
	}
	if budget <= 0 {
		total := 0
		for _, e := range entries {
			total += Cost(e)
		}
		return []Chunk{{Locale: locale, Entries: entries, EstimatedTokens: total}}
	}

	var (
		chunks []Chunk
		cur    []propfile.Entry
		sum    int
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, Chunk{Locale: locale, Index: len(chunks), Entries: cur, EstimatedTokens: sum})
		cur, sum = nil, 0
	}

	for _, e := range entries {
		c := Cost(e)
		if c > budget {
			flush()
			chunks = append(chunks, Chunk{
				Locale:          locale,
				Index:           len(chunks),
				Entries:         []propfile.Entry{e},
				EstimatedTokens: c,
				Oversized:       true,
			})
			continue
		}
		if sum+c > budget {
			flush()
		}
		cur = append(cur, e)
		sum += c
	}
	flush()
	return chunks
}

// Flatten concatenates the entries of chunks in order. For any entries and
// budget, Flatten(Split(l, entries, budget)) equals entries.
func Flatten(chunks []Chunk) []propfile.Entry {
	var out []propfile.Entry
	for _, c := range chunks {
		out = append(out, c.Entries...)
	}
	return out
}
