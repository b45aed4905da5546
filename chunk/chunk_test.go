package chunk

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/minios-linux/proptrans/propfile"
)

func entries(values ...string) []propfile.Entry {
	out := make([]propfile.Entry, len(values))
	for i, v := range values {
		out[i] = propfile.Entry{Key: fmt.Sprintf("k%d", i), Value: v}
	}
	return out
}

func TestEstimateTokens(t *testing.T) {
	tests := map[string]int{
		"":      0,
		"a":     1,
		"abcd":  1,
		"abcde": 2,
		"äöü":   2, // 6 bytes
	}
	for in, want := range tests {
		if got := EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSplit_Greedy(t *testing.T) {
	// Each "k0=abcd" is 7 bytes → 2 tokens + 1 = 3.
	in := entries("abcd", "abcd", "abcd", "abcd", "abcd")
	chunks := Split("de", in, 7)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i || c.Locale != "de" {
			t.Errorf("chunk %d: Index=%d Locale=%q", i, c.Index, c.Locale)
		}
		if c.EstimatedTokens > 7 {
			t.Errorf("chunk %d over budget: %d", i, c.EstimatedTokens)
		}
	}
	if diff := cmp.Diff([]string{"k0", "k1"}, chunks[0].Keys()); diff != "" {
		t.Errorf("chunk 0 keys (-want +got):\n%s", diff)
	}
	if chunks[0].Label() != "de#1" {
		t.Errorf("Label() = %q", chunks[0].Label())
	}
}

func TestSplit_Oversized(t *testing.T) {
	in := entries("short", strings.Repeat("x", 100), "short")
	chunks := Split("de", in, 10)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if !chunks[1].Oversized || len(chunks[1].Entries) != 1 {
		t.Errorf("middle chunk = %+v, want one oversized entry", chunks[1])
	}
	if chunks[0].Oversized || chunks[2].Oversized {
		t.Error("regular chunks flagged oversized")
	}
}

func TestSplit_ZeroBudget(t *testing.T) {
	chunks := Split("de", entries("a", "b", "c"), 0)
	if len(chunks) != 1 || len(chunks[0].Entries) != 3 {
		t.Fatalf("got %+v, want one chunk of 3", chunks)
	}
	if Split("de", nil, 10) != nil {
		t.Error("Split of no entries should be nil")
	}
}

func TestFlattenSplitIsIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := r.Intn(30)
		values := make([]string, n)
		for i := range values {
			values[i] = strings.Repeat("w", r.Intn(80))
		}
		in := entries(values...)
		budget := r.Intn(40) - 5

		chunks := Split("fr", in, budget)
		got := Flatten(chunks)
		if len(in) == 0 && len(got) == 0 {
			continue
		}
		if diff := cmp.Diff(in, got); diff != "" {
			t.Fatalf("round %d budget %d: Flatten(Split) mismatch (-want +got):\n%s", round, budget, diff)
		}
		for _, c := range chunks {
			if budget > 0 && !c.Oversized && c.EstimatedTokens > budget {
				t.Fatalf("round %d: chunk over budget: %d > %d", round, c.EstimatedTokens, budget)
			}
			if c.Oversized && len(c.Entries) != 1 {
				t.Fatalf("round %d: oversized chunk has %d entries", round, len(c.Entries))
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]OversizedPolicy{"": OversizedSend, "send": OversizedSend, "skip": OversizedSkip} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("drop"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
