// Package glossary holds the per-locale term glossary, the per-locale style
// rules and the global list of brand terms that must never be translated.
//
// The glossary file is a two-level JSON object:
//
//	{
//	  "de": {"Trade": "Handel", "Offer": "Angebot"},
//	  "pt_BR": {"Trade": "Negociação"}
//	}
//
// A Store is read-only once built and safe for concurrent use.
package glossary

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/minios-linux/proptrans/langmeta"
)

// Term is one glossary entry for a locale.
type Term struct {
	Source string `json:"term"`
	Target string `json:"translation"`
}

// Store is the loaded glossary plus style rules and brand terms.
type Store struct {
	terms map[string]map[string]string // locale -> term -> translation
	style map[string][]string
	brand []string
}

// Empty returns a store with no terms, rules or brand terms.
func Empty() *Store {
	return &Store{
		terms: make(map[string]map[string]string),
		style: make(map[string][]string),
	}
}

// Load reads the glossary JSON file at path. An empty path gives an empty
// store. A missing file or invalid JSON is an error.
func Load(path string) (*Store, error) {
	s := Empty()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading glossary: %w", err)
	}
	if err := json.Unmarshal(data, &s.terms); err != nil {
		return nil, fmt.Errorf("parsing glossary %s: %w", path, err)
	}
	if s.terms == nil {
		s.terms = make(map[string]map[string]string)
	}
	return s, nil
}

// WithStyle returns a copy of s carrying the given style rules.
func (s *Store) WithStyle(rules map[string][]string) *Store {
	c := *s
	c.style = make(map[string][]string, len(rules))
	for loc, r := range rules {
		c.style[loc] = append([]string(nil), r...)
	}
	return &c
}

// WithBrand returns a copy of s carrying terms as brand terms,
// deduplicated with their first-seen order kept.
func (s *Store) WithBrand(terms []string) *Store {
	c := *s
	c.brand = nil
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		c.brand = append(c.brand, t)
	}
	return &c
}

// lookup resolves locale exactly, then in canonical form, then by base
// language.
func lookup[V any](m map[string]V, locale string) (V, bool) {
	if v, ok := m[locale]; ok {
		return v, true
	}
	canon := langmeta.Canonicalize(locale)
	for k, v := range m {
		if langmeta.Canonicalize(k) == canon {
			return v, true
		}
	}
	base := langmeta.Base(locale)
	for k, v := range m {
		if langmeta.Canonicalize(k) == base {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Terms returns the glossary for locale. The map must not be modified.
func (s *Store) Terms(locale string) map[string]string {
	t, _ := lookup(s.terms, locale)
	return t
}

// Subset returns the glossary terms for locale that occur in any of texts,
// matched case-insensitively and sorted by term.
func (s *Store) Subset(locale string, texts ...string) []Term {
	terms := s.Terms(locale)
	if len(terms) == 0 {
		return nil
	}
	lowered := make([]string, len(texts))
	for i, t := range texts {
		lowered[i] = strings.ToLower(t)
	}
	var out []Term
	for src, dst := range terms {
		needle := strings.ToLower(src)
		if needle == "" {
			continue
		}
		for _, t := range lowered {
			if strings.Contains(t, needle) {
				out = append(out, Term{Source: src, Target: dst})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Style returns the style rules for locale in configured order.
func (s *Store) Style(locale string) []string {
	r, _ := lookup(s.style, locale)
	return r
}

// Brand returns the brand terms.
func (s *Store) Brand() []string {
	return s.brand
}

// Locales returns the locales present in the glossary file, sorted.
func (s *Store) Locales() []string {
	out := make([]string, 0, len(s.terms))
	for loc := range s.terms {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}
