// Package validate checks model output before it is allowed onto disk.
//
// Checks run in a fixed order and the first failure wins:
//
//  1. empty-value
//  2. placeholder-mismatch
//  3. english-leak (non-English locales only)
//  4. length-exceeded
//  5. encoding
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/minios-linux/proptrans/glossary"
	"github.com/minios-linux/proptrans/langmeta"
	"github.com/minios-linux/proptrans/propfile"
)

// Rejection reasons, as they appear in the report.
const (
	ReasonEmpty       = "empty-value"
	ReasonPlaceholder = "placeholder-mismatch"
	ReasonLeak        = "english-leak"
	ReasonLength      = "length-exceeded"
	ReasonEncoding    = "encoding"
)

// Default length bound: runes(value) <= max(ratio*runes(source), runes(source)+slack).
const (
	DefaultLengthRatio = 3.0
	DefaultLengthSlack = 20
)

// Outcome is the verdict for one translated value.
type Outcome struct {
	Accepted bool
	Reason   string
	Detail   string
}

func accept() Outcome { return Outcome{Accepted: true} }

func reject(reason, format string, args ...any) Outcome {
	return Outcome{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Validator applies the checks. The zero value is not usable; use New.
type Validator struct {
	store *glossary.Store
	ratio float64
	slack int
}

// New returns a Validator. store supplies brand and glossary terms that are
// allowed to stay in English; it may be nil.
func New(store *glossary.Store) *Validator {
	if store == nil {
		store = glossary.Empty()
	}
	return &Validator{store: store, ratio: DefaultLengthRatio, slack: DefaultLengthSlack}
}

// Validate checks value, the translation of source into locale.
func (v *Validator) Validate(value string, source propfile.Entry, locale string) Outcome {
	if strings.TrimSpace(value) == "" {
		return reject(ReasonEmpty, "translation is empty")
	}

	if missing, extra := Diff(Placeholders(source.Value), Placeholders(value)); len(missing)+len(extra) > 0 {
		return reject(ReasonPlaceholder, "missing %v, unexpected %v", missing, extra)
	}

	if langmeta.Base(locale) != "en" {
		if phrase, ok := v.englishLeak(value, source.Value, locale); ok {
			return reject(ReasonLeak, "value still English (%q)", phrase)
		}
	}

	srcLen, valLen := utf8.RuneCountInString(source.Value), utf8.RuneCountInString(value)
	limit := int(v.ratio * float64(srcLen))
	if srcLen+v.slack > limit {
		limit = srcLen + v.slack
	}
	if valLen > limit {
		return reject(ReasonLength, "%d runes, limit %d", valLen, limit)
	}

	if propfile.HasEncodingDamage(value) && !propfile.HasEncodingDamage(source.Value) {
		return reject(ReasonEncoding, "mojibake or replacement character in translation")
	}

	return accept()
}

// ---------------------------------------------------------------------------
// Placeholders
// ---------------------------------------------------------------------------

// placeholderRE matches MessageFormat/named arguments and printf verbs
// (%s, %1$d, %-10.2f, %tY). Doubled %% is removed before matching.
var placeholderRE = regexp.MustCompile(`\{[^{}]+\}|%(?:\d+\$)?[-#+0,(]*\d*(?:\.\d+)?(?:[tT][a-zA-Z]|[bBhHsScCdoxXeEfgGaAn])`)

// Placeholders returns the placeholder tokens of s in order of appearance.
func Placeholders(s string) []string {
	return placeholderRE.FindAllString(strings.ReplaceAll(s, "%%", ""), -1)
}

// Diff compares two placeholder multisets and returns the tokens missing
// from got and the tokens got has in excess, both sorted.
func Diff(want, got []string) (missing, extra []string) {
	counts := make(map[string]int)
	for _, p := range want {
		counts[p]++
	}
	for _, p := range got {
		counts[p]--
	}
	for p, n := range counts {
		for ; n > 0; n-- {
			missing = append(missing, p)
		}
		for ; n < 0; n++ {
			extra = append(extra, p)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

// SamePlaceholders reports whether a and b carry the same placeholder multiset.
func SamePlaceholders(a, b string) bool {
	missing, extra := Diff(Placeholders(a), Placeholders(b))
	return len(missing) == 0 && len(extra) == 0
}
