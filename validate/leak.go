package validate

import (
	"regexp"
	"strings"
)

// functionWords are common English words that rarely survive a real
// translation. Two or more in an untranslated value mark it as a leak.
var functionWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "for": true, "with": true, "is": true,
	"are": true, "was": true, "be": true, "this": true, "that": true, "your": true,
	"you": true, "not": true, "from": true, "by": true, "at": true, "it": true,
	"please": true, "can": true, "will": true, "have": true, "has": true,
}

// stopPhrases are English UI phrases that must not appear in a translation
// unless the source had them too.
var stopPhrases = []string{
	"please enter",
	"please select",
	"are you sure",
	"click here",
	"do you want to",
	"try again",
	"not found",
	"is required",
	"you must",
	"failed to",
}

var wordRE = regexp.MustCompile(`[A-Za-z']+`)

// englishLeak reports whether value looks like untranslated English text.
// Brand terms and glossary terms that translate to themselves are removed
// from both strings first.
func (v *Validator) englishLeak(value, source, locale string) (string, bool) {
	val := strings.ToLower(v.stripProtected(value, locale))
	src := strings.ToLower(v.stripProtected(source, locale))

	if strings.TrimSpace(val) == strings.TrimSpace(src) {
		n := 0
		for _, w := range wordRE.FindAllString(src, -1) {
			if functionWords[w] {
				n++
			}
		}
		if n >= 2 {
			return strings.TrimSpace(value), true
		}
	}

	for _, p := range stopPhrases {
		if strings.Contains(val, p) && strings.Contains(src, p) {
			return p, true
		}
	}
	return "", false
}

func (v *Validator) stripProtected(s, locale string) string {
	for _, b := range v.store.Brand() {
		s = replaceFold(s, b)
	}
	for src, dst := range v.store.Terms(locale) {
		if strings.EqualFold(src, dst) {
			s = replaceFold(s, src)
		}
	}
	return s
}

// replaceFold removes every case-insensitive occurrence of term from s.
func replaceFold(s, term string) string {
	if term == "" {
		return s
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
	return re.ReplaceAllString(s, " ")
}
