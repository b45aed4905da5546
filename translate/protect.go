package translate

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// protectedPattern matches HTML-like tags and brace placeholders.
var protectedPattern = regexp.MustCompile(`<[^<>]+>|\{[^{}]+\}`)

// Protect replaces every tag and brace placeholder in s with a unique
// __PH_<hex>__ token and returns the token mapping.
func Protect(s string) (string, map[string]string) {
	mapping := make(map[string]string)
	out := protectedPattern.ReplaceAllStringFunc(s, func(m string) string {
		token := "__PH_" + strings.ReplaceAll(uuid.NewString(), "-", "") + "__"
		mapping[token] = m
		return token
	})
	return out, mapping
}

// Restore puts the original text back for every token in mapping.
func Restore(s string, mapping map[string]string) string {
	if len(mapping) == 0 {
		return s
	}
	pairs := make([]string, 0, 2*len(mapping))
	for token, orig := range mapping {
		pairs = append(pairs, token, orig)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// cleanWrapped strips quotes or square brackets the model wrapped around
// translated when source is not wrapped the same way.
func cleanWrapped(translated, source string) string {
	for _, p := range [][2]string{{`"`, `"`}, {"[", "]"}} {
		if wrapped(translated, p[0], p[1]) && !wrapped(source, p[0], p[1]) {
			translated = translated[len(p[0]) : len(translated)-len(p[1])]
		}
	}
	return translated
}

func wrapped(s, open, close string) bool {
	return len(s) >= len(open)+len(close) && strings.HasPrefix(s, open) && strings.HasSuffix(s, close)
}
