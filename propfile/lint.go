package propfile

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Issue is a problem found by Lint or CheckEncoding.
type Issue struct {
	Line    int // 1-based; 0 when not tied to a line
	Key     string
	Message string
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("line %d: %s", i.Line, i.Message)
	}
	return i.Message
}

var (
	// mojibake: UTF-8 text decoded as Latin-1/CP1252 ("Ã¼" for "ü").
	mojibake = regexp.MustCompile(`Ã[\x{80}-\x{FF}]`)
)

// Lint checks raw .properties content for malformed keys and invalid
// escape sequences.
func Lint(data []byte) []Issue {
	var issues []Issue
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
			continue
		}
		if !strings.ContainsAny(trimmed, "=:") {
			continue
		}
		key, value := splitKeyValue(trimmed)
		if strings.Contains(key, "..") {
			issues = append(issues, Issue{Line: i + 1, Key: key,
				Message: fmt.Sprintf("malformed key %q with double dots", key)})
		}
		if hasContinuation(value) {
			value = value[:len(value)-1]
		}
		if hasInvalidEscape(value) {
			issues = append(issues, Issue{Line: i + 1, Key: key,
				Message: fmt.Sprintf("invalid escape sequence in value for key %q", key)})
		}
	}
	return issues
}

// hasInvalidEscape reports a backslash that is not followed by one of
// t n f r \ = : # ! " space, or by u and four hex digits.
func hasInvalidEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			continue
		}
		if i+1 >= len(s) {
			return true
		}
		i++
		switch s[i] {
		case 't', 'n', 'f', 'r', '\\', '=', ':', '#', '!', '"', ' ':
		case 'u':
			if i+5 > len(s) {
				return true
			}
			for _, c := range s[i+1 : i+5] {
				if !isHex(c) {
					return true
				}
			}
			i += 4
		default:
			return true
		}
	}
	return false
}

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// CheckEncoding reports content that is not valid UTF-8, contains typical
// mojibake sequences, or contains the U+FFFD replacement character.
func CheckEncoding(data []byte) []Issue {
	if !utf8.Valid(data) {
		return []Issue{{Message: "not a valid UTF-8 file"}}
	}
	var issues []Issue
	text := string(data)
	if mojibake.MatchString(text) {
		issues = append(issues, Issue{Message: "potential mojibake detected (patterns like 'Ã¼', 'Ã¤')"})
	}
	if strings.ContainsRune(text, utf8.RuneError) {
		issues = append(issues, Issue{Message: "contains the Unicode replacement character (U+FFFD)"})
	}
	return issues
}

// HasEncodingDamage reports whether a single value shows mojibake or a
// replacement character.
func HasEncodingDamage(s string) bool {
	return mojibake.MatchString(s) || strings.ContainsRune(s, utf8.RuneError)
}

var messageFormatArg = regexp.MustCompile(`\{[^{}]+\}`)

// EscapeMessageFormat doubles single quotes in value when source is a
// java.text.MessageFormat pattern (contains {..} arguments). Quotes that
// are already doubled are normalised first so the result is stable.
func EscapeMessageFormat(source, value string) string {
	if !messageFormatArg.MatchString(source) {
		return value
	}
	value = strings.ReplaceAll(value, "''", "'")
	return strings.ReplaceAll(value, "'", "''")
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
