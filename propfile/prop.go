// Package propfile implements reading and writing of Java .properties files.
//
// Format: key=value (or key: value) pairs, one per logical line. Lines
// starting with '#' or '!' are comments and are preserved verbatim, as are
// blank lines. A value ending in an odd number of backslashes continues on
// the next physical line; continuation lines are joined on read.
//
// File naming convention: the source file carries no locale suffix, each
// translation carries one:
//
//	i18n/messages.properties        (source, English)
//	i18n/messages_de.properties     (German)
//	i18n/messages_pt_BR.properties  (Portuguese, Brazil)
//
// The File type keeps the original line order, and entries that were never
// modified are written back byte-for-byte, so a parse/marshal round trip
// of an untouched file reproduces it exactly.
package propfile

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/minios-linux/proptrans/atomicfile"
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// lineKind classifies each line in the file.
type lineKind int

const (
	lineBlank   lineKind = iota // blank / whitespace-only line
	lineComment                 // comment line (starts with # or !)
	lineEntry                   // key=value pair, possibly spanning several physical lines
)

// line is a single logical line in the properties file.
type line struct {
	kind  lineKind
	raw   string // original text, continuation lines joined with "\n"
	key   string // only for lineEntry
	value string // only for lineEntry; may be replaced by Set
	dirty bool   // value changed since parse; raw is stale
}

// File represents a parsed .properties file.
type File struct {
	// lines stores all lines in document order.
	lines []line
	// index maps key → index in lines for fast lookup.
	index map[string]int
}

// Entry is a key/value pair together with the comment block directly
// above it (without the leading '#' or '!').
type Entry struct {
	Key     string
	Value   string
	Comment string
}

// New returns an empty File.
func New() *File {
	return &File{index: make(map[string]int)}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a .properties file from disk.
func ParseFile(path string) (*File, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse parses .properties content from a byte slice.
func Parse(data []byte) (*File, error) {
	f := New()

	text := string(data)
	// Normalise Windows line endings.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	rawLines := strings.Split(text, "\n")

	// Drop trailing empty element from a file that ends with \n.
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	for i := 0; i < len(rawLines); i++ {
		raw := rawLines[i]
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			f.lines = append(f.lines, line{kind: lineBlank, raw: raw})

		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!"):
			f.lines = append(f.lines, line{kind: lineComment, raw: raw})

		default:
			k, v := splitKeyValue(strings.TrimLeft(raw, " \t\f"))
			physical := []string{raw}
			for hasContinuation(v) && i+1 < len(rawLines) {
				i++
				physical = append(physical, rawLines[i])
				v = v[:len(v)-1] + strings.TrimLeft(rawLines[i], " \t\f")
			}
			if hasContinuation(v) {
				// Continuation on the last line of the file.
				v = v[:len(v)-1]
			}
			if k == "" {
				// Malformed line: keep it verbatim as a comment.
				f.lines = append(f.lines, line{kind: lineComment, raw: strings.Join(physical, "\n")})
				continue
			}
			if idx, exists := f.index[k]; exists {
				// Duplicate key: last value wins, first position is kept.
				f.lines[idx].value = v
				f.lines[idx].dirty = true
				continue
			}
			f.index[k] = len(f.lines)
			f.lines = append(f.lines, line{
				kind:  lineEntry,
				raw:   strings.Join(physical, "\n"),
				key:   k,
				value: v,
			})
		}
	}

	return f, nil
}

// splitKeyValue splits "key = value" or "key=value" into key and value.
// The separator is the first unescaped '=' or ':'. Whitespace around the
// key and before the value is stripped; trailing whitespace of the value
// is significant and kept.
func splitKeyValue(s string) (key, value string) {
	escaped := false
	for i, ch := range s {
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '=' || ch == ':':
			return strings.TrimSpace(s[:i]), strings.TrimLeft(s[i+1:], " \t\f")
		}
	}
	// No separator: the whole line is a key with an empty value.
	return strings.TrimSpace(s), ""
}

// hasContinuation reports whether s ends with an odd number of backslashes.
func hasContinuation(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Keys returns all translation keys in document order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.index))
	for _, ln := range f.lines {
		if ln.kind == lineEntry {
			keys = append(keys, ln.key)
		}
	}
	return keys
}

// Entries returns all entries in document order.
func (f *File) Entries() []Entry {
	entries := make([]Entry, 0, len(f.index))
	var comment []string
	for _, ln := range f.lines {
		switch ln.kind {
		case lineComment:
			c := strings.TrimSpace(ln.raw)
			comment = append(comment, strings.TrimSpace(c[1:]))
		case lineBlank:
			comment = nil
		case lineEntry:
			entries = append(entries, Entry{Key: ln.key, Value: ln.value, Comment: strings.Join(comment, "\n")})
			comment = nil
		}
	}
	return entries
}

// Len returns the number of entries.
func (f *File) Len() int {
	return len(f.index)
}

// Has reports whether key exists.
func (f *File) Has(key string) bool {
	_, ok := f.index[key]
	return ok
}

// Get returns the value for key and whether it was found.
func (f *File) Get(key string) (string, bool) {
	if idx, ok := f.index[key]; ok {
		return f.lines[idx].value, true
	}
	return "", false
}

// Set sets the value for an existing key. Returns true on success,
// false if the key does not exist.
func (f *File) Set(key, value string) bool {
	idx, ok := f.index[key]
	if !ok {
		return false
	}
	if f.lines[idx].value != value {
		f.lines[idx].value = value
		f.lines[idx].dirty = true
	}
	return true
}

// Add appends a new entry at the end of the file. If the key already
// exists its value is replaced in place.
func (f *File) Add(key, value string) {
	if f.Set(key, value) {
		return
	}
	f.index[key] = len(f.lines)
	f.lines = append(f.lines, line{kind: lineEntry, key: key, value: value, dirty: true})
}

// insertAfter inserts a new entry directly after the entry for prev. An
// empty prev inserts before the first entry; an unknown prev appends.
func (f *File) insertAfter(prev, key, value string) {
	pos := -1
	if prev == "" {
		for i, ln := range f.lines {
			if ln.kind == lineEntry {
				pos = i - 1
				break
			}
		}
	} else if idx, ok := f.index[prev]; ok {
		pos = idx
	}
	if pos < 0 && (prev != "" || len(f.index) == 0) {
		f.Add(key, value)
		return
	}
	ln := line{kind: lineEntry, key: key, value: value, dirty: true}
	rest := append([]line{ln}, f.lines[pos+1:]...)
	f.lines = append(f.lines[:pos+1], rest...)
	f.reindex()
}

// Delete removes key. Comments above it are left in place.
func (f *File) Delete(key string) bool {
	idx, ok := f.index[key]
	if !ok {
		return false
	}
	f.lines = append(f.lines[:idx], f.lines[idx+1:]...)
	f.reindex()
	return true
}

func (f *File) reindex() {
	f.index = make(map[string]int, len(f.index))
	for i, ln := range f.lines {
		if ln.kind == lineEntry {
			f.index[ln.key] = i
		}
	}
}

// Stats returns (total, translated, percentTranslated) for this file.
func (f *File) Stats() (int, int, float64) {
	total, translated := 0, 0
	for _, ln := range f.lines {
		if ln.kind == lineEntry {
			total++
			if ln.value != "" {
				translated++
			}
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(translated) / float64(total) * 100
	}
	return total, translated, pct
}

// SourceValues returns a map of key → value for use as translation source.
func (f *File) SourceValues() map[string]string {
	m := make(map[string]string, len(f.index))
	for _, ln := range f.lines {
		if ln.kind == lineEntry {
			m[ln.key] = ln.value
		}
	}
	return m
}

// Clone returns a deep copy of f.
func (f *File) Clone() *File {
	c := &File{
		lines: make([]line, len(f.lines)),
		index: make(map[string]int, len(f.index)),
	}
	copy(c.lines, f.lines)
	for k, v := range f.index {
		c.index[k] = v
	}
	return c
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the file back to .properties format.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	for _, ln := range f.lines {
		switch ln.kind {
		case lineBlank, lineComment:
			buf.WriteString(ln.raw)
		case lineEntry:
			if ln.dirty || ln.raw == "" {
				buf.WriteString(formatEntry(ln))
			} else {
				buf.WriteString(ln.raw)
			}
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// wrapWidth is the column at which a rewritten continued entry is broken.
const wrapWidth = 80

// formatEntry renders a changed entry. An entry that spanned several
// physical lines in the input is wrapped again.
func formatEntry(ln line) string {
	v := strings.ReplaceAll(ln.value, "\n", `\n`)
	if hasContinuation(v) {
		// A lone trailing backslash would join the next line on read.
		v += `\`
	}
	if !strings.Contains(ln.raw, "\n") {
		return ln.key + "=" + v
	}
	return wrap(ln.key+"=", v, wrapWidth)
}

// wrap breaks v after spaces into backslash-continued lines of about width
// columns. Continuation lines are indented by four spaces, which the
// reader strips; a break never precedes whitespace, so no space is lost.
func wrap(prefix, v string, width int) string {
	var b strings.Builder
	b.WriteString(prefix)
	col := utf8.RuneCountInString(prefix)
	for i, w := range strings.SplitAfter(v, " ") {
		n := utf8.RuneCountInString(w)
		if i > 0 && n > 0 && col+n > width && !strings.ContainsRune(" \t\f", rune(w[0])) {
			b.WriteString("\\\n    ")
			col = 4
		}
		b.WriteString(w)
		col += n
	}
	return b.String()
}

// WriteFile serialises f and replaces path atomically: the content goes to
// a temporary file in the same directory which is then renamed over path.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, data, 0644)
}

// ---------------------------------------------------------------------------
// Sync (align target keys with source)
// ---------------------------------------------------------------------------

// SyncKeys ensures target has the same keys as src. Keys missing from
// target are inserted with an empty value after their nearest preceding
// source key; keys absent from src are removed. Existing translations,
// comments and layout of target are kept. Returns the added and removed keys.
func SyncKeys(src, target *File) (added, removed []string) {
	for _, k := range target.Keys() {
		if !src.Has(k) {
			target.Delete(k)
			removed = append(removed, k)
		}
	}

	prev := ""
	for _, k := range src.Keys() {
		if !target.Has(k) {
			target.insertAfter(prev, k, "")
			added = append(added, k)
		}
		prev = k
	}
	return added, removed
}
