// Package changeset decides which keys of a translation file need work.
//
// A key is queued when its source value changed since the key was last
// translated. Changes are detected through the MD5 checksum of the source
// value recorded in the lock file, never through the translated text, so
// hand edits to a translation are left alone.
package changeset

import (
	"strings"

	"github.com/minios-linux/proptrans/lockfile"
	"github.com/minios-linux/proptrans/propfile"
	"github.com/minios-linux/proptrans/validate"
)

// Snapshot is the lock file view for one translation file. On a first run
// no key has a checksum, so untranslated copies of the source are queued and
// everything else is adopted as already translated.
type Snapshot interface {
	Checksum(key string) (string, bool)
}

// ChangeSet lists the keys of one translation file that need attention.
// Added and Modified are in source order and disjoint; Removed is in
// target order.
type ChangeSet struct {
	Locale   string
	Added    []string
	Modified []string
	Removed  []string
	// Adopt lists keys without a recorded checksum whose existing
	// translation is kept; their checksum is recorded on the next write.
	Adopt []string
}

// Pending returns Added followed by Modified.
func (c ChangeSet) Pending() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	return append(out, c.Modified...)
}

// Empty reports whether nothing needs translating or removing.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// Build computes the change set of target against source. target may be
// nil when the translation file does not exist yet.
//
// Keys with an empty source value are never queued; an empty translation of
// an empty source is already correct.
func Build(locale string, source, target *propfile.File, snap Snapshot) ChangeSet {
	cs := ChangeSet{Locale: locale}
	if target == nil {
		target = propfile.New()
	}

	for _, key := range source.Keys() {
		src, _ := source.Get(key)
		if strings.TrimSpace(src) == "" {
			continue
		}
		val, ok := target.Get(key)
		if !ok || strings.TrimSpace(val) == "" {
			cs.Added = append(cs.Added, key)
			continue
		}

		sum, recorded := snap.Checksum(key)
		switch {
		case recorded && sum != lockfile.Hash(src):
			cs.Modified = append(cs.Modified, key)
		case recorded:
			if !validate.SamePlaceholders(src, val) {
				cs.Modified = append(cs.Modified, key)
			}
		case sameText(src, val):
			// Never translated: a copy of the English text.
			cs.Added = append(cs.Added, key)
		case !validate.SamePlaceholders(src, val):
			cs.Modified = append(cs.Modified, key)
		default:
			cs.Adopt = append(cs.Adopt, key)
		}
	}

	for _, key := range target.Keys() {
		if !source.Has(key) {
			cs.Removed = append(cs.Removed, key)
		}
	}
	return cs
}

func sameText(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
