package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/minios-linux/proptrans/atomicfile"
)

// Report reasons raised by the runner itself. Key-level reasons also come
// from the validate and translate packages.
const (
	ReasonUnsupportedLocale = "unsupported-locale"
	ReasonMissingSource     = "missing-source"
	ReasonLintError         = "lint-error"
	ReasonEncodingError     = "encoding-error"
	ReasonReadError         = "read-error"
	ReasonWriteError        = "write-error"
	ReasonOversized         = "oversized-entry"
	ReasonCancelled         = "cancelled"
	ReasonNoTranslations    = "no-translations"
	ReasonNotResource       = "not-a-resource-file"
)

// Record is one report row. Key is empty for file-level records.
type Record struct {
	File   string `yaml:"file"`
	Reason string `yaml:"reason"`
	Key    string `yaml:"key,omitempty"`
	Detail string `yaml:"detail,omitempty"`
}

func (r Record) String() string {
	var b strings.Builder
	if r.Key != "" {
		fmt.Fprintf(&b, "`%s`: ", r.Key)
	}
	b.WriteString(r.Reason)
	if r.Detail != "" {
		b.WriteString(" (" + r.Detail + ")")
	}
	return b.String()
}

// Report accumulates what was skipped during a run. Notes record things
// worth a look that did not stop a key from being written; they do not make
// the report non-empty. Safe for concurrent use.
type Report struct {
	mu      sync.Mutex
	records []Record
	notes   []Record
}

// Add appends a record.
func (r *Report) Add(rec Record) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Note appends an informational record.
func (r *Report) Note(rec Record) {
	r.mu.Lock()
	r.notes = append(r.notes, rec)
	r.mu.Unlock()
}

// Notes returns the notes sorted by file.
func (r *Report) Notes() []Record {
	r.mu.Lock()
	out := append([]Record(nil), r.notes...)
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// Records returns the records sorted by file, keeping insertion order within
// a file.
func (r *Report) Records() []Record {
	r.mu.Lock()
	out := append([]Record(nil), r.records...)
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// Empty reports whether nothing was skipped.
func (r *Report) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records) == 0
}

// Len returns the number of records.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Markdown renders the report grouped by file, followed by the notes.
func (r *Report) Markdown() string {
	var b strings.Builder
	if recs := r.Records(); len(recs) > 0 {
		b.WriteString("## ⚠️ Translation Pipeline Warnings\n\n")
		b.WriteString("The following files or keys were skipped during the AI translation process. These issues must be addressed manually.\n\n")
		writeGroups(&b, recs)
	}
	if notes := r.Notes(); len(notes) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## ℹ️ Notes\n\n")
		writeGroups(&b, notes)
	}
	return b.String()
}

func writeGroups(b *strings.Builder, recs []Record) {
	current := ""
	for i, rec := range recs {
		if i == 0 || rec.File != current {
			if i > 0 {
				b.WriteString("\n")
			}
			current = rec.File
			fmt.Fprintf(b, "### 📄 `%s`\n", rec.File)
		}
		b.WriteString("- " + rec.String() + "\n")
	}
}

// WriteFile writes the Markdown report to path. When there is nothing to
// say a stale report at path is removed instead.
func (r *Report) WriteFile(path string) error {
	if r.Empty() && len(r.Notes()) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale report: %w", err)
		}
		return nil
	}
	return atomicfile.WriteFile(path, []byte(r.Markdown()), 0644)
}
