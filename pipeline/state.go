package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// Status is the state of one translation file within a run.
type Status string

const (
	StatusScanning    Status = "scanning"
	StatusChunking    Status = "chunking"
	StatusTranslating Status = "translating"
	StatusReviewing   Status = "reviewing"
	StatusValidating  Status = "validating"
	StatusWriting     Status = "writing"
	StatusArchiving   Status = "archiving"
	StatusDone        Status = "done"
	StatusSkipped     Status = "skipped"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusSkipped
}

// transitions lists the legal forward moves. Any non-terminal state may also
// move to StatusSkipped.
var transitions = map[Status][]Status{
	StatusScanning:    {StatusChunking, StatusWriting, StatusDone},
	StatusChunking:    {StatusTranslating},
	StatusTranslating: {StatusReviewing},
	StatusReviewing:   {StatusValidating},
	StatusValidating:  {StatusWriting, StatusDone},
	StatusWriting:     {StatusArchiving, StatusDone},
	StatusArchiving:   {StatusDone},
}

func legal(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusSkipped {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Queue tracks the state of every file of a run. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	status map[string]Status
	order  []string
}

// NewQueue returns a queue with files in StatusScanning.
func NewQueue(files ...string) *Queue {
	q := &Queue{status: make(map[string]Status)}
	for _, f := range files {
		q.Add(f)
	}
	return q
}

// Add enqueues file in StatusScanning. Adding a known file is a no-op.
func (q *Queue) Add(file string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.status[file]; ok {
		return
	}
	q.status[file] = StatusScanning
	q.order = append(q.order, file)
}

// Status returns the state of file.
func (q *Queue) Status(file string) (Status, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.status[file]
	return s, ok
}

// Advance moves file to state to, rejecting illegal transitions.
func (q *Queue) Advance(file string, to Status) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	from, ok := q.status[file]
	if !ok {
		return fmt.Errorf("unknown file %s", file)
	}
	if !legal(from, to) {
		return fmt.Errorf("%s: illegal transition %s → %s", file, from, to)
	}
	q.status[file] = to
	return nil
}

// MustAdvance is Advance that panics on an illegal transition.
func (q *Queue) MustAdvance(file string, to Status) {
	if err := q.Advance(file, to); err != nil {
		panic(err)
	}
}

// Files returns the files in the order they were added.
func (q *Queue) Files() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.order...)
}

// Counts returns the number of files per state.
func (q *Queue) Counts() map[Status]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[Status]int)
	for _, s := range q.status {
		out[s]++
	}
	return out
}

// Snapshot returns file → state, sorted by file for stable output.
func (q *Queue) Snapshot() map[string]Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]Status, len(q.status))
	for f, s := range q.status {
		out[f] = s
	}
	return out
}

// Pending returns the files not yet in a terminal state, sorted.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []string
	for f, s := range q.status {
		if !s.Terminal() {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
