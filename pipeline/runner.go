// Package pipeline drives a translation run: it scans the input folder,
// builds a change set per translation file, sends pending keys through the
// translate and review phases, validates the results and writes accepted
// values back atomically. Everything that could not be translated ends up
// in the Report.
//
// Failures below the file level (a chunk, a key) are recorded and the run
// goes on. Precondition failures (missing input folder, bad locale code,
// unreadable glossary or lock file) abort the run before any work starts.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/minios-linux/proptrans/atomicfile"
	"github.com/minios-linux/proptrans/cache"
	"github.com/minios-linux/proptrans/changeset"
	"github.com/minios-linux/proptrans/chunk"
	"github.com/minios-linux/proptrans/glossary"
	"github.com/minios-linux/proptrans/langmeta"
	"github.com/minios-linux/proptrans/lockfile"
	"github.com/minios-linux/proptrans/propfile"
	"github.com/minios-linux/proptrans/translate"
	"github.com/minios-linux/proptrans/validate"
)

// ErrCancelled is returned by Run when the context was cancelled before
// every file finished. The Result is still returned.
var ErrCancelled = errors.New("run cancelled")

// Locale is a supported target locale.
type Locale struct {
	Code string
	Name string // human-readable; resolved from the code when empty
}

// Options configures a Runner.
type Options struct {
	InputFolder    string
	ArchiveFolder  string // empty disables archiving
	LockPath       string
	CheckpointPath string // empty disables checkpoints

	GlossaryPath string
	StyleRules   map[string][]string
	BrandTerms   []string

	Locales    []Locale
	FilterGlob string

	ChunkBudget        int
	ReviewBudget       int // 0 means 4 * ChunkBudget
	Oversized          chunk.OversizedPolicy
	ContextExamples    int
	ContextTokenBudget int

	// FileWorkers bounds how many files are processed at once. Model calls
	// are bounded separately by the dispatcher. Default 4.
	FileWorkers int

	DryRun bool

	// Translate configures both phases. Glossary is set by the runner.
	Translate translate.Options

	OnLog      func(format string, args ...any)
	OnError    func(format string, args ...any)
	OnProgress func(done, total int)
	Verbose    bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// IntendedWrite is a value a dry run would have written.
type IntendedWrite struct {
	File  string
	Key   string
	Value string
}

// FileResult summarizes one file of a run.
type FileResult struct {
	File       string
	Locale     string
	Status     Status
	Translated int // accepted keys
	Removed    int
	Rejected   int // keys reported for this file
	Written    bool
}

// Result is the outcome of a run.
type Result struct {
	RunID          string
	Files          []FileResult
	Report         *Report
	IntendedWrites []IntendedWrite
	// Calls is the number of model calls made, retries included.
	Calls   int
	Retries int
}

// Runner executes one run. Create it with New and call Run once.
type Runner struct {
	opts Options

	queue      *Queue
	report     *Report
	lock       *lockfile.LockFile
	lockDirty  atomic.Bool
	checkpoint *Checkpoint
	translator *translate.Translator
	reviewer   *translate.Reviewer
	validator  *validate.Validator

	mu       sync.Mutex
	files    map[string]*FileResult
	intended []IntendedWrite
}

// New returns a Runner for opts.
func New(opts Options) *Runner {
	if opts.ReviewBudget <= 0 {
		opts.ReviewBudget = 4 * opts.ChunkBudget
	}
	if opts.FileWorkers <= 0 {
		opts.FileWorkers = 4
	}
	if opts.Oversized == "" {
		opts.Oversized = chunk.OversizedSend
	}
	if opts.LockPath == "" {
		opts.LockPath = filepath.Join(opts.InputFolder, lockfile.LockFileName)
	}
	return &Runner{
		opts:   opts,
		queue:  NewQueue(),
		report: &Report{},
		files:  make(map[string]*FileResult),
	}
}

// Queue exposes the per-file states, e.g. for progress display.
func (r *Runner) Queue() *Queue { return r.queue }

// fileTask is one translation file found by the scan.
type fileTask struct {
	rel    string // relative to the input folder, slash separated
	abs    string
	source string // absolute path of the source-language file
	locale Locale
}

// Run processes files, or every translation file under the input folder
// when files is empty.
func (r *Runner) Run(ctx context.Context, files []string) (*Result, error) {
	if err := r.setup(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	if r.checkpoint != nil && r.checkpoint.RunID != "" {
		runID = r.checkpoint.RunID
		r.opts.log("resuming run %s from %s", runID, r.opts.CheckpointPath)
	}
	if r.checkpoint != nil {
		r.checkpoint.RunID = runID
	}

	tasks, err := r.scan(files)
	if err != nil {
		return nil, err
	}
	r.opts.log("%d translation file(s) to check", len(tasks))
	if d := r.opts.Translate.Dispatcher; d != nil && r.opts.Verbose {
		r.opts.log("up to %d concurrent model call(s)", d.Limit())
	}

	var done atomic.Int64
	runParallel(ctx, tasks, r.opts.FileWorkers, func(ctx context.Context, t fileTask) {
		r.processFile(ctx, t)
		if r.opts.OnProgress != nil {
			r.opts.OnProgress(int(done.Add(1)), len(tasks))
		}
	})

	cancelled := ctx.Err() != nil
	for _, t := range tasks {
		if s, _ := r.queue.Status(t.rel); !s.Terminal() {
			r.skipFile(t, ReasonCancelled, "run cancelled before the file was processed")
		}
	}

	if err := r.finish(cancelled); err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Report: r.report, IntendedWrites: r.intended}
	if d := r.opts.Translate.Dispatcher; d != nil {
		res.Calls = d.Calls()
		res.Retries = d.Retries()
	}
	for _, t := range tasks {
		res.Files = append(res.Files, *r.files[t.rel])
	}
	sort.Slice(res.IntendedWrites, func(i, j int) bool {
		a, b := res.IntendedWrites[i], res.IntendedWrites[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Key < b.Key
	})
	if cancelled {
		return res, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	}
	return res, nil
}

// setup checks the preconditions and loads the run's shared state.
func (r *Runner) setup() error {
	fi, err := os.Stat(r.opts.InputFolder)
	if err != nil {
		return fmt.Errorf("input folder: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("input folder %s is not a directory", r.opts.InputFolder)
	}
	if len(r.opts.Locales) == 0 {
		return errors.New("no supported locales configured")
	}
	for _, l := range r.opts.Locales {
		if !langmeta.Valid(l.Code) {
			return fmt.Errorf("invalid locale code %q", l.Code)
		}
	}
	if r.opts.FilterGlob != "" {
		if _, err := path.Match(r.opts.FilterGlob, ""); err != nil {
			return fmt.Errorf("invalid translation file filter %q: %w", r.opts.FilterGlob, err)
		}
	}

	store, err := glossary.Load(r.opts.GlossaryPath)
	if err != nil {
		return err
	}
	store = store.WithStyle(r.opts.StyleRules).WithBrand(r.opts.BrandTerms)

	if r.lock, err = lockfile.Load(r.opts.LockPath); err != nil {
		return err
	}
	if r.opts.CheckpointPath != "" {
		if r.checkpoint, err = LoadCheckpoint(r.opts.CheckpointPath); err != nil {
			return err
		}
	}

	topts := r.opts.Translate
	topts.Glossary = store
	if topts.OnLog == nil {
		topts.OnLog = r.opts.OnLog
	}
	if topts.OnError == nil {
		topts.OnError = r.opts.OnError
	}
	topts.Verbose = topts.Verbose || r.opts.Verbose
	r.translator = translate.NewTranslator(topts)
	r.reviewer = translate.NewReviewer(topts)
	r.validator = validate.New(store)
	return nil
}

// finish persists the lock file and the checkpoint.
func (r *Runner) finish(cancelled bool) error {
	if r.opts.DryRun {
		return nil
	}
	if !cancelled {
		r.pruneLock()
	}
	if r.lockDirty.Load() {
		if err := r.lock.Save(); err != nil {
			return fmt.Errorf("saving lock file: %w", err)
		}
	}
	if r.checkpoint == nil {
		return nil
	}
	if !cancelled && r.report.Empty() {
		return r.checkpoint.Remove()
	}
	return r.checkpoint.Save()
}

// pruneLock drops lock targets whose translation file is gone.
func (r *Runner) pruneLock() {
	for _, target := range r.lock.Targets() {
		if _, err := os.Stat(filepath.Join(r.opts.InputFolder, filepath.FromSlash(target))); os.IsNotExist(err) {
			r.lock.RemoveTarget(target)
			r.lockDirty.Store(true)
			r.opts.log("%s: translation file removed, dropping its lock entries", target)
		}
	}
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

func (r *Runner) codes() []string {
	out := make([]string, len(r.opts.Locales))
	for i, l := range r.opts.Locales {
		out[i] = l.Code
	}
	return out
}

func (r *Runner) locale(code string) Locale {
	for _, l := range r.opts.Locales {
		if l.Code == code {
			if l.Name == "" {
				l.Name = langmeta.Resolve(code).Name
			}
			return l
		}
	}
	return Locale{Code: code, Name: langmeta.Resolve(code).Name}
}

// scan resolves the files to process. Files rejected here are reported and
// marked skipped. A source-language file given explicitly stands for its
// translation files; found while walking, it is ignored.
func (r *Runner) scan(files []string) ([]fileTask, error) {
	root, err := filepath.Abs(r.opts.InputFolder)
	if err != nil {
		return nil, err
	}

	var paths []string
	if len(files) == 0 {
		if paths, err = r.walk(root); err != nil {
			return nil, err
		}
	} else {
		for _, f := range files {
			abs := f
			if !filepath.IsAbs(f) {
				if _, err := os.Stat(f); err == nil {
					abs, _ = filepath.Abs(f)
				} else {
					abs = filepath.Join(root, f)
				}
			}
			paths = append(paths, filepath.Clean(abs))
		}
	}

	explicit := len(files) > 0
	seen := make(map[string]bool)
	var tasks []fileTask
	// paths grows while scanning: explicit source files append their
	// translation files.
	for i := 0; i < len(paths); i++ {
		abs := paths[i]
		rel, err := filepath.Rel(root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			r.opts.logError("ignoring %s: outside the input folder", abs)
			r.report.Add(Record{File: filepath.ToSlash(abs), Reason: ReasonNotResource, Detail: "outside the input folder"})
			continue
		}
		rel = filepath.ToSlash(rel)
		if seen[rel] {
			continue
		}
		seen[rel] = true
		if !strings.HasSuffix(rel, ".properties") {
			if explicit {
				r.report.Add(Record{File: rel, Reason: ReasonNotResource, Detail: "not a .properties file"})
			}
			continue
		}

		code, ok := propfile.MatchLocale(abs, r.codes())
		if !ok && (!propfile.IsLocaleFile(abs) || !exists(propfile.SourcePath(abs))) {
			if !explicit {
				continue
			}
			found := r.translationsOf(abs)
			if len(found) == 0 {
				r.report.Add(Record{File: rel, Reason: ReasonNoTranslations, Detail: "no translation file for any configured locale"})
				r.opts.logError("%s: no translation file for any configured locale", rel)
			}
			paths = append(paths, found...)
			continue
		}
		if !r.matchFilter(rel) {
			if explicit {
				r.opts.log("%s: excluded by %s", rel, r.opts.FilterGlob)
			}
			continue
		}

		t := fileTask{rel: rel, abs: abs, source: propfile.SourcePath(abs)}
		if !ok {
			detected, _ := propfile.LocaleFromFilename(abs)
			r.queue.Add(rel)
			r.skipFile(t, ReasonUnsupportedLocale, fmt.Sprintf("locale %q is not configured", detected))
			continue
		}
		t.locale = r.locale(code)
		t.source = strings.TrimSuffix(abs, "_"+code+".properties") + ".properties"
		r.queue.Add(rel)
		r.setFile(t, func(*FileResult) {})
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].rel < tasks[j].rel })
	return tasks, nil
}

// translationsOf returns the existing translation files of src, one per
// configured locale.
func (r *Runner) translationsOf(src string) []string {
	var out []string
	for _, code := range r.codes() {
		if p := propfile.LocalePath(src, code); exists(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Runner) walk(root string) ([]string, error) {
	archive := ""
	if r.opts.ArchiveFolder != "" {
		archive, _ = filepath.Abs(r.opts.ArchiveFolder)
	}
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == archive {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(p, ".properties") {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return out, nil
}

// matchFilter applies the filter glob to the base name, or to the relative
// path when the glob contains a slash.
func (r *Runner) matchFilter(rel string) bool {
	glob := r.opts.FilterGlob
	if glob == "" {
		return true
	}
	target := path.Base(rel)
	if strings.Contains(glob, "/") {
		target = rel
	}
	ok, _ := path.Match(glob, target)
	return ok
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// ---------------------------------------------------------------------------
// Bookkeeping
// ---------------------------------------------------------------------------

func (r *Runner) setFile(t fileTask, fn func(*FileResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fr := r.files[t.rel]
	if fr == nil {
		fr = &FileResult{File: t.rel, Locale: t.locale.Code, Status: StatusScanning}
		r.files[t.rel] = fr
	}
	fn(fr)
}

func (r *Runner) advance(t fileTask, to Status) {
	if err := r.queue.Advance(t.rel, to); err != nil {
		r.opts.logError("%v", err)
		return
	}
	r.setFile(t, func(fr *FileResult) { fr.Status = to })
	if r.opts.Verbose {
		r.opts.log("%s: %s", t.rel, to)
	}
}

func (r *Runner) record(t fileTask, reason, key, detail string) {
	r.report.Add(Record{File: t.rel, Reason: reason, Key: key, Detail: detail})
	if key != "" {
		r.setFile(t, func(fr *FileResult) { fr.Rejected++ })
	}
}

func (r *Runner) skipFile(t fileTask, reason, detail string) {
	r.record(t, reason, "", detail)
	r.advance(t, StatusSkipped)
	r.opts.logError("%s: skipped (%s): %s", t.rel, reason, detail)
}

// errDetail keeps the first line of an error for the report.
func errDetail(err error) string {
	s, _, _ := strings.Cut(err.Error(), "\n")
	return s
}

// ---------------------------------------------------------------------------
// Per-file processing
// ---------------------------------------------------------------------------

func (r *Runner) processFile(ctx context.Context, t fileTask) {
	original, err := os.ReadFile(t.abs)
	if err != nil {
		r.skipFile(t, ReasonReadError, errDetail(err))
		return
	}
	if !exists(t.source) {
		r.skipFile(t, ReasonMissingSource, filepath.Base(t.source)+" not found")
		return
	}
	if issues := propfile.CheckEncoding(original); len(issues) > 0 {
		for _, is := range issues {
			r.record(t, ReasonEncodingError, is.Key, is.String())
		}
		r.skipFile(t, ReasonEncodingError, fmt.Sprintf("%d encoding issue(s)", len(issues)))
		return
	}
	if issues := propfile.Lint(original); len(issues) > 0 {
		for _, is := range issues {
			r.record(t, ReasonLintError, is.Key, is.String())
		}
		r.skipFile(t, ReasonLintError, fmt.Sprintf("%d linter issue(s)", len(issues)))
		return
	}

	target, err := propfile.Parse(original)
	if err != nil {
		r.skipFile(t, ReasonReadError, errDetail(err))
		return
	}
	source, err := propfile.ParseFile(t.source)
	if err != nil {
		r.skipFile(t, ReasonMissingSource, errDetail(err))
		return
	}

	lockKey := lockfile.TargetKey(t.rel)
	snap := r.lock.Snapshot(lockKey)
	cs := changeset.Build(t.locale.Code, source, target, snap)
	pending := cs.Pending()
	if !snap.Known() && len(cs.Adopt) > 0 {
		r.opts.log("%s: first run, adopting %d existing translation(s)", t.rel, len(cs.Adopt))
	}
	if !cs.Empty() {
		r.opts.log("%s: %d added, %d modified, %d removed", t.rel, len(cs.Added), len(cs.Modified), len(cs.Removed))
	}

	work := target.Clone()
	added, _ := propfile.SyncKeys(source, work)

	var accepted []translate.Result
	if len(pending) > 0 {
		accepted = r.translateFile(ctx, t, source, target, pending)
	}

	ok := make(map[string]bool, len(accepted))
	for _, res := range accepted {
		work.Set(res.Key, propfile.EscapeMessageFormat(res.Source, res.Value))
		ok[res.Key] = true
	}
	failed := make(map[string]bool)
	for _, k := range pending {
		if !ok[k] {
			failed[k] = true
		}
	}
	// A key that could not be translated keeps its prior state, absence included.
	for _, k := range added {
		if failed[k] {
			work.Delete(k)
		}
	}

	r.setFile(t, func(fr *FileResult) {
		fr.Translated = len(accepted)
		fr.Removed = len(cs.Removed)
	})

	data, err := work.Marshal()
	if err != nil {
		r.skipFile(t, ReasonWriteError, errDetail(err))
		return
	}
	changed := !bytes.Equal(data, original)

	if r.opts.DryRun {
		r.dryRun(t, accepted, cs.Removed)
		r.advance(t, StatusDone)
		return
	}

	r.advance(t, StatusWriting)
	if changed {
		perm := os.FileMode(0644)
		if fi, err := os.Stat(t.abs); err == nil {
			perm = fi.Mode().Perm()
		}
		if err := atomicfile.WriteFile(t.abs, data, perm); err != nil {
			r.skipFile(t, ReasonWriteError, errDetail(err))
			return
		}
		r.setFile(t, func(fr *FileResult) { fr.Written = true })
		r.opts.log("%s: wrote %d translation(s)", t.rel, len(accepted))
	}
	r.updateLock(lockKey, source, work, failed)
	r.remember(ctx, t, accepted)

	if changed && r.opts.ArchiveFolder != "" {
		r.advance(t, StatusArchiving)
		dest := filepath.Join(r.opts.ArchiveFolder, filepath.FromSlash(t.rel))
		if err := atomicfile.WriteFile(dest, original, 0644); err != nil {
			r.opts.logError("%s: archiving failed: %v", t.rel, err)
		}
	}
	r.advance(t, StatusDone)
	// Drafts of keys that failed stay in the checkpoint for the next run.
	if r.checkpoint != nil && len(failed) == 0 {
		r.checkpoint.SetStatus(t.rel, StatusDone)
	}
}

// translateFile runs chunking through validating for the pending keys and
// returns the accepted results. Everything else is reported.
func (r *Runner) translateFile(ctx context.Context, t fileTask, source, target *propfile.File, pending []string) []translate.Result {
	r.advance(t, StatusChunking)

	sources := source.SourceValues()
	var reused []translate.Result
	if r.checkpoint != nil {
		drafts := r.checkpoint.Drafts(t.rel, sources)
		for _, k := range pending {
			if v, ok := drafts[k]; ok {
				reused = append(reused, translate.Result{Key: k, Value: v, Source: sources[k], Locale: t.locale.Code, Cached: true})
			}
		}
		if len(reused) > 0 {
			r.opts.log("%s: reusing %d draft(s) from checkpoint", t.rel, len(reused))
		}
	}
	have := make(map[string]bool, len(reused))
	for _, d := range reused {
		have[d.Key] = true
	}

	var entries []propfile.Entry
	for _, k := range pending {
		if !have[k] {
			entries = append(entries, propfile.Entry{Key: k, Value: sources[k]})
		}
	}
	var send []chunk.Chunk
	for _, c := range chunk.Split(t.locale.Code, entries, r.opts.ChunkBudget) {
		if c.Oversized {
			detail := fmt.Sprintf("~%d tokens exceeds the chunk budget of %d", c.EstimatedTokens, r.opts.ChunkBudget)
			if r.opts.Oversized == chunk.OversizedSkip {
				r.record(t, ReasonOversized, c.Entries[0].Key, detail+"; not sent")
				continue
			}
			r.report.Note(Record{File: t.rel, Reason: ReasonOversized, Key: c.Entries[0].Key, Detail: detail + "; sent alone"})
		}
		send = append(send, c)
	}

	r.advance(t, StatusTranslating)
	skip := make(map[string]bool, len(pending))
	for _, k := range pending {
		skip[k] = true
	}
	p1 := r.translator.Translate(ctx, translate.Job{
		Locale:       t.locale.Code,
		LanguageName: t.locale.Name,
		Chunks:       send,
		Examples:     translate.Examples(source, target, skip, r.opts.ContextExamples, r.opts.ContextTokenBudget),
	})
	r.recordFailures(t, p1.Failures)
	drafts := append(reused, p1.Results...)

	if r.checkpoint != nil && !r.opts.DryRun {
		m := make(map[string]string, len(drafts))
		for _, d := range drafts {
			m[d.Key] = d.Value
		}
		r.checkpoint.SetDrafts(t.rel, m, sources)
		r.checkpoint.SetStatus(t.rel, StatusReviewing)
		if err := r.checkpoint.Save(); err != nil {
			r.opts.logError("saving checkpoint: %v", err)
		}
	}

	r.advance(t, StatusReviewing)
	var reviewed []translate.Result
	if len(drafts) > 0 {
		p2 := r.reviewer.Review(ctx, translate.ReviewJob{
			Locale:       t.locale.Code,
			LanguageName: t.locale.Name,
			Drafts:       drafts,
			Budget:       r.opts.ReviewBudget,
		})
		r.recordFailures(t, p2.Failures)
		reviewed = p2.Results
	}

	r.advance(t, StatusValidating)
	var accepted []translate.Result
	for _, res := range reviewed {
		out := r.validator.Validate(res.Value, propfile.Entry{Key: res.Key, Value: res.Source}, t.locale.Code)
		if !out.Accepted {
			r.record(t, out.Reason, res.Key, out.Detail)
			continue
		}
		accepted = append(accepted, res)
	}
	return accepted
}

func (r *Runner) recordFailures(t fileTask, failures []translate.Failure) {
	for _, f := range failures {
		detail := errDetail(f.Err)
		if f.Reason == translate.ReasonReviewFailed {
			detail = translate.Reason(f.Err) + ": " + detail
		}
		for _, k := range f.Keys {
			r.record(t, f.Reason, k, detail)
		}
	}
}

func (r *Runner) dryRun(t fileTask, accepted []translate.Result, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range accepted {
		r.opts.log("would write %s %s", t.rel, res.Key)
		r.intended = append(r.intended, IntendedWrite{File: t.rel, Key: res.Key, Value: res.Value})
	}
	for _, k := range removed {
		r.opts.log("would remove %s %s", t.rel, k)
	}
}

// updateLock records the source checksum of every key whose translation is
// current. Keys that failed keep their old checksum so the next run retries
// them.
func (r *Runner) updateLock(lockKey string, source, work *propfile.File, failed map[string]bool) {
	sums := make(map[string]string)
	for _, e := range source.Entries() {
		if failed[e.Key] || e.Value == "" {
			continue
		}
		if v, ok := work.Get(e.Key); ok && v != "" {
			sums[e.Key] = e.Value
		}
	}
	r.lock.UpdateBatch(lockKey, sums)
	r.lock.Clean(lockKey, source.Keys())
	r.lockDirty.Store(true)
}

// remember stores accepted translations in the translation memory.
func (r *Runner) remember(ctx context.Context, t fileTask, accepted []translate.Result) {
	c := r.opts.Translate.Cache
	if c == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	model := r.opts.Translate.Model
	for _, res := range accepted {
		if err := c.Set(ctx, cache.Key(t.locale.Code, model, res.Source), res.Value); err != nil {
			r.opts.logError("translation memory: %v", err)
			return
		}
	}
}

// runParallel runs fn for every task with at most n at once. Tasks not yet
// started when ctx is done are not run.
func runParallel[T any](ctx context.Context, tasks []T, n int, fn func(context.Context, T)) {
	if n <= 0 {
		n = 1
	}
	sem := make(chan struct{}, n)
	var wg sync.WaitGroup
	for _, task := range tasks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(t T) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(ctx, t)
		}(task)
	}
	wg.Wait()
}
