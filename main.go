// proptrans keeps Java .properties translations in sync with their English
// source files using an LLM translate-and-review pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/proptrans/cache"
	"github.com/minios-linux/proptrans/changeset"
	"github.com/minios-linux/proptrans/config"
	"github.com/minios-linux/proptrans/dispatch"
	"github.com/minios-linux/proptrans/i18n"
	"github.com/minios-linux/proptrans/langmeta"
	"github.com/minios-linux/proptrans/lockfile"
	"github.com/minios-linux/proptrans/pipeline"
	"github.com/minios-linux/proptrans/propfile"
	"github.com/minios-linux/proptrans/provider"
	"github.com/minios-linux/proptrans/settings"
	"github.com/minios-linux/proptrans/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// logMu keeps log lines from interleaving with the progress bar.
var logMu sync.Mutex

func logLine(color, tag, format string, args ...any) {
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprintf(os.Stderr, color+tag+colorReset+" "+format+"\n", args...)
}

func logInfo(format string, args ...any) {
	logLine(colorBlue, "[INFO]", format, args...)
}

func logSuccess(format string, args ...any) {
	logLine(colorGreen, "[OK]", format, args...)
}

func logWarning(format string, args ...any) {
	logLine(colorYellow, "[WARN]", format, args...)
}

func logError(format string, args ...any) {
	logLine(colorRed, "[ERROR]", format, args...)
}

// errStrict is returned by translate --strict when entries were skipped.
var errStrict = errors.New("entries were skipped")

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var configPath string

func loadConfig() (*config.Config, error) {
	path := config.Find(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf(i18n.T("no configuration found at %s (use --config or PROPTRANS_CONFIG)"), path)
		}
		return nil, err
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "proptrans",
		Short: i18n.T("Translate Java .properties files with an LLM"),
		Long: `proptrans keeps the translations of Java .properties files in sync
with their English source files.

New and changed keys are drafted by a model, reviewed by a second pass,
validated (placeholders, key sets, untranslated English, length) and
written back atomically. Everything that could not be translated is
listed in a Markdown report.

Commands:
  translate   Translate new and changed keys
  status      Show per-locale translation progress
  lint        Check .properties files for syntax and encoding problems
  auth        Manage the model API key
  version     Show version information

Configuration is read from --config, $PROPTRANS_CONFIG or ./proptrans.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", i18n.T("Config file (default: $PROPTRANS_CONFIG or ./proptrans.yaml)"))

	root.AddCommand(
		newTranslateCmd(),
		newStatusCmd(),
		newLintCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errStrict) {
			logError("%v", err)
		}
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "proptrans version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
			fmt.Fprintf(out, "  messages:  %s (available: en, %s)\n", i18n.Language(), strings.Join(i18n.Languages(), ", "))
		},
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	dryRun     bool
	langs      string
	model      string
	filter     string
	checkpoint string
	verbose    bool
	strict     bool
	noCache    bool
}

// addTranslateFlags registers the flags that override config values.
func addTranslateFlags(flags *pflag.FlagSet, a *translateArgs) {
	flags.BoolVar(&a.dryRun, "dry-run", false, i18n.T("Run every phase but write nothing"))
	flags.StringVar(&a.langs, "lang", "", i18n.T("Only these locales (comma-separated)"))
	flags.StringVar(&a.model, "model", "", i18n.T("Model name (overrides model_name)"))
	flags.StringVar(&a.filter, "filter", "", i18n.T("Translation file glob (overrides translation_file_filter_glob)"))
	flags.StringVar(&a.checkpoint, "checkpoint", "", i18n.T("Checkpoint file for resuming interrupted runs"))
	flags.BoolVar(&a.verbose, "verbose", false, i18n.T("Enable detailed logging"))
	flags.BoolVar(&a.strict, "strict", false, i18n.T("Exit with an error when anything was skipped"))
	flags.BoolVar(&a.noCache, "no-cache", false, i18n.T("Disable the translation memory"))
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs
	cmd := &cobra.Command{
		Use:   "translate [files...]",
		Short: i18n.T("Translate new and changed keys"),
		Long: `Translate new and changed keys of the translation files under the
input folder, or only of the files given as arguments.

Examples:
  # Translate everything that changed
  proptrans translate

  # Only German and Brazilian Portuguese, without touching any file
  proptrans translate --lang de,pt_BR --dry-run

  # Files reported as changed by version control
  proptrans translate $(git diff --name-only -- '*.properties')`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := applyTranslateArgs(cfg, a); err != nil {
				return err
			}
			key, source, err := settings.APIKey()
			if err != nil {
				return err
			}
			if a.verbose {
				logInfo(i18n.T("Using API key from %s"), source)
			}
			baseURL := cfg.OpenAIBaseURL
			if baseURL == "" {
				baseURL = settings.GetBaseURL(settings.DefaultProvider)
			}
			chat := provider.NewOpenAI(provider.OpenAIConfig{APIKey: key, BaseURL: baseURL})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)
			go func() {
				if _, ok := <-sigCh; ok {
					logWarning(i18n.T("Interrupted, finishing in-flight work..."))
					cancel()
				}
			}()

			return runTranslate(ctx, cfg, chat, a, args)
		},
	}
	addTranslateFlags(cmd.Flags(), &a)
	_ = cmd.RegisterFlagCompletionFunc("lang", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var out []string
		for _, l := range cfg.SupportedLocales {
			out = append(out, l.Code+"\t"+l.Name)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// applyTranslateArgs applies command-line overrides to cfg.
func applyTranslateArgs(cfg *config.Config, a translateArgs) error {
	if a.dryRun {
		cfg.DryRun = true
	}
	if a.model != "" {
		if cfg.ReviewModelName == cfg.ModelName {
			cfg.ReviewModelName = a.model
		}
		cfg.ModelName = a.model
	}
	if a.filter != "" {
		cfg.TranslationFileFilterGlob = a.filter
	}
	if a.checkpoint != "" {
		cfg.CheckpointPath = a.checkpoint
	}
	if a.noCache {
		cfg.Cache = config.Cache{}
	}
	if a.langs != "" {
		want := strings.Split(a.langs, ",")
		codes := intersectLanguages(cfg.LocaleCodes(), want)
		if len(codes) == 0 {
			return fmt.Errorf(i18n.T("none of --lang %s is in supported_locales (%s)"), a.langs, strings.Join(cfg.LocaleCodes(), ", "))
		}
		keep := make(map[string]bool, len(codes))
		for _, c := range codes {
			keep[c] = true
		}
		var locales []config.Locale
		for _, l := range cfg.SupportedLocales {
			if keep[l.Code] {
				locales = append(locales, l)
			}
		}
		cfg.SupportedLocales = locales
	}
	return nil
}

// pipelineOptions maps the configuration onto the runner's options.
func pipelineOptions(cfg *config.Config, chat provider.Chat, mem cache.Cache, prompts *translate.PromptsConfig, verbose bool) pipeline.Options {
	locales := make([]pipeline.Locale, len(cfg.SupportedLocales))
	for i, l := range cfg.SupportedLocales {
		locales[i] = pipeline.Locale{Code: l.Code, Name: l.Name}
	}
	d := dispatch.New(dispatch.Options{
		MaxConcurrent: cfg.MaxConcurrentAPICalls,
		Retry: dispatch.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			MaxDelay:    cfg.MaxDelay,
			Jitter:      cfg.BaseDelay,
		},
		RequestsPerMinute: cfg.RequestsPerMinute,
		RequestTimeout:    cfg.RequestTimeout,
		OnLog:             logWarning,
	})
	return pipeline.Options{
		InputFolder:        cfg.InputFolder,
		ArchiveFolder:      cfg.ArchiveFolder,
		LockPath:           cfg.LockFile,
		CheckpointPath:     cfg.CheckpointPath,
		GlossaryPath:       cfg.GlossaryFilePath,
		StyleRules:         cfg.StyleRules,
		BrandTerms:         cfg.BrandTechnicalGlossary,
		Locales:            locales,
		FilterGlob:         cfg.TranslationFileFilterGlob,
		ChunkBudget:        cfg.ChunkTokenBudget,
		ReviewBudget:       cfg.ReviewTokenBudget,
		Oversized:          cfg.Oversized(),
		ContextExamples:    *cfg.ContextExamples,
		ContextTokenBudget: cfg.ContextTokenBudget,
		DryRun:             cfg.DryRun,
		Translate: translate.Options{
			Chat:              chat,
			Dispatcher:        d,
			Model:             cfg.ModelName,
			ReviewModel:       cfg.ReviewModelName,
			Temperature:       cfg.Temperature,
			ReviewTemperature: cfg.ReviewTemperature,
			MaxTokens:         cfg.MaxTokens,
			Prompts:           prompts,
			Cache:             mem,
		},
		OnLog:   logInfo,
		OnError: logError,
		Verbose: verbose,
	}
}

func runTranslate(ctx context.Context, cfg *config.Config, chat provider.Chat, a translateArgs, files []string) error {
	prompts, promptsPath, err := translate.LoadPromptsFromDefaultLocations()
	if err != nil {
		logWarning(i18n.T("Could not load prompts, using built-in ones: %v"), err)
	} else if a.verbose && promptsPath != "" {
		logInfo(i18n.T("Prompts: %s"), promptsPath)
	}

	mem, err := cache.New(ctx, cache.Config{
		Enabled:   cfg.Cache.Enabled,
		RedisURL:  cfg.Cache.RedisURL,
		TTL:       cfg.Cache.TTL,
		KeyPrefix: cfg.Cache.KeyPrefix,
	})
	if err != nil {
		// The translation memory is an optimization; run without it.
		logWarning(i18n.T("Translation memory unavailable: %v"), err)
		mem = nil
	}
	if c, ok := mem.(io.Closer); ok {
		defer c.Close()
	}

	opts := pipelineOptions(cfg, chat, mem, prompts, a.verbose)
	var bar *progressbar.ProgressBar
	if !a.verbose {
		opts.OnProgress = func(done, total int) {
			logMu.Lock()
			defer logMu.Unlock()
			if bar == nil {
				bar = newProgressBar(total)
			}
			_ = bar.Set(done)
		}
	}

	if cfg.DryRun {
		logInfo(i18n.T("Dry run: no files will be written"))
	}
	res, err := pipeline.New(opts).Run(ctx, files)
	if bar != nil {
		_ = bar.Finish()
	}
	cancelled := errors.Is(err, pipeline.ErrCancelled)
	if err != nil && !cancelled {
		return err
	}

	printSummary(res)
	if cfg.DryRun {
		if !res.Report.Empty() || len(res.Report.Notes()) > 0 {
			fmt.Fprint(os.Stderr, "\n"+res.Report.Markdown())
		}
	} else if err := res.Report.WriteFile(cfg.ReportPath); err != nil {
		logError(i18n.T("Writing report: %v"), err)
	} else if !res.Report.Empty() {
		logWarning(i18n.T("Report written to %s"), cfg.ReportPath)
	}

	if cancelled {
		logWarning(i18n.T("Translation interrupted, partial progress saved"))
		return nil
	}
	if a.strict && !res.Report.Empty() {
		logError(i18n.N("%d entry skipped", "%d entries skipped", res.Report.Len()), res.Report.Len())
		return errStrict
	}
	logSuccess(i18n.T("Translation complete!"))
	return nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]"+i18n.T("files")+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionClearOnFinish(),
	)
}

func printSummary(res *pipeline.Result) {
	var written, translated, skipped int
	for _, f := range res.Files {
		translated += f.Translated
		if f.Written {
			written++
		}
		if f.Status == pipeline.StatusSkipped {
			skipped++
		}
	}
	logInfo(i18n.T("Run %s: %d file(s), %d written, %d key(s) translated, %d model call(s)"),
		res.RunID, len(res.Files), written, translated, res.Calls)
	if res.Retries > 0 {
		logInfo(i18n.N("%d call retried", "%d calls retried", res.Retries), res.Retries)
	}
	if skipped > 0 {
		logWarning(i18n.N("%d file skipped", "%d files skipped", skipped), skipped)
	}
	if n := len(res.IntendedWrites); n > 0 {
		logInfo(i18n.N("%d value would be written", "%d values would be written", n), n)
	}
}

// ---------------------------------------------------------------------------
// status (read-only)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show per-locale translation progress"),
		Long: `Show the configured locales, the translation files found under the
input folder and how many keys are translated or waiting for the next run.
Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runStatus(os.Stderr, cfg)
		},
	}
}

// localeStatus aggregates the translation files of one locale.
type localeStatus struct {
	Code       string
	Name       string
	Files      int
	Keys       int
	Translated int
	Pending    int
}

func (s localeStatus) Percent() int {
	if s.Keys == 0 {
		return 100
	}
	return s.Translated * 100 / s.Keys
}

// collectStatus reads every translation file of a configured locale.
// Pending counts keys the next run would send to the model.
func collectStatus(cfg *config.Config) ([]localeStatus, *config.Detected, *lockfile.LockFile, error) {
	detected, err := config.Detect(cfg.InputFolder, cfg.ArchiveFolder)
	if err != nil {
		return nil, nil, nil, err
	}
	lock, err := lockfile.Load(cfg.LockFile)
	if err != nil {
		return nil, nil, nil, err
	}

	byCode := make(map[string]*localeStatus)
	var out []*localeStatus
	for _, l := range cfg.SupportedLocales {
		s := &localeStatus{Code: l.Code, Name: l.Name}
		byCode[l.Code] = s
		out = append(out, s)
	}

	codes := cfg.LocaleCodes()
	for _, rel := range detected.Sources {
		srcPath := filepath.Join(cfg.InputFolder, filepath.FromSlash(rel))
		src, err := propfile.ParseFile(srcPath)
		if err != nil {
			continue
		}
		for _, code := range codes {
			p := propfile.LocalePath(srcPath, code)
			if !fileExists(p) {
				continue
			}
			target, err := propfile.ParseFile(p)
			if err != nil {
				continue
			}
			s := byCode[code]
			relTarget, _ := filepath.Rel(cfg.InputFolder, p)
			cs := changeset.Build(code, src, target, lock.Snapshot(lockfile.TargetKey(filepath.ToSlash(relTarget))))
			s.Files++
			s.Keys += src.Len()
			for _, k := range src.Keys() {
				if v, ok := target.Get(k); ok && v != "" {
					s.Translated++
				}
			}
			s.Pending += len(cs.Pending())
		}
	}

	res := make([]localeStatus, len(out))
	for i, s := range out {
		res[i] = *s
	}
	return res, detected, lock, nil
}

func runStatus(w io.Writer, cfg *config.Config) error {
	stats, detected, lock, err := collectStatus(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Project"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Config:"), cfg.Path)
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Input:"), cfg.InputFolder)
	fmt.Fprintf(w, "  %-12s %d\n", i18n.T("Sources:"), len(detected.Sources))
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Model:"), cfg.ModelName)
	if cfg.ReviewModelName != cfg.ModelName {
		fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Review:"), cfg.ReviewModelName)
	}
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Lock file:"), lock.Summary())
	fmt.Fprintln(w)

	codes := make([]string, len(stats))
	for i, s := range stats {
		codes[i] = s.Code
	}
	width := langColumnWidth(codes)

	fmt.Fprintf(w, "%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, s := range stats {
		fmt.Fprintf(w, "%s  %s %5d/%-5d  %s\n",
			langCell(s.Code, width), progressBar(s.Percent(), 20), s.Translated, s.Keys,
			fmt.Sprintf(i18n.N("%d pending", "%d pending", s.Pending), s.Pending))
	}
	fmt.Fprintln(w)

	if extra := detected.Unconfigured(cfg); len(extra) > 0 {
		logWarning(i18n.T("Locales found but not configured (will be reported as unsupported): %s"), strings.Join(extra, ", "))
	}
	return nil
}

// progressBar renders percent as a colored bar of width cells.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	return color + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + colorReset + fmt.Sprintf(" %3d%%", percent)
}

// flagFromRegion returns the flag emoji of a two-letter region code.
func flagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	region = strings.ToUpper(region)
	var b strings.Builder
	for _, c := range region {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}

// langFlag returns the flag of a locale's region, if it has one.
func langFlag(code string) string {
	c := langmeta.Canonicalize(code)
	_, region, ok := strings.Cut(c, "-")
	if !ok {
		return ""
	}
	return flagFromRegion(region)
}

func langColumnWidth(codes []string) int {
	w := 0
	for _, c := range codes {
		w = max(w, utf8.RuneCountInString(c))
	}
	return w
}

func langCell(code string, width int) string {
	cell := fmt.Sprintf("%-*s", width, code)
	if f := langFlag(code); f != "" {
		return f + " " + cell
	}
	return "   " + cell
}

// intersectLanguages keeps the entries of available named in filter, in
// filter order.
func intersectLanguages(available, filter []string) []string {
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[a] = true
	}
	var out []string
	for _, f := range filter {
		f = strings.TrimSpace(f)
		if have[f] {
			out = append(out, f)
			delete(have, f)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// lint
// ---------------------------------------------------------------------------

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [files...]",
		Short: i18n.T("Check .properties files for syntax and encoding problems"),
		Long: `Check .properties files for malformed keys, invalid escape sequences
and encoding damage. Without arguments every file under the input folder
is checked. Files with problems are skipped by 'translate'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if files, err = propertiesFiles(cfg.InputFolder, cfg.ArchiveFolder); err != nil {
					return err
				}
			}
			n, err := lintFiles(os.Stderr, files)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf(i18n.N("%d problem found", "%d problems found", n), n)
			}
			logSuccess(i18n.N("%d file checked, no problems", "%d files checked, no problems", len(files)), len(files))
			return nil
		},
	}
}

func propertiesFiles(dir, skip string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && skip != "" && p == skip {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(p, ".properties") {
			out = append(out, p)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

// lintFiles prints the problems of every file and returns their count.
func lintFiles(w io.Writer, files []string) (int, error) {
	total := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return total, err
		}
		issues := append(propfile.CheckEncoding(data), propfile.Lint(data)...)
		for _, is := range issues {
			fmt.Fprintf(w, "%s:%s\n", f, is)
		}
		total += len(issues)
	}
	return total, nil
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage the model API key"),
		Long: `Manage the API key of the OpenAI-compatible endpoint.

The key is looked up in this order:
  OPENAI_API_KEY      environment variable
  PROPTRANS_API_KEY   environment variable
  auth.json           stored by 'proptrans auth set-key'

Examples:
  proptrans auth set-key sk-...
  proptrans auth set-key --base-url http://localhost:11434/v1 ollama
  proptrans auth status
  proptrans auth remove`,
	}
	cmd.AddCommand(newAuthSetKeyCmd(), newAuthStatusCmd(), newAuthRemoveCmd())
	return cmd
}

func newAuthSetKeyCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "set-key KEY",
		Short: i18n.T("Store the API key"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return errors.New(i18n.T("no API key provided"))
			}
			if err := settings.SetAPIKey(settings.DefaultProvider, key, baseURL); err != nil {
				return fmt.Errorf(i18n.T("saving API key: %w"), err)
			}
			logSuccess(i18n.T("API key saved to %s"), settings.FilePath())
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", i18n.T("Custom OpenAI-compatible endpoint"))
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"list", "ls"},
		Short:   i18n.T("Show where the API key comes from"),
		Run: func(cmd *cobra.Command, args []string) {
			printAuthStatus(os.Stderr)
		},
	}
}

func printAuthStatus(w io.Writer) {
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Credentials"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, env := range []string{"OPENAI_API_KEY", "PROPTRANS_API_KEY"} {
		if v := os.Getenv(env); v != "" {
			fmt.Fprintf(w, "  %-18s %s%s%s\n", env, colorGreen, settings.MaskKey(v), colorReset)
		} else {
			fmt.Fprintf(w, "  %-18s %s%s%s\n", env, colorRed, i18n.T("not set"), colorReset)
		}
	}
	if info := settings.Get(settings.DefaultProvider); info != nil && info.Key != "" {
		fmt.Fprintf(w, "  %-18s %s%s%s\n", "auth.json", colorGreen, settings.MaskKey(info.Key), colorReset)
		if info.BaseURL != "" {
			fmt.Fprintf(w, "  %-18s %s\n", "", info.BaseURL)
		}
	} else {
		fmt.Fprintf(w, "  %-18s %s%s%s\n", "auth.json", colorRed, i18n.T("not configured"), colorReset)
	}
	if _, source, err := settings.APIKey(); err == nil {
		fmt.Fprintf(w, "\n  %s %s\n\n", i18n.T("In use:"), source)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", err)
	}
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove",
		Aliases: []string{"logout"},
		Short:   i18n.T("Remove the stored API key"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Remove(settings.DefaultProvider); err != nil {
				return fmt.Errorf(i18n.T("removing API key: %w"), err)
			}
			logSuccess(i18n.T("Stored API key removed"))
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
