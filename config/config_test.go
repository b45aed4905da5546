package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/proptrans/chunk"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const minimal = "input_folder: i18n\n" +
	"supported_locales:\n" +
	"  - code: de\n" +
	"  - code: pt_BR\n" +
	"    name: Brazilian Portuguese\n"

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("REVIEW_MODEL_NAME", "")
	t.Setenv("TRANSLATION_FILTER_GLOB", "")
	dir := t.TempDir()
	c, err := Load(writeConfig(t, dir, minimal))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	input := filepath.Join(dir, "i18n")
	checks := []struct {
		name      string
		got, want any
	}{
		{"InputFolder", c.InputFolder, input},
		{"ArchiveFolder", c.ArchiveFolder, filepath.Join(input, "archive")},
		{"LockFile", c.LockFile, filepath.Join(input, "proptrans.lock")},
		{"ReportPath", c.ReportPath, filepath.Join(dir, DefaultReportPath)},
		{"ModelName", c.ModelName, DefaultModel},
		{"ReviewModelName", c.ReviewModelName, DefaultModel},
		{"MaxConcurrentAPICalls", c.MaxConcurrentAPICalls, 1},
		{"ChunkTokenBudget", c.ChunkTokenBudget, 1500},
		{"ReviewTokenBudget", c.ReviewTokenBudget, 6000},
		{"MaxAttempts", c.MaxAttempts, 5},
		{"BaseDelay", c.BaseDelay, time.Second},
		{"MaxDelay", c.MaxDelay, 30 * time.Second},
		{"RequestsPerMinute", c.RequestsPerMinute, 60},
		{"RequestTimeout", c.RequestTimeout, 120 * time.Second},
		{"ContextExamples", *c.ContextExamples, 20},
		{"Temperature", c.Temperature, float32(0.3)},
		{"ReviewTemperature", c.ReviewTemperature, float32(0.1)},
		{"Oversized", c.Oversized(), chunk.OversizedSend},
		{"DryRun", c.DryRun, false},
	}
	for _, tc := range checks {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}

	want := []Locale{{Code: "de", Name: "German"}, {Code: "pt_BR", Name: "Brazilian Portuguese"}}
	if diff := cmp.Diff(want, c.SupportedLocales); diff != "" {
		t.Errorf("SupportedLocales mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	dir := t.TempDir()
	body := minimal +
		"model_name: gpt-4o\n" +
		"max_concurrent_api_calls: 4\n" +
		"chunk_token_budget: 800\n" +
		"base_delay: 250ms\n" +
		"max_delay: 5s\n" +
		"context_examples: 0\n" +
		"oversized_entry_policy: skip\n" +
		"archive_folder: /srv/archive\n" +
		"checkpoint_path: state/run.yaml\n" +
		"style_rules:\n  de: [Use formal Sie]\n" +
		"brand_technical_glossary: [MiniOS, SSH]\n" +
		"cache:\n  redis_url: redis://localhost:6379/0\n  ttl: 1h\n"
	c, err := Load(writeConfig(t, dir, body))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.ReviewModelName != "gpt-4o" {
		t.Errorf("ReviewModelName = %q, want model_name", c.ReviewModelName)
	}
	if c.ReviewTokenBudget != 3200 {
		t.Errorf("ReviewTokenBudget = %d, want 4 x chunk budget", c.ReviewTokenBudget)
	}
	if c.BaseDelay != 250*time.Millisecond || c.MaxDelay != 5*time.Second {
		t.Errorf("delays = %s/%s", c.BaseDelay, c.MaxDelay)
	}
	if *c.ContextExamples != 0 {
		t.Errorf("explicit context_examples: 0 overridden with %d", *c.ContextExamples)
	}
	if c.Oversized() != chunk.OversizedSkip {
		t.Errorf("Oversized() = %q", c.Oversized())
	}
	if c.ArchiveFolder != "/srv/archive" {
		t.Errorf("absolute archive_folder rewritten to %q", c.ArchiveFolder)
	}
	if c.CheckpointPath != filepath.Join(dir, "state", "run.yaml") {
		t.Errorf("CheckpointPath = %q", c.CheckpointPath)
	}
	if c.Cache.RedisURL == "" || c.Cache.TTL != time.Hour {
		t.Errorf("Cache = %+v", c.Cache)
	}
	if diff := cmp.Diff([]string{"MiniOS", "SSH"}, c.BrandTechnicalGlossary); diff != "" {
		t.Errorf("brand terms (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REVIEW_MODEL_NAME", "gpt-4o")
	t.Setenv("TRANSLATION_FILTER_GLOB", "app_*.properties")
	dir := t.TempDir()
	c, err := Load(writeConfig(t, dir, minimal+"review_model_name: other\ntranslation_file_filter_glob: x\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.ReviewModelName != "gpt-4o" {
		t.Errorf("ReviewModelName = %q, want env value", c.ReviewModelName)
	}
	if c.TranslationFileFilterGlob != "app_*.properties" {
		t.Errorf("TranslationFileFilterGlob = %q, want env value", c.TranslationFileFilterGlob)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing input folder", "supported_locales: [{code: de}]\n", "input_folder is required"},
		{"no locales", "input_folder: x\n", "supported_locales is empty"},
		{"invalid code", "input_folder: x\nsupported_locales: [{code: German}]\n", "invalid locale code"},
		{"duplicate code", "input_folder: x\nsupported_locales: [{code: de}, {code: de}]\n", "duplicate locale"},
		{"zero concurrency", minimal + "max_concurrent_api_calls: -1\n", "max_concurrent_api_calls"},
		{"bad policy", minimal + "oversized_entry_policy: split\n", "oversized_entry_policy"},
		{"style for unknown locale", minimal + "style_rules:\n  fr: [x]\n", "style_rules"},
		{"delays inverted", minimal + "base_delay: 10s\nmax_delay: 1s\n", "max_delay"},
		{"unknown key", minimal + "po_dir: po\n", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not contain %q", err, tt.want)
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("error %q does not name the file", err)
			}
		})
	}
}

func TestLoadMissingInputFolderIsSentinel(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeConfig(t, dir, "supported_locales: [{code: de}]\n"))
	if !errors.Is(err, ErrNoInputFolder) {
		t.Fatalf("err = %v, want ErrNoInputFolder", err)
	}
}

func TestFind(t *testing.T) {
	t.Setenv(EnvConfig, "")
	if got := Find(""); got != FileName {
		t.Errorf("Find() = %q, want %q", got, FileName)
	}
	t.Setenv(EnvConfig, "/etc/proptrans.yaml")
	if got := Find(""); got != "/etc/proptrans.yaml" {
		t.Errorf("Find() = %q, want env value", got)
	}
	if got := Find("custom.yaml"); got != "custom.yaml" {
		t.Errorf("Find(flag) = %q, flag must win", got)
	}
}

// ---------------------------------------------------------------------------
// Detect
// ---------------------------------------------------------------------------

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"messages.properties",
		"messages_de.properties",
		"messages_pt_BR.properties",
		"sub/dialog.properties",
		"sub/dialog_de.properties",
		"orphan_fr.properties",
		"archive/messages_it.properties",
		"archive/messages.properties",
	}
	for _, f := range files {
		p := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	d, err := Detect(dir, filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"de": 2, "pt_BR": 1}, d.Locales); diff != "" {
		t.Errorf("Locales (-want +got):\n%s", diff)
	}
	wantSources := []string{"messages.properties", "orphan_fr.properties", "sub/dialog.properties"}
	if diff := cmp.Diff(wantSources, d.Sources); diff != "" {
		t.Errorf("Sources (-want +got):\n%s", diff)
	}

	c := &Config{SupportedLocales: []Locale{{Code: "de"}, {Code: "fr"}}}
	if diff := cmp.Diff([]string{"pt_BR"}, d.Unconfigured(c)); diff != "" {
		t.Errorf("Unconfigured (-want +got):\n%s", diff)
	}
}
