// Package config loads proptrans.yaml, the run configuration.
//
// The file is located in this order: the --config flag, the
// PROPTRANS_CONFIG environment variable, ./proptrans.yaml. Relative paths
// inside the file are resolved against the directory of the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/proptrans/chunk"
	"github.com/minios-linux/proptrans/langmeta"
)

// FileName is the default config file name.
const FileName = "proptrans.yaml"

// EnvConfig names the environment variable holding the config path.
const EnvConfig = "PROPTRANS_CONFIG"

// Defaults.
const (
	DefaultModel             = "gpt-4o-mini"
	DefaultMaxConcurrent     = 1
	DefaultChunkTokenBudget  = 1500
	DefaultMaxAttempts       = 5
	DefaultBaseDelay         = time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultRequestsPerMinute = 60
	DefaultRequestTimeout    = 120 * time.Second
	DefaultContextExamples   = 20
	DefaultContextTokens     = 2000
	DefaultTemperature       = 0.3
	DefaultReviewTemperature = 0.1
	DefaultReportPath        = "logs/skipped_files_report.md"
	DefaultCacheTTL          = 30 * 24 * time.Hour
)

// ErrNoInputFolder is returned when input_folder is not set.
var ErrNoInputFolder = errors.New("input_folder is required")

// Locale is one entry of supported_locales.
type Locale struct {
	Code string `yaml:"code"`
	Name string `yaml:"name,omitempty"`
}

// Cache configures the translation memory.
type Cache struct {
	// Enabled turns on the in-memory cache when RedisURL is empty.
	Enabled   bool          `yaml:"enabled,omitempty"`
	RedisURL  string        `yaml:"redis_url,omitempty"`
	TTL       time.Duration `yaml:"ttl,omitempty"`
	KeyPrefix string        `yaml:"key_prefix,omitempty"`
}

// Config is the proptrans.yaml structure.
type Config struct {
	InputFolder      string `yaml:"input_folder"`
	ArchiveFolder    string `yaml:"archive_folder,omitempty"`
	LockFile         string `yaml:"lock_file,omitempty"`
	ReportPath       string `yaml:"report_path,omitempty"`
	CheckpointPath   string `yaml:"checkpoint_path,omitempty"`
	GlossaryFilePath string `yaml:"glossary_file_path,omitempty"`

	SupportedLocales          []Locale            `yaml:"supported_locales"`
	StyleRules                map[string][]string `yaml:"style_rules,omitempty"`
	BrandTechnicalGlossary    []string            `yaml:"brand_technical_glossary,omitempty"`
	TranslationFileFilterGlob string              `yaml:"translation_file_filter_glob,omitempty"`

	ModelName         string  `yaml:"model_name,omitempty"`
	ReviewModelName   string  `yaml:"review_model_name,omitempty"`
	OpenAIBaseURL     string  `yaml:"openai_base_url,omitempty"`
	Temperature       float32 `yaml:"temperature,omitempty"`
	ReviewTemperature float32 `yaml:"review_temperature,omitempty"`
	MaxTokens         int     `yaml:"max_tokens,omitempty"`

	MaxConcurrentAPICalls int           `yaml:"max_concurrent_api_calls,omitempty"`
	MaxAttempts           int           `yaml:"max_attempts,omitempty"`
	BaseDelay             time.Duration `yaml:"base_delay,omitempty"`
	MaxDelay              time.Duration `yaml:"max_delay,omitempty"`
	RequestsPerMinute     int           `yaml:"requests_per_minute,omitempty"`
	RequestTimeout        time.Duration `yaml:"request_timeout,omitempty"`

	ChunkTokenBudget     int    `yaml:"chunk_token_budget,omitempty"`
	ReviewTokenBudget    int    `yaml:"review_token_budget,omitempty"`
	OversizedEntryPolicy string `yaml:"oversized_entry_policy,omitempty"`
	ContextExamples      *int   `yaml:"context_examples,omitempty"`
	ContextTokenBudget   int    `yaml:"context_token_budget,omitempty"`

	DryRun bool  `yaml:"dry_run,omitempty"`
	Cache  Cache `yaml:"cache,omitempty"`

	// Path is the file the config was loaded from.
	Path string `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Find returns the config path to use. flag is the --config value.
func Find(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return FileName
}

// Load reads, completes and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes data as a config file located at path. Unknown keys are
// rejected.
func Parse(data []byte, path string) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.Path = path
	c.applyEnv()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// applyEnv applies the environment overrides.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("REVIEW_MODEL_NAME")); v != "" {
		c.ReviewModelName = v
	}
	if v := strings.TrimSpace(os.Getenv("TRANSLATION_FILTER_GLOB")); v != "" {
		c.TranslationFileFilterGlob = v
	}
}

func (c *Config) applyDefaults() {
	base := filepath.Dir(c.Path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	if c.InputFolder != "" {
		c.InputFolder = resolve(c.InputFolder)
		if c.ArchiveFolder == "" {
			c.ArchiveFolder = filepath.Join(c.InputFolder, "archive")
		}
		if c.LockFile == "" {
			c.LockFile = filepath.Join(c.InputFolder, "proptrans.lock")
		}
	}
	c.ArchiveFolder = resolve(c.ArchiveFolder)
	c.LockFile = resolve(c.LockFile)
	c.CheckpointPath = resolve(c.CheckpointPath)
	c.GlossaryFilePath = resolve(c.GlossaryFilePath)
	if c.ReportPath == "" {
		c.ReportPath = DefaultReportPath
	}
	c.ReportPath = resolve(c.ReportPath)

	if c.ModelName == "" {
		c.ModelName = DefaultModel
	}
	if c.ReviewModelName == "" {
		c.ReviewModelName = c.ModelName
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.ReviewTemperature == 0 {
		c.ReviewTemperature = DefaultReviewTemperature
	}

	if c.MaxConcurrentAPICalls == 0 {
		c.MaxConcurrentAPICalls = DefaultMaxConcurrent
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}

	if c.ChunkTokenBudget == 0 {
		c.ChunkTokenBudget = DefaultChunkTokenBudget
	}
	if c.ReviewTokenBudget == 0 {
		c.ReviewTokenBudget = 4 * c.ChunkTokenBudget
	}
	if c.OversizedEntryPolicy == "" {
		c.OversizedEntryPolicy = string(chunk.OversizedSend)
	}
	if c.ContextExamples == nil {
		n := DefaultContextExamples
		c.ContextExamples = &n
	}
	if c.ContextTokenBudget == 0 {
		c.ContextTokenBudget = DefaultContextTokens
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	for i := range c.SupportedLocales {
		l := &c.SupportedLocales[i]
		l.Code = strings.TrimSpace(l.Code)
		if l.Name == "" {
			l.Name = langmeta.Resolve(l.Code).Name
		}
	}
}

// Validate checks the completed config.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputFolder) == "" {
		return ErrNoInputFolder
	}
	if len(c.SupportedLocales) == 0 {
		return errors.New("supported_locales is empty")
	}
	seen := make(map[string]bool)
	for i, l := range c.SupportedLocales {
		if l.Code == "" {
			return fmt.Errorf("supported_locales #%d has no code", i+1)
		}
		if !langmeta.Valid(l.Code) {
			return fmt.Errorf("supported_locales: invalid locale code %q (want e.g. de, pt_BR, zh-Hans)", l.Code)
		}
		if seen[l.Code] {
			return fmt.Errorf("supported_locales: duplicate locale %q", l.Code)
		}
		seen[l.Code] = true
	}
	for code := range c.StyleRules {
		if !seen[code] {
			return fmt.Errorf("style_rules: locale %q is not in supported_locales", code)
		}
	}

	switch {
	case c.MaxConcurrentAPICalls < 1:
		return fmt.Errorf("max_concurrent_api_calls must be at least 1, got %d", c.MaxConcurrentAPICalls)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	case c.BaseDelay < 0 || c.MaxDelay < 0 || c.RequestTimeout < 0:
		return errors.New("base_delay, max_delay and request_timeout must not be negative")
	case c.MaxDelay < c.BaseDelay:
		return fmt.Errorf("max_delay %s is shorter than base_delay %s", c.MaxDelay, c.BaseDelay)
	case c.RequestsPerMinute < 0:
		return fmt.Errorf("requests_per_minute must not be negative, got %d", c.RequestsPerMinute)
	case c.ChunkTokenBudget < 1:
		return fmt.Errorf("chunk_token_budget must be positive, got %d", c.ChunkTokenBudget)
	case c.ReviewTokenBudget < 1:
		return fmt.Errorf("review_token_budget must be positive, got %d", c.ReviewTokenBudget)
	case *c.ContextExamples < 0:
		return fmt.Errorf("context_examples must not be negative, got %d", *c.ContextExamples)
	case c.Temperature < 0 || c.Temperature > 2 || c.ReviewTemperature < 0 || c.ReviewTemperature > 2:
		return errors.New("temperature must be between 0 and 2")
	case c.Cache.TTL < 0:
		return errors.New("cache.ttl must not be negative")
	}
	if _, err := chunk.ParsePolicy(c.OversizedEntryPolicy); err != nil {
		return fmt.Errorf("oversized_entry_policy: %w", err)
	}
	return nil
}

// Oversized returns the parsed oversized-entry policy.
func (c *Config) Oversized() chunk.OversizedPolicy {
	p, _ := chunk.ParsePolicy(c.OversizedEntryPolicy)
	return p
}

// LocaleCodes returns the configured locale codes in file order.
func (c *Config) LocaleCodes() []string {
	out := make([]string, len(c.SupportedLocales))
	for i, l := range c.SupportedLocales {
		out[i] = l.Code
	}
	return out
}
