package translate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/proptrans/atomicfile"
	"github.com/minios-linux/proptrans/settings"
)

// Prompt types.
const (
	PromptTranslate = "translate"
	PromptReview    = "review"
)

// PromptsConfig holds the system prompts loaded from prompts.json.
type PromptsConfig struct {
	Prompts map[string]string `json:"prompts"`
}

// LoadPromptsFromFile loads system prompts from a JSON file.
// A missing file is not an error: it returns nil and the built-in prompts apply.
func LoadPromptsFromFile(path string) (*PromptsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var config PromptsConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return &config, nil
}

// DefaultPrompts returns the built-in system prompts.
func DefaultPrompts() *PromptsConfig {
	return &PromptsConfig{Prompts: map[string]string{
		PromptTranslate: DefaultTranslatePrompt,
		PromptReview:    DefaultReviewPrompt,
	}}
}

// createDefaultPromptsFile writes the built-in prompts to path as formatted JSON.
func createDefaultPromptsFile(path string) error {
	data, err := json.MarshalIndent(DefaultPrompts(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling default prompts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating prompts directory: %w", err)
	}
	return atomicfile.WriteFile(path, data, 0644)
}

// LoadPromptsFromDefaultLocations loads prompts from the user data directory
// ($XDG_DATA_HOME/proptrans/prompts.json), creating the file with the
// built-in prompts if it does not exist. Returns the prompts and their path.
func LoadPromptsFromDefaultLocations() (*PromptsConfig, string, error) {
	path, err := settings.PromptsFilePath()
	if err != nil {
		return nil, "", fmt.Errorf("cannot determine prompts file path: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefaultPromptsFile(path); err != nil {
			return nil, "", fmt.Errorf("creating default prompts file: %w", err)
		}
	}

	p, err := LoadPromptsFromFile(path)
	if err != nil {
		return nil, "", err
	}
	return p, path, nil
}

// Get returns the prompt of the given type with {{targetLang}} replaced.
// Custom prompts win; empty or missing ones fall back to the built-in ones.
func (p *PromptsConfig) Get(promptType, langName string) string {
	var prompt string
	if p != nil {
		prompt = p.Prompts[promptType]
	}
	if prompt == "" {
		prompt = DefaultPrompts().Prompts[promptType]
	}
	return strings.ReplaceAll(prompt, "{{targetLang}}", langName)
}

// ---------------------------------------------------------------------------
// Built-in prompts
// ---------------------------------------------------------------------------

const DefaultTranslatePrompt = `You are an expert translator specializing in software localization. You translate entries of a Java .properties resource file from English to {{targetLang}}.

INSTRUCTIONS:
- Do not translate or modify placeholder tokens: any text enclosed in double underscores (e.g. __PH_abc123__) must stay exactly as is.
- Preserve MessageFormat and printf placeholders such as {0}, {name}, %s and %1$d exactly, with the same count.
- Strictly follow the glossaries:
  - Brand/Technical Glossary: these terms MUST NOT be translated. Keep their casing and form.
  - Translation Glossary: these terms are non-negotiable. Use the given translation, matching the source term case-insensitively.
- Preserve formatting such as \n and \t.
- Do not add characters or punctuation around the value (no square brackets, no quotation marks).
- Do not escape single quotes: treat ' as a literal character. Escaping is handled for you.
- Do not mix English terms with {{targetLang}} in a single phrase. The translation should be fully localized.
- Keep translations brief, natural and consistent with the existing translations given as context.

OUTPUT:
- Return ONLY a JSON object of the form {"translations": {"<key>": "<translated value>"}}.
- Return exactly the keys you were given, no more and no fewer.
- No explanations or markdown code blocks.`

const DefaultReviewPrompt = `You are a lead editor and quality assurance specialist for software localization. You review draft {{targetLang}} translations of entries from a Java .properties resource file.

INSTRUCTIONS:
- For each key, compare the English source with the draft translation.
- Fix mistranslations, unnatural phrasing, glossary violations, untranslated English and broken placeholders.
- Keep placeholders such as {0}, {name}, %s and %1$d exactly as in the source.
- Brand/Technical Glossary terms MUST NOT be translated. Translation Glossary terms MUST use the given translation.
- Do not escape single quotes. Escaping is handled for you.
- Leave good drafts alone.

OUTPUT:
- Return ONLY a JSON object of the form {"reviews": {"<key>": {"verdict": "unchanged"}}} or {"reviews": {"<key>": {"verdict": "corrected", "value": "<corrected translation>"}}}.
- Return exactly the keys you were given, no more and no fewer.
- No explanations or markdown code blocks.`
