package translate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minios-linux/proptrans/chunk"
	"github.com/minios-linux/proptrans/glossary"
	"github.com/minios-linux/proptrans/langmeta"
	"github.com/minios-linux/proptrans/propfile"
)

// systemPrompt resolves the prompt of promptType and appends the locale's
// style rules.
func systemPrompt(o *Options, promptType, locale, langName string) string {
	if langName == "" {
		langName = langmeta.Resolve(locale).Name
	}
	prompt := o.Prompts.Get(promptType, langName)
	if rules := o.Glossary.Style(locale); len(rules) > 0 {
		var b strings.Builder
		b.WriteString(prompt)
		fmt.Fprintf(&b, "\n\nSTYLE RULES FOR %s:\n", strings.ToUpper(langName))
		for _, r := range rules {
			b.WriteString("- " + r + "\n")
		}
		prompt = strings.TrimRight(b.String(), "\n")
	}
	return prompt
}

// glossarySections writes the brand and translation glossaries relevant to
// texts. Empty sections are left out.
func glossarySections(b *strings.Builder, store *glossary.Store, locale string, texts []string) {
	if brand := store.Brand(); len(brand) > 0 {
		b.WriteString("Brand/Technical Glossary (Do NOT translate these terms):\n")
		for _, term := range brand {
			b.WriteString("- " + term + "\n")
		}
		b.WriteString("\n")
	}
	if terms := store.Subset(locale, texts...); len(terms) > 0 {
		b.WriteString("Translation Glossary:\n")
		for _, t := range terms {
			fmt.Fprintf(b, "%q should be translated as %q\n", t.Source, t.Target)
		}
		b.WriteString("\n")
	}
}

func translatePrompt(store *glossary.Store, job Job, c chunk.Chunk, values []string) string {
	var b strings.Builder
	sources := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		sources[i] = e.Value
	}
	glossarySections(&b, store, job.Locale, sources)

	if len(job.Examples) > 0 {
		b.WriteString("Context (existing translations):\n")
		for _, ex := range job.Examples {
			fmt.Fprintf(&b, "%s = %q\n", ex.Key, ex.Translation)
		}
		b.WriteString("\n")
	}

	b.WriteString("Entries to translate (key to English value):\n")
	b.WriteString(orderedJSON(c.Keys(), func(i int) any { return values[i] }))
	return b.String()
}

type reviewPair struct {
	Source string `json:"source"`
	Draft  string `json:"draft"`
}

func reviewPrompt(store *glossary.Store, locale string, batch []Result) string {
	var b strings.Builder
	keys := make([]string, len(batch))
	sources := make([]string, len(batch))
	for i, r := range batch {
		keys[i] = r.Key
		sources[i] = r.Source
	}
	glossarySections(&b, store, locale, sources)

	b.WriteString("Drafts to review (key to English source and draft translation):\n")
	b.WriteString(orderedJSON(keys, func(i int) any {
		return reviewPair{Source: batch[i].Source, Draft: batch[i].Value}
	}))
	return b.String()
}

// orderedJSON renders {key: value} keeping the order of keys, which
// json.Marshal on a map would sort.
func orderedJSON(keys []string, value func(i int) any) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, k := range keys {
		fmt.Fprintf(&b, "  %s: %s", marshal(k), marshal(value(i)))
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func marshal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return `""`
	}
	return strings.TrimRight(buf.String(), "\n")
}

// ---------------------------------------------------------------------------
// Context examples
// ---------------------------------------------------------------------------

// Example is an existing translation shown to the model.
type Example struct {
	Key         string
	Source      string
	Translation string
}

// Examples picks up to limit existing translations from target, in file
// order, within budget estimated tokens. Keys in skip (those being
// translated) and entries still equal to their source are left out.
func Examples(source, target *propfile.File, skip map[string]bool, limit, budget int) []Example {
	if target == nil || limit <= 0 {
		return nil
	}
	var out []Example
	used := 0
	for _, e := range target.Entries() {
		if skip[e.Key] {
			continue
		}
		src, ok := source.Get(e.Key)
		if !ok || strings.TrimSpace(src) == "" || strings.TrimSpace(e.Value) == "" {
			continue
		}
		if strings.TrimSpace(src) == strings.TrimSpace(e.Value) {
			continue
		}
		cost := chunk.EstimateTokens(fmt.Sprintf("%s = %q", e.Key, e.Value))
		if budget > 0 && used+cost > budget {
			break
		}
		out = append(out, Example{Key: e.Key, Source: src, Translation: e.Value})
		used += cost
		if len(out) == limit {
			break
		}
	}
	return out
}
