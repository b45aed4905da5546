// Package langmeta provides a shared language metadata registry (English
// and native names) used in model prompts and CLI output, plus locale code
// canonicalization.
package langmeta

import (
	"regexp"
	"strings"
)

// Meta describes language display metadata.
type Meta struct {
	Name   string // English name, used in prompts
	Native string
}

// Registry contains canonical language metadata.
// Locale variants are resolved in Resolve() via normalization and base fallback.
var Registry = map[string]Meta{
	"ar":      {Name: "Arabic", Native: "العربية"},
	"bg":      {Name: "Bulgarian", Native: "Български"},
	"bn":      {Name: "Bengali", Native: "বাংলা"},
	"ca":      {Name: "Catalan", Native: "Català"},
	"cs":      {Name: "Czech", Native: "Čeština"},
	"da":      {Name: "Danish", Native: "Dansk"},
	"de":      {Name: "German", Native: "Deutsch"},
	"de-CH":   {Name: "German (Switzerland)", Native: "Deutsch (Schweiz)"},
	"el":      {Name: "Greek", Native: "Ελληνικά"},
	"en":      {Name: "English", Native: "English"},
	"en-GB":   {Name: "English (UK)", Native: "English (UK)"},
	"es":      {Name: "Spanish", Native: "Español"},
	"es-419":  {Name: "Spanish (Latin America)", Native: "Español (Latinoamérica)"},
	"es-MX":   {Name: "Spanish (Mexico)", Native: "Español (México)"},
	"et":      {Name: "Estonian", Native: "Eesti"},
	"fa":      {Name: "Persian", Native: "فارسی"},
	"fi":      {Name: "Finnish", Native: "Suomi"},
	"fil":     {Name: "Filipino", Native: "Filipino"},
	"fr":      {Name: "French", Native: "Français"},
	"fr-CA":   {Name: "French (Canada)", Native: "Français (Canada)"},
	"he":      {Name: "Hebrew", Native: "עברית"},
	"hi":      {Name: "Hindi", Native: "हिन्दी"},
	"hr":      {Name: "Croatian", Native: "Hrvatski"},
	"hu":      {Name: "Hungarian", Native: "Magyar"},
	"id":      {Name: "Indonesian", Native: "Bahasa Indonesia"},
	"it":      {Name: "Italian", Native: "Italiano"},
	"ja":      {Name: "Japanese", Native: "日本語"},
	"ko":      {Name: "Korean", Native: "한국어"},
	"lt":      {Name: "Lithuanian", Native: "Lietuvių"},
	"lv":      {Name: "Latvian", Native: "Latviešu"},
	"ms":      {Name: "Malay", Native: "Bahasa Melayu"},
	"nb":      {Name: "Norwegian Bokmål", Native: "Norsk bokmål"},
	"nl":      {Name: "Dutch", Native: "Nederlands"},
	"pl":      {Name: "Polish", Native: "Polski"},
	"pt":      {Name: "Portuguese", Native: "Português"},
	"pt-BR":   {Name: "Portuguese (Brazil)", Native: "Português (Brasil)"},
	"pt-PT":   {Name: "Portuguese (Portugal)", Native: "Português (Portugal)"},
	"ro":      {Name: "Romanian", Native: "Română"},
	"ru":      {Name: "Russian", Native: "Русский"},
	"sk":      {Name: "Slovak", Native: "Slovenčina"},
	"sl":      {Name: "Slovenian", Native: "Slovenščina"},
	"sr":      {Name: "Serbian", Native: "Српски"},
	"sv":      {Name: "Swedish", Native: "Svenska"},
	"th":      {Name: "Thai", Native: "ไทย"},
	"tr":      {Name: "Turkish", Native: "Türkçe"},
	"uk":      {Name: "Ukrainian", Native: "Українська"},
	"vi":      {Name: "Vietnamese", Native: "Tiếng Việt"},
	"zh":      {Name: "Chinese", Native: "中文"},
	"zh-CN":   {Name: "Chinese (Simplified)", Native: "简体中文"},
	"zh-Hans": {Name: "Chinese (Simplified)", Native: "简体中文"},
	"zh-Hant": {Name: "Chinese (Traditional)", Native: "繁體中文"},
	"zh-TW":   {Name: "Chinese (Traditional)", Native: "繁體中文"},
}

// validCode matches lang, lang_REGION, lang-Script and lang_419 forms.
var validCode = regexp.MustCompile(`^[a-z]{2,3}(?:[-_](?:[A-Z]{2}|[A-Z][a-z]{3}|[0-9]{3}))?$`)

// Valid reports whether code is a well-formed locale code as it appears in
// translation file names.
func Valid(code string) bool {
	return validCode.MatchString(code)
}

// Canonicalize normalizes a locale code to BCP 47 casing with '-':
// pt_br → pt-BR, zh_hans → zh-Hans.
func Canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		if len(parts[1]) == 4 {
			parts[1] = strings.ToUpper(parts[1][:1]) + strings.ToLower(parts[1][1:])
		} else {
			parts[1] = strings.ToUpper(parts[1])
		}
	}
	return strings.Join(parts, "-")
}

// Base returns the language part of a locale code: "pt_BR" → "pt".
func Base(lang string) string {
	c := Canonicalize(lang)
	if i := strings.IndexByte(c, '-'); i >= 0 {
		return c[:i]
	}
	return c
}

// Resolve returns best-effort language metadata for language codes,
// supporting variants like pt_BR, pt-BR, and locale fallbacks.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := Canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if m, ok := Registry[Base(normalized)]; ok {
		return m
	}
	return Meta{Name: lang, Native: lang}
}
