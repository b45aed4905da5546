package propfile

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// localeSuffix matches the locale part of a translation file name:
// _de.properties, _pt_BR.properties, _zh-Hans.properties, _es_419.properties.
var localeSuffix = regexp.MustCompile(`_([a-z]{2,3}(?:[-_](?:[A-Z]{2}|[A-Z][a-z]{3}|[0-9]{3}))?)\.properties$`)

// LocaleFromFilename extracts the locale code from a translation file name,
// exactly as spelled in the name ("pt_BR", "zh-Hans").
func LocaleFromFilename(name string) (string, bool) {
	m := localeSuffix.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MatchLocale returns the longest code from codes that name ends with, so
// that "pt_BR" wins over "pt". Unlike LocaleFromFilename it only accepts
// known codes, which avoids mistaking "app_ui.properties" for a locale file.
func MatchLocale(name string, codes []string) (string, bool) {
	sorted := append([]string(nil), codes...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	base := filepath.Base(name)
	for _, code := range sorted {
		if strings.HasSuffix(base, "_"+code+".properties") {
			return code, true
		}
	}
	return "", false
}

// IsLocaleFile reports whether name looks like a translation file.
func IsLocaleFile(name string) bool {
	_, ok := LocaleFromFilename(name)
	return ok
}

// SourcePath returns the path of the source-language file a translation
// file belongs to: messages_de.properties → messages.properties.
func SourcePath(localePath string) string {
	dir, base := filepath.Split(localePath)
	loc := localeSuffix.FindStringIndex(base)
	if loc == nil {
		return localePath
	}
	return dir + base[:loc[0]] + ".properties"
}

// LocalePath returns the translation file path for src and locale.
func LocalePath(src, locale string) string {
	return strings.TrimSuffix(src, ".properties") + "_" + locale + ".properties"
}
