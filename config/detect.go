package config

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/proptrans/propfile"
)

// Detected describes the translation files found under an input folder.
type Detected struct {
	// Sources lists source-language files relative to the folder.
	Sources []string
	// Locales maps each locale code found in file names to its file count.
	Locales map[string]int
}

// Codes returns the detected locale codes, sorted.
func (d *Detected) Codes() []string {
	codes := make([]string, 0, len(d.Locales))
	for c := range d.Locales {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Unconfigured returns the detected codes missing from c.SupportedLocales.
func (d *Detected) Unconfigured(c *Config) []string {
	known := make(map[string]bool)
	for _, code := range c.LocaleCodes() {
		known[code] = true
	}
	var out []string
	for _, code := range d.Codes() {
		if !known[code] {
			out = append(out, code)
		}
	}
	return out
}

// Detect scans dir for .properties files, skipping skipDir. A file counts
// as a translation when its name carries a locale suffix and its source
// file exists next to it.
func Detect(dir, skipDir string) (*Detected, error) {
	d := &Detected{Locales: make(map[string]int)}
	var names []string
	err := filepath.WalkDir(dir, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			if skipDir != "" && p == skipDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(p, ".properties") {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	for _, p := range names {
		rel, _ := filepath.Rel(dir, p)
		code, ok := propfile.LocaleFromFilename(p)
		if !ok || !present[propfile.SourcePath(p)] {
			d.Sources = append(d.Sources, filepath.ToSlash(rel))
			continue
		}
		d.Locales[code]++
	}
	sort.Strings(d.Sources)
	return d, nil
}
