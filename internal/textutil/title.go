package textutil

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// DisplayTitle turns a source file name into a readable label: directory and
// extension stripped, separators collapsed to single spaces, words
// title-cased. Existing capitals are kept so "IMG_2041.JPG" reads
// "IMG 2041". Falls back to "Untitled" when nothing is left.
func DisplayTitle(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	fields := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return "Untitled"
	}
	return titleCaser.String(strings.Join(fields, " "))
}
