package render

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Humanize turns a snake_case key into a title-cased label, so
// "unique_students" becomes "Unique Students".
func Humanize(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// fit shortens s with a trailing "..." until width reports it fits in limit.
func fit(s string, limit float64, width func(string) float64) string {
	if width(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if width(candidate) <= limit {
			return candidate
		}
	}
	return ""
}

// truncateRunes keeps at most n runes of s.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
