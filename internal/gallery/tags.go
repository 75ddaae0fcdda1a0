// ABOUTME: Tag parsing and normalization helpers
// ABOUTME: Tags are a set of non-empty strings with first-seen display order

package gallery

import (
	"strings"
	"unicode"
)

// ParseTags splits free-form user input into tags.
// Separators are ASCII commas, full-width commas and any whitespace.
func ParseTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，' || unicode.IsSpace(r)
	})
	return NormalizeTags(fields)
}

// NormalizeTags trims each tag, drops empty ones and removes duplicates,
// keeping the first occurrence. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
