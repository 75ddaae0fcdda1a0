// ABOUTME: Category list normalization and lookup
// ABOUTME: Enforces unique, non-empty names that never include the default category

package gallery

import (
	"slices"
	"strings"
)

// NormalizeCategories returns the stored form of a category list: names are
// trimmed, empty names and the default category are dropped, and duplicates
// are removed keeping the first occurrence. Comparison is case-sensitive.
// The second return value counts the entries that were dropped.
func NormalizeCategories(names []string) ([]string, int) {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	dropped := 0
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || n == DefaultCategory || seen[n] {
			dropped++
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, dropped
}

// KnownCategory reports whether name is the default or present in categories.
func KnownCategory(categories []string, name string) bool {
	return name == DefaultCategory || slices.Contains(categories, name)
}

// WithDefault returns the display listing: the default category first,
// followed by the stored categories in order.
func WithDefault(categories []string) []string {
	out := make([]string, 0, len(categories)+1)
	out = append(out, DefaultCategory)
	return append(out, categories...)
}
