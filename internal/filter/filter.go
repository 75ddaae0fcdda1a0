// ABOUTME: Pure filtering of the gallery collection into an ordered view
// ABOUTME: Supports all, favorites, uncategorized, category and tag filters

// Package filter derives views from the gallery collection. Every filter
// preserves the manual order of its input and never fails: an unknown
// filter kind behaves like All.
package filter

import (
	"strings"

	"github.com/2389/coven-gallery/internal/gallery"
)

// Kind selects the filter predicate.
type Kind string

// Filter kinds
const (
	KindAll           Kind = "all"
	KindFavorites     Kind = "favorites"
	KindUncategorized Kind = "uncategorized"
	KindCategory      Kind = "category"
	KindTag           Kind = "tag"
)

// Spec is a filter selection. Value is the category name or tag for the
// category and tag kinds and is ignored otherwise.
type Spec struct {
	Kind  Kind   `json:"type"`
	Value string `json:"value,omitempty"`
}

// All matches every item.
func All() Spec { return Spec{Kind: KindAll} }

// Favorites matches items marked as favorite.
func Favorites() Spec { return Spec{Kind: KindFavorites} }

// Uncategorized matches items in the default category.
func Uncategorized() Spec { return Spec{Kind: KindUncategorized} }

// ByCategory matches items whose category equals name exactly.
func ByCategory(name string) Spec { return Spec{Kind: KindCategory, Value: name} }

// ByTag matches items carrying tag exactly.
func ByTag(tag string) Spec { return Spec{Kind: KindTag, Value: tag} }

// Match reports whether it passes the filter.
func (s Spec) Match(it gallery.Item) bool {
	switch s.Kind {
	case KindFavorites:
		return it.IsFavorite
	case KindUncategorized:
		return it.IsUncategorized()
	case KindCategory:
		return it.Category == s.Value
	case KindTag:
		return it.HasTag(s.Value)
	default:
		return true
	}
}

// String renders the filter in the form accepted by Parse.
func (s Spec) String() string {
	switch s.Kind {
	case KindFavorites, KindUncategorized:
		return string(s.Kind)
	case KindCategory, KindTag:
		return string(s.Kind) + ":" + s.Value
	default:
		return string(KindAll)
	}
}

// Apply returns the subsequence of items matching spec, in input order.
// The result is never nil. Items are not copied.
func Apply(items []gallery.Item, spec Spec) []gallery.Item {
	out := make([]gallery.Item, 0, len(items))
	for _, it := range items {
		if spec.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Parse reads a filter from "all", "favorites", "uncategorized",
// "category:<name>" or "tag:<tag>". Anything else yields All.
func Parse(s string) Spec {
	s = strings.TrimSpace(s)
	switch Kind(s) {
	case KindFavorites:
		return Favorites()
	case KindUncategorized:
		return Uncategorized()
	}

	kind, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return All()
	}
	switch Kind(kind) {
	case KindCategory:
		return ByCategory(value)
	case KindTag:
		return ByTag(value)
	default:
		return All()
	}
}

// Tags returns the union of all tags in first-seen order.
func Tags(items []gallery.Item) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, it := range items {
		for _, t := range it.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// ToggleTag selects tag, or returns All when tag is already the active filter.
func ToggleTag(current Spec, tag string) Spec {
	if current.Kind == KindTag && current.Value == tag {
		return All()
	}
	return ByTag(tag)
}

// AfterRename repoints a category filter on oldName to newName.
func AfterRename(current Spec, oldName, newName string) Spec {
	if current.Kind == KindCategory && current.Value == oldName {
		return ByCategory(newName)
	}
	return current
}

// AfterDelete falls back to All when the deleted category was selected.
func AfterDelete(current Spec, name string) Spec {
	if current.Kind == KindCategory && current.Value == name {
		return All()
	}
	return current
}
