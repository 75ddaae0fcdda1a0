// ABOUTME: Wholesale replacement of the collection for import and migration
// ABOUTME: Coerces items with unknown categories to the default instead of rejecting them

package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/2389/coven-gallery/internal/gallery"
)

// ReplaceResult reports what ReplaceAll stored and what it had to repair.
type ReplaceResult struct {
	Items             int
	Categories        int
	Coerced           int // items moved to the default category
	DroppedItems      int // items dropped as duplicate ids
	DroppedCategories int // empty, duplicate or default category entries

	items      []gallery.Item
	categories []string
}

// ReplaceAll swaps in a whole new collection. Categories are normalized,
// duplicate item ids keep the first item, items without an id get a fresh
// one, and items whose category is unknown are moved to the default.
func (r *Repository) ReplaceAll(ctx context.Context, items []gallery.Item, categories []string) (ReplaceResult, error) {
	if r.closed {
		return ReplaceResult{}, ErrClosed
	}

	res := r.sanitize(items, categories)
	err := r.commit(ctx, res.items, res.categories, Change{Op: OpReplaceAll})
	r.logger.Info("collection replaced",
		"items", res.Items,
		"categories", res.Categories,
		"coerced", res.Coerced,
		"dropped_items", res.DroppedItems,
		"dropped_categories", res.DroppedCategories,
	)
	return res, err
}

// sanitize restores the collection invariants without touching r's state.
func (r *Repository) sanitize(items []gallery.Item, categories []string) ReplaceResult {
	cats, dropped := gallery.NormalizeCategories(categories)
	res := ReplaceResult{DroppedCategories: dropped}

	out := make([]gallery.Item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		it = it.Clone()
		if it.ID == "" {
			it.ID = r.uniqueID(seen)
		}
		if seen[it.ID] {
			res.DroppedItems++
			continue
		}
		seen[it.ID] = true

		it.Tags = gallery.NormalizeTags(it.Tags)
		it.Category = strings.TrimSpace(it.Category)
		if it.Category == "" {
			it.Category = gallery.DefaultCategory
		} else if !gallery.KnownCategory(cats, it.Category) {
			it.Category = gallery.DefaultCategory
			res.Coerced++
		}
		out = append(out, it)
	}

	res.Items = len(out)
	res.Categories = len(cats)
	res.items = out
	res.categories = slices.Clip(cats)
	return res
}

func (r *Repository) uniqueID(seen map[string]bool) string {
	for i := 0; i < maxIDAttempts; i++ {
		if id := r.newID(); id != "" && !seen[id] {
			return id
		}
	}
	for {
		if id := gallery.NewID(); !seen[id] {
			return id
		}
	}
}
