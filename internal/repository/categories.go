// ABOUTME: Category mutations for the repository
// ABOUTME: Add, rename and delete with cascading item updates

package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/2389/coven-gallery/internal/gallery"
)

// RenameResult describes an applied (or skipped) rename.
// Callers holding a filter on Old should repoint it to New.
type RenameResult struct {
	Old          string
	New          string
	Changed      bool
	ItemsUpdated int
}

// DeleteResult describes an applied category deletion.
// Callers holding a filter on Name should fall back to all items.
type DeleteResult struct {
	Name            string
	ItemsReassigned int
}

// AddCategory appends a new category and returns the stored (trimmed) name.
func (r *Repository) AddCategory(ctx context.Context, name string) (string, error) {
	if r.closed {
		return "", ErrClosed
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", gallery.ErrEmptyName
	}
	if gallery.KnownCategory(r.categories, name) {
		return "", fmt.Errorf("category %q: %w", name, gallery.ErrDuplicateCategory)
	}

	cats := append(slices.Clone(r.categories), name)
	return name, r.commit(ctx, r.items, cats, Change{Op: OpAddCategory, Category: name})
}

// RenameCategory renames oldName in place and rewrites the category of every
// item that referenced it. Renaming to the same name is a no-op.
func (r *Repository) RenameCategory(ctx context.Context, oldName, newName string) (RenameResult, error) {
	if r.closed {
		return RenameResult{}, ErrClosed
	}
	newName = strings.TrimSpace(newName)
	res := RenameResult{Old: oldName, New: newName}

	if newName == oldName {
		return res, nil
	}
	if oldName == gallery.DefaultCategory {
		return res, fmt.Errorf("renaming %q: %w", oldName, gallery.ErrDefaultCategory)
	}
	pos := slices.Index(r.categories, oldName)
	if pos < 0 {
		return res, fmt.Errorf("category %q: %w", oldName, gallery.ErrInvalidCategory)
	}
	if newName == "" {
		return res, gallery.ErrEmptyName
	}
	if gallery.KnownCategory(r.categories, newName) {
		return res, fmt.Errorf("category %q: %w", newName, gallery.ErrDuplicateCategory)
	}

	cats := slices.Clone(r.categories)
	cats[pos] = newName

	items := slices.Clone(r.items)
	for i := range items {
		if items[i].Category == oldName {
			items[i].Category = newName
			res.ItemsUpdated++
		}
	}
	res.Changed = true

	err := r.commit(ctx, items, cats, Change{Op: OpRenameCategory, Category: newName})
	return res, err
}

// DeleteCategory removes name from the category list and moves its items to
// the default category.
func (r *Repository) DeleteCategory(ctx context.Context, name string) (DeleteResult, error) {
	if r.closed {
		return DeleteResult{}, ErrClosed
	}
	res := DeleteResult{Name: name}

	if name == gallery.DefaultCategory {
		return res, fmt.Errorf("deleting %q: %w", name, gallery.ErrDefaultCategory)
	}
	pos := slices.Index(r.categories, name)
	if pos < 0 {
		return res, fmt.Errorf("category %q: %w", name, gallery.ErrInvalidCategory)
	}

	items := slices.Clone(r.items)
	for i := range items {
		if items[i].Category == name {
			items[i].Category = gallery.DefaultCategory
			res.ItemsReassigned++
		}
	}
	cats := slices.Delete(slices.Clone(r.categories), pos, pos+1)

	err := r.commit(ctx, items, cats, Change{Op: OpDeleteCategory, Category: name})
	return res, err
}
