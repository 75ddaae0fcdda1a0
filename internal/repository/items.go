// ABOUTME: Item mutations for the repository
// ABOUTME: Add, delete, favorite, edit and manual reorder

package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/2389/coven-gallery/internal/gallery"
)

// maxIDAttempts bounds retries when a generated id is already in use.
const maxIDAttempts = 8

// AddItem creates an item in the default category and puts it at the front
// of the collection (newest first).
func (r *Repository) AddItem(ctx context.Context, imageData, note string, tags []string) (gallery.Item, error) {
	if r.closed {
		return gallery.Item{}, ErrClosed
	}
	if err := gallery.ValidateImage(imageData); err != nil {
		return gallery.Item{}, err
	}

	id, err := r.freshID()
	if err != nil {
		return gallery.Item{}, err
	}

	item := gallery.Item{
		ID:         id,
		ImageData:  imageData,
		Note:       strings.TrimSpace(note),
		Tags:       gallery.NormalizeTags(tags),
		IsFavorite: false,
		Category:   gallery.DefaultCategory,
	}

	items := make([]gallery.Item, 0, len(r.items)+1)
	items = append(items, item)
	items = append(items, r.items...)

	err = r.commit(ctx, items, r.categories, Change{Op: OpAddItem, ItemID: id})
	return item.Clone(), err
}

func (r *Repository) freshID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := r.newID()
		if id != "" && r.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("generating unique item id: gave up after %d attempts", maxIDAttempts)
}

// DeleteItem removes the item with the given id.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	if r.closed {
		return ErrClosed
	}
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("item %q: %w", id, gallery.ErrNotFound)
	}

	items := slices.Delete(slices.Clone(r.items), i, i+1)
	return r.commit(ctx, items, r.categories, Change{Op: OpDeleteItem, ItemID: id})
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (r *Repository) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	if r.closed {
		return false, ErrClosed
	}
	i := r.indexOf(id)
	if i < 0 {
		return false, fmt.Errorf("item %q: %w", id, gallery.ErrNotFound)
	}

	items := slices.Clone(r.items)
	items[i].IsFavorite = !items[i].IsFavorite
	fav := items[i].IsFavorite

	err := r.commit(ctx, items, r.categories, Change{Op: OpToggleFavorite, ItemID: id})
	return fav, err
}

// EditItem overwrites the note, tags and category of an item.
// The category must be the default or a stored category.
func (r *Repository) EditItem(ctx context.Context, id, note string, tags []string, category string) (gallery.Item, error) {
	if r.closed {
		return gallery.Item{}, ErrClosed
	}
	i := r.indexOf(id)
	if i < 0 {
		return gallery.Item{}, fmt.Errorf("item %q: %w", id, gallery.ErrNotFound)
	}
	if !gallery.KnownCategory(r.categories, category) {
		return gallery.Item{}, fmt.Errorf("category %q: %w", category, gallery.ErrInvalidCategory)
	}

	items := slices.Clone(r.items)
	items[i].Note = strings.TrimSpace(note)
	items[i].Tags = gallery.NormalizeTags(tags)
	items[i].Category = category
	edited := items[i].Clone()

	err := r.commit(ctx, items, r.categories, Change{Op: OpEditItem, ItemID: id, Category: category})
	return edited, err
}

// Reorder moves an item to newIndex, clamped to the valid range.
// This is the only operation that changes the manual order.
func (r *Repository) Reorder(ctx context.Context, id string, newIndex int) error {
	if r.closed {
		return ErrClosed
	}
	from := r.indexOf(id)
	if from < 0 {
		return fmt.Errorf("item %q: %w", id, gallery.ErrNotFound)
	}

	to := max(0, min(newIndex, len(r.items)-1))
	if to == from {
		return nil
	}

	moved := r.items[from]
	items := slices.Delete(slices.Clone(r.items), from, from+1)
	items = slices.Insert(items, to, moved)

	return r.commit(ctx, items, r.categories, Change{Op: OpReorder, ItemID: id})
}
