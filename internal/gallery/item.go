// ABOUTME: Item record and identifier generation for the gallery
// ABOUTME: Items hold an image payload, note, tag set, favorite flag and category

package gallery

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DefaultCategory is the implicit category every item falls back to.
// It is never stored in the category list.
const DefaultCategory = "預設分類"

// Item is a single image card in the gallery.
type Item struct {
	ID         string   `json:"id"`
	ImageData  string   `json:"imageData"`
	Note       string   `json:"note"`
	Tags       []string `json:"tags"`
	IsFavorite bool     `json:"isFavorite"`
	Category   string   `json:"category"`
}

// Clone returns a deep copy so callers cannot alias the tag slice.
func (it Item) Clone() Item {
	out := it
	if it.Tags != nil {
		out.Tags = slices.Clone(it.Tags)
	} else {
		out.Tags = []string{}
	}
	return out
}

// HasTag reports whether the item carries tag (exact match).
func (it Item) HasTag(tag string) bool {
	return slices.Contains(it.Tags, tag)
}

// IsUncategorized reports whether the item sits in the default category.
// An empty category is treated as default, matching older exports.
func (it Item) IsUncategorized() bool {
	return it.Category == "" || it.Category == DefaultCategory
}

// CloneItems deep-copies a slice of items.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// NewID returns a fresh item identifier.
// UUIDv7 values are time-ordered and stay unique under rapid successive calls.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ValidateImage checks that an image payload is present.
func ValidateImage(data string) error {
	if strings.TrimSpace(data) == "" {
		return fmt.Errorf("%w: payload is empty", ErrInvalidImage)
	}
	return nil
}
