// ABOUTME: Export document encoding, decoding and validation
// ABOUTME: Distinguishes malformed JSON (parse error) from a wrong document shape

package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/repository"
)

// fileTimeLayout matches the timestamp in exported file names.
const fileTimeLayout = "2006-01-02_15-04-05"

// Document is the portable form of the whole collection.
type Document struct {
	Items      []gallery.Item `json:"items"`
	Categories []string       `json:"categories"`
}

// Target receives an imported collection. *repository.Repository implements it.
type Target interface {
	ReplaceAll(ctx context.Context, items []gallery.Item, categories []string) (repository.ReplaceResult, error)
}

// Export builds a document from the collection. Slices are copied.
func Export(items []gallery.Item, categories []string) Document {
	cats := slices.Clone(categories)
	if cats == nil {
		cats = []string{}
	}
	return Document{Items: gallery.CloneItems(items), Categories: cats}
}

// Encode writes doc as compact JSON.
func Encode(w io.Writer, doc Document) error {
	if doc.Items == nil {
		doc.Items = []gallery.Item{}
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// Decode parses an import document. Input that is not well-formed JSON fails
// with ErrParseError. A document that is not an object, has neither "items"
// nor "categories", or has either of them with the wrong type fails with
// ErrInvalidFormat, as does an items entry that is null or not an object.
// A missing field decodes as empty.
func Decode(data []byte) (Document, error) {
	if !json.Valid(data) {
		return Document{}, gallery.ErrParseError
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Document{}, fmt.Errorf("%w: document is not an object", gallery.ErrInvalidFormat)
	}

	rawItems, hasItems := present(fields, "items")
	rawCats, hasCats := present(fields, "categories")
	if !hasItems && !hasCats {
		return Document{}, fmt.Errorf("%w: missing items and categories", gallery.ErrInvalidFormat)
	}

	doc := Document{Items: []gallery.Item{}, Categories: []string{}}
	if hasItems {
		items, err := decodeItems(rawItems)
		if err != nil {
			return Document{}, err
		}
		doc.Items = items
	}
	if hasCats {
		if err := json.Unmarshal(rawCats, &doc.Categories); err != nil {
			return Document{}, fmt.Errorf("%w: categories: %w", gallery.ErrInvalidFormat, err)
		}
	}
	for i := range doc.Items {
		if doc.Items[i].Tags == nil {
			doc.Items[i].Tags = []string{}
		}
	}
	return doc, nil
}

func decodeItems(raw json.RawMessage) ([]gallery.Item, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: items: %w", gallery.ErrInvalidFormat, err)
	}
	items := make([]gallery.Item, 0, len(entries))
	for i, e := range entries {
		if t := bytes.TrimSpace(e); len(t) == 0 || t[0] != '{' {
			return nil, fmt.Errorf("%w: items[%d] is not an object", gallery.ErrInvalidFormat, i)
		}
		var it gallery.Item
		if err := json.Unmarshal(e, &it); err != nil {
			return nil, fmt.Errorf("%w: items[%d]: %w", gallery.ErrInvalidFormat, i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// present returns a field unless it is absent or JSON null.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil, false
	}
	return raw, true
}

// Import decodes data and replaces the target's collection with it.
// Nothing is replaced when decoding fails.
func Import(ctx context.Context, target Target, data []byte) (repository.ReplaceResult, error) {
	doc, err := Decode(data)
	if err != nil {
		return repository.ReplaceResult{}, err
	}
	return target.ReplaceAll(ctx, doc.Items, doc.Categories)
}

// FileName returns the export file name for t, formatted in UTC.
func FileName(t time.Time) string {
	return "image_data_backup_" + t.UTC().Format(fileTimeLayout) + ".json"
}

// WriteFile encodes doc into dir under FileName(now) and returns the path.
// A document without items is rejected with ErrNothingToExport.
func WriteFile(dir string, doc Document, now time.Time) (string, error) {
	if len(doc.Items) == 0 {
		return "", gallery.ErrNothingToExport
	}

	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return path, nil
}
