// ABOUTME: Store interface and record types for gallery persistence
// ABOUTME: Two collections (items, categories) with bulk read and atomic replace

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2389/coven-gallery/internal/gallery"
)

// Collection names a record collection in the store.
type Collection string

// Collections known to the store
const (
	CollectionItems      Collection = "items"      // keyed by item id
	CollectionCategories Collection = "categories" // auto-keyed, one record per name
)

// Collections lists every collection in a stable order.
var Collections = []Collection{CollectionItems, CollectionCategories}

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	return c == CollectionItems || c == CollectionCategories
}

// Record is one stored entry. Data holds the JSON-encoded value.
// Key is the primary key for items and is ignored for categories.
type Record struct {
	Key  string
	Data []byte
}

// Store defines the interface for collection persistence
type Store interface {
	// GetAll returns every record of a collection in stored order.
	GetAll(ctx context.Context, c Collection) ([]Record, error)

	// ReplaceAll atomically clears the collection and writes records in order.
	ReplaceAll(ctx context.Context, c Collection, records []Record) error

	// Close releases any resources held by the store
	Close() error
}

// categoryRecord is the stored shape of a category entry.
type categoryRecord struct {
	Name string `json:"name"`
}

// LoadItems reads and decodes the items collection.
func LoadItems(ctx context.Context, s Store) ([]gallery.Item, error) {
	records, err := s.GetAll(ctx, CollectionItems)
	if err != nil {
		return nil, err
	}
	items := make([]gallery.Item, 0, len(records))
	for _, r := range records {
		var it gallery.Item
		if err := json.Unmarshal(r.Data, &it); err != nil {
			return nil, fmt.Errorf("%w: decoding item %q: %w", gallery.ErrStorageUnavailable, r.Key, err)
		}
		if it.ID == "" {
			it.ID = r.Key
		}
		if it.Tags == nil {
			it.Tags = []string{}
		}
		items = append(items, it)
	}
	return items, nil
}

// LoadCategories reads and decodes the categories collection.
func LoadCategories(ctx context.Context, s Store) ([]string, error) {
	records, err := s.GetAll(ctx, CollectionCategories)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		var c categoryRecord
		if err := json.Unmarshal(r.Data, &c); err != nil {
			return nil, fmt.Errorf("%w: decoding category record: %w", gallery.ErrStorageUnavailable, err)
		}
		names = append(names, c.Name)
	}
	return names, nil
}

// SaveItems encodes items and replaces the items collection.
func SaveItems(ctx context.Context, s Store, items []gallery.Item) error {
	records := make([]Record, 0, len(items))
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("%w: encoding item %q: %w", gallery.ErrStorageWrite, it.ID, err)
		}
		records = append(records, Record{Key: it.ID, Data: data})
	}
	return s.ReplaceAll(ctx, CollectionItems, records)
}

// SaveCategories encodes names and replaces the categories collection.
func SaveCategories(ctx context.Context, s Store, names []string) error {
	records := make([]Record, 0, len(names))
	for _, n := range names {
		data, err := json.Marshal(categoryRecord{Name: n})
		if err != nil {
			return fmt.Errorf("%w: encoding category %q: %w", gallery.ErrStorageWrite, n, err)
		}
		records = append(records, Record{Data: data})
	}
	return s.ReplaceAll(ctx, CollectionCategories, records)
}
