// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject storage failures

package store

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/2389/coven-gallery/internal/gallery"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu          sync.RWMutex
	collections map[Collection][]Record
	nextKey     int

	// FailGetAll, when set, is returned (wrapped) by every GetAll call.
	FailGetAll error
	// FailReplaceAll, when set, is returned (wrapped) by ReplaceAll for the
	// collections listed in FailOn, or for every collection if FailOn is empty.
	FailReplaceAll error
	FailOn         []Collection

	// Writes counts successful ReplaceAll calls per collection.
	Writes map[Collection]int
}

// NewMockStore creates a new MockStore with both collections empty.
func NewMockStore() *MockStore {
	return &MockStore{
		collections: map[Collection][]Record{
			CollectionItems:      {},
			CollectionCategories: {},
		},
		Writes: make(map[Collection]int),
	}
}

// GetAll returns a copy of the collection's records.
func (m *MockStore) GetAll(ctx context.Context, c Collection) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailGetAll != nil {
		return nil, fmt.Errorf("%w: %w", gallery.ErrStorageUnavailable, m.FailGetAll)
	}
	recs, ok := m.collections[c]
	if !ok {
		return nil, fmt.Errorf("%w: unknown collection %q", gallery.ErrStorageUnavailable, c)
	}
	return copyRecords(recs), nil
}

// ReplaceAll swaps in a copy of records for the collection.
func (m *MockStore) ReplaceAll(ctx context.Context, c Collection, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !c.Valid() {
		return fmt.Errorf("%w: unknown collection %q", gallery.ErrStorageWrite, c)
	}
	if m.FailReplaceAll != nil && (len(m.FailOn) == 0 || slices.Contains(m.FailOn, c)) {
		return fmt.Errorf("%w: %w", gallery.ErrStorageWrite, m.FailReplaceAll)
	}

	recs := copyRecords(records)
	if c == CollectionCategories {
		for i := range recs {
			m.nextKey++
			recs[i].Key = strconv.Itoa(m.nextKey)
		}
	} else {
		seen := make(map[string]bool, len(recs))
		for _, r := range recs {
			if seen[r.Key] {
				return fmt.Errorf("%w: duplicate key %q", gallery.ErrStorageWrite, r.Key)
			}
			seen[r.Key] = true
		}
	}
	m.collections[c] = recs
	m.Writes[c]++
	return nil
}

// WriteCount returns the number of successful writes to a collection.
func (m *MockStore) WriteCount(c Collection) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Writes[c]
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}

func copyRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = Record{Key: r.Key, Data: slices.Clone(r.Data)}
	}
	return out
}
