// Package store provides the embedded key-value persistence behind the gallery.
//
// # Architecture
//
// Store is a small interface over two named collections:
//
//   - items: one record per Item, keyed by item id
//   - categories: one record per category name, auto-keyed
//
// Each collection supports a bulk read (GetAll) and an atomic bulk replace
// (ReplaceAll). Records keep the order in which they were last written, so
// the manual display order of items survives a reload.
//
// SQLiteStore implements Store on an embedded SQLite database. MockStore is
// an in-memory implementation for tests, with optional injected failures.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode:
//
//	PRAGMA journal_mode=WAL;
//
// Two drivers are supported:
//
//   - "sqlite": modernc.org/sqlite, pure Go (default)
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//
// Database file locations:
//
//   - Default: ~/.local/share/coven/gallery.db
//   - Testing: :memory: (in-memory database)
//
// # Error Handling
//
// Open and read failures wrap gallery.ErrStorageUnavailable. Write failures
// wrap gallery.ErrStorageWrite. A failed ReplaceAll rolls back its
// transaction, so the collection keeps its previous content.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore(":memory:") for
// integration tests with real SQLite.
package store
