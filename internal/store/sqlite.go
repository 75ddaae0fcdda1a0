// ABOUTME: SQLite implementation of the Store interface
// ABOUTME: Provides ordered collection persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/2389/coven-gallery/internal/gallery"
)

// schemaVersion is written to the meta table on initialization.
const schemaVersion = 1

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	path   string
	driver string
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithDriver selects the database/sql driver ("sqlite" or "sqlite3").
func WithDriver(name string) Option {
	return func(s *SQLiteStore) {
		if name != "" {
			s.driver = name
		}
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		if logger != nil {
			s.logger = logger.With("component", "store")
		}
	}
}

// NewSQLiteStore opens (or creates) the gallery database at path.
// The schema is created if it doesn't exist; opening an existing database
// never touches its data. Parent directories are created if needed.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		logger: slog.Default().With("component", "store"),
		path:   path,
		driver: DriverModernc,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !KnownDriver(s.driver) {
		return nil, fmt.Errorf("%w: unknown driver %q", gallery.ErrStorageUnavailable, s.driver)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("%w: creating database directory: %w", gallery.ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open(s.driver, path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", gallery.ErrStorageUnavailable, err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	s.db = db

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling WAL mode: %w", gallery.ErrStorageUnavailable, err)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %w", gallery.ErrStorageUnavailable, err)
	}

	s.logger.Info("SQLite store initialized", "path", path, "driver", s.driver)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS items (
			id         TEXT PRIMARY KEY,
			position   INTEGER NOT NULL,
			json       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_items_position ON items(position);

		CREATE TABLE IF NOT EXISTS categories (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			json TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	_, err := s.db.Exec(`INSERT OR IGNORE INTO meta(k, v) VALUES('schema_version', ?)`, strconv.Itoa(schemaVersion))
	return err
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v string
	if err := s.db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = 'schema_version'`).Scan(&v); err != nil {
		return 0, fmt.Errorf("%w: reading schema version: %w", gallery.ErrStorageUnavailable, err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid schema version %q", gallery.ErrStorageUnavailable, v)
	}
	return n, nil
}

// GetAll returns every record of a collection in stored order.
func (s *SQLiteStore) GetAll(ctx context.Context, c Collection) ([]Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: store is closed", gallery.ErrStorageUnavailable)
	}

	var query string
	switch c {
	case CollectionItems:
		query = `SELECT id, json FROM items ORDER BY position ASC`
	case CollectionCategories:
		query = `SELECT CAST(id AS TEXT), json FROM categories ORDER BY id ASC`
	default:
		return nil, fmt.Errorf("%w: unknown collection %q", gallery.ErrStorageUnavailable, c)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %w", gallery.ErrStorageUnavailable, c, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("%w: scanning %s: %w", gallery.ErrStorageUnavailable, c, err)
		}
		records = append(records, Record{Key: key, Data: []byte(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s: %w", gallery.ErrStorageUnavailable, c, err)
	}
	return records, nil
}

// ReplaceAll clears the collection and writes records in a single transaction.
// On failure the transaction is rolled back and the previous content remains.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, c Collection, records []Record) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown collection %q", gallery.ErrStorageWrite, c)
	}
	if s.db == nil {
		return fmt.Errorf("%w: store is closed", gallery.ErrStorageWrite)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", gallery.ErrStorageWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+string(c)); err != nil {
		return fmt.Errorf("%w: clearing %s: %w", gallery.ErrStorageWrite, c, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, r := range records {
		switch c {
		case CollectionItems:
			_, err = tx.ExecContext(ctx,
				`INSERT INTO items(id, position, json, updated_at) VALUES(?, ?, ?, ?)`,
				r.Key, i, string(r.Data), now)
		case CollectionCategories:
			_, err = tx.ExecContext(ctx, `INSERT INTO categories(json) VALUES(?)`, string(r.Data))
		}
		if err != nil {
			return fmt.Errorf("%w: writing %s record %d: %w", gallery.ErrStorageWrite, c, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing %s: %w", gallery.ErrStorageWrite, c, err)
	}

	s.logger.Debug("collection replaced", "collection", string(c), "records", len(records))
	return nil
}

// Path returns the database path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
