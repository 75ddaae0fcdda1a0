// ABOUTME: Legacy flat-storage access for migration
// ABOUTME: FileSource keeps the legacy document at <dir>/<key>.json

package migrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultKey is the flat-storage key the legacy app wrote its data under.
const DefaultKey = "imageDataApp"

// LegacySource reads and clears the legacy flat document.
type LegacySource interface {
	// Read returns the raw payload and whether one is present.
	Read(ctx context.Context) ([]byte, bool, error)

	// Clear removes the legacy payload. Clearing an absent payload is not an error.
	Clear(ctx context.Context) error
}

// FileSource is a LegacySource backed by a single JSON file.
type FileSource struct {
	Dir string
	Key string
}

// NewFileSource returns a FileSource for dir, using DefaultKey when key is empty.
func NewFileSource(dir, key string) *FileSource {
	if key == "" {
		key = DefaultKey
	}
	return &FileSource{Dir: dir, Key: key}
}

// Path returns the file holding the legacy payload.
func (f *FileSource) Path() string {
	key := f.Key
	if key == "" {
		key = DefaultKey
	}
	return filepath.Join(f.Dir, key+".json")
}

// Read returns the file contents. A missing or blank file counts as absent.
func (f *FileSource) Read(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading legacy data: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// Clear deletes the legacy file.
func (f *FileSource) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing legacy data: %w", err)
	}
	return nil
}
