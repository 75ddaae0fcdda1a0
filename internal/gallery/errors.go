// ABOUTME: Error taxonomy for the gallery core
// ABOUTME: Sentinel errors wrapped with context and matched via errors.Is

package gallery

import "errors"

// Validation errors. These are returned before any state is touched.
var (
	// ErrNotFound is returned when an item id does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidCategory is returned when a category name is neither the default nor stored
	ErrInvalidCategory = errors.New("invalid category")

	// ErrEmptyName is returned when a category name is blank after trimming
	ErrEmptyName = errors.New("category name is empty")

	// ErrDuplicateCategory is returned when a category name is already taken
	ErrDuplicateCategory = errors.New("category already exists")

	// ErrDefaultCategory is returned when trying to rename or delete the default category
	ErrDefaultCategory = errors.New("default category cannot be changed")

	// ErrInvalidImage is returned when an image payload is empty
	ErrInvalidImage = errors.New("invalid image data")

	// ErrInvalidFormat is returned when an import document has the wrong shape
	ErrInvalidFormat = errors.New("invalid document format")

	// ErrParseError is returned when an import document is not well-formed JSON
	ErrParseError = errors.New("document is not valid JSON")

	// ErrNothingToExport is returned when exporting a collection with no items
	ErrNothingToExport = errors.New("nothing to export")
)

// Storage and migration errors.
var (
	// ErrStorageUnavailable is returned when the embedded store cannot be opened or read
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrStorageWrite is returned when persisting a collection fails
	ErrStorageWrite = errors.New("storage write failed")

	// ErrLegacyDataCorrupt is returned when the legacy flat payload cannot be parsed
	ErrLegacyDataCorrupt = errors.New("legacy data corrupt")
)

// IsValidation reports whether err is one of the validation errors that
// leave state untouched.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidCategory,
		ErrEmptyName,
		ErrDuplicateCategory,
		ErrDefaultCategory,
		ErrInvalidImage,
		ErrInvalidFormat,
		ErrParseError,
		ErrNothingToExport,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsStorage reports whether err came from the embedded store.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrStorageWrite)
}
