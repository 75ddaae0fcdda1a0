// Package gallery defines the record schema shared by every layer of the
// image gallery: items, the category list, and the error taxonomy.
//
// # Items
//
// An Item pairs an encoded image payload with a free-text note, a set of
// tags, a favorite flag and a category. The category always names either the
// DefaultCategory or an entry of the stored category list.
//
// # Categories
//
// The stored category list is an ordered sequence of unique names. The
// default category is implicit: it is never stored, always listed first, and
// can be neither renamed nor deleted. NormalizeCategories enforces this shape
// and is the single dedup policy used by load, import and migration.
//
// # Errors
//
// All failures are reported with the sentinel errors in this package, usually
// wrapped with context. Callers match them with errors.Is:
//
//	if errors.Is(err, gallery.ErrDuplicateCategory) {
//		// tell the user the name is taken
//	}
package gallery
