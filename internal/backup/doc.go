// Package backup exports the gallery collection to a portable JSON document
// and imports it back.
//
// The document shape is {"items": [...], "categories": [...]}. Items use the
// same field names as the stored records, so an export read back with Import
// reproduces the collection field for field.
package backup
