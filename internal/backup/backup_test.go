// ABOUTME: Tests for the export/import codec
// ABOUTME: Round trip through a repository and the error split between parse and format failures

package backup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/repository"
	"github.com/2389/coven-gallery/internal/store"
)

func newRepo(t *testing.T) *repository.Repository {
	t.Helper()
	r := repository.New(store.NewMockStore())
	require.NoError(t, r.Load(context.Background()))
	return r
}

func sampleRepo(t *testing.T) *repository.Repository {
	t.Helper()
	ctx := context.Background()
	r := newRepo(t)
	_, err := r.AddCategory(ctx, "Art")
	require.NoError(t, err)
	_, err = r.AddCategory(ctx, "Food")
	require.NoError(t, err)

	a, err := r.AddItem(ctx, "data:image/png;base64,AA==", "a <b>&", []string{"x", "y"})
	require.NoError(t, err)
	_, err = r.AddItem(ctx, "data:image/jpeg;base64,BB==", "", nil)
	require.NoError(t, err)
	_, err = r.EditItem(ctx, a.ID, "a <b>&", []string{"x", "y"}, "Food")
	require.NoError(t, err)
	_, err = r.ToggleFavorite(ctx, a.ID)
	require.NoError(t, err)
	return r
}

func TestRoundTrip(t *testing.T) {
	src := sampleRepo(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Export(src.Items(), src.Categories())))

	dst := newRepo(t)
	res, err := Import(context.Background(), dst, buf.Bytes())
	require.NoError(t, err)
	assert.Zero(t, res.Coerced)

	assert.Equal(t, src.Items(), dst.Items())
	assert.Equal(t, src.Categories(), dst.Categories())
}

func TestEncode_KeepsDataURIsReadable(t *testing.T) {
	var buf bytes.Buffer
	doc := Document{Items: []gallery.Item{{ID: "1", ImageData: "data:image/png;base64,a+b/c=", Note: "<i>", Tags: []string{}}}}
	require.NoError(t, Encode(&buf, doc))
	assert.Contains(t, buf.String(), `"imageData":"data:image/png;base64,a+b/c="`)
	assert.Contains(t, buf.String(), `"note":"<i>"`)
	assert.Contains(t, buf.String(), `"categories":[]`)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"not json", `{"items": [`, gallery.ErrParseError},
		{"empty input", ``, gallery.ErrParseError},
		{"trailing garbage", `{} x`, gallery.ErrParseError},
		{"array", `[]`, gallery.ErrInvalidFormat},
		{"string", `"hello"`, gallery.ErrInvalidFormat},
		{"no keys", `{"foo": 1}`, gallery.ErrInvalidFormat},
		{"both null", `{"items": null, "categories": null}`, gallery.ErrInvalidFormat},
		{"items wrong type", `{"items": "x", "categories": []}`, gallery.ErrInvalidFormat},
		{"categories wrong type", `{"items": [], "categories": [1]}`, gallery.ErrInvalidFormat},
		{"null item", `{"items": [null]}`, gallery.ErrInvalidFormat},
		{"scalar item", `{"items": [{"id": "1", "imageData": "x"}, 7]}`, gallery.ErrInvalidFormat},
		{"item field wrong type", `{"items": [{"id": 1}]}`, gallery.ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecode_MissingFieldIsEmpty(t *testing.T) {
	doc, err := Decode([]byte(`{"categories": ["A"]}`))
	require.NoError(t, err)
	assert.Equal(t, []gallery.Item{}, doc.Items)
	assert.Equal(t, []string{"A"}, doc.Categories)

	doc, err = Decode([]byte(`{"items": [{"id": "1", "imageData": "x"}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, []string{}, doc.Items[0].Tags)
	assert.Equal(t, []string{}, doc.Categories)
}

func TestImport_DuplicateCategoriesAreDeduplicated(t *testing.T) {
	r := newRepo(t)
	res, err := Import(context.Background(), r, []byte(`{"items":[],"categories":["A","A"]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.DroppedCategories)
	assert.Equal(t, []string{"A"}, r.Categories())
	assert.Empty(t, r.Items())
}

func TestImport_CoercesUnknownCategories(t *testing.T) {
	r := newRepo(t)
	data := `{
	  "items": [
	    {"id": "1", "imageData": "x", "category": "Missing", "tags": ["t"]},
	    {"id": "2", "imageData": "y", "category": "A"},
	    {"id": "3", "imageData": "z"}
	  ],
	  "categories": ["預設分類", "A"]
	}`
	res, err := Import(context.Background(), r, []byte(data))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Coerced)

	items := r.Items()
	require.Len(t, items, 3)
	assert.Equal(t, gallery.DefaultCategory, items[0].Category)
	assert.Equal(t, "A", items[1].Category)
	assert.Equal(t, gallery.DefaultCategory, items[2].Category)
	assert.Equal(t, []string{"A"}, r.Categories())
}

func TestImport_KeepsPaddedCategoryReference(t *testing.T) {
	r := newRepo(t)
	data := `{"items":[{"id":"1","imageData":"x","category":" Art "}],"categories":[" Art "]}`
	res, err := Import(context.Background(), r, []byte(data))
	require.NoError(t, err)
	assert.Zero(t, res.Coerced)
	assert.Equal(t, []string{"Art"}, r.Categories())

	items := r.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Art", items[0].Category)
}

func TestImport_BadInputLeavesCollection(t *testing.T) {
	r := sampleRepo(t)
	before := r.Items()

	_, err := Import(context.Background(), r, []byte(`{bad`))
	assert.True(t, errors.Is(err, gallery.ErrParseError))
	_, err = Import(context.Background(), r, []byte(`{"other": true}`))
	assert.True(t, errors.Is(err, gallery.ErrInvalidFormat))
	_, err = Import(context.Background(), r, []byte(`{"items": [null]}`))
	assert.True(t, errors.Is(err, gallery.ErrInvalidFormat))

	assert.Equal(t, before, r.Items())
}

func TestFileName(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	ts := time.Date(2024, 3, 5, 7, 8, 9, 0, loc)
	assert.Equal(t, "image_data_backup_2024-03-04_23-08-09.json", FileName(ts))
}

func TestWriteFile(t *testing.T) {
	r := sampleRepo(t)
	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	path, err := WriteFile(dir, Export(r.Items(), r.Categories()), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "image_data_backup_2025-01-02_03-04-05.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, r.Items(), doc.Items)
	assert.Equal(t, []string{"Art", "Food"}, doc.Categories)
}

func TestWriteFile_NothingToExport(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteFile(dir, Export(nil, []string{"A"}), time.Now())
	assert.True(t, errors.Is(err, gallery.ErrNothingToExport))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
