// ABOUTME: Tests for Repository mutations and invariants
// ABOUTME: Covers the category cascade rules, ordering, persistence and notification

package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-gallery/internal/filter"
	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/store"
)

const img = "data:image/png;base64,iVBORw0KGgo="

// sequentialIDs returns a generator producing id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestRepo(t *testing.T) (*Repository, *store.MockStore) {
	t.Helper()
	ms := store.NewMockStore()
	r := New(ms, WithIDGenerator(sequentialIDs()))
	require.NoError(t, r.Load(context.Background()))
	return r, ms
}

func itemIDs(items []gallery.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestScenario_CategoryLifecycle(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	assert.Empty(t, r.Items())
	assert.Equal(t, []string{gallery.DefaultCategory}, r.CategoryList())

	_, err := r.AddCategory(ctx, "Art")
	require.NoError(t, err)
	assert.Equal(t, []string{gallery.DefaultCategory, "Art"}, r.CategoryList())

	_, err = r.AddCategory(ctx, "Art")
	assert.True(t, errors.Is(err, gallery.ErrDuplicateCategory))
	assert.Equal(t, []string{gallery.DefaultCategory, "Art"}, r.CategoryList())

	item, err := r.AddItem(ctx, img, "hello", []string{"x", "y"})
	require.NoError(t, err)
	require.Len(t, r.Items(), 1)
	assert.Equal(t, gallery.DefaultCategory, item.Category)
	assert.Equal(t, []string{"x", "y"}, item.Tags)
	assert.False(t, item.IsFavorite)

	edited, err := r.EditItem(ctx, item.ID, "hi", []string{"z"}, "Art")
	require.NoError(t, err)
	assert.Equal(t, "hi", edited.Note)
	assert.Equal(t, []string{"z"}, edited.Tags)
	assert.Equal(t, "Art", edited.Category)

	res, err := r.DeleteCategory(ctx, "Art")
	require.NoError(t, err)
	assert.Equal(t, 1, res.ItemsReassigned)

	got, err := r.Item(item.ID)
	require.NoError(t, err)
	assert.Equal(t, gallery.DefaultCategory, got.Category)
	assert.Equal(t, []string{gallery.DefaultCategory}, r.CategoryList())
}

func TestAddItem_PrependsNewestFirst(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := r.AddItem(ctx, img, "", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"id-3", "id-2", "id-1"}, itemIDs(r.Items()))
}

func TestAddItem_RejectsEmptyImage(t *testing.T) {
	r, ms := newTestRepo(t)

	_, err := r.AddItem(context.Background(), "", "note", nil)
	assert.True(t, errors.Is(err, gallery.ErrInvalidImage))
	assert.Empty(t, r.Items())
	assert.Zero(t, ms.WriteCount(store.CollectionItems))
}

func TestAddItem_DefaultIDsAreUnique(t *testing.T) {
	r := New(store.NewMockStore())
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		it, err := r.AddItem(ctx, img, "", nil)
		require.NoError(t, err)
		require.False(t, seen[it.ID])
		seen[it.ID] = true
	}
}

func TestAddItem_RetriesCollidingID(t *testing.T) {
	calls := 0
	gen := func() string {
		calls++
		if calls <= 2 {
			return "same"
		}
		return fmt.Sprintf("other-%d", calls)
	}
	r := New(store.NewMockStore(), WithIDGenerator(gen))
	ctx := context.Background()

	first, err := r.AddItem(ctx, img, "", nil)
	require.NoError(t, err)
	second, err := r.AddItem(ctx, img, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "same", first.ID)
	assert.Equal(t, "other-3", second.ID)
}

func TestAddItem_NormalizesTagsAndNote(t *testing.T) {
	r, _ := newTestRepo(t)
	it, err := r.AddItem(context.Background(), img, "  spaced  ", []string{"a", " a", "", "b"})
	require.NoError(t, err)
	assert.Equal(t, "spaced", it.Note)
	assert.Equal(t, []string{"a", "b"}, it.Tags)
}

func TestMissingID_IsNotFoundAndDoesNotPersist(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()
	_, err := r.AddItem(ctx, img, "", nil)
	require.NoError(t, err)
	writes := ms.WriteCount(store.CollectionItems)

	assert.True(t, errors.Is(r.DeleteItem(ctx, "nope"), gallery.ErrNotFound))
	_, err = r.ToggleFavorite(ctx, "nope")
	assert.True(t, errors.Is(err, gallery.ErrNotFound))
	_, err = r.EditItem(ctx, "nope", "", nil, gallery.DefaultCategory)
	assert.True(t, errors.Is(err, gallery.ErrNotFound))
	assert.True(t, errors.Is(r.Reorder(ctx, "nope", 0), gallery.ErrNotFound))
	_, err = r.Item("nope")
	assert.True(t, errors.Is(err, gallery.ErrNotFound))

	assert.Equal(t, writes, ms.WriteCount(store.CollectionItems))
	assert.Len(t, r.Items(), 1)
}

func TestDeleteItem(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := r.AddItem(ctx, img, "", nil)
		require.NoError(t, err)
	}

	require.NoError(t, r.DeleteItem(ctx, "id-2"))
	assert.Equal(t, []string{"id-3", "id-1"}, itemIDs(r.Items()))
}

func TestToggleFavorite(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	it, err := r.AddItem(ctx, img, "", nil)
	require.NoError(t, err)

	fav, err := r.ToggleFavorite(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, fav)

	fav, err = r.ToggleFavorite(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestEditItem_InvalidCategoryLeavesItemUntouched(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()
	it, err := r.AddItem(ctx, img, "orig", []string{"a"})
	require.NoError(t, err)
	writes := ms.WriteCount(store.CollectionItems)

	for _, cat := range []string{"Nope", "", "art"} {
		_, err = r.EditItem(ctx, it.ID, "changed", []string{"b"}, cat)
		assert.True(t, errors.Is(err, gallery.ErrInvalidCategory), "category %q", cat)
	}

	got, err := r.Item(it.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", got.Note)
	assert.Equal(t, []string{"a"}, got.Tags)
	assert.Equal(t, writes, ms.WriteCount(store.CollectionItems))
}

func TestEditItem_CategoryInvariantHolds(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	_, err := r.AddCategory(ctx, "Art")
	require.NoError(t, err)
	it, err := r.AddItem(ctx, img, "", nil)
	require.NoError(t, err)

	for _, cat := range []string{"Art", gallery.DefaultCategory, "Missing"} {
		_, _ = r.EditItem(ctx, it.ID, "", nil, cat)
		for _, item := range r.Items() {
			assert.True(t, gallery.KnownCategory(r.Categories(), item.Category))
		}
	}
}

func TestReorder(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := r.AddItem(ctx, img, "", nil)
		require.NoError(t, err)
	}
	// Order is id-4, id-3, id-2, id-1.

	require.NoError(t, r.Reorder(ctx, "id-1", 0))
	assert.Equal(t, []string{"id-1", "id-4", "id-3", "id-2"}, itemIDs(r.Items()))

	require.NoError(t, r.Reorder(ctx, "id-1", 2))
	assert.Equal(t, []string{"id-4", "id-3", "id-1", "id-2"}, itemIDs(r.Items()))

	require.NoError(t, r.Reorder(ctx, "id-4", 99))
	assert.Equal(t, []string{"id-3", "id-1", "id-2", "id-4"}, itemIDs(r.Items()))

	require.NoError(t, r.Reorder(ctx, "id-2", -5))
	assert.Equal(t, []string{"id-2", "id-3", "id-1", "id-4"}, itemIDs(r.Items()))

	before := itemIDs(r.Items())
	assert.True(t, errors.Is(r.Reorder(ctx, "ghost", 0), gallery.ErrNotFound))
	assert.Equal(t, before, itemIDs(r.Items()))
}

func TestAddCategory_Validation(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()

	_, err := r.AddCategory(ctx, "   ")
	assert.True(t, errors.Is(err, gallery.ErrEmptyName))

	_, err = r.AddCategory(ctx, gallery.DefaultCategory)
	assert.True(t, errors.Is(err, gallery.ErrDuplicateCategory))

	name, err := r.AddCategory(ctx, "  Art ")
	require.NoError(t, err)
	assert.Equal(t, "Art", name)

	// Comparison is case-sensitive.
	_, err = r.AddCategory(ctx, "art")
	require.NoError(t, err)

	assert.Equal(t, []string{"Art", "art"}, r.Categories())
	assert.Equal(t, 2, ms.WriteCount(store.CollectionCategories))
}

func TestRenameCategory_RewritesItemsInPlace(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	for _, c := range []string{"A", "B", "C"} {
		_, err := r.AddCategory(ctx, c)
		require.NoError(t, err)
	}
	first, err := r.AddItem(ctx, img, "", nil)
	require.NoError(t, err)
	second, err := r.AddItem(ctx, img, "", nil)
	require.NoError(t, err)
	_, err = r.EditItem(ctx, first.ID, "", nil, "B")
	require.NoError(t, err)
	_, err = r.EditItem(ctx, second.ID, "", nil, "C")
	require.NoError(t, err)

	res, err := r.RenameCategory(ctx, "B", " Z ")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "Z", res.New)
	assert.Equal(t, 1, res.ItemsUpdated)

	assert.Equal(t, []string{"A", "Z", "C"}, r.Categories())
	got, _ := r.Item(first.ID)
	assert.Equal(t, "Z", got.Category)
	got, _ = r.Item(second.ID)
	assert.Equal(t, "C", got.Category)
}

func TestRenameCategory_Errors(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()
	for _, c := range []string{"A", "B"} {
		_, err := r.AddCategory(ctx, c)
		require.NoError(t, err)
	}
	writes := ms.WriteCount(store.CollectionCategories)

	res, err := r.RenameCategory(ctx, "A", "A")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	_, err = r.RenameCategory(ctx, "A", "B")
	assert.True(t, errors.Is(err, gallery.ErrDuplicateCategory))

	_, err = r.RenameCategory(ctx, "A", gallery.DefaultCategory)
	assert.True(t, errors.Is(err, gallery.ErrDuplicateCategory))

	_, err = r.RenameCategory(ctx, "A", "  ")
	assert.True(t, errors.Is(err, gallery.ErrEmptyName))

	_, err = r.RenameCategory(ctx, "Missing", "New")
	assert.True(t, errors.Is(err, gallery.ErrInvalidCategory))

	_, err = r.RenameCategory(ctx, gallery.DefaultCategory, "New")
	assert.True(t, errors.Is(err, gallery.ErrDefaultCategory))

	assert.Equal(t, []string{"A", "B"}, r.Categories())
	assert.Equal(t, writes, ms.WriteCount(store.CollectionCategories))
}

func TestRenameCategory_RepointsFilter(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	_, err := r.AddCategory(ctx, "A")
	require.NoError(t, err)

	active := filter.ByCategory("A")
	res, err := r.RenameCategory(ctx, "A", "B")
	require.NoError(t, err)
	active = filter.AfterRename(active, res.Old, res.New)
	assert.Equal(t, filter.ByCategory("B"), active)
}

func TestDeleteCategory_Errors(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := r.DeleteCategory(ctx, gallery.DefaultCategory)
	assert.True(t, errors.Is(err, gallery.ErrDefaultCategory))

	_, err = r.DeleteCategory(ctx, "Missing")
	assert.True(t, errors.Is(err, gallery.ErrInvalidCategory))
}

func TestDeleteCategory_ReassignsItemsToDefault(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	for _, c := range []string{"A", "B"} {
		_, err := r.AddCategory(ctx, c)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		it, err := r.AddItem(ctx, img, "", nil)
		require.NoError(t, err)
		cat := "A"
		if i == 1 {
			cat = "B"
		}
		_, err = r.EditItem(ctx, it.ID, "", nil, cat)
		require.NoError(t, err)
	}

	res, err := r.DeleteCategory(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsReassigned)

	for _, it := range r.Items() {
		assert.NotEqual(t, "A", it.Category)
	}
	assert.Len(t, r.View(filter.ByCategory("B")), 1)
	assert.Len(t, r.View(filter.Uncategorized()), 2)
	assert.Equal(t, []string{"B"}, r.Categories())
}

func TestStorageFailure_KeepsInMemoryMutation(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()
	ms.FailReplaceAll = errors.New("disk full")

	it, err := r.AddItem(ctx, img, "kept", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gallery.ErrStorageWrite))
	assert.Equal(t, []string{it.ID}, itemIDs(r.Items()))

	// Retry after the storage recovers writes the whole state.
	ms.FailReplaceAll = nil
	require.NoError(t, r.Save(ctx))

	fresh := New(ms)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, []string{it.ID}, itemIDs(fresh.Items()))
}

func TestStorageFailure_PartialWriteIsReported(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()
	ms.FailReplaceAll = errors.New("quota")
	ms.FailOn = []store.Collection{store.CollectionCategories}

	_, err := r.AddCategory(ctx, "Art")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gallery.ErrStorageWrite))
	assert.Equal(t, []string{"Art"}, r.Categories())
	assert.Equal(t, 1, ms.WriteCount(store.CollectionItems))
}

func TestLoad_StorageUnavailable(t *testing.T) {
	ms := store.NewMockStore()
	ms.FailGetAll = errors.New("cannot open")
	r := New(ms)

	err := r.Load(context.Background())
	assert.True(t, errors.Is(err, gallery.ErrStorageUnavailable))
}

func TestLoad_RepairsStoredCollection(t *testing.T) {
	ms := store.NewMockStore()
	ctx := context.Background()
	require.NoError(t, store.SaveCategories(ctx, ms, []string{gallery.DefaultCategory, "A", "A"}))
	require.NoError(t, store.SaveItems(ctx, ms, []gallery.Item{
		{ID: "1", Category: "A"},
		{ID: "2", Category: "Gone"},
		{ID: "3"},
	}))

	r := New(ms)
	require.NoError(t, r.Load(ctx))

	assert.Equal(t, []string{"A"}, r.Categories())
	items := r.Items()
	assert.Equal(t, "A", items[0].Category)
	assert.Equal(t, gallery.DefaultCategory, items[1].Category)
	assert.Equal(t, gallery.DefaultCategory, items[2].Category)
}

func TestReplaceAll_CoercesAndDedupes(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	res, err := r.ReplaceAll(ctx, []gallery.Item{
		{ID: "a", ImageData: img, Category: "Keep", Tags: []string{"t", "t"}},
		{ID: "b", ImageData: img, Category: "Unknown"},
		{ID: "a", ImageData: img, Category: "Keep"},
		{ID: "", ImageData: img},
	}, []string{"Keep", "Keep", "", gallery.DefaultCategory})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Items)
	assert.Equal(t, 1, res.Categories)
	assert.Equal(t, 1, res.Coerced)
	assert.Equal(t, 1, res.DroppedItems)
	assert.Equal(t, 3, res.DroppedCategories)

	items := r.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, []string{"t"}, items[0].Tags)
	assert.Equal(t, gallery.DefaultCategory, items[1].Category)
	assert.NotEmpty(t, items[2].ID)
	assert.Equal(t, []string{"Keep"}, r.Categories())
}

func TestReplaceAll_TrimsItemCategory(t *testing.T) {
	r, _ := newTestRepo(t)

	res, err := r.ReplaceAll(context.Background(), []gallery.Item{
		{ID: "a", ImageData: img, Category: " Art "},
		{ID: "b", ImageData: img, Category: "  "},
	}, []string{" Art "})
	require.NoError(t, err)
	assert.Zero(t, res.Coerced)

	items := r.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Art", items[0].Category)
	assert.Equal(t, gallery.DefaultCategory, items[1].Category)
	assert.Equal(t, []string{"Art"}, r.Categories())
}

func TestSubscribe_NotifiesAfterMutation(t *testing.T) {
	r, ms := newTestRepo(t)
	ctx := context.Background()

	var changes []Change
	unsubscribe := r.Subscribe(func(ch Change) { changes = append(changes, ch) })

	it, err := r.AddItem(ctx, img, "", nil)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, OpAddItem, changes[0].Op)
	assert.Equal(t, it.ID, changes[0].ItemID)
	assert.NoError(t, changes[0].PersistErr)

	// Failed persistence still notifies, carrying the error.
	ms.FailReplaceAll = errors.New("boom")
	_, _ = r.ToggleFavorite(ctx, it.ID)
	require.Len(t, changes, 2)
	assert.Error(t, changes[1].PersistErr)

	// Validation errors do not notify.
	_, _ = r.AddCategory(ctx, "")
	assert.Len(t, changes, 2)

	unsubscribe()
	ms.FailReplaceAll = nil
	_, _ = r.ToggleFavorite(ctx, it.ID)
	assert.Len(t, changes, 2)
}

func TestAccessorsReturnCopies(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	_, err := r.AddCategory(ctx, "A")
	require.NoError(t, err)
	_, err = r.AddItem(ctx, img, "", []string{"x"})
	require.NoError(t, err)

	items := r.Items()
	items[0].Tags[0] = "mutated"
	items[0].Note = "mutated"
	cats := r.Categories()
	cats[0] = "mutated"

	assert.Equal(t, []string{"x"}, r.Items()[0].Tags)
	assert.Equal(t, "", r.Items()[0].Note)
	assert.Equal(t, []string{"A"}, r.Categories())
}

func TestTagsAndView(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	_, err := r.AddItem(ctx, img, "", []string{"x"})
	require.NoError(t, err)
	_, err = r.AddItem(ctx, img, "", []string{"y", "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"y", "x"}, r.Tags())
	assert.Equal(t, []string{"id-2", "id-1"}, itemIDs(r.View(filter.ByTag("x"))))
}

func TestClose_RejectsMutations(t *testing.T) {
	r, _ := newTestRepo(t)
	require.NoError(t, r.Close())

	_, err := r.AddItem(context.Background(), img, "", nil)
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = r.AddCategory(context.Background(), "A")
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(r.Load(context.Background()), ErrClosed))
}

func TestRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "gallery.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	r := New(s)
	require.NoError(t, r.Load(ctx))

	_, err = r.AddCategory(ctx, "Art")
	require.NoError(t, err)
	a, err := r.AddItem(ctx, img, "first", []string{"x"})
	require.NoError(t, err)
	b, err := r.AddItem(ctx, img, "second", nil)
	require.NoError(t, err)
	_, err = r.EditItem(ctx, a.ID, "first", []string{"x"}, "Art")
	require.NoError(t, err)
	require.NoError(t, r.Reorder(ctx, a.ID, 0))
	want := r.Items()
	require.NoError(t, s.Close())

	s2, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s2.Close()
	r2 := New(s2)
	require.NoError(t, r2.Load(ctx))

	assert.Equal(t, want, r2.Items())
	assert.Equal(t, []string{a.ID, b.ID}, itemIDs(r2.Items()))
	assert.Equal(t, []string{"Art"}, r2.Categories())
}
