// ABOUTME: Repository owning the gallery items and category list
// ABOUTME: Enforces category invariants and persists both collections after each mutation

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/2389/coven-gallery/internal/filter"
	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/store"
)

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("repository is closed")

// Op identifies the mutation that produced a Change.
type Op string

// Ops reported in Change notifications
const (
	OpLoad           Op = "load"
	OpAddItem        Op = "add_item"
	OpDeleteItem     Op = "delete_item"
	OpToggleFavorite Op = "toggle_favorite"
	OpEditItem       Op = "edit_item"
	OpReorder        Op = "reorder"
	OpAddCategory    Op = "add_category"
	OpRenameCategory Op = "rename_category"
	OpDeleteCategory Op = "delete_category"
	OpReplaceAll     Op = "replace_all"
)

// Change is delivered to subscribers after a mutation has been applied.
// PersistErr is set when the in-memory state could not be saved.
type Change struct {
	Op         Op
	ItemID     string
	Category   string
	PersistErr error
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger for the repository.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger.With("component", "repository")
		}
	}
}

// WithIDGenerator replaces the item id generator (gallery.NewID by default).
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Repository owns the gallery collection.
type Repository struct {
	store  store.Store
	logger *slog.Logger
	newID  func() string

	items      []gallery.Item
	categories []string

	listeners    map[int]func(Change)
	nextListener int
	closed       bool
}

// New creates a Repository backed by s. The collection starts empty until Load.
// The store is owned by the caller and is not closed by Close.
func New(s store.Store, opts ...Option) *Repository {
	r := &Repository{
		store:      s,
		logger:     slog.Default().With("component", "repository"),
		newID:      gallery.NewID,
		items:      []gallery.Item{},
		categories: []string{},
		listeners:  make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the in-memory collection with the stored one.
// Stored data that violates the category invariants is repaired in memory.
func (r *Repository) Load(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}

	items, err := store.LoadItems(ctx, r.store)
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}
	cats, err := store.LoadCategories(ctx, r.store)
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}

	res := r.sanitize(items, cats)
	if res.Coerced > 0 || res.DroppedItems > 0 || res.DroppedCategories > 0 {
		r.logger.Warn("repaired stored collection",
			"coerced", res.Coerced,
			"dropped_items", res.DroppedItems,
			"dropped_categories", res.DroppedCategories,
		)
	}

	r.items = res.items
	r.categories = res.categories
	r.logger.Info("collection loaded", "items", len(r.items), "categories", len(r.categories))
	r.notify(Change{Op: OpLoad})
	return nil
}

// Close releases subscriptions. Further mutations return ErrClosed.
func (r *Repository) Close() error {
	r.closed = true
	r.listeners = make(map[int]func(Change))
	return nil
}

// Subscribe registers fn to be called after every applied mutation.
// The returned function removes the subscription.
func (r *Repository) Subscribe(fn func(Change)) func() {
	id := r.nextListener
	r.nextListener++
	r.listeners[id] = fn
	return func() { delete(r.listeners, id) }
}

// Items returns a copy of the collection in manual order.
func (r *Repository) Items() []gallery.Item {
	return gallery.CloneItems(r.items)
}

// Item returns a copy of the item with the given id.
func (r *Repository) Item(id string) (gallery.Item, error) {
	i := r.indexOf(id)
	if i < 0 {
		return gallery.Item{}, fmt.Errorf("item %q: %w", id, gallery.ErrNotFound)
	}
	return r.items[i].Clone(), nil
}

// Categories returns the stored category list (without the default).
func (r *Repository) Categories() []string {
	return slices.Clone(r.categories)
}

// CategoryList returns the display listing with the default category first.
func (r *Repository) CategoryList() []string {
	return gallery.WithDefault(r.categories)
}

// Tags returns the union of all item tags in first-seen order.
func (r *Repository) Tags() []string {
	return filter.Tags(r.items)
}

// View returns the items matching spec, preserving manual order.
func (r *Repository) View(spec filter.Spec) []gallery.Item {
	return gallery.CloneItems(filter.Apply(r.items, spec))
}

func (r *Repository) indexOf(id string) int {
	return slices.IndexFunc(r.items, func(it gallery.Item) bool { return it.ID == id })
}

// commit swaps in the new state, persists both collections and notifies.
// The returned error is the persistence error, if any.
func (r *Repository) commit(ctx context.Context, items []gallery.Item, cats []string, ch Change) error {
	r.items = items
	r.categories = cats

	ch.PersistErr = r.persist(ctx)
	if ch.PersistErr != nil {
		r.logger.Error("persisting collection failed", "op", string(ch.Op), "error", ch.PersistErr)
	} else {
		r.logger.Debug("collection persisted", "op", string(ch.Op), "items", len(items), "categories", len(cats))
	}
	r.notify(ch)
	return ch.PersistErr
}

// persist writes both collections. Both writes are attempted even if the
// first fails; there is no cross-collection atomicity.
func (r *Repository) persist(ctx context.Context) error {
	var errs []error
	if err := store.SaveItems(ctx, r.store, r.items); err != nil {
		errs = append(errs, fmt.Errorf("saving items: %w", err))
	}
	if err := store.SaveCategories(ctx, r.store, r.categories); err != nil {
		errs = append(errs, fmt.Errorf("saving categories: %w", err))
	}
	return errors.Join(errs...)
}

func (r *Repository) notify(ch Change) {
	ids := make([]int, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := r.listeners[id]; ok {
			fn(ch)
		}
	}
}

// Save persists the current state without mutating it.
// Use it to retry after a storage failure.
func (r *Repository) Save(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}
	return r.persist(ctx)
}
