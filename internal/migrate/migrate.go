// ABOUTME: Legacy payload parsing and the detect-confirm-migrate-clear flow
// ABOUTME: Each field is decoded leniently so a partly damaged payload still migrates

package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/repository"
)

// Target receives the migrated collection. *repository.Repository implements it.
type Target interface {
	ReplaceAll(ctx context.Context, items []gallery.Item, categories []string) (repository.ReplaceResult, error)
}

// Status describes how Run ended.
type Status string

// Run outcomes
const (
	StatusNoLegacyData Status = "no_legacy_data"
	StatusDeclined     Status = "declined"
	StatusMigrated     Status = "migrated"
)

// Result reports what a migration wrote.
type Result struct {
	Status            Status
	Items             int
	Categories        int
	SkippedItems      int // array entries that were not item objects
	SkippedCategories int // array entries that were not strings
	Replace           repository.ReplaceResult
}

// Service runs the legacy migration.
type Service struct {
	Source LegacySource
	Target Target
	Logger *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default().With("component", "migrate")
}

// HasLegacyData reports whether the legacy key holds a payload.
func (s *Service) HasLegacyData(ctx context.Context) (bool, error) {
	_, ok, err := s.Source.Read(ctx)
	return ok, err
}

// Migrate parses payload and writes it to the target. It never clears the
// legacy key; that is left to the caller once Migrate has returned nil.
func (s *Service) Migrate(ctx context.Context, payload []byte) (Result, error) {
	p, err := parsePayload(payload)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Items:             len(p.items),
		Categories:        len(p.categories),
		SkippedItems:      p.skippedItems,
		SkippedCategories: p.skippedCategories,
	}
	res.Replace, err = s.Target.ReplaceAll(ctx, p.items, p.categories)
	if err != nil {
		return res, fmt.Errorf("writing migrated data: %w", err)
	}
	res.Status = StatusMigrated
	return res, nil
}

// Run detects legacy data, asks confirm, migrates and clears the key.
// A nil confirm is treated as approval. A declined confirmation or a failed
// migration leaves the legacy data in place.
func (s *Service) Run(ctx context.Context, confirm func() bool) (Result, error) {
	payload, ok, err := s.Source.Read(ctx)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Status: StatusNoLegacyData}, nil
	}
	if confirm != nil && !confirm() {
		s.logger().Info("legacy migration declined")
		return Result{Status: StatusDeclined}, nil
	}

	res, err := s.Migrate(ctx, payload)
	if err != nil {
		s.logger().Error("legacy migration failed", "error", err)
		return res, err
	}
	if err := s.Source.Clear(ctx); err != nil {
		return res, err
	}

	s.logger().Info("legacy data migrated",
		"items", res.Replace.Items,
		"categories", res.Replace.Categories,
		"skipped_items", res.SkippedItems,
		"coerced", res.Replace.Coerced,
	)
	return res, nil
}

type payload struct {
	items             []gallery.Item
	categories        []string
	skippedItems      int
	skippedCategories int
}

// parsePayload decodes the legacy document. Only a payload that is not a
// JSON object is corrupt; absent or malformed fields fall back to defaults.
func parsePayload(data []byte) (payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return payload{}, fmt.Errorf("%w: %v", gallery.ErrLegacyDataCorrupt, err)
	}
	if fields == nil {
		return payload{}, fmt.Errorf("%w: payload is null", gallery.ErrLegacyDataCorrupt)
	}

	var p payload
	p.items, p.skippedItems = decodeItems(fields["items"])
	p.categories, p.skippedCategories = decodeCategories(fields["categories"])
	return p, nil
}

func decodeItems(raw json.RawMessage) ([]gallery.Item, int) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return []gallery.Item{}, 0
	}
	items := make([]gallery.Item, 0, len(elems))
	skipped := 0
	for _, e := range elems {
		var it gallery.Item
		if err := decodeObject(e, &it); err != nil {
			skipped++
			continue
		}
		items = append(items, it)
	}
	return items, skipped
}

func decodeCategories(raw json.RawMessage) ([]string, int) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return []string{gallery.DefaultCategory}, 0
	}
	names := make([]string, 0, len(elems))
	skipped := 0
	for _, e := range elems {
		var name string
		if err := json.Unmarshal(e, &name); err != nil {
			skipped++
			continue
		}
		names = append(names, name)
	}
	return names, skipped
}

var errNotObject = errors.New("not an object")

// decodeObject unmarshals e into v, rejecting null and non-object values.
func decodeObject(e json.RawMessage, v any) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(e, &probe); err != nil {
		return err
	}
	if probe == nil {
		return errNotObject
	}
	return json.Unmarshal(e, v)
}
