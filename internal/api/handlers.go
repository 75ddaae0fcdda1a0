// ABOUTME: Request handlers for items, categories, tags and backups
// ABOUTME: Translates JSON requests into repository calls and core errors into HTTP statuses

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/2389/coven-gallery/internal/backup"
	"github.com/2389/coven-gallery/internal/filter"
	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/repository"
)

// ItemsResponse is the response for GET /api/items.
type ItemsResponse struct {
	Filter string         `json:"filter"`
	Items  []gallery.Item `json:"items"`
}

// AddItemRequest is the body for POST /api/items.
// TagText is free-form input split on commas and whitespace; it is used
// when Tags is empty.
type AddItemRequest struct {
	ImageData string   `json:"imageData"`
	Note      string   `json:"note"`
	Tags      []string `json:"tags"`
	TagText   string   `json:"tagText"`
}

// EditItemRequest is the body for PUT /api/items/{id}. Omitted fields keep
// their current value.
type EditItemRequest struct {
	Note     *string   `json:"note"`
	Tags     *[]string `json:"tags"`
	TagText  *string   `json:"tagText"`
	Category *string   `json:"category"`
}

// NoteResponse is the response for GET /api/items/{id}/note.
type NoteResponse struct {
	ID   string `json:"id"`
	Note string `json:"note"`
	HTML string `json:"html"`
}

// FavoriteResponse is the response for POST /api/items/{id}/favorite.
type FavoriteResponse struct {
	ID         string `json:"id"`
	IsFavorite bool   `json:"isFavorite"`
}

// MoveRequest is the body for POST /api/items/{id}/move.
type MoveRequest struct {
	Index int `json:"index"`
}

// CategoriesResponse is the response for GET /api/categories.
// Categories lists the default category first.
type CategoriesResponse struct {
	Default    string   `json:"default"`
	Categories []string `json:"categories"`
}

// CategoryRequest names a category in POST and PUT bodies.
type CategoryRequest struct {
	Name string `json:"name"`
}

// RenameResponse is the response for PUT /api/categories/{name}.
type RenameResponse struct {
	Old          string `json:"old"`
	New          string `json:"new"`
	Changed      bool   `json:"changed"`
	ItemsUpdated int    `json:"itemsUpdated"`
}

// DeleteCategoryResponse is the response for DELETE /api/categories/{name}.
type DeleteCategoryResponse struct {
	Name            string `json:"name"`
	ItemsReassigned int    `json:"itemsReassigned"`
}

// ImportResponse is the response for POST /api/import.
type ImportResponse struct {
	Items             int `json:"items"`
	Categories        int `json:"categories"`
	Coerced           int `json:"coerced"`
	DroppedItems      int `json:"droppedItems"`
	DroppedCategories int `json:"droppedCategories"`
}

// handleListItems handles GET /api/items.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	spec := filter.Parse(r.URL.Query().Get("filter"))
	s.writeJSON(w, http.StatusOK, ItemsResponse{
		Filter: spec.String(),
		Items:  s.repo.View(spec),
	})
}

// handleAddItem handles POST /api/items.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	tags := req.Tags
	if len(tags) == 0 && req.TagText != "" {
		tags = gallery.ParseTags(req.TagText)
	}

	item, err := s.repo.AddItem(r.Context(), req.ImageData, req.Note, tags)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

// handleGetItem handles GET /api/items/{id}.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.repo.Item(r.PathValue("id"))
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

// handleEditItem handles PUT /api/items/{id}.
func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, err := s.repo.Item(id)
	if err != nil {
		s.sendError(w, err)
		return
	}

	var req EditItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, tags, category := current.Note, current.Tags, current.Category
	if req.Note != nil {
		note = *req.Note
	}
	switch {
	case req.Tags != nil:
		tags = *req.Tags
	case req.TagText != nil:
		tags = gallery.ParseTags(*req.TagText)
	}
	if req.Category != nil {
		category = *req.Category
	}

	item, err := s.repo.EditItem(r.Context(), id, note, tags, category)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

// handleDeleteItem handles DELETE /api/items/{id}.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		s.sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNote handles GET /api/items/{id}/note.
// The note is rendered as markdown; raw HTML in the note is not passed through.
func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	item, err := s.repo.Item(r.PathValue("id"))
	if err != nil {
		s.sendError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(item.Note), &buf); err != nil {
		s.logger.Error("failed to convert markdown", "id", item.ID, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to render note")
		return
	}
	s.writeJSON(w, http.StatusOK, NoteResponse{ID: item.ID, Note: item.Note, HTML: buf.String()})
}

// handleToggleFavorite handles POST /api/items/{id}/favorite.
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fav, err := s.repo.ToggleFavorite(r.Context(), id)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, FavoriteResponse{ID: id, IsFavorite: fav})
}

// handleMove handles POST /api/items/{id}/move.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.Reorder(r.Context(), r.PathValue("id"), req.Index); err != nil {
		s.sendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ItemsResponse{Filter: filter.All().String(), Items: s.repo.Items()})
}

// handleListCategories handles GET /api/categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, CategoriesResponse{
		Default:    gallery.DefaultCategory,
		Categories: s.repo.CategoryList(),
	})
}

// handleAddCategory handles POST /api/categories.
func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, err := s.repo.AddCategory(r.Context(), req.Name)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, CategoryRequest{Name: name})
}

// handleRenameCategory handles PUT /api/categories/{name}.
func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.repo.RenameCategory(r.Context(), r.PathValue("name"), req.Name)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RenameResponse{
		Old:          res.Old,
		New:          res.New,
		Changed:      res.Changed,
		ItemsUpdated: res.ItemsUpdated,
	})
}

// handleDeleteCategory handles DELETE /api/categories/{name}.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	res, err := s.repo.DeleteCategory(r.Context(), r.PathValue("name"))
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DeleteCategoryResponse{Name: res.Name, ItemsReassigned: res.ItemsReassigned})
}

// handleTags handles GET /api/tags.
func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"tags": s.repo.Tags()})
}

// handleExport handles GET /api/export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	items := s.repo.Items()
	if len(items) == 0 {
		s.sendError(w, gallery.ErrNothingToExport)
		return
	}

	var buf bytes.Buffer
	if err := backup.Encode(&buf, backup.Export(items, s.repo.Categories())); err != nil {
		s.sendError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport handles POST /api/import. The body replaces the whole collection.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendJSONError(w, http.StatusRequestEntityTooLarge, "import body too large")
			return
		}
		s.sendJSONError(w, http.StatusBadRequest, "reading request body failed")
		return
	}

	res, err := backup.Import(r.Context(), s.repo, data)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.logger.Info("collection imported", "items", res.Items, "categories", res.Categories, "coerced", res.Coerced)
	s.writeJSON(w, http.StatusOK, importResponse(res))
}

func importResponse(res repository.ReplaceResult) ImportResponse {
	return ImportResponse{
		Items:             res.Items,
		Categories:        res.Categories,
		Coerced:           res.Coerced,
		DroppedItems:      res.DroppedItems,
		DroppedCategories: res.DroppedCategories,
	}
}
