// ABOUTME: HTTP server exposing the gallery repository as a JSON API
// ABOUTME: Serializes repository access and handles startup and graceful shutdown

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/coven-gallery/internal/gallery"
	"github.com/2389/coven-gallery/internal/repository"
)

// maxImportBytes bounds import request bodies. Images are inlined as data
// URIs, so backups can be large.
const maxImportBytes = 256 << 20

// maxRequestBytes bounds every other request body.
const maxRequestBytes = 64 << 20

// Server handles gallery API requests.
type Server struct {
	mu       sync.Mutex
	repo     *repository.Repository
	logger   *slog.Logger
	mux      *http.ServeMux
	markdown goldmark.Markdown
	now      func() time.Time

	httpServer *http.Server
}

// NewServer creates an API server for repo.
func NewServer(repo *repository.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		repo:     repo,
		logger:   logger.With("component", "api"),
		mux:      http.NewServeMux(),
		markdown: goldmark.New(),
		now:      time.Now,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/items", s.locked(s.handleListItems))
	s.mux.HandleFunc("POST /api/items", s.locked(s.handleAddItem))
	s.mux.HandleFunc("GET /api/items/{id}", s.locked(s.handleGetItem))
	s.mux.HandleFunc("PUT /api/items/{id}", s.locked(s.handleEditItem))
	s.mux.HandleFunc("DELETE /api/items/{id}", s.locked(s.handleDeleteItem))
	s.mux.HandleFunc("GET /api/items/{id}/note", s.locked(s.handleNote))
	s.mux.HandleFunc("POST /api/items/{id}/favorite", s.locked(s.handleToggleFavorite))
	s.mux.HandleFunc("POST /api/items/{id}/move", s.locked(s.handleMove))

	s.mux.HandleFunc("GET /api/categories", s.locked(s.handleListCategories))
	s.mux.HandleFunc("POST /api/categories", s.locked(s.handleAddCategory))
	s.mux.HandleFunc("PUT /api/categories/{name}", s.locked(s.handleRenameCategory))
	s.mux.HandleFunc("DELETE /api/categories/{name}", s.locked(s.handleDeleteCategory))

	s.mux.HandleFunc("GET /api/tags", s.locked(s.handleTags))
	s.mux.HandleFunc("GET /api/export", s.locked(s.handleExport))
	s.mux.HandleFunc("POST /api/import", s.locked(s.handleImport))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// locked runs h while holding the repository mutex.
func (s *Server) locked(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(w, r)
	}
}

// Run serves on ln until ctx is canceled or the server fails, then shuts
// down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown(shutdownTimeout)
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the run context is already canceled.
func (s *Server) gracefulShutdown(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down API server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// writeJSON writes v as a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sendError maps a core error onto an HTTP status.
func (s *Server) sendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gallery.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gallery.ErrDuplicateCategory):
		s.sendJSONError(w, http.StatusConflict, err.Error())
	case gallery.IsValidation(err):
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrClosed):
		s.sendJSONError(w, http.StatusServiceUnavailable, "repository is closed")
	case errors.Is(err, gallery.ErrStorageWrite):
		s.logger.Error("storage write failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "storage write failed; changes were applied but not saved")
	default:
		s.logger.Error("request failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
