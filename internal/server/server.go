// Package server exposes the HTTP API: search queries, rebuild scheduling
// and status, and the mutation-event endpoints content hosts call on save
// and delete.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tagconcierge/compass/internal/errors"
	"github.com/tagconcierge/compass/internal/index"
	"github.com/tagconcierge/compass/internal/search"
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address.
	Addr string

	// AuthSecret is the HMAC secret for bearer token verification. Empty
	// disables authentication.
	AuthSecret string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Server wires the query engine, indexer and coordinator into HTTP handlers.
type Server struct {
	cfg         Config
	engine      *search.Engine
	indexer     *index.Indexer
	coordinator *index.Coordinator

	httpServer *http.Server
}

// New creates a Server.
func New(cfg Config, engine *search.Engine, indexer *index.Indexer, coordinator *index.Coordinator) *Server {
	s := &Server{
		cfg:         cfg,
		engine:      engine,
		indexer:     indexer,
		coordinator: coordinator,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	auth := newAuthMiddleware(s.cfg.AuthSecret)
	mux.Handle("POST /api/v1/search", auth(http.HandlerFunc(s.handleSearch)))
	mux.Handle("POST /api/v1/rebuild", auth(http.HandlerFunc(s.handleRebuild)))
	mux.Handle("GET /api/v1/status", auth(http.HandlerFunc(s.handleStatus)))
	mux.Handle("POST /api/v1/items", auth(http.HandlerFunc(s.handleItemSaved)))
	mux.Handle("DELETE /api/v1/items/{id}", auth(http.HandlerFunc(s.handleItemDeleted)))

	return withRequestID(withRequestLog(mux))
}

// ListenAndServe runs the server until ListenAndServe fails or Shutdown is
// called.
func (s *Server) ListenAndServe() error {
	slog.Info("http_server_started", slog.String("addr", s.cfg.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Success bool            `json:"success"`
	Results []search.Result `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.engine.Search(r.Context(), req.Query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Success: true, Results: results})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.Schedule(r.Context()); err != nil {
		slog.Error("rebuild_schedule_failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "could not schedule rebuild")
		return
	}

	// Fire and forget: the coordinator's run loop picks the trigger up.
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.coordinator.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type itemPayload struct {
	ID           int64      `json:"id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Extra        string     `json:"extra"`
	EditURL      string     `json:"edit_url"`
	ThumbnailURL string     `json:"thumbnail_url"`
	ModifiedAt   *time.Time `json:"modified_at"`
	CreatedAt    *time.Time `json:"created_at"`
}

func (s *Server) handleItemSaved(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	it := index.Item{
		ID:           payload.ID,
		Type:         payload.Type,
		Title:        payload.Title,
		Content:      payload.Content,
		Extra:        payload.Extra,
		EditURL:      payload.EditURL,
		ThumbnailURL: payload.ThumbnailURL,
		ModifiedAt:   payload.ModifiedAt,
		CreatedAt:    payload.CreatedAt,
	}
	if err := s.indexer.ItemSaved(r.Context(), it); err != nil {
		// Only malformed payloads are the caller's fault; store faults
		// stay internal and are not echoed back.
		if errors.GetCode(err) == errors.ErrCodeInvalidInput {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("item_save_failed",
			slog.Int64("item_id", payload.ID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "indexing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleItemDeleted(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.indexer.ItemDeleted(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
