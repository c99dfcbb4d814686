// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers of the navigation admin API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/navtree"
	"github.com/olegiv/ocms-nav/internal/service"
	"github.com/olegiv/ocms-nav/internal/transfer"
)

const (
	maxRequestBodyBytes = 1 << 20
	defaultEventLimit   = 50
	maxEventLimit       = 500
)

// textSanitizer strips all markup from display text.
var textSanitizer = bluemonday.StrictPolicy()

// EventLister lists recent audit log entries.
type EventLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.Event, error)
}

// NavLinksHandler serves the navigation link admin API.
type NavLinksHandler struct {
	svc      *service.NavService
	exporter *transfer.Exporter
	importer *transfer.Importer
	events   EventLister
	logger   *slog.Logger
}

// NewNavLinksHandler creates a handler over svc. events may be nil, in
// which case the events endpoint reports 404.
func NewNavLinksHandler(svc *service.NavService, events EventLister, logger *slog.Logger) *NavLinksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NavLinksHandler{
		svc:      svc,
		exporter: transfer.NewExporter(svc, logger),
		importer: transfer.NewImporter(svc, logger),
		events:   events,
		logger:   logger,
	}
}

// Routes returns a router to be mounted at /api/navlinks.
func (h *NavLinksHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/tree", h.Tree)
	r.Post("/save", h.Save)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Get("/events", h.Events)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/parents", h.Parents)
		r.Post("/move", h.Move)
		r.Post("/toggle", h.Toggle)
	})
	return r
}

// List handles GET /api/navlinks.
func (h *NavLinksHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"links":  h.svc.Links(),
		"seeded": h.svc.Seeded(),
	})
}

// Tree handles GET /api/navlinks/tree. ?visible=true omits hidden links
// and everything below them.
func (h *NavLinksHandler) Tree(w http.ResponseWriter, r *http.Request) {
	visibleOnly := r.URL.Query().Get("visible") == "true"
	writeJSONSuccess(w, map[string]any{
		"tree": h.svc.Tree(visibleOnly),
	})
}

// Get handles GET /api/navlinks/{id}.
func (h *NavLinksHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"link": link})
}

// Parents handles GET /api/navlinks/{id}/parents.
func (h *NavLinksHandler) Parents(w http.ResponseWriter, r *http.Request) {
	parents, err := h.svc.ValidParents(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"parents": parents})
}

// Create handles POST /api/navlinks.
func (h *NavLinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft model.NavLinkDraft
	if !decodeJSONBody(w, r, &draft) {
		return
	}
	draft.Name = sanitizeText(draft.Name)
	draft.Icon = sanitizeText(draft.Icon)

	link, err := h.svc.Add(r.Context(), draft)
	if h.writeMutationError(w, err) {
		return
	}
	writeJSONStatus(w, http.StatusCreated, withSaveStatus(map[string]any{"link": link}, err))
}

// Update handles PATCH and PUT /api/navlinks/{id}. Fields missing from
// the body are left unchanged.
func (h *NavLinksHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.NavLinkPatch
	if !decodeJSONBody(w, r, &patch) {
		return
	}
	if patch.Name != nil {
		name := sanitizeText(*patch.Name)
		patch.Name = &name
	}
	if patch.Icon != nil {
		icon := sanitizeText(*patch.Icon)
		patch.Icon = &icon
	}

	link, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if h.writeMutationError(w, err) {
		return
	}
	writeJSONSuccess(w, withSaveStatus(map[string]any{"link": link}, err))
}

// Delete handles DELETE /api/navlinks/{id}.
func (h *NavLinksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.svc.Delete(r.Context(), id)
	if h.writeMutationError(w, err) {
		return
	}
	writeJSONSuccess(w, withSaveStatus(map[string]any{"id": id}, err))
}

type moveRequest struct {
	Direction model.Direction `json:"direction"`
}

// Move handles POST /api/navlinks/{id}/move.
func (h *NavLinksHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	moved, err := h.svc.Move(r.Context(), chi.URLParam(r, "id"), req.Direction)
	if h.writeMutationError(w, err) {
		return
	}
	writeJSONSuccess(w, withSaveStatus(map[string]any{"moved": moved}, err))
}

// Toggle handles POST /api/navlinks/{id}/toggle.
func (h *NavLinksHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.ToggleVisibility(r.Context(), chi.URLParam(r, "id"))
	if h.writeMutationError(w, err) {
		return
	}
	writeJSONSuccess(w, withSaveStatus(map[string]any{"link": link}, err))
}

// Save handles POST /api/navlinks/save, retrying persistence of the
// current collection, or the load when it failed.
func (h *NavLinksHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Retry(r.Context()); err != nil {
		h.logger.Error("retrying navigation save failed", "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "Failed to save navigation links")
		return
	}
	writeJSONSuccess(w, map[string]any{"saved": true})
}

// Export handles GET /api/navlinks/export.
func (h *NavLinksHandler) Export(w http.ResponseWriter, _ *http.Request) {
	filename := fmt.Sprintf("ocms-navlinks-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.exporter.ExportToWriter(w); err != nil {
		h.logger.Error("export failed", "error", err)
	}
}

// Import handles POST /api/navlinks/import. ?dry_run=true validates
// without replacing the collection.
func (h *NavLinksHandler) Import(w http.ResponseWriter, r *http.Request) {
	opts := transfer.ImportOptions{DryRun: r.URL.Query().Get("dry_run") == "true"}

	result, err := h.importer.ImportFromReader(r.Context(), http.MaxBytesReader(w, r.Body, transfer.MaxImportSize), opts)
	switch {
	case err == nil:
		writeJSONSuccess(w, map[string]any{"result": result})
	case errors.Is(err, navtree.ErrPersistence):
		writeJSONSuccess(w, withSaveStatus(map[string]any{"result": result}, err))
	case errors.Is(err, transfer.ErrImportInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Import document is invalid",
			"result":  result,
		})
	case result == nil:
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		h.writeError(w, err)
	}
}

// Events handles GET /api/navlinks/events.
func (h *NavLinksHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSONError(w, http.StatusNotFound, "Event log is not available")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing events failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	writeJSONSuccess(w, map[string]any{"events": events})
}

// writeMutationError writes a response for err unless it is nil or a
// persistence failure, in which case the mutation was applied and the
// caller writes the result. It reports whether a response was written.
func (h *NavLinksHandler) writeMutationError(w http.ResponseWriter, err error) bool {
	if err == nil || errors.Is(err, navtree.ErrPersistence) {
		return false
	}
	h.writeError(w, err)
	return true
}

// writeError maps engine errors to HTTP responses.
func (h *NavLinksHandler) writeError(w http.ResponseWriter, err error) {
	var verr *navtree.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONErrorDetails(w, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, navtree.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, navtree.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Navigation link not found")
	case errors.Is(err, navtree.ErrCycle):
		writeJSONError(w, http.StatusConflict, "Parent change would create a cycle")
	case errors.Is(err, navtree.ErrHasChildren):
		writeJSONError(w, http.StatusConflict, "Cannot delete a link that has children")
	case errors.Is(err, service.ErrNotLoaded):
		writeJSONError(w, http.StatusServiceUnavailable, "Navigation links are not loaded, retry with POST /api/navlinks/save")
	default:
		h.logger.Error("navigation request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// withSaveStatus records whether the change reached storage.
func withSaveStatus(data map[string]any, err error) map[string]any {
	data["saved"] = err == nil
	if err != nil {
		data["warning"] = "Changes applied but not saved: " + err.Error()
	}
	return data
}

// decodeJSONBody decodes the request body into dst, writing a 400 on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// sanitizeText removes markup and surrounding whitespace from display text.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textSanitizer.Sanitize(s)))
}
