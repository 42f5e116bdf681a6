package handler

import (
	"encoding/json"
	"net/http"

	"stays-be/internal/domain"
	"stays-be/internal/service"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// LinkHandler handles shared link HTTP requests
type LinkHandler struct {
	links  service.LinkService
	logger *logger.Logger
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(links service.LinkService, logger *logger.Logger) *LinkHandler {
	return &LinkHandler{
		links:  links,
		logger: logger,
	}
}

// Create handles POST /api/links
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	var req domain.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}

	resp, err := h.links.Create(r.Context(), id, req.PoiIDs)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, http.StatusCreated, resp)
}

// List handles GET /api/links, returning the caller's own links
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	links, err := h.links.ListByOwner(r.Context(), id)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	if links == nil {
		links = []*domain.SharedLink{}
	}

	sendJSON(w, h.logger, http.StatusOK, domain.LinkListResponse{Links: links, Count: len(links)})
}

// Resolve handles GET /api/links/{code}. Resolution is public: anyone
// holding the code may read the snapshot.
func (h *LinkHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.links.Resolve(r.Context(), code)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, link)
}

// Preview handles GET /api/links/{code}/preview, annotating the snapshot
// with the caller's delta and catalog metadata
func (h *LinkHandler) Preview(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	id, _ := callerIdentityOptional(r)

	preview, err := h.links.Preview(r.Context(), code, id)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, preview)
}

// Import handles POST /api/links/{code}/import
func (h *LinkHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	code := chi.URLParam(r, "code")

	result, err := h.links.Import(r.Context(), code, id)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, result)
}

// Delete handles DELETE /api/links/{id}
func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	linkID := chi.URLParam(r, "id")

	if err := h.links.Delete(r.Context(), linkID, id); err != nil {
		sendError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, map[string]interface{}{"deleted": true, "id": linkID})
}

// RegisterRoutes registers link handler routes with the router
func (h *LinkHandler) RegisterRoutes(r chi.Router) {
	r.Route("/links", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{code}", h.Resolve)
		r.Get("/{code}/preview", h.Preview)
		r.Post("/{code}/import", h.Import)
		r.Delete("/{id}", h.Delete)
	})
}
