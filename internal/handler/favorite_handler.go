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

// FavoriteHandler handles favorite set HTTP requests
type FavoriteHandler struct {
	favorites service.FavoriteService
	logger    *logger.Logger
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favorites service.FavoriteService, logger *logger.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		favorites: favorites,
		logger:    logger,
	}
}

// List handles GET /api/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	poiIDs, err := h.favorites.List(r.Context(), id)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	if poiIDs == nil {
		poiIDs = []string{}
	}

	sendJSON(w, h.logger, http.StatusOK, domain.FavoritesResponse{PoiIDs: poiIDs, Count: len(poiIDs)})
}

// Toggle handles POST /api/favorites/toggle
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}

	var req domain.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}

	favorited, err := h.favorites.Toggle(r.Context(), id, req.PoiID, req.Expected)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, domain.ToggleResponse{PoiID: req.PoiID, Favorited: favorited})
}

// Reconcile handles POST /api/favorites/reconcile, called once after login
// to fold the device's anonymous favorites into the user's set
func (h *FavoriteHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := callerIdentity(w, r, h.logger)
	if !ok {
		return
	}
	if !id.IsAuthenticated() {
		sendError(w, h.logger, errors.NewAuthenticationError("Sign in to reconcile favorites"))
		return
	}

	var req domain.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}
	if req.DeviceID == "" {
		sendError(w, h.logger, errors.NewValidationError("device_id is required", nil))
		return
	}

	result, err := h.favorites.Reconcile(r.Context(), req.DeviceID, id.Key)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, http.StatusOK, result)
}

// RegisterRoutes registers favorite handler routes with the router
func (h *FavoriteHandler) RegisterRoutes(r chi.Router) {
	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/toggle", h.Toggle)
		r.Post("/reconcile", h.Reconcile)
	})
}
