package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"stays-be/internal/domain"
	"stays-be/internal/middleware"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"
)

// Response is the standard success envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the standard error envelope body
type ErrorBody struct {
	Type    errors.ErrorType `json:"type"`
	Message string           `json:"message"`
}

func sendJSON(w http.ResponseWriter, log *logger.Logger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(Response{Success: true, Data: data}); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// sendError renders an error with its AppError status when available,
// falling back to a 500 internal envelope
func sendError(w http.ResponseWriter, log *logger.Logger, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.NewInternalError("Something went wrong", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	} else {
		log.WithError(err).Debug("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":      appErr.Type,
			"message":   appErr.Message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		log.WithError(encodeErr).Error("Failed to encode error response")
	}
}

// callerIdentity pulls the identity attached by the middleware, failing the
// request when it is missing
func callerIdentity(w http.ResponseWriter, r *http.Request, log *logger.Logger) (domain.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		sendError(w, log, errors.NewAuthenticationError("A session token or device id is required"))
		return domain.Identity{}, false
	}
	return id, true
}

// callerIdentityOptional is for endpoints that work without an identity but
// personalize when one is present
func callerIdentityOptional(r *http.Request) (domain.Identity, bool) {
	return middleware.IdentityFromContext(r.Context())
}
