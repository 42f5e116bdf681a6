package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stays-be/internal/domain"
	"stays-be/internal/service"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// IdentityContextKey is the key for the caller identity in context
	IdentityContextKey ContextKey = "identity"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// DeviceIDHeader carries the device id of anonymous callers
const DeviceIDHeader = "X-Device-ID"

// Identity resolves the caller to an Identity and attaches it to the
// request context. A bearer session token wins over a device header; a
// request with neither continues identity-less and the handler decides
// whether that is acceptable.
func Identity(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				if !strings.HasPrefix(authHeader, "Bearer ") {
					writeErrorResponse(w, errors.NewAuthenticationError("Invalid authorization header format"), logger)
					return
				}

				token := strings.TrimPrefix(authHeader, "Bearer ")
				userID, err := authService.ValidateSessionToken(ctx, token)
				if err != nil {
					logger.WithError(err).Debug("Session token validation failed")
					writeErrorResponse(w, errors.NewAuthenticationError("Invalid or expired session token"), logger)
					return
				}

				ctx = context.WithValue(ctx, IdentityContextKey, domain.Authenticated(userID))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if deviceID := r.Header.Get(DeviceIDHeader); deviceID != "" {
				ctx = context.WithValue(ctx, IdentityContextKey, domain.Anonymous(deviceID))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity rejects requests that carry no identity at all
func RequireIdentity(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				writeErrorResponse(w, errors.NewAuthenticationError("A session token or device id is required"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests from anyone but a signed-in user
func RequireUser(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || !id.IsAuthenticated() {
				writeErrorResponse(w, errors.NewAuthenticationError("Sign in to use this endpoint"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext extracts the caller identity set by the Identity
// middleware
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(domain.Identity)
	if !ok || id.IsZero() {
		return domain.Identity{}, false
	}
	return id, true
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := generateRequestID()

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			r = r.WithContext(ctx)

			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r)
		})
	}
}

// generateRequestID generates a simple request ID
func generateRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).Debug("Request rejected")

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

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}
