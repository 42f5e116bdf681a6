package auth

import (
	"context"
	"fmt"

	"stays-be/internal/service"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Service validates session JWTs minted by the external identity provider.
// Issuance, refresh and sign-out all live there; this service only checks
// the signature and expiry and extracts the subject.
type Service struct {
	secret []byte
	logger *logger.Logger
}

// NewService creates a new auth service
func NewService(sessionSecret string, logger *logger.Logger) service.AuthService {
	return &Service{
		secret: []byte(sessionSecret),
		logger: logger,
	}
}

// ValidateSessionToken verifies an HS256 session token and returns the
// user id from its subject claim
func (s *Service) ValidateSessionToken(ctx context.Context, tokenString string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.NewInternalError("session secret is not configured", nil)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())

	if err != nil {
		s.logger.WithError(err).Debug("Session token rejected")
		return "", errors.NewAuthenticationError("invalid or expired session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.NewAuthenticationError("invalid session token claims")
	}

	userID, err := claims.GetSubject()
	if err != nil || userID == "" {
		return "", errors.NewAuthenticationError("session token has no subject")
	}

	return userID, nil
}
