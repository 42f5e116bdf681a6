package auth

import (
	"context"
	"testing"
	"time"

	"stays-be/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-session-secret"

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateSessionToken(t *testing.T) {
	svc := NewService(testSecret, testLogger())
	ctx := context.Background()

	tests := []struct {
		name       string
		token      string
		expectedID string
		expectErr  bool
	}{
		{
			name: "Valid token",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub": "user-123",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			expectedID: "user-123",
		},
		{
			name: "Expired token",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub": "user-123",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			expectErr: true,
		},
		{
			name: "Token without expiry",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub": "user-123",
			}),
			expectErr: true,
		},
		{
			name: "Token without subject",
			token: signToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			expectErr: true,
		},
		{
			name: "Wrong secret",
			token: signToken(t, "some-other-secret", jwt.MapClaims{
				"sub": "user-123",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			expectErr: true,
		},
		{
			name:      "Garbage token",
			token:     "not.a.jwt",
			expectErr: true,
		},
		{
			name:      "Empty token",
			token:     "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := svc.ValidateSessionToken(ctx, tt.token)

			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, userID)
		})
	}
}

func TestValidateSessionToken_RejectsUnsignedAlg(t *testing.T) {
	svc := NewService(testSecret, testLogger())

	// alg=none tokens never pass, regardless of claims
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateSessionToken(context.Background(), signed)
	assert.Error(t, err)
}

func TestValidateSessionToken_MissingSecret(t *testing.T) {
	svc := NewService("", testLogger())

	_, err := svc.ValidateSessionToken(context.Background(), "whatever")
	assert.Error(t, err)
}
