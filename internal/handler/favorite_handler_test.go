package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stays-be/internal/domain"
	"stays-be/internal/middleware"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func withIdentity(req *http.Request, id domain.Identity) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.IdentityContextKey, id)
	return req.WithContext(ctx)
}

// stubFavoriteService returns canned results per call
type stubFavoriteService struct {
	toggleResult    bool
	toggleErr       error
	listResult      []string
	listErr         error
	reconcileResult *domain.ReconcileResponse
	reconcileErr    error
}

func (s *stubFavoriteService) Toggle(ctx context.Context, id domain.Identity, poiID string, expected *bool) (bool, error) {
	return s.toggleResult, s.toggleErr
}

func (s *stubFavoriteService) Merge(ctx context.Context, id domain.Identity, incoming []string) ([]string, error) {
	return nil, nil
}

func (s *stubFavoriteService) List(ctx context.Context, id domain.Identity) ([]string, error) {
	return s.listResult, s.listErr
}

func (s *stubFavoriteService) Reconcile(ctx context.Context, deviceID, userID string) (*domain.ReconcileResponse, error) {
	return s.reconcileResult, s.reconcileErr
}

func TestFavoriteHandler_List(t *testing.T) {
	svc := &stubFavoriteService{listResult: []string{"poi-1", "poi-2"}}
	h := NewFavoriteHandler(svc, testLogger())

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/favorites", nil), domain.Anonymous("device-1"))
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                     `json:"success"`
		Data    domain.FavoritesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"poi-1", "poi-2"}, body.Data.PoiIDs)
	assert.Equal(t, 2, body.Data.Count)
}

func TestFavoriteHandler_List_NoIdentity(t *testing.T) {
	h := NewFavoriteHandler(&stubFavoriteService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestFavoriteHandler_Toggle(t *testing.T) {
	svc := &stubFavoriteService{toggleResult: true}
	h := NewFavoriteHandler(svc, testLogger())

	payload, _ := json.Marshal(domain.ToggleRequest{PoiID: "poi-1"})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/favorites/toggle", bytes.NewReader(payload)), domain.Anonymous("device-1"))
	rec := httptest.NewRecorder()

	h.Toggle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    domain.ToggleResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Favorited)
	assert.Equal(t, "poi-1", body.Data.PoiID)
}

func TestFavoriteHandler_Toggle_Conflict(t *testing.T) {
	svc := &stubFavoriteService{toggleErr: errors.NewConflictError("favorite state changed concurrently")}
	h := NewFavoriteHandler(svc, testLogger())

	payload, _ := json.Marshal(domain.ToggleRequest{PoiID: "poi-1"})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/favorites/toggle", bytes.NewReader(payload)), domain.Anonymous("device-1"))
	rec := httptest.NewRecorder()

	h.Toggle(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Success bool      `json:"success"`
		Error   ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, errors.ErrorTypeConflict, body.Error.Type)
}

func TestFavoriteHandler_Toggle_BadBody(t *testing.T) {
	h := NewFavoriteHandler(&stubFavoriteService{}, testLogger())

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/favorites/toggle", bytes.NewReader([]byte("{not json"))), domain.Anonymous("device-1"))
	rec := httptest.NewRecorder()

	h.Toggle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFavoriteHandler_Reconcile(t *testing.T) {
	svc := &stubFavoriteService{
		reconcileResult: &domain.ReconcileResponse{Merged: 2, PoiIDs: []string{"poi-1", "poi-2", "poi-3"}},
	}
	h := NewFavoriteHandler(svc, testLogger())

	payload, _ := json.Marshal(domain.ReconcileRequest{DeviceID: "device-1"})

	t.Run("Authenticated caller succeeds", func(t *testing.T) {
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/favorites/reconcile", bytes.NewReader(payload)), domain.Authenticated("user-1"))
		rec := httptest.NewRecorder()

		h.Reconcile(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data domain.ReconcileResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Data.Merged)
	})

	t.Run("Anonymous caller is rejected", func(t *testing.T) {
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/favorites/reconcile", bytes.NewReader(payload)), domain.Anonymous("device-1"))
		rec := httptest.NewRecorder()

		h.Reconcile(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Missing device id is rejected", func(t *testing.T) {
		empty, _ := json.Marshal(domain.ReconcileRequest{})
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/favorites/reconcile", bytes.NewReader(empty)), domain.Authenticated("user-1"))
		rec := httptest.NewRecorder()

		h.Reconcile(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
