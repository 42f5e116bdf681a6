package service

import (
	"context"
	"testing"
	"time"

	"stays-be/internal/domain"
	"stays-be/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFavoriteService(t *testing.T) (FavoriteService, *fakeFavoriteRepo) {
	t.Helper()

	_, redisClient := setupTestRedis(t)
	favRepo := newFakeFavoriteRepo()
	return NewFavoriteService(favRepo, redisClient, testLogger()), favRepo
}

func TestFavoriteService_Toggle_Device(t *testing.T) {
	svc, _ := newTestFavoriteService(t)
	ctx := context.Background()
	device := domain.Anonymous("device-1")

	// First toggle adds
	favorited, err := svc.Toggle(ctx, device, "poi-1", nil)
	require.NoError(t, err)
	assert.True(t, favorited)

	poiIDs, err := svc.List(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, []string{"poi-1"}, poiIDs)

	// Second toggle removes
	favorited, err = svc.Toggle(ctx, device, "poi-1", nil)
	require.NoError(t, err)
	assert.False(t, favorited)

	poiIDs, err = svc.List(ctx, device)
	require.NoError(t, err)
	assert.Empty(t, poiIDs)
}

func TestFavoriteService_Toggle_User(t *testing.T) {
	svc, favRepo := newTestFavoriteService(t)
	ctx := context.Background()
	user := domain.Authenticated("user-1")

	favorited, err := svc.Toggle(ctx, user, "poi-1", nil)
	require.NoError(t, err)
	assert.True(t, favorited)

	stored, err := favRepo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"poi-1"}, stored)

	favorited, err = svc.Toggle(ctx, user, "poi-1", nil)
	require.NoError(t, err)
	assert.False(t, favorited)
}

func TestFavoriteService_Toggle_StaleExpectedState(t *testing.T) {
	svc, _ := newTestFavoriteService(t)
	ctx := context.Background()
	device := domain.Anonymous("device-1")

	// Caller believes poi-1 is already favorited, but it is not
	stale := true
	_, err := svc.Toggle(ctx, device, "poi-1", &stale)
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeConflict, appErr.Type)

	// The rejected toggle changed nothing
	poiIDs, err := svc.List(ctx, device)
	require.NoError(t, err)
	assert.Empty(t, poiIDs)

	// With the correct expectation the toggle goes through
	fresh := false
	favorited, err := svc.Toggle(ctx, device, "poi-1", &fresh)
	require.NoError(t, err)
	assert.True(t, favorited)
}

func TestFavoriteService_Toggle_Validation(t *testing.T) {
	svc, _ := newTestFavoriteService(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, domain.Anonymous("device-1"), "", nil)
	assert.Error(t, err)

	_, err = svc.Toggle(ctx, domain.Identity{}, "poi-1", nil)
	assert.Error(t, err)
}

func TestFavoriteService_Merge_Idempotent(t *testing.T) {
	svc, _ := newTestFavoriteService(t)
	ctx := context.Background()
	user := domain.Authenticated("user-1")

	added, err := svc.Merge(ctx, user, []string{"poi-1", "poi-2", "poi-2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"poi-1", "poi-2"}, added)

	// Merging the same ids again adds nothing
	added, err = svc.Merge(ctx, user, []string{"poi-1", "poi-2"})
	require.NoError(t, err)
	assert.Empty(t, added)

	poiIDs, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"poi-1", "poi-2"}, poiIDs)
}

func TestFavoriteService_Merge_Commutative(t *testing.T) {
	ctx := context.Background()

	setA := []string{"poi-1", "poi-2"}
	setB := []string{"poi-2", "poi-3"}

	svcAB, _ := newTestFavoriteService(t)
	deviceAB := domain.Anonymous("device-ab")
	_, err := svcAB.Merge(ctx, deviceAB, setA)
	require.NoError(t, err)
	_, err = svcAB.Merge(ctx, deviceAB, setB)
	require.NoError(t, err)

	svcBA, _ := newTestFavoriteService(t)
	deviceBA := domain.Anonymous("device-ba")
	_, err = svcBA.Merge(ctx, deviceBA, setB)
	require.NoError(t, err)
	_, err = svcBA.Merge(ctx, deviceBA, setA)
	require.NoError(t, err)

	gotAB, err := svcAB.List(ctx, deviceAB)
	require.NoError(t, err)
	gotBA, err := svcBA.List(ctx, deviceBA)
	require.NoError(t, err)

	assert.ElementsMatch(t, gotAB, gotBA)
	assert.ElementsMatch(t, []string{"poi-1", "poi-2", "poi-3"}, gotAB)
}

func TestFavoriteService_Merge_EmptyInput(t *testing.T) {
	svc, _ := newTestFavoriteService(t)
	ctx := context.Background()

	added, err := svc.Merge(ctx, domain.Anonymous("device-1"), nil)
	require.NoError(t, err)
	assert.Empty(t, added)

	added, err = svc.Merge(ctx, domain.Anonymous("device-1"), []string{"", ""})
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestFavoriteService_Reconcile(t *testing.T) {
	_, redisClient := setupTestRedis(t)
	favRepo := newFakeFavoriteRepo()
	svc := NewFavoriteService(favRepo, redisClient, testLogger())
	ctx := context.Background()

	device := domain.Anonymous("device-1")
	user := domain.Authenticated("user-1")

	// Device collected favorites before login; the user already had one
	_, err := svc.Merge(ctx, device, []string{"poi-1", "poi-2"})
	require.NoError(t, err)
	_, err = svc.Merge(ctx, user, []string{"poi-2", "poi-3"})
	require.NoError(t, err)

	result, err := svc.Reconcile(ctx, "device-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Merged) // only poi-1 was new
	assert.ElementsMatch(t, []string{"poi-1", "poi-2", "poi-3"}, result.PoiIDs)

	// The device set is cleared after the merge
	deviceIDs, err := svc.List(ctx, device)
	require.NoError(t, err)
	assert.Empty(t, deviceIDs)

	// Running it again is harmless
	result, err = svc.Reconcile(ctx, "device-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Merged)
	assert.ElementsMatch(t, []string{"poi-1", "poi-2", "poi-3"}, result.PoiIDs)
}

func TestFavoriteService_Reconcile_Validation(t *testing.T) {
	svc, _ := newTestFavoriteService(t)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, "", "user-1")
	assert.Error(t, err)

	_, err = svc.Reconcile(ctx, "device-1", "")
	assert.Error(t, err)
}

func TestFavoriteService_DeviceSetTTL(t *testing.T) {
	mr, redisClient := setupTestRedis(t)
	svc := NewFavoriteService(newFakeFavoriteRepo(), redisClient, testLogger())
	ctx := context.Background()

	_, err := svc.Toggle(ctx, domain.Anonymous("device-1"), "poi-1", nil)
	require.NoError(t, err)

	key := redisClient.KeyBuilder.KeyDeviceFavorites("device-1")
	assert.Greater(t, mr.TTL(key), time.Duration(0))
}
