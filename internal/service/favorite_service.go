package service

import (
	"context"
	"fmt"

	"stays-be/internal/domain"
	"stays-be/internal/repository"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"
	"stays-be/pkg/redis"
)

// favoriteService keeps one favorite set per identity. Anonymous sets live
// in Redis keyed by device id; authenticated sets live in Postgres. Every
// write touches a single poi, so concurrent toggles from one session settle
// last-writer-wins per poi instead of overwriting the whole set.
type favoriteService struct {
	favRepo repository.FavoriteRepository
	redis   *redis.Client
	logger  *logger.Logger
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(favRepo repository.FavoriteRepository, redisClient *redis.Client, logger *logger.Logger) FavoriteService {
	return &favoriteService{
		favRepo: favRepo,
		redis:   redisClient,
		logger:  logger,
	}
}

// Toggle flips poiID in or out of the identity's set and returns the state
// after the flip
func (s *favoriteService) Toggle(ctx context.Context, id domain.Identity, poiID string, expected *bool) (bool, error) {
	if poiID == "" {
		return false, errors.NewValidationError("poi_id is required", nil)
	}
	if id.IsZero() {
		return false, errors.NewAuthenticationError("identity is required")
	}

	present, err := s.contains(ctx, id, poiID)
	if err != nil {
		return false, err
	}

	// The client flips its UI before the request lands. When its view of the
	// prior state is stale the flip is rejected so it can roll back.
	if expected != nil && *expected != present {
		return present, errors.NewConflictError("favorite state changed concurrently")
	}

	if present {
		if err := s.remove(ctx, id, poiID); err != nil {
			return present, err
		}
	} else {
		if err := s.add(ctx, id, poiID); err != nil {
			return present, err
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"identity_kind": id.Kind,
		"poi_id":        poiID,
		"favorited":     !present,
	}).Debug("Favorite toggled")

	return !present, nil
}

// Merge unions incoming ids into the identity's set. Re-adding an existing
// id is a no-op, which makes the merge idempotent and commutative; only the
// genuinely new ids are returned.
func (s *favoriteService) Merge(ctx context.Context, id domain.Identity, incoming []string) ([]string, error) {
	if id.IsZero() {
		return nil, errors.NewAuthenticationError("identity is required")
	}

	incoming = dedupeIDs(incoming)
	if len(incoming) == 0 {
		return nil, nil
	}

	if id.IsAuthenticated() {
		added, err := s.favRepo.AddAll(ctx, id.Key, incoming)
		if err != nil {
			return nil, fmt.Errorf("failed to merge favorites: %w", err)
		}
		return added, nil
	}

	return s.mergeDevice(ctx, id.Key, incoming)
}

// List returns the identity's current favorite set, unordered
func (s *favoriteService) List(ctx context.Context, id domain.Identity) ([]string, error) {
	if id.IsZero() {
		return nil, errors.NewAuthenticationError("identity is required")
	}

	if id.IsAuthenticated() {
		poiIDs, err := s.favRepo.List(ctx, id.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to list favorites: %w", err)
		}
		return poiIDs, nil
	}

	members, err := s.redis.SMembers(ctx, s.redis.KeyBuilder.KeyDeviceFavorites(id.Key))
	if err != nil {
		return nil, errors.NewTransientError("failed to list device favorites", err)
	}
	return members, nil
}

// Reconcile merges the device's anonymous set into the authenticated set,
// then clears the device set. Running it twice is harmless.
func (s *favoriteService) Reconcile(ctx context.Context, deviceID, userID string) (*domain.ReconcileResponse, error) {
	if deviceID == "" || userID == "" {
		return nil, errors.NewValidationError("device_id and user id are required", nil)
	}

	deviceKey := s.redis.KeyBuilder.KeyDeviceFavorites(deviceID)
	deviceIDs, err := s.redis.SMembers(ctx, deviceKey)
	if err != nil {
		return nil, errors.NewTransientError("failed to read device favorites", err)
	}

	var added []string
	if len(deviceIDs) > 0 {
		added, err = s.favRepo.AddAll(ctx, userID, deviceIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to merge device favorites: %w", err)
		}

		// Cleared only after a successful merge so a failure leaves the
		// device set intact for a retry.
		if err := s.redis.Delete(ctx, deviceKey); err != nil {
			s.logger.WithError(err).Warn("Failed to clear device favorites after reconcile")
		}
	}

	all, err := s.favRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites after reconcile: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"merged": len(added),
		"total":  len(all),
	}).Info("Device favorites reconciled into user set")

	return &domain.ReconcileResponse{Merged: len(added), PoiIDs: all}, nil
}

func (s *favoriteService) contains(ctx context.Context, id domain.Identity, poiID string) (bool, error) {
	if id.IsAuthenticated() {
		poiIDs, err := s.favRepo.List(ctx, id.Key)
		if err != nil {
			return false, fmt.Errorf("failed to check favorite: %w", err)
		}
		for _, existing := range poiIDs {
			if existing == poiID {
				return true, nil
			}
		}
		return false, nil
	}

	ok, err := s.redis.SIsMember(ctx, s.redis.KeyBuilder.KeyDeviceFavorites(id.Key), poiID)
	if err != nil {
		return false, errors.NewTransientError("failed to check device favorite", err)
	}
	return ok, nil
}

func (s *favoriteService) add(ctx context.Context, id domain.Identity, poiID string) error {
	if id.IsAuthenticated() {
		if _, err := s.favRepo.Add(ctx, id.Key, poiID); err != nil {
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		return nil
	}

	key := s.redis.KeyBuilder.KeyDeviceFavorites(id.Key)
	if _, err := s.redis.SAdd(ctx, key, poiID); err != nil {
		return errors.NewTransientError("failed to add device favorite", err)
	}
	s.refreshDeviceTTL(ctx, key)
	return nil
}

func (s *favoriteService) remove(ctx context.Context, id domain.Identity, poiID string) error {
	if id.IsAuthenticated() {
		if _, err := s.favRepo.Remove(ctx, id.Key, poiID); err != nil {
			return fmt.Errorf("failed to remove favorite: %w", err)
		}
		return nil
	}

	key := s.redis.KeyBuilder.KeyDeviceFavorites(id.Key)
	if _, err := s.redis.SRem(ctx, key, poiID); err != nil {
		return errors.NewTransientError("failed to remove device favorite", err)
	}
	s.refreshDeviceTTL(ctx, key)
	return nil
}

func (s *favoriteService) mergeDevice(ctx context.Context, deviceID string, incoming []string) ([]string, error) {
	key := s.redis.KeyBuilder.KeyDeviceFavorites(deviceID)

	current, err := s.redis.SMembers(ctx, key)
	if err != nil {
		return nil, errors.NewTransientError("failed to read device favorites", err)
	}

	existing := make(map[string]struct{}, len(current))
	for _, poiID := range current {
		existing[poiID] = struct{}{}
	}

	var missing []interface{}
	var added []string
	for _, poiID := range incoming {
		if _, ok := existing[poiID]; !ok {
			missing = append(missing, poiID)
			added = append(added, poiID)
		}
	}

	if len(missing) > 0 {
		if _, err := s.redis.SAdd(ctx, key, missing...); err != nil {
			return nil, errors.NewTransientError("failed to merge device favorites", err)
		}
	}
	s.refreshDeviceTTL(ctx, key)

	return added, nil
}

// refreshDeviceTTL keeps a device set alive as long as it is being used
func (s *favoriteService) refreshDeviceTTL(ctx context.Context, key string) {
	if err := s.redis.Expire(ctx, key, redis.TTLDeviceFavorites); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh device favorites TTL")
	}
}

// dedupeIDs removes duplicates while keeping first-seen order
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
