package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"stays-be/internal/domain"
	"stays-be/internal/repository"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"
	"stays-be/pkg/redis"

	"github.com/google/uuid"
)

const (
	shareCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	shareCodeLength   = 8
	maxCodeAttempts   = 5
)

// linkService implements LinkService: snapshot creation and resolution plus
// the import path that reconciles a linked set against an importer's
// favorites.
type linkService struct {
	linkRepo     repository.LinkRepository
	eventRepo    repository.ImportEventRepository
	favorites    FavoriteService
	publisher    EventPublisher
	catalog      CatalogService
	redis        *redis.Client
	logger       *logger.Logger
	shareBaseURL string
}

// NewLinkService creates a new link service
func NewLinkService(
	linkRepo repository.LinkRepository,
	eventRepo repository.ImportEventRepository,
	favorites FavoriteService,
	publisher EventPublisher,
	catalog CatalogService,
	redisClient *redis.Client,
	logger *logger.Logger,
	shareBaseURL string,
) LinkService {
	return &linkService{
		linkRepo:     linkRepo,
		eventRepo:    eventRepo,
		favorites:    favorites,
		publisher:    publisher,
		catalog:      catalog,
		redis:        redisClient,
		logger:       logger,
		shareBaseURL: shareBaseURL,
	}
}

// Create publishes an immutable snapshot of poiIDs under a fresh share code.
// The snapshot keeps the ids in the order they were captured; later changes
// to the owner's live favorites never touch it.
func (s *linkService) Create(ctx context.Context, owner domain.Identity, poiIDs []string) (*domain.LinkResponse, error) {
	poiIDs = dedupeIDs(poiIDs)
	if len(poiIDs) == 0 {
		return nil, errors.NewValidationError("cannot share an empty favorite set", nil)
	}

	var ownerID *string
	if owner.IsAuthenticated() {
		ownerID = &owner.Key
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := generateShareCode(shareCodeLength)
		if err != nil {
			return nil, errors.NewInternalError("failed to generate share code", err)
		}

		link := &domain.SharedLink{
			ID:        uuid.NewString(),
			ShareCode: code,
			OwnerID:   ownerID,
			PoiIDs:    poiIDs,
		}

		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			s.logger.WithFields(map[string]interface{}{
				"link_id": link.ID,
				"pois":    len(poiIDs),
				"attempt": attempt,
			}).Info("Shared link created")

			s.cacheLinkAsync(link)

			if ownerID != nil {
				// Drop the owner's cached link-id set so the realtime feed
				// filter picks the new link up on its next refresh.
				if err := s.redis.Delete(ctx, s.redis.KeyBuilder.KeyOwnerLinkIDs(*ownerID)); err != nil {
					s.logger.WithError(err).Warn("Failed to invalidate owner link cache")
				}
			}

			return &domain.LinkResponse{
				Link:     link,
				ShareURL: fmt.Sprintf("%s?share=%s", s.shareBaseURL, link.ShareCode),
			}, nil
		}

		if repository.IsShareCodeConflict(err) {
			s.logger.WithField("attempt", attempt).Warn("Share code collision, regenerating")
			continue
		}

		return nil, fmt.Errorf("failed to create shared link: %w", err)
	}

	return nil, errors.NewInternalError(
		fmt.Sprintf("could not generate a unique share code after %d attempts", maxCodeAttempts), nil)
}

// Resolve returns the link for a share code, with a cache-aside read on the
// hot resolve path
func (s *linkService) Resolve(ctx context.Context, code string) (*domain.SharedLink, error) {
	if code == "" {
		return nil, errors.NewValidationError("share code is required", nil)
	}

	cacheKey := s.redis.KeyBuilder.KeyLinkByCode(code)
	if cached, err := s.redis.Get(ctx, cacheKey); err == nil && cached != "" {
		var link domain.SharedLink
		if unmarshalErr := json.Unmarshal([]byte(cached), &link); unmarshalErr == nil {
			return &link, nil
		}
		s.logger.WithField("share_code", code).Warn("Corrupt link cache entry, falling back to database")
	}

	link, err := s.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve share code: %w", err)
	}
	if link == nil {
		return nil, errors.NewNotFoundError("shared link not found")
	}

	s.cacheLinkAsync(link)

	return link, nil
}

// ResolveDelta resolves the code and computes the set difference between
// the snapshot and the identity's current favorites, keeping snapshot order
func (s *linkService) ResolveDelta(ctx context.Context, code string, id domain.Identity) (*domain.SharedLink, []string, error) {
	link, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	// An identity-less caller has no favorites yet; the whole snapshot is new
	// to them.
	if id.IsZero() {
		return link, append([]string(nil), link.PoiIDs...), nil
	}

	current, err := s.favorites.List(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	owned := make(map[string]struct{}, len(current))
	for _, poiID := range current {
		owned[poiID] = struct{}{}
	}

	delta := make([]string, 0, len(link.PoiIDs))
	for _, poiID := range link.PoiIDs {
		if _, ok := owned[poiID]; !ok {
			delta = append(delta, poiID)
		}
	}

	return link, delta, nil
}

// Import merges the full linked set into the importer's favorites. The merge
// is union-based so re-adding an already-favorited id is a no-op; the event
// and counter record only the delta. A zero delta changes nothing at all.
func (s *linkService) Import(ctx context.Context, code string, importer domain.Identity) (*domain.ImportResult, error) {
	link, delta, err := s.ResolveDelta(ctx, code, importer)
	if err != nil {
		return nil, err
	}

	if _, err := s.favorites.Merge(ctx, importer, link.PoiIDs); err != nil {
		return nil, err
	}

	if len(delta) > 0 {
		var importerID *string
		if importer.IsAuthenticated() {
			importerID = &importer.Key
		}

		event := &domain.ImportEvent{
			ID:            uuid.NewString(),
			SharedLinkID:  link.ID,
			ImportedCount: len(delta),
			ImporterID:    importerID,
		}

		if err := s.eventRepo.Append(ctx, event); err != nil {
			return nil, fmt.Errorf("failed to record import: %w", err)
		}

		link.ImportCount += len(delta)
		link.LastImportedAt = &event.CreatedAt

		// The counter in the cached copy is stale the moment an import
		// lands, so drop it rather than rewrite it.
		if err := s.redis.Delete(ctx, s.redis.KeyBuilder.KeyLinkByCode(link.ShareCode)); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate link cache after import")
		}

		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithError(err).Warn("Failed to publish import event to realtime feed")
		}

		s.logger.WithFields(map[string]interface{}{
			"link_id":  link.ID,
			"imported": len(delta),
		}).Info("Link imported")
	}

	return &domain.ImportResult{
		Link:         link,
		Added:        delta,
		AlreadyOwned: len(link.PoiIDs) - len(delta),
	}, nil
}

// Preview resolves a link for display: the caller's delta plus catalog
// metadata when the catalog is reachable
func (s *linkService) Preview(ctx context.Context, code string, id domain.Identity) (*domain.LinkPreview, error) {
	link, delta, err := s.ResolveDelta(ctx, code, id)
	if err != nil {
		return nil, err
	}

	preview := &domain.LinkPreview{Link: link, Delta: delta}

	// Catalog failures degrade the preview to bare ids
	if s.catalog != nil {
		pois, err := s.catalog.GetPOIs(ctx, link.PoiIDs)
		if err != nil {
			s.logger.WithError(err).Warn("Catalog lookup failed, returning ids only")
		} else {
			preview.POIs = pois
		}
	}

	return preview, nil
}

// ListByOwner returns the owner's links for the dashboard
func (s *linkService) ListByOwner(ctx context.Context, owner domain.Identity) ([]*domain.SharedLink, error) {
	if !owner.IsAuthenticated() {
		return nil, errors.NewAuthenticationError("sign in to list shared links")
	}

	links, err := s.linkRepo.ListByOwner(ctx, owner.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// Delete removes a link. Only its owner may delete it; import events that
// reference it are retained for historical stats.
func (s *linkService) Delete(ctx context.Context, linkID string, requester domain.Identity) error {
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return fmt.Errorf("failed to load link: %w", err)
	}
	if link == nil {
		return errors.NewNotFoundError("shared link not found")
	}

	if link.OwnerID == nil || !requester.IsAuthenticated() || *link.OwnerID != requester.Key {
		return errors.NewAuthorizationError("only the link owner can delete it")
	}

	if _, err := s.linkRepo.Delete(ctx, linkID); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if err := s.redis.Delete(ctx,
		s.redis.KeyBuilder.KeyLinkByCode(link.ShareCode),
		s.redis.KeyBuilder.KeyOwnerLinkIDs(requester.Key),
	); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate caches after link delete")
	}

	s.logger.WithField("link_id", linkID).Info("Shared link deleted")
	return nil
}

// cacheLinkAsync caches a resolved link without blocking the request
func (s *linkService) cacheLinkAsync(link *domain.SharedLink) {
	payload, err := json.Marshal(link)
	if err != nil {
		return
	}
	go func() {
		cacheCtx, cancel := contextWithCacheTimeout()
		defer cancel()
		key := s.redis.KeyBuilder.KeyLinkByCode(link.ShareCode)
		if err := s.redis.Set(cacheCtx, key, payload, redis.TTLLinkByCode); err != nil {
			s.logger.WithError(err).Debug("Failed to cache resolved link")
		}
	}()
}

func contextWithCacheTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// generateShareCode returns a cryptographically random code over the
// share alphabet
func generateShareCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(shareCodeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = shareCodeAlphabet[num.Int64()]
	}
	return string(b), nil
}
