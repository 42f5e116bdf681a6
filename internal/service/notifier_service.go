package service

import (
	"context"
	"encoding/json"

	"stays-be/internal/domain"
	"stays-be/internal/repository"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"
	"stays-be/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// subscriberBuffer bounds how many undelivered events a slow dashboard can
// queue before we start dropping for it
const subscriberBuffer = 16

// notifierService fans import events out to open owner dashboards over a
// Redis pub/sub channel. Every import is published once; each subscriber
// filters down to events for links it owns.
type notifierService struct {
	redis    *redis.Client
	linkRepo repository.LinkRepository
	logger   *logger.Logger
}

// NewNotifierService creates a new notifier service
func NewNotifierService(redisClient *redis.Client, linkRepo repository.LinkRepository, logger *logger.Logger) NotifierService {
	return &notifierService{
		redis:    redisClient,
		linkRepo: linkRepo,
		logger:   logger,
	}
}

// Publish pushes a freshly appended event onto the shared feed
func (s *notifierService) Publish(ctx context.Context, event *domain.ImportEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.NewInternalError("failed to encode import event", err)
	}

	if err := s.redis.Publish(ctx, s.redis.KeyBuilder.ChannelImportFeed(), payload); err != nil {
		return errors.NewTransientError("failed to publish import event", err)
	}
	return nil
}

// Subscribe opens a stream of import events for links owned by ownerID.
// The cancel func closes the stream; the returned channel is closed once
// the pump goroutine exits.
func (s *notifierService) Subscribe(ctx context.Context, ownerID string) (<-chan domain.ImportEvent, func(), error) {
	if ownerID == "" {
		return nil, nil, errors.NewAuthenticationError("owner id is required")
	}

	subCtx, cancel := context.WithCancel(ctx)
	pubsub := s.redis.Subscribe(subCtx, s.redis.KeyBuilder.ChannelImportFeed())

	// Confirm the subscription before handing out the channel
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, nil, errors.NewTransientError("failed to open realtime feed", err)
	}

	out := make(chan domain.ImportEvent, subscriberBuffer)
	go s.pump(subCtx, pubsub, ownerID, out)

	unsubscribe := func() {
		cancel()
		_ = pubsub.Close()
	}

	return out, unsubscribe, nil
}

// pump drains the feed, filters for the owner, and forwards matches.
// go-redis reconnects the pub/sub connection itself with backoff; draining
// the channel is all that is needed to ride out transient drops.
func (s *notifierService) pump(ctx context.Context, pubsub *goredis.PubSub, ownerID string, out chan<- domain.ImportEvent) {
	defer close(out)

	owned := s.loadOwnedLinks(ctx, ownerID)
	foreign := make(map[string]struct{}) // link ids confirmed not ours
	seen := make(map[string]struct{})    // delivered event ids, for dedup

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event domain.ImportEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.WithError(err).Warn("Dropping malformed import event")
				continue
			}

			// The feed is at-least-once; repeated ids are dropped here so
			// the dashboard never double counts.
			if _, dup := seen[event.ID]; dup {
				continue
			}

			if _, ok := owned[event.SharedLinkID]; !ok {
				if _, known := foreign[event.SharedLinkID]; known {
					continue
				}
				// A link created after this subscription opened is not in
				// the snapshot yet; refresh before rejecting.
				owned = s.refreshOwnedLinks(ctx, ownerID)
				if _, ok := owned[event.SharedLinkID]; !ok {
					foreign[event.SharedLinkID] = struct{}{}
					continue
				}
			}

			seen[event.ID] = struct{}{}

			select {
			case out <- event:
			case <-ctx.Done():
				return
			default:
				s.logger.WithField("owner_id", ownerID).Warn("Subscriber too slow, dropping import event")
			}
		}
	}
}

// loadOwnedLinks snapshots the owner's link ids for the feed filter,
// reading the short-lived Redis cache before falling back to the database
func (s *notifierService) loadOwnedLinks(ctx context.Context, ownerID string) map[string]struct{} {
	cacheKey := s.redis.KeyBuilder.KeyOwnerLinkIDs(ownerID)
	if cached, err := s.redis.SMembers(ctx, cacheKey); err == nil && len(cached) > 0 {
		owned := make(map[string]struct{}, len(cached))
		for _, id := range cached {
			owned[id] = struct{}{}
		}
		return owned
	}

	return s.refreshOwnedLinks(ctx, ownerID)
}

// refreshOwnedLinks reloads the owner's link ids from the database and
// rewrites the cache. Used when an unknown link id shows up on the feed, so
// a possibly stale cached snapshot never hides a freshly created link.
func (s *notifierService) refreshOwnedLinks(ctx context.Context, ownerID string) map[string]struct{} {
	owned := make(map[string]struct{})

	ids, err := s.linkRepo.ListIDsByOwner(ctx, ownerID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load owned links for feed filter")
		return owned
	}

	for _, id := range ids {
		owned[id] = struct{}{}
	}

	cacheKey := s.redis.KeyBuilder.KeyOwnerLinkIDs(ownerID)
	if err := s.redis.Delete(ctx, cacheKey); err != nil {
		s.logger.WithError(err).Warn("Failed to reset owned link cache")
		return owned
	}
	if len(ids) > 0 {
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		if _, err := s.redis.SAdd(ctx, cacheKey, members...); err != nil {
			s.logger.WithError(err).Warn("Failed to cache owned link ids")
		} else if err := s.redis.Expire(ctx, cacheKey, redis.TTLOwnerLinkIDs); err != nil {
			s.logger.WithError(err).Warn("Failed to expire owned link cache")
		}
	}

	return owned
}
