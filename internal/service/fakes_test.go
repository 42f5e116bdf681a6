package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"stays-be/internal/domain"
	"stays-be/pkg/logger"
	"stays-be/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

// fakeFavoriteRepo is an in-memory FavoriteRepository. All methods are
// mutex-protected so concurrency tests can hammer it.
type fakeFavoriteRepo struct {
	mu   sync.Mutex
	sets map[string]map[string]bool // userID -> poiID -> present
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{sets: make(map[string]map[string]bool)}
}

func (f *fakeFavoriteRepo) Add(ctx context.Context, userID, poiID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := f.sets[userID]
	if set == nil {
		set = make(map[string]bool)
		f.sets[userID] = set
	}
	if set[poiID] {
		return false, nil
	}
	set[poiID] = true
	return true, nil
}

func (f *fakeFavoriteRepo) AddAll(ctx context.Context, userID string, poiIDs []string) ([]string, error) {
	var added []string
	for _, poiID := range poiIDs {
		isNew, err := f.Add(ctx, userID, poiID)
		if err != nil {
			return nil, err
		}
		if isNew {
			added = append(added, poiID)
		}
	}
	return added, nil
}

func (f *fakeFavoriteRepo) Remove(ctx context.Context, userID, poiID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := f.sets[userID]
	if set == nil || !set[poiID] {
		return false, nil
	}
	delete(set, poiID)
	return true, nil
}

func (f *fakeFavoriteRepo) List(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for poiID := range f.sets[userID] {
		out = append(out, poiID)
	}
	return out, nil
}

// fakeLinkRepo is an in-memory LinkRepository with configurable conflicts
type fakeLinkRepo struct {
	mu        sync.Mutex
	links     map[string]*domain.SharedLink // by id
	conflicts int                           // number of Creates to fail with a code conflict
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*domain.SharedLink)}
}

// shareCodeConflict mimics the unique violation Postgres raises on a
// duplicate share code
func shareCodeConflict() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "shared_links_share_code_key"}
}

func (f *fakeLinkRepo) Create(ctx context.Context, link *domain.SharedLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflicts > 0 {
		f.conflicts--
		return shareCodeConflict()
	}

	for _, existing := range f.links {
		if existing.ShareCode == link.ShareCode {
			return shareCodeConflict()
		}
	}

	link.CreatedAt = time.Now()
	copied := *link
	f.links[link.ID] = &copied
	return nil
}

func (f *fakeLinkRepo) GetByCode(ctx context.Context, code string) (*domain.SharedLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.links {
		if link.ShareCode == code {
			copied := *link
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeLinkRepo) GetByID(ctx context.Context, id string) (*domain.SharedLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	link, ok := f.links[id]
	if !ok {
		return nil, nil
	}
	copied := *link
	return &copied, nil
}

func (f *fakeLinkRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.SharedLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.SharedLink
	for _, link := range f.links {
		if link.OwnerID != nil && *link.OwnerID == ownerID {
			copied := *link
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	links, _ := f.ListByOwner(ctx, ownerID)
	ids := make([]string, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ID)
	}
	return ids, nil
}

func (f *fakeLinkRepo) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.links[id]; !ok {
		return false, nil
	}
	delete(f.links, id)
	return true, nil
}

// fakeEventRepo is an in-memory ImportEventRepository that mirrors the real
// one's atomic counter bump so import totals can be asserted.
type fakeEventRepo struct {
	mu       sync.Mutex
	events   []*domain.ImportEvent
	linkRepo *fakeLinkRepo
}

func newFakeEventRepo(linkRepo *fakeLinkRepo) *fakeEventRepo {
	return &fakeEventRepo{linkRepo: linkRepo}
}

func (f *fakeEventRepo) Append(ctx context.Context, event *domain.ImportEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	event.CreatedAt = time.Now()
	copied := *event
	f.events = append(f.events, &copied)

	if f.linkRepo != nil {
		f.linkRepo.mu.Lock()
		if link, ok := f.linkRepo.links[event.SharedLinkID]; ok {
			link.ImportCount += event.ImportedCount
			ts := event.CreatedAt
			link.LastImportedAt = &ts
		}
		f.linkRepo.mu.Unlock()
	}
	return nil
}

func (f *fakeEventRepo) ListByOwner(ctx context.Context, ownerID string, since time.Time) ([]*domain.ImportEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ownedIDs := make(map[string]struct{})
	if f.linkRepo != nil {
		ids, _ := f.linkRepo.ListIDsByOwner(ctx, ownerID)
		for _, id := range ids {
			ownedIDs[id] = struct{}{}
		}
	}

	var out []*domain.ImportEvent
	for _, event := range f.events {
		if _, ok := ownedIDs[event.SharedLinkID]; !ok {
			continue
		}
		if event.CreatedAt.Before(since) {
			continue
		}
		copied := *event
		out = append(out, &copied)
	}
	return out, nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.ImportEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event *domain.ImportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	copied := *event
	p.events = append(p.events, &copied)
	return nil
}

func (p *recordingPublisher) published() []*domain.ImportEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.ImportEvent(nil), p.events...)
}
