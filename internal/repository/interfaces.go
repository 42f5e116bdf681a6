package repository

import (
	"context"
	"time"

	"stays-be/internal/domain"
)

// FavoriteRepository defines persistence for authenticated favorite sets
type FavoriteRepository interface {
	// Add inserts a favorite, reporting whether it was newly added
	Add(ctx context.Context, userID, poiID string) (bool, error)

	// AddAll inserts many favorites, returning only the newly added poi ids.
	// Already-present pairs never error.
	AddAll(ctx context.Context, userID string, poiIDs []string) ([]string, error)

	// Remove deletes a favorite, reporting whether it existed
	Remove(ctx context.Context, userID, poiID string) (bool, error)

	// List returns the user's favorite poi ids, unordered
	List(ctx context.Context, userID string) ([]string, error)
}

// LinkRepository defines persistence for shared link snapshots
type LinkRepository interface {
	// Create inserts a new link; the returned error satisfies
	// IsShareCodeConflict when the generated code is already taken
	Create(ctx context.Context, link *domain.SharedLink) error

	// GetByCode returns the link for a share code, nil when unknown
	GetByCode(ctx context.Context, code string) (*domain.SharedLink, error)

	// GetByID returns the link for an id, nil when unknown
	GetByID(ctx context.Context, id string) (*domain.SharedLink, error)

	// ListByOwner returns all links owned by a user, newest first
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.SharedLink, error)

	// ListIDsByOwner returns the ids of the owner's links
	ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error)

	// Delete removes the link row only; import events are retained
	Delete(ctx context.Context, id string) (bool, error)
}

// ImportEventRepository defines the append-only import event log
type ImportEventRepository interface {
	// Append records an event and atomically bumps the link's import counter
	Append(ctx context.Context, event *domain.ImportEvent) error

	// ListByOwner returns events across the owner's links since the given time
	ListByOwner(ctx context.Context, ownerID string, since time.Time) ([]*domain.ImportEvent, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Favorites FavoriteRepository
	Links     LinkRepository
	Events    ImportEventRepository
}
