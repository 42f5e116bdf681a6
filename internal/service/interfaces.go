package service

import (
	"context"

	"stays-be/internal/domain"
)

// AuthService validates session tokens issued by the external identity
// provider. Token issuance is not this service's concern.
type AuthService interface {
	// ValidateSessionToken verifies the token and returns the user id
	ValidateSessionToken(ctx context.Context, token string) (string, error)
}

// FavoriteService owns the favorite set of one identity, dispatching to the
// device-scoped or user-scoped backing store by identity kind
type FavoriteService interface {
	// Toggle flips a poi in or out of the set and returns the new state.
	// expected, when set, is the caller's optimistic pre-toggle state; a
	// mismatch rejects the toggle with a conflict.
	Toggle(ctx context.Context, id domain.Identity, poiID string, expected *bool) (bool, error)

	// Merge unions incoming ids into the set and returns the ids that were
	// actually new. Idempotent and commutative.
	Merge(ctx context.Context, id domain.Identity, incoming []string) ([]string, error)

	// List returns the current set, unordered
	List(ctx context.Context, id domain.Identity) ([]string, error)

	// Reconcile merges a device's anonymous favorites into the user's set at
	// login time and clears the device set
	Reconcile(ctx context.Context, deviceID, userID string) (*domain.ReconcileResponse, error)
}

// LinkService creates, resolves and deletes shared link snapshots and
// drives imports against them
type LinkService interface {
	// Create publishes an immutable snapshot of the given poi ids under a
	// fresh share code
	Create(ctx context.Context, owner domain.Identity, poiIDs []string) (*domain.LinkResponse, error)

	// Resolve returns the link for a share code
	Resolve(ctx context.Context, code string) (*domain.SharedLink, error)

	// ResolveDelta resolves a link and computes which of its pois the given
	// identity does not have yet
	ResolveDelta(ctx context.Context, code string, id domain.Identity) (*domain.SharedLink, []string, error)

	// Import merges the linked set into the importer's favorites and, when
	// the delta is non-empty, appends an import event
	Import(ctx context.Context, code string, importer domain.Identity) (*domain.ImportResult, error)

	// Preview resolves a link with the caller's delta and catalog metadata
	Preview(ctx context.Context, code string, id domain.Identity) (*domain.LinkPreview, error)

	// ListByOwner returns the owner's links for the dashboard
	ListByOwner(ctx context.Context, owner domain.Identity) ([]*domain.SharedLink, error)

	// Delete removes a link; only its owner may do so
	Delete(ctx context.Context, linkID string, requester domain.Identity) error
}

// StatsService aggregates the import event log into dashboard series
type StatsService interface {
	// Dashboard returns windowed buckets and per-link totals for the owner
	Dashboard(ctx context.Context, owner domain.Identity, mode domain.BucketMode) (*domain.DashboardStats, error)
}

// EventPublisher pushes freshly appended import events to the realtime feed
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.ImportEvent) error
}

// NotifierService delivers import events to open owner dashboards
type NotifierService interface {
	EventPublisher

	// Subscribe opens a stream of events for links owned by ownerID. The
	// returned cancel func closes the stream; the channel is closed when the
	// stream ends.
	Subscribe(ctx context.Context, ownerID string) (<-chan domain.ImportEvent, func(), error)
}

// CatalogService resolves poi ids to display metadata from the external
// catalog; read-only
type CatalogService interface {
	GetPOIs(ctx context.Context, poiIDs []string) ([]domain.POIMetadata, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth      AuthService
	Favorites FavoriteService
	Links     LinkService
	Stats     StatsService
	Notifier  NotifierService
	Catalog   CatalogService
}
