package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stays-be/internal/domain"
	"stays-be/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// LinkRepository persists shared link snapshots. The share_code column
// carries a unique constraint; the service layer retries generation when an
// insert trips it.
type linkRepository struct {
	db *database.PostgresDB
}

func NewLinkRepository(db *database.PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

// IsShareCodeConflict reports whether err is a unique violation on the
// share code constraint
func IsShareCodeConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "share_code")
	}
	return false
}

// Create inserts a new shared link snapshot
func (r *linkRepository) Create(ctx context.Context, link *domain.SharedLink) error {
	query := `
		INSERT INTO shared_links (id, share_code, owner_id, poi_ids, import_count)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		link.ID,
		link.ShareCode,
		link.OwnerID,
		link.PoiIDs,
	).Scan(&link.CreatedAt)

	if err != nil {
		if IsShareCodeConflict(err) {
			return err
		}
		return fmt.Errorf("failed to create shared link: %w", err)
	}

	return nil
}

// GetByCode returns the link for a share code, or nil when unknown
func (r *linkRepository) GetByCode(ctx context.Context, code string) (*domain.SharedLink, error) {
	query := `
		SELECT id, share_code, owner_id, poi_ids, import_count, created_at, last_imported_at
		FROM shared_links
		WHERE share_code = $1
	`

	link, err := r.scanLink(r.db.Pool.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get link by code: %w", err)
	}
	return link, nil
}

// GetByID returns the link for an id, or nil when unknown
func (r *linkRepository) GetByID(ctx context.Context, id string) (*domain.SharedLink, error) {
	query := `
		SELECT id, share_code, owner_id, poi_ids, import_count, created_at, last_imported_at
		FROM shared_links
		WHERE id = $1
	`

	link, err := r.scanLink(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get link by id: %w", err)
	}
	return link, nil
}

// ListByOwner returns all links owned by a user, newest first
func (r *linkRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.SharedLink, error) {
	query := `
		SELECT id, share_code, owner_id, poi_ids, import_count, created_at, last_imported_at
		FROM shared_links
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links by owner: %w", err)
	}
	defer rows.Close()

	var links []*domain.SharedLink
	for rows.Next() {
		var link domain.SharedLink
		if err := rows.Scan(
			&link.ID,
			&link.ShareCode,
			&link.OwnerID,
			&link.PoiIDs,
			&link.ImportCount,
			&link.CreatedAt,
			&link.LastImportedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, &link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links: %w", err)
	}

	return links, nil
}

// ListIDsByOwner returns just the ids of the owner's links, used by the
// realtime feed ownership filter
func (r *linkRepository) ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	query := `SELECT id FROM shared_links WHERE owner_id = $1`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list link ids by owner: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan link id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read link ids: %w", err)
	}

	return ids, nil
}

// Delete removes the link row only. Import events referencing it are
// retained for historical stats; there is no cascade.
func (r *linkRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM shared_links WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *linkRepository) scanLink(row pgx.Row) (*domain.SharedLink, error) {
	var link domain.SharedLink
	err := row.Scan(
		&link.ID,
		&link.ShareCode,
		&link.OwnerID,
		&link.PoiIDs,
		&link.ImportCount,
		&link.CreatedAt,
		&link.LastImportedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}
