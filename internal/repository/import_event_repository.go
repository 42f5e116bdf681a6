package repository

import (
	"context"
	"fmt"
	"time"

	"stays-be/internal/domain"
	"stays-be/pkg/database"
)

// ImportEventRepository appends to the import event log and keeps the
// per-link running counter in step with it.
type importEventRepository struct {
	db *database.PostgresDB
}

func NewImportEventRepository(db *database.PostgresDB) ImportEventRepository {
	return &importEventRepository{db: db}
}

// Append records an import event and bumps the link counter in one
// transaction. The counter update is a server-side atomic add so concurrent
// importers on the same link never lose updates.
func (r *importEventRepository) Append(ctx context.Context, event *domain.ImportEvent) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO import_events (id, shared_link_id, imported_count, importer_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err = tx.QueryRow(ctx, insertQuery,
		event.ID,
		event.SharedLinkID,
		event.ImportedCount,
		event.ImporterID,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert import event: %w", err)
	}

	// Zero rows affected means the link was deleted between resolve and
	// append; the event is still kept for history.
	updateQuery := `
		UPDATE shared_links
		SET import_count = import_count + $2, last_imported_at = now()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, updateQuery, event.SharedLinkID, event.ImportedCount); err != nil {
		return fmt.Errorf("failed to increment link import count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit append transaction: %w", err)
	}

	return nil
}

// ListByOwner returns events for every link the owner currently has, oldest
// first. Events whose link was deleted drop out of the dashboard with the
// link itself but stay in the table.
func (r *importEventRepository) ListByOwner(ctx context.Context, ownerID string, since time.Time) ([]*domain.ImportEvent, error) {
	query := `
		SELECT e.id, e.shared_link_id, e.imported_count, e.importer_id, e.created_at
		FROM import_events e
		JOIN shared_links l ON l.id = e.shared_link_id
		WHERE l.owner_id = $1 AND e.created_at >= $2
		ORDER BY e.created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list events by owner: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows eventRows) ([]*domain.ImportEvent, error) {
	var events []*domain.ImportEvent
	for rows.Next() {
		var event domain.ImportEvent
		if err := rows.Scan(
			&event.ID,
			&event.SharedLinkID,
			&event.ImportedCount,
			&event.ImporterID,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import events: %w", err)
	}

	return events, nil
}
