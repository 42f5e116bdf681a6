package repository

import (
	"context"
	"fmt"

	"stays-be/pkg/database"
)

// FavoriteRepository persists authenticated favorite sets in Postgres.
// The (user_id, poi_id) primary key enforces set semantics; every write is
// per-poi so concurrent toggles never clobber the rest of the set.
type favoriteRepository struct {
	db *database.PostgresDB
}

func NewFavoriteRepository(db *database.PostgresDB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add inserts a favorite and reports whether it was newly added
func (r *favoriteRepository) Add(ctx context.Context, userID, poiID string) (bool, error) {
	query := `
		INSERT INTO favorites (user_id, poi_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, poi_id) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, poiID)
	if err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// AddAll inserts many favorites in one statement and returns the poi ids
// that were actually new. Already-present ids are silent no-ops.
func (r *favoriteRepository) AddAll(ctx context.Context, userID string, poiIDs []string) ([]string, error) {
	if len(poiIDs) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO favorites (user_id, poi_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (user_id, poi_id) DO NOTHING
		RETURNING poi_id
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, poiIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to add favorites: %w", err)
	}
	defer rows.Close()

	var added []string
	for rows.Next() {
		var poiID string
		if err := rows.Scan(&poiID); err != nil {
			return nil, fmt.Errorf("failed to scan added favorite: %w", err)
		}
		added = append(added, poiID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read added favorites: %w", err)
	}

	return added, nil
}

// Remove deletes a favorite and reports whether it existed
func (r *favoriteRepository) Remove(ctx context.Context, userID, poiID string) (bool, error) {
	query := `DELETE FROM favorites WHERE user_id = $1 AND poi_id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, userID, poiID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// List returns the user's favorite poi ids, unordered
func (r *favoriteRepository) List(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT poi_id FROM favorites WHERE user_id = $1`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var poiIDs []string
	for rows.Next() {
		var poiID string
		if err := rows.Scan(&poiID); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		poiIDs = append(poiIDs, poiID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}

	return poiIDs, nil
}
