package domain

import "time"

// FavoriteEntry is one (identity, poi) pair. Per identity the poi id is
// unique; the set carries no meaningful order.
type FavoriteEntry struct {
	OwnerKey  string    `json:"owner_key"`
	PoiID     string    `json:"poi_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleRequest flips a poi in or out of the caller's favorite set.
// Expected carries the caller's optimistic pre-toggle state: when set and it
// disagrees with the server state the toggle is rejected with a conflict so
// the client can roll back its local flip.
type ToggleRequest struct {
	PoiID    string `json:"poi_id"`
	Expected *bool  `json:"expected,omitempty"`
}

// ToggleResponse reports the state after the toggle
type ToggleResponse struct {
	PoiID     string `json:"poi_id"`
	Favorited bool   `json:"favorited"`
}

// FavoritesResponse is the full favorite set for one identity
type FavoritesResponse struct {
	PoiIDs []string `json:"poi_ids"`
	Count  int      `json:"count"`
}

// ReconcileRequest merges a device's anonymous favorites into the
// authenticated user's set at login time
type ReconcileRequest struct {
	DeviceID string `json:"device_id"`
}

// ReconcileResponse reports the outcome of a login-time merge
type ReconcileResponse struct {
	Merged int      `json:"merged"`
	PoiIDs []string `json:"poi_ids"`
}
