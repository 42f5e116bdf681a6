package domain

import "time"

// SharedLink is an immutable snapshot of a favorite set published under a
// short public code. PoiIDs never changes after creation; ImportCount is
// maintained server-side as import events are appended.
type SharedLink struct {
	ID             string     `json:"id"`
	ShareCode      string     `json:"share_code"`
	OwnerID        *string    `json:"owner_id,omitempty"`
	PoiIDs         []string   `json:"poi_ids"`
	ImportCount    int        `json:"import_count"`
	CreatedAt      time.Time  `json:"created_at"`
	LastImportedAt *time.Time `json:"last_imported_at,omitempty"`
}

// CreateLinkRequest captures the snapshot to publish
type CreateLinkRequest struct {
	PoiIDs []string `json:"poi_ids"`
}

// LinkResponse is a shared link plus its public URL
type LinkResponse struct {
	Link     *SharedLink `json:"link"`
	ShareURL string      `json:"share_url"`
}

// LinkListResponse lists an owner's links for the dashboard
type LinkListResponse struct {
	Links []*SharedLink `json:"links"`
	Count int           `json:"count"`
}

// ImportResult reports what an import actually changed for the caller
type ImportResult struct {
	Link         *SharedLink `json:"link"`
	Added        []string    `json:"added"`
	AlreadyOwned int         `json:"already_owned"`
}

// POIMetadata is display metadata resolved from the external catalog.
// This subsystem never writes it.
type POIMetadata struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

// LinkPreview is a resolved link annotated for the current identity
type LinkPreview struct {
	Link  *SharedLink   `json:"link"`
	Delta []string      `json:"delta"`
	POIs  []POIMetadata `json:"pois,omitempty"`
}
