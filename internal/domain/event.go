package domain

import "time"

// ImportEvent is an append-only record of one import action. ImportedCount
// is the size of the delta computed at import time, not the link size, so a
// repeat import that adds nothing appends no event at all.
type ImportEvent struct {
	ID            string    `json:"id"`
	SharedLinkID  string    `json:"shared_link_id"`
	ImportedCount int       `json:"imported_count"`
	ImporterID    *string   `json:"importer_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
