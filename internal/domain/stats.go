package domain

import "time"

// BucketMode selects the aggregation window for dashboard stats
type BucketMode string

const (
	BucketModeDaily  BucketMode = "daily"
	BucketModeWeekly BucketMode = "weekly"
)

// Bucket is one fixed time window of aggregated import counts. Derived,
// never persisted.
type Bucket struct {
	Label string `json:"label"`
	Total int    `json:"total"`
}

// LinkStat summarizes one link for the owner dashboard
type LinkStat struct {
	LinkID         string     `json:"link_id"`
	ShareCode      string     `json:"share_code"`
	ImportCount    int        `json:"import_count"`
	LastImportedAt *time.Time `json:"last_imported_at,omitempty"`
}

// DashboardStats is the owner dashboard payload
type DashboardStats struct {
	Mode         BucketMode `json:"mode"`
	Buckets      []Bucket   `json:"buckets"`
	TotalImports int        `json:"total_imports"`
	Links        []LinkStat `json:"links"`
}
