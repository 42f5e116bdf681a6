package service

import (
	"context"
	"fmt"
	"time"

	"stays-be/internal/domain"
	"stays-be/internal/repository"
	"stays-be/pkg/errors"
	"stays-be/pkg/logger"
)

const (
	// DailyBucketCount is the fixed number of day windows on the dashboard
	DailyBucketCount = 14
	// WeeklyBucketCount is the fixed number of ISO-week windows
	WeeklyBucketCount = 8
)

// DailyBuckets aggregates events into exactly DailyBucketCount contiguous
// day buckets ending at now's day. Buckets without events stay at zero; the
// bucket count never varies with data sparsity. Pure and deterministic.
func DailyBuckets(events []*domain.ImportEvent, now time.Time) []domain.Bucket {
	events = dedupeEvents(events)

	end := dayStart(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -DailyBucketCount)

	buckets := make([]domain.Bucket, DailyBucketCount)
	for i := range buckets {
		buckets[i].Label = start.AddDate(0, 0, i).Format("2006-01-02")
	}

	for _, event := range events {
		ts := event.CreatedAt.In(now.Location())
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		idx := daysBetween(start, dayStart(ts))
		buckets[idx].Total += event.ImportedCount
	}

	return buckets
}

// WeeklyBuckets aggregates events into exactly WeeklyBucketCount contiguous
// ISO weeks (Monday start) ending at now's week, labelled by each week's
// Monday. Pure and deterministic.
func WeeklyBuckets(events []*domain.ImportEvent, now time.Time) []domain.Bucket {
	events = dedupeEvents(events)

	end := weekStart(now).AddDate(0, 0, 7)
	start := end.AddDate(0, 0, -7*WeeklyBucketCount)

	buckets := make([]domain.Bucket, WeeklyBucketCount)
	for i := range buckets {
		buckets[i].Label = start.AddDate(0, 0, 7*i).Format("2006-01-02")
	}

	for _, event := range events {
		ts := event.CreatedAt.In(now.Location())
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		idx := daysBetween(start, weekStart(ts)) / 7
		buckets[idx].Total += event.ImportedCount
	}

	return buckets
}

// daysBetween counts calendar days from one local midnight to another.
// Midnight-to-midnight spans differ from a whole number of days by at most
// the hour a DST transition adds or removes, so rounding recovers the exact
// calendar distance.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Round(24*time.Hour) / (24 * time.Hour))
}

// dayStart truncates to local midnight
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStart truncates to the Monday of t's ISO week
func weekStart(t time.Time) time.Time {
	d := dayStart(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

// dedupeEvents drops repeated event ids. The realtime feed delivers
// at-least-once, so the same event can reach an aggregation twice.
func dedupeEvents(events []*domain.ImportEvent) []*domain.ImportEvent {
	seen := make(map[string]struct{}, len(events))
	out := make([]*domain.ImportEvent, 0, len(events))
	for _, event := range events {
		if event == nil {
			continue
		}
		if _, ok := seen[event.ID]; ok {
			continue
		}
		seen[event.ID] = struct{}{}
		out = append(out, event)
	}
	return out
}

// statsService serves owner dashboards from the import event log
type statsService struct {
	eventRepo repository.ImportEventRepository
	linkRepo  repository.LinkRepository
	logger    *logger.Logger
	now       func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(eventRepo repository.ImportEventRepository, linkRepo repository.LinkRepository, logger *logger.Logger) StatsService {
	return &statsService{
		eventRepo: eventRepo,
		linkRepo:  linkRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// Dashboard returns windowed buckets plus per-link totals for the owner
func (s *statsService) Dashboard(ctx context.Context, owner domain.Identity, mode domain.BucketMode) (*domain.DashboardStats, error) {
	if !owner.IsAuthenticated() {
		return nil, errors.NewAuthenticationError("sign in to view the dashboard")
	}

	now := s.now()

	var since time.Time
	switch mode {
	case domain.BucketModeDaily:
		since = dayStart(now).AddDate(0, 0, -(DailyBucketCount - 1))
	case domain.BucketModeWeekly:
		since = weekStart(now).AddDate(0, 0, -7*(WeeklyBucketCount-1))
	default:
		return nil, errors.NewValidationError("mode must be daily or weekly", map[string]interface{}{"mode": mode})
	}

	events, err := s.eventRepo.ListByOwner(ctx, owner.Key, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load import events: %w", err)
	}

	var buckets []domain.Bucket
	if mode == domain.BucketModeDaily {
		buckets = DailyBuckets(events, now)
	} else {
		buckets = WeeklyBuckets(events, now)
	}

	total := 0
	for _, bucket := range buckets {
		total += bucket.Total
	}

	links, err := s.linkRepo.ListByOwner(ctx, owner.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load links: %w", err)
	}

	linkStats := make([]domain.LinkStat, 0, len(links))
	for _, link := range links {
		linkStats = append(linkStats, domain.LinkStat{
			LinkID:         link.ID,
			ShareCode:      link.ShareCode,
			ImportCount:    link.ImportCount,
			LastImportedAt: link.LastImportedAt,
		})
	}

	return &domain.DashboardStats{
		Mode:         mode,
		Buckets:      buckets,
		TotalImports: total,
		Links:        linkStats,
	}, nil
}
