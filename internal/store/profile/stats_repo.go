package profile

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository maintains GlobalStats, UserInterestStats and
// CreatorStats (spec §3.1). Increments are atomic upserts — commutative
// $inc operations whose cross-engagement ordering is not observable
// (spec §5).
type StatsRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewStatsRepository constructs a StatsRepository.
func NewStatsRepository(db *pgxpool.Pool, logger log.Logger) *StatsRepository {
	return &StatsRepository{db: db, log: log.NewHelper(logger)}
}

// IncrementGlobal atomically bumps GlobalStats{entityType,name} and
// returns the post-increment row.
func (r *StatsRepository) IncrementGlobal(ctx context.Context, entityType, name string, impressionDelta int64, engagementDelta float64) (po.GlobalStats, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO feed.global_stats (entity_type, name, impression_count, total_engagement)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_type, name) DO UPDATE
		SET impression_count = feed.global_stats.impression_count + EXCLUDED.impression_count,
		    total_engagement = feed.global_stats.total_engagement + EXCLUDED.total_engagement
		RETURNING impression_count, total_engagement
	`, entityType, name, impressionDelta, engagementDelta)

	var out po.GlobalStats
	out.EntityType, out.Name = entityType, name
	if err := row.Scan(&out.ImpressionCount, &out.TotalEngagement); err != nil {
		return po.GlobalStats{}, fmt.Errorf("increment global stats %s/%s: %w", entityType, name, err)
	}
	return out, nil
}

// GetGlobal returns the current GlobalStats row, zero-valued if absent.
func (r *StatsRepository) GetGlobal(ctx context.Context, entityType, name string) (po.GlobalStats, error) {
	row := r.db.QueryRow(ctx, `
		SELECT impression_count, total_engagement FROM feed.global_stats
		WHERE entity_type = $1 AND name = $2
	`, entityType, name)
	out := po.GlobalStats{EntityType: entityType, Name: name}
	if err := row.Scan(&out.ImpressionCount, &out.TotalEngagement); err != nil {
		return out, nil // absent row => zero stats, per invariant §3.2
	}
	return out, nil
}

// IncrementUserInterest atomically bumps UserInterestStats{userId,
// entityType,name} and returns the post-increment row.
func (r *StatsRepository) IncrementUserInterest(ctx context.Context, userID, entityType, name string, impressionDelta int64, engagementDelta float64) (po.UserInterestStats, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO feed.user_interest_stats (user_id, entity_type, name, impression_count, total_engagement)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, entity_type, name) DO UPDATE
		SET impression_count = feed.user_interest_stats.impression_count + EXCLUDED.impression_count,
		    total_engagement = feed.user_interest_stats.total_engagement + EXCLUDED.total_engagement
		RETURNING impression_count, total_engagement
	`, userID, entityType, name, impressionDelta, engagementDelta)

	out := po.UserInterestStats{UserID: userID, EntityType: entityType, Name: name}
	if err := row.Scan(&out.ImpressionCount, &out.TotalEngagement); err != nil {
		return po.UserInterestStats{}, fmt.Errorf("increment user interest stats %s/%s/%s: %w", userID, entityType, name, err)
	}
	return out, nil
}

// IncrementCreator atomically bumps CreatorStats{creatorId} and returns
// the post-increment row.
func (r *StatsRepository) IncrementCreator(ctx context.Context, creatorID string, impressionDelta int64, engagementDelta float64) (po.CreatorStats, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO feed.creator_stats (creator_id, impression_count, total_engagement)
		VALUES ($1, $2, $3)
		ON CONFLICT (creator_id) DO UPDATE
		SET impression_count = feed.creator_stats.impression_count + EXCLUDED.impression_count,
		    total_engagement = feed.creator_stats.total_engagement + EXCLUDED.total_engagement
		RETURNING impression_count, total_engagement
	`, creatorID, impressionDelta, engagementDelta)

	out := po.CreatorStats{CreatorID: creatorID}
	if err := row.Scan(&out.ImpressionCount, &out.TotalEngagement); err != nil {
		return po.CreatorStats{}, fmt.Errorf("increment creator stats %s: %w", creatorID, err)
	}
	return out, nil
}

// GetCreator returns the current CreatorStats row, zero-valued if absent.
func (r *StatsRepository) GetCreator(ctx context.Context, creatorID string) (po.CreatorStats, error) {
	row := r.db.QueryRow(ctx, `
		SELECT impression_count, total_engagement FROM feed.creator_stats WHERE creator_id = $1
	`, creatorID)
	out := po.CreatorStats{CreatorID: creatorID}
	if err := row.Scan(&out.ImpressionCount, &out.TotalEngagement); err != nil {
		return out, nil
	}
	return out, nil
}
