package events

import (
	"context"

	"github.com/bionicotaku/lingo-feed-ranker/internal/store/profile"
)

// RepositoryCounters adapts profile.PostRepository and
// profile.StatsRepository to CounterStore for the engagement stats
// consumer.
type RepositoryCounters struct {
	Posts *profile.PostRepository
	Stats *profile.StatsRepository
}

func (c *RepositoryCounters) IncrementPost(ctx context.Context, postID string, impressionDelta int64, engagementDelta float64) error {
	return c.Posts.IncrementCounters(ctx, postID, impressionDelta, engagementDelta)
}

func (c *RepositoryCounters) IncrementGlobal(ctx context.Context, entityType, name string, impressionDelta int64, engagementDelta float64) error {
	_, err := c.Stats.IncrementGlobal(ctx, entityType, name, impressionDelta, engagementDelta)
	return err
}

func (c *RepositoryCounters) IncrementUserInterest(ctx context.Context, userID, entityType, name string, impressionDelta int64, engagementDelta float64) error {
	_, err := c.Stats.IncrementUserInterest(ctx, userID, entityType, name, impressionDelta, engagementDelta)
	return err
}

func (c *RepositoryCounters) IncrementCreator(ctx context.Context, creatorID string, impressionDelta int64, engagementDelta float64) error {
	_, err := c.Stats.IncrementCreator(ctx, creatorID, impressionDelta, engagementDelta)
	return err
}
