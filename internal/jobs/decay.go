// Package jobs implements the scheduled background jobs (C11): the
// daily rising-pool decay sweep and the 2-hourly evergreen recompute,
// both driven by a robfig/cron/v3 scheduler (spec §4.9).
package jobs

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/go-kratos/kratos/v2/log"
)

// ProfileStore is the subset of the persistent profile repository the
// decay sweep needs.
type ProfileStore interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	Load(ctx context.Context, userID string) (*po.UserProfile, error)
	Save(ctx context.Context, profile *po.UserProfile) error
}

// DecayJob multiplies every rising-tier score by scoring.DecayFactor
// once a day (spec §4.9 "daily at 03:00"). Per-user failures are
// logged and skipped; the sweep continues to the next user.
type DecayJob struct {
	profiles ProfileStore
	log      *log.Helper
	now      func() time.Time
}

// NewDecayJob constructs a DecayJob.
func NewDecayJob(profiles ProfileStore, logger log.Logger) *DecayJob {
	return &DecayJob{profiles: profiles, log: log.NewHelper(logger), now: time.Now}
}

// Run decays every user's rising pools. It never returns an error: per
// spec §7 "background jobs never propagate," failures are logged and
// the sweep moves to the next user.
func (j *DecayJob) Run(ctx context.Context) {
	userIDs, err := j.profiles.ListUserIDs(ctx)
	if err != nil {
		j.log.WithContext(ctx).Errorw("msg", "decay sweep: list user ids failed", "error", err)
		return
	}

	for _, userID := range userIDs {
		if err := j.decayOne(ctx, userID); err != nil {
			j.log.WithContext(ctx).Errorw("msg", "decay sweep: user failed, skipping", "user_id", userID, "error", err)
		}
	}
}

func (j *DecayJob) decayOne(ctx context.Context, userID string) error {
	profile, err := j.profiles.Load(ctx, userID)
	if err != nil {
		return err
	}

	now := j.now()
	decayed := false

	for _, cat := range profile.RisingInterests {
		cat.Score *= scoring.DecayFactor
		cat.LastUpdated = now
		decayed = true
	}
	for _, cat := range profile.TopInterests {
		for _, sub := range cat.RisingSubs {
			sub.Score *= scoring.DecayFactor
			sub.LastUpdated = now
			decayed = true
		}
	}
	for _, cat := range profile.RisingInterests {
		for _, sub := range cat.RisingSubs {
			sub.Score *= scoring.DecayFactor
			sub.LastUpdated = now
			decayed = true
		}
	}
	for _, creator := range profile.CreatorsInterests.RisingCreators {
		creator.Score *= scoring.DecayFactor
		creator.LastUpdated = now
		decayed = true
	}

	if !decayed {
		return nil
	}
	return j.profiles.Save(ctx, profile)
}
