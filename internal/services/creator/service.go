// Package creator implements the creator service (C6): the five-state
// machine (FOLLOWED, POSITIVE, WATCHED, SKIPPED, ABSENT) that governs
// how a user's relationship to a creator evolves on score and skip
// events, per spec §4.4.
package creator

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/pools"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
)

// Service implements scoreCreator/skipCreator.
type Service struct {
	now func() time.Time
}

// New constructs a Service.
func New() *Service {
	return &Service{now: time.Now}
}

// Score applies a positive engagement to creatorID, running the
// five-state transition table's score column (spec §4.4).
func (s *Service) Score(ctx context.Context, accessor profileaccessor.Accessor, creatorID string, engagementScore float64) error {
	view, err := accessor.Load(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	mode := accessor.Mode()
	ci := &view.CreatorsInterests

	if f := findFollowed(view.Following, creatorID); f != nil {
		if f.Skips > 0 {
			f.Skips--
		}
		pools.UpdateNodeScore(f, engagementScore, mode, now)
		if f.Skips >= scoring.HardSkipThreshold {
			f.Score = 0
			reentry := now.Add(scoring.ReentryDelay)
			f.ReentryAt = &reentry
		}
		return accessor.Save(ctx, view)
	}

	if idx := findSkippedIndex(ci.Skipped, creatorID); idx >= 0 {
		entry := ci.Skipped[idx]
		if entry.Skips > 0 {
			entry.Skips--
		}
		if entry.Skips < scoring.HardSkipThreshold && !now.Before(entry.ReentryAt) {
			ci.Skipped = removeSkippedAt(ci.Skipped, idx)
			ci.Watched = append(ci.Watched, &po.WatchedEntry{
				CreatorID:      creatorID,
				Skips:          entry.Skips,
				LastSkipUpdate: now,
				ReentryAt:      entry.ReentryAt,
			})
		} else if entry.Skips >= scoring.HardSkipThreshold {
			entry.ReentryAt = now.Add(scoring.ReentryDelay)
		}
		return accessor.Save(ctx, view)
	}

	if idx := findWatchedIndex(ci.Watched, creatorID); idx >= 0 {
		entry := ci.Watched[idx]
		if entry.Skips > 0 {
			entry.Skips--
		}
		if entry.Skips <= 0 {
			ci.Watched = removeWatchedAt(ci.Watched, idx)
			ci.TopCreators, ci.RisingCreators = scoreIntoPositive(ci.TopCreators, ci.RisingCreators, creatorID, engagementScore, mode, now)
		}
		return accessor.Save(ctx, view)
	}

	ci.TopCreators, ci.RisingCreators = scoreIntoPositive(ci.TopCreators, ci.RisingCreators, creatorID, engagementScore, mode, now)
	return accessor.Save(ctx, view)
}

// scoreIntoPositive implements the POSITIVE/ABSENT score branch:
// findOrInit then updateNodeScore then insertIntoPools (spec §4.4).
func scoreIntoPositive(top, rising []*po.CreatorNode, creatorID string, engagementScore float64, mode scoring.Mode, now time.Time) ([]*po.CreatorNode, []*po.CreatorNode) {
	node, _ := pools.FindOrInit(top, rising, creatorID, func() *po.CreatorNode {
		return &po.CreatorNode{CreatorID: creatorID}
	})
	pools.UpdateNodeScore(node, engagementScore, mode, now)
	return pools.InsertIntoPools(top, rising, scoring.TopCreatorMax, scoring.RisingCreatorMax, node)
}

// Skip applies a skip to creatorID, running the five-state transition
// table's skip column (spec §4.4).
func (s *Service) Skip(ctx context.Context, accessor profileaccessor.Accessor, creatorID string) error {
	view, err := accessor.Load(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	mode := accessor.Mode()
	ci := &view.CreatorsInterests

	if f := findFollowed(view.Following, creatorID); f != nil {
		if f.Skips < scoring.HardSkipThreshold {
			f.Skips++
		}
		pools.UpdateNodeScore(f, scoring.SkipWeight, mode, now)
		if f.Skips >= scoring.HardSkipThreshold {
			f.Score = 0
			reentry := now.Add(scoring.ReentryDelay)
			f.ReentryAt = &reentry
		}
		return accessor.Save(ctx, view)
	}

	if idx := findSkippedIndex(ci.Skipped, creatorID); idx >= 0 {
		entry := ci.Skipped[idx]
		if entry.Skips < scoring.HardSkipThreshold {
			entry.Skips++
		}
		entry.ReentryAt = now.Add(scoring.ReentryDelay)
		entry.LastSkipUpdate = now
		return accessor.Save(ctx, view)
	}

	if idx := findWatchedIndex(ci.Watched, creatorID); idx >= 0 {
		entry := ci.Watched[idx]
		entry.Skips++
		entry.LastSkipUpdate = now
		if entry.Skips >= scoring.HardSkipThreshold {
			ci.Watched = removeWatchedAt(ci.Watched, idx)
			ci.Skipped = append(ci.Skipped, &po.SkippedEntry{
				CreatorID:      creatorID,
				Skips:          entry.Skips,
				LastSkipUpdate: now,
				ReentryAt:      now.Add(scoring.ReentryDelay),
			})
		}
		return accessor.Save(ctx, view)
	}

	node, found := pools.FindOrInit(ci.TopCreators, ci.RisingCreators, creatorID, func() *po.CreatorNode {
		return &po.CreatorNode{CreatorID: creatorID}
	})
	if !found {
		// ABSENT: nothing to skip.
		return accessor.Save(ctx, view)
	}
	node.Skips++
	node.LastSkipAt = now
	pools.UpdateNodeScore(node, scoring.SkipWeight, mode, now)

	switch {
	case node.Skips >= scoring.HardSkipThreshold:
		ci.TopCreators = removeCreatorNode(ci.TopCreators, creatorID)
		ci.RisingCreators = removeCreatorNode(ci.RisingCreators, creatorID)
		ci.Skipped = append(ci.Skipped, &po.SkippedEntry{
			CreatorID:      creatorID,
			Skips:          node.Skips,
			LastSkipUpdate: now,
			ReentryAt:      now.Add(scoring.ReentryDelay),
		})
	case node.Score <= 0 && node.Skips >= 1:
		ci.TopCreators = removeCreatorNode(ci.TopCreators, creatorID)
		ci.RisingCreators = removeCreatorNode(ci.RisingCreators, creatorID)
		ci.Watched = append(ci.Watched, &po.WatchedEntry{
			CreatorID:      creatorID,
			Skips:          node.Skips,
			LastSkipUpdate: now,
			ReentryAt:      now,
		})
	default:
		ci.TopCreators, ci.RisingCreators = pools.InsertIntoPools(
			ci.TopCreators, ci.RisingCreators, scoring.TopCreatorMax, scoring.RisingCreatorMax, node)
	}

	return accessor.Save(ctx, view)
}

func findFollowed(following []*po.FollowedCreator, creatorID string) *po.FollowedCreator {
	for _, f := range following {
		if f.UserID == creatorID {
			return f
		}
	}
	return nil
}

func findSkippedIndex(pool []*po.SkippedEntry, creatorID string) int {
	for i, e := range pool {
		if e.CreatorID == creatorID {
			return i
		}
	}
	return -1
}

func findWatchedIndex(pool []*po.WatchedEntry, creatorID string) int {
	for i, e := range pool {
		if e.CreatorID == creatorID {
			return i
		}
	}
	return -1
}

func removeSkippedAt(pool []*po.SkippedEntry, idx int) []*po.SkippedEntry {
	out := make([]*po.SkippedEntry, 0, len(pool)-1)
	out = append(out, pool[:idx]...)
	return append(out, pool[idx+1:]...)
}

func removeWatchedAt(pool []*po.WatchedEntry, idx int) []*po.WatchedEntry {
	out := make([]*po.WatchedEntry, 0, len(pool)-1)
	out = append(out, pool[:idx]...)
	return append(out, pool[idx+1:]...)
}

func removeCreatorNode(pool []*po.CreatorNode, creatorID string) []*po.CreatorNode {
	out := make([]*po.CreatorNode, 0, len(pool))
	for _, n := range pool {
		if n.CreatorID != creatorID {
			out = append(out, n)
		}
	}
	return out
}
