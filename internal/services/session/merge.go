package session

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/pools"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
)

// mergeBack blends blob's interest and creator pools into the
// persistent profile for blob.UserID, the work the expiry worker
// triggers once a session has gone stale (spec §4.6 "Merge-back").
//
// Before touching the profile it checks blob.UserID against the owner
// record set at session creation (sessionID's Put, spec §7): the two
// are written independently, so a blob mutated or swapped after
// creation — by a storage bug, a key collision, or manual tampering —
// diverges from the owner while a merely corrupt blob fails earlier at
// JSON decode. On a mismatch it refuses the merge entirely rather than
// risk blending one user's session into another user's profile.
func (s *Service) mergeBack(ctx context.Context, sessionID string, blob *po.SessionBlob) error {
	owner, err := s.sessions.Owner(ctx, sessionID)
	if err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
		return err
	}
	if err == nil && owner != blob.UserID {
		return ErrUserMismatch
	}

	profile, err := s.profiles.Load(ctx, blob.UserID)
	if err != nil {
		return err
	}
	now := s.now()

	for _, sessionCat := range append(append([]*po.CategoryNode{}, blob.TopCategories...), blob.RisingCategories...) {
		mergeCategory(profile, sessionCat, now)
	}
	mergeCreators(profile, blob, now)

	return s.profiles.Save(ctx, profile)
}

// mergeCategory find-or-inits sessionCat's counterpart in the
// persistent profile's top∪rising pools, blends its score, re-pools,
// then recurses into subcategories and specifics (spec §4.6).
func mergeCategory(profile *po.UserProfile, sessionCat *po.CategoryNode, now time.Time) {
	catNode, _ := pools.FindOrInit(profile.TopInterests, profile.RisingInterests, sessionCat.Name, func() *po.CategoryNode {
		return &po.CategoryNode{Name: sessionCat.Name}
	})
	catNode.Score = scoring.EMABlend(scoring.SessionBlendAlpha, catNode.Score, sessionCat.Score)
	catNode.SetLastUpdated(now)
	profile.TopInterests, profile.RisingInterests = pools.InsertIntoPools(
		profile.TopInterests, profile.RisingInterests, scoring.TopCategoryMax, scoring.RisingCategoryMax, catNode)

	for _, sessionSub := range append(append([]*po.SubNode{}, sessionCat.TopSubs...), sessionCat.RisingSubs...) {
		// catNode may have been replaced by a demoted copy of itself
		// during insertion; re-resolve before descending (mirrors the
		// interest service's same re-resolve step).
		catNode, _ = pools.FindOrInit(profile.TopInterests, profile.RisingInterests, sessionCat.Name, func() *po.CategoryNode {
			return &po.CategoryNode{Name: sessionCat.Name}
		})
		mergeSub(catNode, sessionSub, now)
	}
}

func mergeSub(catNode *po.CategoryNode, sessionSub *po.SubNode, now time.Time) {
	subNode, _ := pools.FindOrInit(catNode.TopSubs, catNode.RisingSubs, sessionSub.Name, func() *po.SubNode {
		return &po.SubNode{Name: sessionSub.Name}
	})
	subNode.Score = scoring.EMABlend(scoring.SessionBlendAlpha, subNode.Score, sessionSub.Score)
	subNode.SetLastUpdated(now)
	catNode.TopSubs, catNode.RisingSubs = pools.InsertIntoPools(
		catNode.TopSubs, catNode.RisingSubs, scoring.TopSubMax, scoring.RisingSubMax, subNode)

	for _, sessionSpec := range sessionSub.Specific {
		subNode, _ = pools.FindOrInit(catNode.TopSubs, catNode.RisingSubs, sessionSub.Name, func() *po.SubNode {
			return &po.SubNode{Name: sessionSub.Name}
		})
		specNode, _ := pools.FindOrInit(subNode.Specific, nil, sessionSpec.Name, func() *po.SpecificNode {
			return &po.SpecificNode{Name: sessionSpec.Name}
		})
		specNode.Score = scoring.EMABlend(scoring.SessionBlendAlpha, specNode.Score, sessionSpec.Score)
		specNode.SetLastUpdated(now)
		subNode.Specific = pools.InsertIntoSinglePool(subNode.Specific, scoring.SpecificMax, specNode)
	}
}

// creatorSignal is a flattened (score, skips) pair read out of
// whichever of a profile's five creator states a creator currently
// occupies.
type creatorSignal struct {
	score float64
	skips int
}

// collectCreatorSignals aggregates blob's per-creator signals into a
// priority map: FOLLOWED > POSITIVE > WATCHED > SKIPPED, first-wins
// (spec §4.6).
func collectCreatorSignals(blob *po.SessionBlob) map[string]creatorSignal {
	out := map[string]creatorSignal{}
	for _, f := range blob.FollowedCreators {
		if _, ok := out[f.UserID]; !ok {
			out[f.UserID] = creatorSignal{score: f.Score, skips: f.Skips}
		}
	}
	for _, n := range append(append([]*po.CreatorNode{}, blob.TopCreators...), blob.RisingCreators...) {
		if _, ok := out[n.CreatorID]; !ok {
			out[n.CreatorID] = creatorSignal{score: n.Score, skips: n.Skips}
		}
	}
	for _, w := range blob.WatchedCreators {
		if _, ok := out[w.CreatorID]; !ok {
			out[w.CreatorID] = creatorSignal{skips: w.Skips}
		}
	}
	for _, sk := range blob.SkippedCreators {
		if _, ok := out[sk.CreatorID]; !ok {
			out[sk.CreatorID] = creatorSignal{skips: sk.Skips}
		}
	}
	return out
}

// findPersistentCreator locates creatorID in profile's own five creator
// states, in the same priority order, and returns its current signal.
func findPersistentCreator(profile *po.UserProfile, creatorID string) creatorSignal {
	ci := &profile.CreatorsInterests
	for _, f := range profile.Following {
		if f.UserID == creatorID {
			return creatorSignal{score: f.Score, skips: f.Skips}
		}
	}
	for _, n := range append(append([]*po.CreatorNode{}, ci.TopCreators...), ci.RisingCreators...) {
		if n.CreatorID == creatorID {
			return creatorSignal{score: n.Score, skips: n.Skips}
		}
	}
	for _, w := range ci.Watched {
		if w.CreatorID == creatorID {
			return creatorSignal{skips: w.Skips}
		}
	}
	for _, sk := range ci.Skipped {
		if sk.CreatorID == creatorID {
			return creatorSignal{skips: sk.Skips}
		}
	}
	return creatorSignal{}
}

// mergeCreators blends every creator the session touched into the
// persistent profile, using newSkips (rounded from emaBlend) as the
// arbiter for which of the five states the creator lands in (spec
// §4.6).
func mergeCreators(profile *po.UserProfile, blob *po.SessionBlob, now time.Time) {
	for creatorID, sessionSig := range collectCreatorSignals(blob) {
		oldSig := findPersistentCreator(profile, creatorID)
		newSkips := int(math.Round(scoring.EMABlend(scoring.SessionBlendAlpha, float64(oldSig.skips), float64(sessionSig.skips))))
		newScore := scoring.EMABlend(scoring.SessionBlendAlpha, oldSig.score, sessionSig.score)
		applyMergedCreator(profile, creatorID, newScore, newSkips, now)
	}
}

// applyMergedCreator applies the same five-state transition table as
// the creator service's skip path (spec §4.4), but driven directly by
// the already-blended newScore/newSkips rather than an incremental
// skip (spec §4.6).
func applyMergedCreator(profile *po.UserProfile, creatorID string, newScore float64, newSkips int, now time.Time) {
	ci := &profile.CreatorsInterests

	for _, f := range profile.Following {
		if f.UserID != creatorID {
			continue
		}
		f.Score = newScore
		f.Skips = newSkips
		if newSkips >= scoring.HardSkipThreshold {
			f.Score = 0
			reentry := now.Add(scoring.ReentryDelay)
			f.ReentryAt = &reentry
		} else {
			f.ReentryAt = nil
		}
		return
	}

	ci.TopCreators = removeCreatorNode(ci.TopCreators, creatorID)
	ci.RisingCreators = removeCreatorNode(ci.RisingCreators, creatorID)
	ci.Watched = removeWatchedEntry(ci.Watched, creatorID)
	ci.Skipped = removeSkippedEntry(ci.Skipped, creatorID)

	switch {
	case newSkips >= scoring.HardSkipThreshold:
		ci.Skipped = append(ci.Skipped, &po.SkippedEntry{
			CreatorID:      creatorID,
			Skips:          newSkips,
			LastSkipUpdate: now,
			ReentryAt:      now.Add(scoring.ReentryDelay),
		})
	case newScore <= 0 && newSkips >= scoring.WatchedThreshold:
		ci.Watched = append(ci.Watched, &po.WatchedEntry{
			CreatorID:      creatorID,
			Skips:          newSkips,
			LastSkipUpdate: now,
			ReentryAt:      now,
		})
	default:
		node := &po.CreatorNode{CreatorID: creatorID, Score: newScore, Skips: newSkips, LastUpdated: now}
		ci.TopCreators, ci.RisingCreators = pools.InsertIntoPools(
			ci.TopCreators, ci.RisingCreators, scoring.TopCreatorMax, scoring.RisingCreatorMax, node)
	}
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

func removeWatchedEntry(pool []*po.WatchedEntry, creatorID string) []*po.WatchedEntry {
	out := make([]*po.WatchedEntry, 0, len(pool))
	for _, w := range pool {
		if w.CreatorID != creatorID {
			out = append(out, w)
		}
	}
	return out
}

func removeSkippedEntry(pool []*po.SkippedEntry, creatorID string) []*po.SkippedEntry {
	out := make([]*po.SkippedEntry, 0, len(pool))
	for _, sk := range pool {
		if sk.CreatorID != creatorID {
			out = append(out, sk)
		}
	}
	return out
}
