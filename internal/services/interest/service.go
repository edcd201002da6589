// Package interest implements the interest service (C5): scoring and
// skipping a category/subcategory/specific tuple against whichever
// profileaccessor.Accessor the caller supplies (session or
// persistent), per spec §4.3.
package interest

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/pools"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
)

// StatsStore is the subset of the stats repository the interest
// service needs: atomic counter increments keyed by (entityType, name)
// and (userId, entityType, name).
type StatsStore interface {
	IncrementGlobal(ctx context.Context, entityType, name string, impressionDelta int64, engagementDelta float64) (po.GlobalStats, error)
	IncrementUserInterest(ctx context.Context, userID, entityType, name string, impressionDelta int64, engagementDelta float64) (po.UserInterestStats, error)
}

// Service implements scoreInterest/skipInterest.
type Service struct {
	stats StatsStore
	now   func() time.Time
}

// New constructs a Service.
func New(stats StatsStore) *Service {
	return &Service{stats: stats, now: time.Now}
}

// Score performs the dual-update (counter increment + Bayesian
// smoothing + pool placement) at the category, subcategory and
// specific levels (spec §4.3).
func (s *Service) Score(ctx context.Context, userID string, accessor profileaccessor.Accessor, category, subCategory, specific string, engagementScore float64) error {
	view, err := accessor.Load(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	mode := accessor.Mode()

	catSmoothed, err := s.smoothLevel(ctx, userID, po.EntityTypeCategory, category, engagementScore)
	if err != nil {
		return err
	}
	catNode, _ := pools.FindOrInit(view.TopInterests, view.RisingInterests, category, func() *po.CategoryNode {
		return &po.CategoryNode{Name: category}
	})
	pools.UpdateNodeScore(catNode, catSmoothed, mode, now)
	view.TopInterests, view.RisingInterests = pools.InsertIntoPools(
		view.TopInterests, view.RisingInterests, scoring.TopCategoryMax, scoring.RisingCategoryMax, catNode)

	if subCategory != "" {
		// catNode may have been replaced by a freshly demoted copy of
		// itself inside InsertIntoPools; re-resolve it so TopSubs/
		// RisingSubs mutations land on the node actually kept in the pool.
		catNode, _ = pools.FindOrInit(view.TopInterests, view.RisingInterests, category, func() *po.CategoryNode {
			return &po.CategoryNode{Name: category}
		})

		subSmoothed, err := s.smoothLevel(ctx, userID, po.EntityTypeSubcategory, subCategory, engagementScore)
		if err != nil {
			return err
		}
		subNode, _ := pools.FindOrInit(catNode.TopSubs, catNode.RisingSubs, subCategory, func() *po.SubNode {
			return &po.SubNode{Name: subCategory}
		})
		pools.UpdateNodeScore(subNode, subSmoothed, mode, now)
		catNode.TopSubs, catNode.RisingSubs = pools.InsertIntoPools(
			catNode.TopSubs, catNode.RisingSubs, scoring.TopSubMax, scoring.RisingSubMax, subNode)

		if specific != "" {
			subNode, _ = pools.FindOrInit(catNode.TopSubs, catNode.RisingSubs, subCategory, func() *po.SubNode {
				return &po.SubNode{Name: subCategory}
			})
			// Specific interests skip Bayesian smoothing (spec §4.3): too
			// sparse for a stable prior, so the raw engagement score drives
			// the EMA directly.
			specNode, _ := pools.FindOrInit(subNode.Specific, nil, specific, func() *po.SpecificNode {
				return &po.SpecificNode{Name: specific}
			})
			pools.UpdateNodeScore(specNode, engagementScore, mode, now)
			subNode.Specific = pools.InsertIntoSinglePool(subNode.Specific, scoring.SpecificMax, specNode)
		}
	}

	return accessor.Save(ctx, view)
}

// Skip applies SKIP_WEIGHT at the category, subcategory and specific
// levels named by path (any of which may be empty to stop descending),
// removing a node from its pools once its score goes non-positive
// (spec §4.3: "a skip is a negative-weighted score update, not a
// separate code path").
func (s *Service) Skip(ctx context.Context, accessor profileaccessor.Accessor, category, subCategory, specific string) error {
	if category == "" {
		return nil
	}
	view, err := accessor.Load(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	mode := accessor.Mode()

	catNode, found := pools.FindOrInit(view.TopInterests, view.RisingInterests, category, func() *po.CategoryNode {
		return &po.CategoryNode{Name: category}
	})
	if !found {
		// Nothing to skip: the category isn't in either pool yet.
		return accessor.Save(ctx, view)
	}
	pools.UpdateNodeScore(catNode, scoring.SkipWeight, mode, now)
	if catNode.Score <= 0 {
		view.TopInterests, view.RisingInterests = pools.RemoveFromPools(view.TopInterests, view.RisingInterests, category)
	} else {
		view.TopInterests, view.RisingInterests = pools.InsertIntoPools(
			view.TopInterests, view.RisingInterests, scoring.TopCategoryMax, scoring.RisingCategoryMax, catNode)
	}

	if subCategory != "" {
		catNode, found = pools.FindOrInit(view.TopInterests, view.RisingInterests, category, func() *po.CategoryNode {
			return &po.CategoryNode{Name: category}
		})
		if found {
			subNode, subFound := pools.FindOrInit(catNode.TopSubs, catNode.RisingSubs, subCategory, func() *po.SubNode {
				return &po.SubNode{Name: subCategory}
			})
			if subFound {
				pools.UpdateNodeScore(subNode, scoring.SkipWeight, mode, now)
				if subNode.Score <= 0 {
					catNode.TopSubs, catNode.RisingSubs = pools.RemoveFromPools(catNode.TopSubs, catNode.RisingSubs, subCategory)
				} else {
					catNode.TopSubs, catNode.RisingSubs = pools.InsertIntoPools(
						catNode.TopSubs, catNode.RisingSubs, scoring.TopSubMax, scoring.RisingSubMax, subNode)
				}

				if specific != "" {
					subNode, subFound = pools.FindOrInit(catNode.TopSubs, catNode.RisingSubs, subCategory, func() *po.SubNode {
						return &po.SubNode{Name: subCategory}
					})
					if subFound {
						specNode, specFound := pools.FindOrInit(subNode.Specific, nil, specific, func() *po.SpecificNode {
							return &po.SpecificNode{Name: specific}
						})
						if specFound {
							pools.UpdateNodeScore(specNode, scoring.SkipWeight, mode, now)
							if specNode.Score <= 0 {
								subNode.Specific, _ = pools.RemoveFromPools(subNode.Specific, nil, specific)
							} else {
								subNode.Specific = pools.InsertIntoSinglePool(subNode.Specific, scoring.SpecificMax, specNode)
							}
						}
					}
				}
			}
		}
	}

	return accessor.Save(ctx, view)
}

// smoothLevel increments the global and per-user counters for an
// entity and returns its Bayesian-smoothed score (spec §4.3).
func (s *Service) smoothLevel(ctx context.Context, userID, entityType, name string, engagementScore float64) (float64, error) {
	global, err := s.stats.IncrementGlobal(ctx, entityType, name, 1, engagementScore)
	if err != nil {
		return 0, err
	}
	userStats, err := s.stats.IncrementUserInterest(ctx, userID, entityType, name, 1, engagementScore)
	if err != nil {
		return 0, err
	}
	priorCount := scoring.ChoosePriorCount(global.ImpressionCount)
	return scoring.BayesianSmooth(global.Avg(), float64(priorCount), userStats.TotalEngagement, userStats.ImpressionCount), nil
}
