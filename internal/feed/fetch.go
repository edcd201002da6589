package feed

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/store/profile"
)

// candidate is one fetched post tagged with the bucket its selection
// step drew it from.
type candidate struct {
	post   *po.Post
	bucket Bucket
}

// fetchCategoryCandidates implements step 4's per-category sampling:
// for every selected subcategory, 5 highest by bayesianScore (desc,
// createdAt desc) union 3 random, excluding seen posts and creators in
// the skipped pool (spec §4.7 step 4).
func (a *Assembler) fetchCategoryCandidates(ctx context.Context, picks []categoryPick, seen, excludeCreators []string) ([]candidate, error) {
	var out []candidate
	for _, pick := range picks {
		targets := pick.subs
		if len(targets) == 0 {
			targets = []subPick{{name: "", bucket: pick.bucket}}
		}
		for _, sub := range targets {
			filter := profile.CandidateFilter{
				Category:        strPtr(pick.category.Name),
				ExcludeIDs:      seen,
				ExcludeCreators: excludeCreators,
			}
			if sub.name != "" {
				filter.SubCategory = strPtr(sub.name)
			}
			top, err := a.posts.TopN(ctx, filter, "bayesian_score", 5)
			if err != nil {
				return nil, err
			}
			random, err := a.posts.RandomN(ctx, filter, 3)
			if err != nil {
				return nil, err
			}
			out = append(out, tagAll(top, sub.bucket)...)
			out = append(out, tagAll(random, sub.bucket)...)
		}
	}
	return out, nil
}

// fetchCreatorCandidates implements step 4's pooled creator sampling:
// 20 top by trendingScore + 10 random across every selected creator,
// excluding seen posts and skipped creators (spec §4.7 step 4).
func (a *Assembler) fetchCreatorCandidates(ctx context.Context, picks []creatorPick, seen, excludeCreators []string) ([]candidate, error) {
	if len(picks) == 0 {
		return nil, nil
	}
	bucketByCreator := make(map[string]Bucket, len(picks))
	ids := make([]string, 0, len(picks))
	for _, p := range picks {
		bucketByCreator[p.creatorID] = p.bucket
		ids = append(ids, p.creatorID)
	}
	filter := profile.CandidateFilter{
		Creators:        ids,
		ExcludeIDs:      seen,
		ExcludeCreators: excludeCreators,
	}
	top, err := a.posts.TopN(ctx, filter, "trending_score", 20)
	if err != nil {
		return nil, err
	}
	random, err := a.posts.RandomN(ctx, filter, 10)
	if err != nil {
		return nil, err
	}
	var out []candidate
	for _, p := range append(top, random...) {
		out = append(out, candidate{post: p, bucket: bucketByCreator[p.Creator]})
	}
	return out, nil
}

// fetchGeneralPools implements step 4's four general pools: RISING,
// TRENDING, RECENT and EVERGREEN (spec §4.7 step 4).
func (a *Assembler) fetchGeneralPools(ctx context.Context, seen, excludeCreators []string, now time.Time) ([]candidate, error) {
	var out []candidate

	risingTrue := true
	evergreenFalse := false
	evergreenTrue := true
	recentSince := now.Add(-scoring.RecentWindow)

	pools := []struct {
		filter  profile.CandidateFilter
		orderBy string
		top     int
		random  int
		bucket  Bucket
	}{
		{profile.CandidateFilter{IsRising: &risingTrue, IsEvergreen: &evergreenFalse}, "trending_score", 4, 2, BucketRising},
		{profile.CandidateFilter{IsEvergreen: &evergreenFalse}, "trending_score", 8, 4, BucketTrending},
		{profile.CandidateFilter{CreatedAfter: &recentSince}, "bayesian_score", 8, 4, BucketRecent},
		{profile.CandidateFilter{IsEvergreen: &evergreenTrue}, "bayesian_score", 8, 4, BucketEvergreen},
	}

	for _, p := range pools {
		filter := p.filter
		filter.ExcludeIDs = seen
		filter.ExcludeCreators = excludeCreators
		top, err := a.posts.TopN(ctx, filter, p.orderBy, p.top)
		if err != nil {
			return nil, err
		}
		random, err := a.posts.RandomN(ctx, filter, p.random)
		if err != nil {
			return nil, err
		}
		out = append(out, tagAll(top, p.bucket)...)
		out = append(out, tagAll(random, p.bucket)...)
	}
	return out, nil
}

func tagAll(posts []*po.Post, bucket Bucket) []candidate {
	out := make([]candidate, 0, len(posts))
	for _, p := range posts {
		out = append(out, candidate{post: p, bucket: bucket})
	}
	return out
}

func strPtr(s string) *string { return &s }

// skippedCreatorIDs returns the creator ids currently in ci.Skipped,
// excluded from every candidate fetch per §4.7 step 4.
func skippedCreatorIDs(ci po.CreatorsInterests) []string {
	out := make([]string, 0, len(ci.Skipped))
	for _, e := range ci.Skipped {
		out = append(out, e.CreatorID)
	}
	return out
}

// dedupeCandidates keeps the first occurrence of each post id,
// preserving bucket assignment from whichever fetch stage found it
// first (spec §4.7 gives no explicit tie-break here; first-found
// mirrors the first-wins convention used throughout the pool manager).
func dedupeCandidates(cands []candidate) []candidate {
	seen := make(map[string]bool, len(cands))
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if seen[c.post.ID] {
			continue
		}
		seen[c.post.ID] = true
		out = append(out, c)
	}
	return out
}
