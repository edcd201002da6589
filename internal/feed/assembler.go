package feed

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/models/vo"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
	"github.com/bionicotaku/lingo-feed-ranker/internal/store/profile"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
)

// PostStore is the subset of profile.PostRepository the assembler
// needs for candidate sampling and padding (spec §4.7 step 4, step 7).
type PostStore interface {
	TopN(ctx context.Context, f profile.CandidateFilter, orderBy string, n int) ([]*po.Post, error)
	RandomN(ctx context.Context, f profile.CandidateFilter, n int) ([]*po.Post, error)
}

// StatsStore is the subset of profile.StatsRepository the assembler
// needs for the interestScore/creatorScore fallback averages (spec
// §4.7 step 5).
type StatsStore interface {
	GetGlobal(ctx context.Context, entityType, name string) (po.GlobalStats, error)
	GetCreator(ctx context.Context, creatorID string) (po.CreatorStats, error)
}

// ProfileStore is the subset of profile.Repository the assembler
// needs: loading the persistent profile for seenPosts and as the
// fallback pool source when no session exists (spec §4.7 step 1).
type ProfileStore interface {
	Load(ctx context.Context, userID string) (*po.UserProfile, error)
}

// Assembler implements the feed assembly pipeline (C10).
type Assembler struct {
	posts    PostStore
	stats    StatsStore
	profiles ProfileStore
	now      func() time.Time
	rng      *rand.Rand
}

// New constructs an Assembler.
func New(posts PostStore, stats StatsStore, profiles ProfileStore) *Assembler {
	return &Assembler{posts: posts, stats: stats, profiles: profiles, now: time.Now, rng: defaultRand()}
}

// SetRand overrides the assembler's random source, for deterministic
// tests.
func (a *Assembler) SetRand(rng *rand.Rand) { a.rng = rng }

// bucketCaps is step 6's per-bucket cap table (spec §4.7 step 6).
var bucketCaps = map[Bucket]int{
	BucketSkipReentry:     1,
	BucketWatched:         1,
	BucketCatTop:          3,
	BucketCatRising:       3,
	BucketCatExtra:        3,
	BucketCreatorTop:      2,
	BucketCreatorRising:   2,
	BucketCreatorExtra:    2,
	BucketCreatorFollowed: 2,
	BucketTrending:        2,
	BucketRising:          1,
	BucketRecent:          1,
	BucketEvergreen:       1,
	BucketUnknown:         1,
}

// bucketOrder fixes the tie-break precedence named in spec §4.7 step 6
// ("tie-break by bucket cap ordering"), matching the order buckets are
// listed in the cap table.
var bucketOrder = []Bucket{
	BucketSkipReentry, BucketWatched,
	BucketCatTop, BucketCatRising, BucketCatExtra,
	BucketCreatorTop, BucketCreatorRising, BucketCreatorExtra, BucketCreatorFollowed,
	BucketTrending, BucketRising, BucketRecent, BucketEvergreen, BucketUnknown,
}

func bucketRank(b Bucket) int {
	for i, ordered := range bucketOrder {
		if ordered == b {
			return i
		}
	}
	return len(bucketOrder)
}

// Assemble runs the full pipeline for userID, preferring sessionAccessor's
// pools when a session exists, falling back to the persistent profile
// otherwise (spec §4.7 step 1). sessionAccessor may be nil when the
// caller has no session cookie.
func (a *Assembler) Assemble(ctx context.Context, userID string, sessionAccessor profileaccessor.Accessor) (vo.FeedResponse, error) {
	persistent, err := a.profiles.Load(ctx, userID)
	if err != nil {
		return vo.FeedResponse{}, err
	}

	view := &profileaccessor.View{
		TopInterests:      persistent.TopInterests,
		RisingInterests:   persistent.RisingInterests,
		CreatorsInterests: persistent.CreatorsInterests,
		Following:         persistent.Following,
	}
	if sessionAccessor != nil {
		sessionView, err := sessionAccessor.Load(ctx)
		if err == nil {
			view = sessionView
		} else if !errors.Is(err, sessionstore.ErrNotFound) {
			return vo.FeedResponse{}, err
		}
	}

	sortPoolsDesc(view)

	now := a.now()
	seen := make([]string, 0, len(persistent.SeenPosts))
	for id := range persistent.SeenPosts {
		seen = append(seen, id)
	}
	excludeCreators := skippedCreatorIDs(view.CreatorsInterests)

	catPicks := a.pickCategories(view)
	creatorPicks := a.pickCreators(view)

	var rawCandidates []candidate
	catCands, err := a.fetchCategoryCandidates(ctx, catPicks, seen, excludeCreators)
	if err != nil {
		return vo.FeedResponse{}, err
	}
	rawCandidates = append(rawCandidates, catCands...)

	creatorCands, err := a.fetchCreatorCandidates(ctx, creatorPicks, seen, excludeCreators)
	if err != nil {
		return vo.FeedResponse{}, err
	}
	rawCandidates = append(rawCandidates, creatorCands...)

	generalCands, err := a.fetchGeneralPools(ctx, seen, excludeCreators, now)
	if err != nil {
		return vo.FeedResponse{}, err
	}
	rawCandidates = append(rawCandidates, generalCands...)

	if reentryID, ok := a.pickSkipReentry(view.CreatorsInterests, now); ok {
		cands, err := a.fetchSingleCreator(ctx, reentryID, seen, BucketSkipReentry)
		if err != nil {
			return vo.FeedResponse{}, err
		}
		rawCandidates = append(rawCandidates, cands...)
	}
	if watchedID, ok := a.pickWatched(view.CreatorsInterests); ok {
		cands, err := a.fetchSingleCreator(ctx, watchedID, seen, BucketWatched)
		if err != nil {
			return vo.FeedResponse{}, err
		}
		rawCandidates = append(rawCandidates, cands...)
	}

	rawCandidates = dedupeCandidates(rawCandidates)

	scored := make([]vo.FeedPost, 0, len(rawCandidates))
	for _, c := range rawCandidates {
		fp, err := a.scoreCandidate(ctx, c, view, now)
		if err != nil {
			return vo.FeedResponse{}, err
		}
		scored = append(scored, fp)
	}

	picked := a.interleave(scored)
	picked, err = a.pad(ctx, picked, seen)
	if err != nil {
		return vo.FeedResponse{}, err
	}

	return vo.FeedResponse{Status: "ok", Data: vo.FeedData{Posts: picked}}, nil
}

// fetchSingleCreator samples one post for a skip-reentry/watched pick
// (top 1 by bayesianScore, excluding seen).
func (a *Assembler) fetchSingleCreator(ctx context.Context, creatorID string, seen []string, bucket Bucket) ([]candidate, error) {
	posts, err := a.posts.TopN(ctx, profile.CandidateFilter{Creators: []string{creatorID}, ExcludeIDs: seen}, "bayesian_score", 1)
	if err != nil {
		return nil, err
	}
	return tagAll(posts, bucket), nil
}

// interleave implements step 6's fair-share pick (spec §4.7 step 6).
func (a *Assembler) interleave(scored []vo.FeedPost) []vo.FeedPost {
	type item struct {
		post  vo.FeedPost
		order int
	}
	items := make([]item, len(scored))
	for i, p := range scored {
		items[i] = item{post: p, order: i}
	}

	usage := map[Bucket]int{}
	used := make([]bool, len(items))
	var picked []vo.FeedPost

	for len(picked) < scoring.NonExplore {
		var eligible []item
		for i, it := range items {
			if used[i] {
				continue
			}
			bucket := Bucket(it.post.Bucket)
			capacity := bucketCaps[bucket]
			if capacity == 0 {
				capacity = bucketCaps[BucketUnknown]
			}
			if usage[bucket] < capacity {
				eligible = append(eligible, it)
			}
		}
		if len(eligible) == 0 {
			break
		}

		m := -1
		for _, it := range eligible {
			u := usage[Bucket(it.post.Bucket)]
			if m == -1 || u < m {
				m = u
			}
		}

		var atMin []item
		for _, it := range eligible {
			if usage[Bucket(it.post.Bucket)] == m {
				atMin = append(atMin, it)
			}
		}

		sort.SliceStable(atMin, func(i, j int) bool {
			if atMin[i].post.OverallScore != atMin[j].post.OverallScore {
				return atMin[i].post.OverallScore > atMin[j].post.OverallScore
			}
			bi, bj := bucketRank(Bucket(atMin[i].post.Bucket)), bucketRank(Bucket(atMin[j].post.Bucket))
			if bi != bj {
				return bi < bj
			}
			return atMin[i].order < atMin[j].order
		})

		chosen := atMin[0]
		picked = append(picked, chosen.post)
		usage[Bucket(chosen.post.Bucket)]++
		for i, it := range items {
			if it.order == chosen.order {
				used[i] = true
				break
			}
		}
	}

	return picked
}

// pad implements step 7: fill out to FEED_SIZE with random posts not
// already seen or already picked, bucket=EXPLORE, overallScore=0
// (spec §4.7 step 7).
func (a *Assembler) pad(ctx context.Context, picked []vo.FeedPost, seen []string) ([]vo.FeedPost, error) {
	need := scoring.FeedSize - len(picked)
	if need <= 0 {
		return picked, nil
	}
	exclude := make([]string, len(seen), len(seen)+len(picked))
	copy(exclude, seen)
	for _, p := range picked {
		exclude = append(exclude, p.PostID)
	}

	extra, err := a.posts.RandomN(ctx, profile.CandidateFilter{ExcludeIDs: exclude}, need)
	if err != nil {
		return nil, err
	}
	for _, p := range extra {
		picked = append(picked, vo.FeedPost{
			PostID:       p.ID,
			Creator:      p.Creator,
			Category:     p.Category,
			Bucket:       string(BucketExplore),
			OverallScore: 0,
			CreatedAt:    p.CreatedAt,
		})
	}
	return picked, nil
}

// sortPoolsDesc sorts every pool in view by score descending (spec
// §4.7 step 1: "sort each pool descending by score"). InsertIntoPools
// already keeps pools sorted on write, but a session blob round-tripped
// through JSON carries no such guarantee for an external caller.
func sortPoolsDesc(view *profileaccessor.View) {
	sort.SliceStable(view.TopInterests, func(i, j int) bool { return view.TopInterests[i].Score > view.TopInterests[j].Score })
	sort.SliceStable(view.RisingInterests, func(i, j int) bool { return view.RisingInterests[i].Score > view.RisingInterests[j].Score })
	sort.SliceStable(view.CreatorsInterests.TopCreators, func(i, j int) bool {
		return view.CreatorsInterests.TopCreators[i].Score > view.CreatorsInterests.TopCreators[j].Score
	})
	sort.SliceStable(view.CreatorsInterests.RisingCreators, func(i, j int) bool {
		return view.CreatorsInterests.RisingCreators[i].Score > view.CreatorsInterests.RisingCreators[j].Score
	})
	sort.SliceStable(view.Following, func(i, j int) bool { return view.Following[i].Score > view.Following[j].Score })
	for _, cat := range view.TopInterests {
		sortSubsDesc(cat)
	}
	for _, cat := range view.RisingInterests {
		sortSubsDesc(cat)
	}
}

func sortSubsDesc(cat *po.CategoryNode) {
	sort.SliceStable(cat.TopSubs, func(i, j int) bool { return cat.TopSubs[i].Score > cat.TopSubs[j].Score })
	sort.SliceStable(cat.RisingSubs, func(i, j int) bool { return cat.RisingSubs[i].Score > cat.RisingSubs[j].Score })
}
