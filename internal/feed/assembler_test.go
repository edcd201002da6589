package feed_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bionicotaku/lingo-feed-ranker/internal/feed"
	"github.com/bionicotaku/lingo-feed-ranker/internal/feed/mocks"
	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
	"github.com/bionicotaku/lingo-feed-ranker/internal/store/profile"
)

// fakeSessionAccessor feeds the assembler a fixed hot-path view
// without touching the fast store.
type fakeSessionAccessor struct{ view *profileaccessor.View }

func (a *fakeSessionAccessor) Load(context.Context) (*profileaccessor.View, error) { return a.view, nil }
func (a *fakeSessionAccessor) Save(context.Context, *profileaccessor.View) error    { return nil }
func (a *fakeSessionAccessor) Mode() scoring.Mode                                   { return scoring.ModeSession }

// fivePlusTenProfile builds the persistent profile named in scenario
// 4 (SPEC_FULL §8): 13 top categories, 5 rising categories and 6 top
// creators, enough to fill the top picks and exercise the random-extra
// picks.
func fivePlusTenProfile(userID string) *po.UserProfile {
	p := po.NewUserProfile(userID)
	for i := 0; i < 13; i++ {
		p.TopInterests = append(p.TopInterests, &po.CategoryNode{
			Name: fmt.Sprintf("cat-top-%d", i), Score: float64(100 - i), LastUpdated: time.Now(),
		})
	}
	for i := 0; i < 5; i++ {
		p.RisingInterests = append(p.RisingInterests, &po.CategoryNode{
			Name: fmt.Sprintf("cat-rising-%d", i), Score: float64(50 - i), LastUpdated: time.Now(),
		})
	}
	for i := 0; i < 6; i++ {
		p.CreatorsInterests.TopCreators = append(p.CreatorsInterests.TopCreators, &po.CreatorNode{
			CreatorID: fmt.Sprintf("creator-top-%d", i), Score: float64(90 - i), LastUpdated: time.Now(),
		})
	}
	p.SeenPosts["seen-1"] = struct{}{}
	p.SeenPosts["seen-2"] = struct{}{}
	return p
}

// everyPost manufactures a fresh, never-seen post for every mocked
// TopN/RandomN call, so the 20-trending-posts-plus-extras pool named
// by scenario 4 is never starved.
func everyPost(counter *int, bucketHint string) []*po.Post {
	out := make([]*po.Post, 0, 5)
	for i := 0; i < 5; i++ {
		*counter++
		out = append(out, &po.Post{
			ID:            fmt.Sprintf("%s-%d", bucketHint, *counter),
			Creator:       fmt.Sprintf("creator-top-%d", *counter%6),
			Category:      fmt.Sprintf("cat-top-%d", *counter%13),
			SubCategory:   "sub",
			RawScore:      float64(*counter),
			TrendingScore: float64(*counter),
			BayesianScore: float64(*counter),
			CreatedAt:     time.Now(),
		})
	}
	return out
}

func TestAssembleUnderFixedSeedRespectsInvariants(t *testing.T) {
	ctrl := gomock.NewController(t)
	posts := mocks.NewMockPostStore(ctrl)
	stats := mocks.NewMockStatsStore(ctrl)
	profiles := mocks.NewMockProfileStore(ctrl)

	userID := "user-1"
	persistent := fivePlusTenProfile(userID)
	profiles.EXPECT().Load(gomock.Any(), userID).Return(persistent, nil).AnyTimes()
	stats.EXPECT().GetGlobal(gomock.Any(), gomock.Any(), gomock.Any()).Return(po.GlobalStats{}, nil).AnyTimes()
	stats.EXPECT().GetCreator(gomock.Any(), gomock.Any()).Return(po.CreatorStats{}, nil).AnyTimes()

	counter := 0
	posts.EXPECT().TopN(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, profile.CandidateFilter, string, int) ([]*po.Post, error) {
			return everyPost(&counter, "top"), nil
		}).AnyTimes()
	posts.EXPECT().RandomN(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, profile.CandidateFilter, int) ([]*po.Post, error) {
			return everyPost(&counter, "rand"), nil
		}).AnyTimes()

	assembler := feed.New(posts, stats, profiles)
	assembler.SetRand(rand.New(rand.NewSource(42)))

	resp, err := assembler.Assemble(context.Background(), userID, &fakeSessionAccessor{view: &profileaccessor.View{
		TopInterests:      persistent.TopInterests,
		RisingInterests:   persistent.RisingInterests,
		CreatorsInterests: persistent.CreatorsInterests,
	}})
	require.NoError(t, err)

	out := resp.Data.Posts
	require.LessOrEqual(t, len(out), scoring.FeedSize)

	seenIDs := map[string]bool{}
	bucketUsage := map[string]int{}
	for _, p := range out {
		require.False(t, seenIDs[p.PostID], "post %s appeared twice", p.PostID)
		seenIDs[p.PostID] = true
		require.NotEqual(t, "seen-1", p.PostID)
		require.NotEqual(t, "seen-2", p.PostID)
		if p.Bucket != string(feed.BucketExplore) {
			bucketUsage[p.Bucket]++
		}
	}

	caps := map[string]int{
		string(feed.BucketCatTop): 3, string(feed.BucketCatRising): 3, string(feed.BucketCatExtra): 3,
		string(feed.BucketCreatorTop): 2, string(feed.BucketCreatorRising): 2, string(feed.BucketCreatorExtra): 2,
		string(feed.BucketCreatorFollowed): 2, string(feed.BucketTrending): 2, string(feed.BucketRising): 1,
		string(feed.BucketRecent): 1, string(feed.BucketEvergreen): 1, string(feed.BucketSkipReentry): 1,
		string(feed.BucketWatched): 1,
	}
	for bucket, used := range bucketUsage {
		if cap, ok := caps[bucket]; ok {
			require.LessOrEqualf(t, used, cap, "bucket %s exceeded its cap", bucket)
		}
	}
}

func TestAssemblePadsToFeedSizeWhenCandidatesAreScarce(t *testing.T) {
	ctrl := gomock.NewController(t)
	posts := mocks.NewMockPostStore(ctrl)
	stats := mocks.NewMockStatsStore(ctrl)
	profiles := mocks.NewMockProfileStore(ctrl)

	userID := "user-2"
	persistent := po.NewUserProfile(userID)
	profiles.EXPECT().Load(gomock.Any(), userID).Return(persistent, nil).AnyTimes()
	stats.EXPECT().GetGlobal(gomock.Any(), gomock.Any(), gomock.Any()).Return(po.GlobalStats{}, nil).AnyTimes()
	stats.EXPECT().GetCreator(gomock.Any(), gomock.Any()).Return(po.CreatorStats{}, nil).AnyTimes()
	posts.EXPECT().TopN(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	padCount := 0
	posts.EXPECT().RandomN(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f profile.CandidateFilter, n int) ([]*po.Post, error) {
			// The bare pad-step filter (step 7) carries none of the
			// general pools' discriminators; everything else should
			// stay empty so this scenario's candidate pool is truly
			// scarce before padding.
			if f.IsRising != nil || f.IsEvergreen != nil || f.CreatedAfter != nil || f.Category != nil || len(f.Creators) > 0 {
				return nil, nil
			}
			out := make([]*po.Post, 0, n)
			for i := 0; i < n; i++ {
				padCount++
				out = append(out, &po.Post{ID: fmt.Sprintf("pad-%d", padCount), CreatedAt: time.Now()})
			}
			return out, nil
		}).AnyTimes()

	assembler := feed.New(posts, stats, profiles)
	assembler.SetRand(rand.New(rand.NewSource(7)))

	resp, err := assembler.Assemble(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Len(t, resp.Data.Posts, scoring.FeedSize)
	for _, p := range resp.Data.Posts {
		require.Equal(t, string(feed.BucketExplore), p.Bucket)
		require.Equal(t, float64(0), p.OverallScore)
	}
}
