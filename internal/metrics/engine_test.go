package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/metrics"
	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/stretchr/testify/require"
)

type fakePosts struct {
	byID map[string]*po.Post
}

func (f *fakePosts) Get(_ context.Context, postID string) (*po.Post, error) {
	return f.byID[postID], nil
}
func (f *fakePosts) Save(_ context.Context, p *po.Post) error {
	f.byID[p.ID] = p
	return nil
}

type fakeStats struct {
	global  map[string]po.GlobalStats
	creator map[string]po.CreatorStats
}

func newFakeStats() *fakeStats {
	return &fakeStats{global: map[string]po.GlobalStats{}, creator: map[string]po.CreatorStats{}}
}

func (f *fakeStats) IncrementGlobal(_ context.Context, entityType, name string, impressionDelta int64, engagementDelta float64) (po.GlobalStats, error) {
	key := entityType + "|" + name
	g := f.global[key]
	g.EntityType, g.Name = entityType, name
	g.ImpressionCount += impressionDelta
	g.TotalEngagement += engagementDelta
	f.global[key] = g
	return g, nil
}

func (f *fakeStats) IncrementCreator(_ context.Context, creatorID string, impressionDelta int64, engagementDelta float64) (po.CreatorStats, error) {
	c := f.creator[creatorID]
	c.CreatorID = creatorID
	c.ImpressionCount += impressionDelta
	c.TotalEngagement += engagementDelta
	f.creator[creatorID] = c
	return c, nil
}

func freshPost(now time.Time) *po.Post {
	return &po.Post{
		ID:                 "p1",
		Creator:            "c1",
		Category:           "Tech",
		CreatedAt:          now,
		LastTrendingUpdate: now,
	}
}

func TestApplyOnFreshPostUsesFirstBatchRisingRule(t *testing.T) {
	now := time.Now()
	posts := &fakePosts{byID: map[string]*po.Post{"p1": freshPost(now)}}
	eng := metrics.New(posts, newFakeStats())

	require.NoError(t, eng.Apply(context.Background(), "p1", "share", 0))

	p := posts.byID["p1"]
	require.False(t, p.IsRising, "share weight 5.0 is below MIN_INITIAL_RISING_WEIGHT=10")
}

func TestApplyThreeEngagementsWithinHourMarksPostRising(t *testing.T) {
	start := time.Now().Add(-30 * time.Minute)
	post := freshPost(start)
	posts := &fakePosts{byID: map[string]*po.Post{"p1": post}}
	eng := metrics.New(posts, newFakeStats())
	eng.SetClock(func() time.Time { return start })

	require.NoError(t, eng.Apply(context.Background(), "p1", "like", 0))
	eng.SetClock(func() time.Time { return start.Add(10 * time.Minute) })
	require.NoError(t, eng.Apply(context.Background(), "p1", "like", 0))
	eng.SetClock(func() time.Time { return start.Add(20 * time.Minute) })
	require.NoError(t, eng.Apply(context.Background(), "p1", "like", 0))

	p := posts.byID["p1"]
	require.Len(t, p.WindowEvents, 3)
	require.Greater(t, p.ShortTermVelocityEMA, p.HistoricalVelocityEMA)
	require.True(t, p.IsRising)
	require.Greater(t, p.TrendingScore, 0.0)
}

func TestApplyPrunesWindowEventsOlderThanRisingWindow(t *testing.T) {
	start := time.Now().Add(-3 * time.Hour)
	post := freshPost(start)
	posts := &fakePosts{byID: map[string]*po.Post{"p1": post}}
	eng := metrics.New(posts, newFakeStats())
	eng.SetClock(func() time.Time { return start })
	require.NoError(t, eng.Apply(context.Background(), "p1", "like", 0))

	eng.SetClock(func() time.Time { return start.Add(2 * time.Hour) })
	require.NoError(t, eng.Apply(context.Background(), "p1", "like", 0))

	p := posts.byID["p1"]
	require.Len(t, p.WindowEvents, 1, "the first event is outside the 1h rising window by the second call")
}
