package interest_test

import (
	"context"
	"testing"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/interest"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
	"github.com/stretchr/testify/require"
)

// fakeStats is an in-memory StatsStore keyed by entityType|name and
// userId|entityType|name.
type fakeStats struct {
	global map[string]po.GlobalStats
	user   map[string]po.UserInterestStats
}

func newFakeStats() *fakeStats {
	return &fakeStats{global: map[string]po.GlobalStats{}, user: map[string]po.UserInterestStats{}}
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

func (f *fakeStats) IncrementUserInterest(_ context.Context, userID, entityType, name string, impressionDelta int64, engagementDelta float64) (po.UserInterestStats, error) {
	key := userID + "|" + entityType + "|" + name
	u := f.user[key]
	u.UserID, u.EntityType, u.Name = userID, entityType, name
	u.ImpressionCount += impressionDelta
	u.TotalEngagement += engagementDelta
	f.user[key] = u
	return u, nil
}

// fakeAccessor is an in-memory profileaccessor.Accessor backed by a
// single View held in the test.
type fakeAccessor struct {
	view *profileaccessor.View
	mode scoring.Mode
}

func newFakeAccessor(mode scoring.Mode) *fakeAccessor {
	return &fakeAccessor{view: &profileaccessor.View{}, mode: mode}
}

func (a *fakeAccessor) Load(context.Context) (*profileaccessor.View, error) { return a.view, nil }
func (a *fakeAccessor) Save(_ context.Context, v *profileaccessor.View) error {
	a.view = v
	return nil
}
func (a *fakeAccessor) Mode() scoring.Mode { return a.mode }

func TestScorePlacesCategoryIntoTopPool(t *testing.T) {
	svc := interest.New(newFakeStats())
	acc := newFakeAccessor(scoring.ModeDB)

	err := svc.Score(context.Background(), "u1", acc, "sports", "", "", 3.0)
	require.NoError(t, err)
	require.Len(t, acc.view.TopInterests, 1)
	require.Equal(t, "sports", acc.view.TopInterests[0].Name)
	require.Greater(t, acc.view.TopInterests[0].Score, 0.0)
}

func TestScoreDescendsIntoSubAndSpecificLevels(t *testing.T) {
	svc := interest.New(newFakeStats())
	acc := newFakeAccessor(scoring.ModeSession)

	err := svc.Score(context.Background(), "u1", acc, "sports", "basketball", "nba-finals", 2.0)
	require.NoError(t, err)

	cat := acc.view.TopInterests[0]
	require.Len(t, cat.TopSubs, 1)
	require.Equal(t, "basketball", cat.TopSubs[0].Name)
	require.Len(t, cat.TopSubs[0].Specific, 1)
	require.Equal(t, "nba-finals", cat.TopSubs[0].Specific[0].Name)
}

func TestScoreIsIdempotentAcrossRepeatedCalls(t *testing.T) {
	stats := newFakeStats()
	svc := interest.New(stats)
	acc := newFakeAccessor(scoring.ModeDB)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Score(context.Background(), "u1", acc, "music", "", "", 1.0))
	}
	require.Len(t, acc.view.TopInterests, 1)
}

func TestSkipOnAbsentCategoryIsNoop(t *testing.T) {
	svc := interest.New(newFakeStats())
	acc := newFakeAccessor(scoring.ModeDB)

	err := svc.Skip(context.Background(), acc, "never-scored", "", "")
	require.NoError(t, err)
	require.Empty(t, acc.view.TopInterests)
	require.Empty(t, acc.view.RisingInterests)
}

func TestSkipDrivesScoreNegativeAndEvictsFromPool(t *testing.T) {
	svc := interest.New(newFakeStats())
	acc := newFakeAccessor(scoring.ModeSession)
	require.NoError(t, svc.Score(context.Background(), "u1", acc, "news", "", "", 0.5))
	require.Len(t, acc.view.TopInterests, 1)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Skip(context.Background(), acc, "news", "", ""))
	}
	require.Empty(t, acc.view.TopInterests)
	require.Empty(t, acc.view.RisingInterests)
}

func TestSkipEmptyCategoryIsNoop(t *testing.T) {
	svc := interest.New(newFakeStats())
	acc := newFakeAccessor(scoring.ModeDB)
	require.NoError(t, svc.Skip(context.Background(), acc, "", "", ""))
}
