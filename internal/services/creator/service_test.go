package creator_test

import (
	"context"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/creator"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
	"github.com/stretchr/testify/require"
)

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

func TestScoreAbsentCreatorEntersTopPool(t *testing.T) {
	svc := creator.New()
	acc := newFakeAccessor(scoring.ModeDB)

	require.NoError(t, svc.Score(context.Background(), acc, "c1", 2.0))
	require.Len(t, acc.view.CreatorsInterests.TopCreators, 1)
	require.Equal(t, "c1", acc.view.CreatorsInterests.TopCreators[0].CreatorID)
	require.Equal(t, 0, acc.view.CreatorsInterests.TopCreators[0].Skips)
}

func TestTenConsecutiveSkipsBanishesCreatorToSkippedPool(t *testing.T) {
	svc := creator.New()
	acc := newFakeAccessor(scoring.ModeSession)
	require.NoError(t, svc.Score(context.Background(), acc, "c1", 1.0))

	for i := 0; i < scoring.HardSkipThreshold; i++ {
		require.NoError(t, svc.Skip(context.Background(), acc, "c1"))
	}

	ci := acc.view.CreatorsInterests
	require.Empty(t, ci.TopCreators)
	require.Empty(t, ci.RisingCreators)
	require.Empty(t, ci.Watched)
	require.Len(t, ci.Skipped, 1)
	require.Equal(t, scoring.HardSkipThreshold, ci.Skipped[0].Skips)
	require.WithinDuration(t, time.Now().Add(scoring.ReentryDelay), ci.Skipped[0].ReentryAt, time.Minute)
}

func TestFollowedCreatorStaysFollowedThroughTenSkips(t *testing.T) {
	svc := creator.New()
	acc := newFakeAccessor(scoring.ModeDB)
	acc.view.Following = []*po.FollowedCreator{{UserID: "c1"}}

	for i := 0; i < scoring.HardSkipThreshold; i++ {
		require.NoError(t, svc.Skip(context.Background(), acc, "c1"))
	}

	require.Len(t, acc.view.Following, 1)
	f := acc.view.Following[0]
	require.Equal(t, scoring.HardSkipThreshold, f.Skips)
	require.Equal(t, 0.0, f.Score)
	require.NotNil(t, f.ReentryAt)
}

func TestSkipOnAbsentCreatorIsNoop(t *testing.T) {
	svc := creator.New()
	acc := newFakeAccessor(scoring.ModeDB)
	require.NoError(t, svc.Skip(context.Background(), acc, "ghost"))
	ci := acc.view.CreatorsInterests
	require.Empty(t, ci.TopCreators)
	require.Empty(t, ci.Skipped)
	require.Empty(t, ci.Watched)
}

func TestWatchedCreatorGraduatesBackToPositiveOnScore(t *testing.T) {
	svc := creator.New()
	acc := newFakeAccessor(scoring.ModeDB)
	acc.view.CreatorsInterests.Watched = []*po.WatchedEntry{{CreatorID: "c1", Skips: 1, ReentryAt: time.Now()}}

	require.NoError(t, svc.Score(context.Background(), acc, "c1", 1.0))

	ci := acc.view.CreatorsInterests
	require.Empty(t, ci.Watched)
	require.Len(t, ci.TopCreators, 1)
	require.Equal(t, "c1", ci.TopCreators[0].CreatorID)
}
