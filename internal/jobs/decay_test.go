package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileStore struct {
	profiles map[string]*po.UserProfile
}

func (f *fakeProfileStore) ListUserIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.profiles))
	for id := range f.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeProfileStore) Load(ctx context.Context, userID string) (*po.UserProfile, error) {
	return f.profiles[userID], nil
}

func (f *fakeProfileStore) Save(ctx context.Context, profile *po.UserProfile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

func TestDecayJobAppliesFactorToRisingTiersOnly(t *testing.T) {
	profile := po.NewUserProfile("u1")
	profile.TopInterests = []*po.CategoryNode{
		{Name: "Tech", Score: 10, RisingSubs: []*po.SubNode{{Name: "AI", Score: 8}}},
	}
	profile.RisingInterests = []*po.CategoryNode{
		{Name: "Sports", Score: 4, RisingSubs: []*po.SubNode{{Name: "Tennis", Score: 2}}},
	}
	profile.CreatorsInterests.RisingCreators = []*po.CreatorNode{{CreatorID: "c1", Score: 5}}
	profile.CreatorsInterests.TopCreators = []*po.CreatorNode{{CreatorID: "c2", Score: 5}}

	store := &fakeProfileStore{profiles: map[string]*po.UserProfile{"u1": profile}}
	job := NewDecayJob(store, log.DefaultLogger)
	job.now = func() time.Time { return time.Unix(1000, 0) }

	job.Run(context.Background())

	saved := store.profiles["u1"]
	require.Len(t, saved.RisingInterests, 1)
	assert.InDelta(t, 3.6, saved.RisingInterests[0].Score, 1e-9)
	assert.InDelta(t, 1.8, saved.RisingInterests[0].RisingSubs[0].Score, 1e-9)
	assert.InDelta(t, 7.2, saved.TopInterests[0].RisingSubs[0].Score, 1e-9)
	assert.InDelta(t, 4.5, saved.CreatorsInterests.RisingCreators[0].Score, 1e-9)

	// Untouched tiers keep their score.
	assert.Equal(t, 10.0, saved.TopInterests[0].Score)
	assert.Equal(t, 5.0, saved.CreatorsInterests.TopCreators[0].Score)
	assert.True(t, saved.RisingInterests[0].LastUpdated.Equal(job.now()))
}

func TestDecayJobSkipsUsersWithNoRisingNodes(t *testing.T) {
	profile := po.NewUserProfile("u2")
	store := &fakeProfileStore{profiles: map[string]*po.UserProfile{"u2": profile}}
	job := NewDecayJob(store, log.DefaultLogger)

	job.Run(context.Background())
	assert.Same(t, profile, store.profiles["u2"])
}
