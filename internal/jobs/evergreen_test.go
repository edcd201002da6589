package jobs

import (
	"context"
	"testing"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostStore struct {
	candidates []*po.Post
	updates    map[string][2]bool
}

func (f *fakePostStore) ListEligibleForEvergreen(ctx context.Context, minRaw float64) ([]*po.Post, error) {
	return f.candidates, nil
}

func (f *fakePostStore) UpdateEvergreenFlags(ctx context.Context, postID string, isEvergreen, isRising bool) error {
	if f.updates == nil {
		f.updates = map[string][2]bool{}
	}
	f.updates[postID] = [2]bool{isEvergreen, isRising}
	return nil
}

func TestEvergreenJobFlagsLowVelocityPostsAndClearsRising(t *testing.T) {
	store := &fakePostStore{candidates: []*po.Post{
		{ID: "p1", ShortTermVelocityEMA: 0.001, HistoricalVelocityEMA: 1.0, IsRising: true},
		{ID: "p2", ShortTermVelocityEMA: 0.5, HistoricalVelocityEMA: 1.0, IsRising: true},
	}}
	job := NewEvergreenJob(store, log.DefaultLogger)

	job.Run(context.Background())

	require.Contains(t, store.updates, "p1")
	assert.Equal(t, [2]bool{true, false}, store.updates["p1"])

	// p2's ratio (0.5) is well above the threshold; not evergreen, and
	// its rising flag is left untouched so no update is issued.
	assert.NotContains(t, store.updates, "p2")
}

func TestEvergreenJobSkipsPostsAlreadyAtTargetFlags(t *testing.T) {
	store := &fakePostStore{candidates: []*po.Post{
		{ID: "p3", ShortTermVelocityEMA: 0.001, HistoricalVelocityEMA: 1.0, IsEvergreen: true, IsRising: false},
	}}
	job := NewEvergreenJob(store, log.DefaultLogger)

	job.Run(context.Background())
	assert.Empty(t, store.updates)
}
