package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAccessor is an in-memory profileaccessor.Accessor for unit tests.
type fakeAccessor struct {
	view *profileaccessor.View
}

func (a *fakeAccessor) Load(context.Context) (*profileaccessor.View, error) { return a.view, nil }
func (a *fakeAccessor) Save(_ context.Context, v *profileaccessor.View) error {
	a.view = v
	return nil
}
func (a *fakeAccessor) Mode() scoring.Mode { return scoring.ModeSession }

func TestEngagementScoreSumsWeightedFlags(t *testing.T) {
	req := positiveEngagementRequest{}
	req.Engagement.Viewed = 1
	req.Engagement.Liked = 1

	assert.InDelta(t, 1.5, req.engagementScore(), 1e-9)
}

func TestEngagementScoreAllFlags(t *testing.T) {
	req := positiveEngagementRequest{}
	req.Engagement.Viewed = 1
	req.Engagement.Liked = 1
	req.Engagement.Commented = 1
	req.Engagement.Shared = 1
	req.Engagement.Completed = 1

	expected := scoring.EngagementWeights["view"] + scoring.EngagementWeights["like"] +
		scoring.EngagementWeights["comment"] + scoring.EngagementWeights["share"] +
		scoring.EngagementWeights["completion"]
	assert.InDelta(t, expected, req.engagementScore(), 1e-9)
}

func TestSpecificOfHandlesNilPointer(t *testing.T) {
	post := &po.Post{}
	assert.Equal(t, "", specificOf(post))

	s := "sourdough"
	post.Specific = &s
	assert.Equal(t, "sourdough", specificOf(post))
}

func TestToggleFollowUpsertsOnFollow(t *testing.T) {
	h := &Handler{}
	accessor := &fakeAccessor{view: &profileaccessor.View{}}

	require.NoError(t, h.toggleFollow(context.Background(), accessor, "creator-1", true))
	require.Len(t, accessor.view.Following, 1)
	assert.Equal(t, "creator-1", accessor.view.Following[0].UserID)
	assert.Equal(t, float64(0), accessor.view.Following[0].Score)
	assert.False(t, accessor.view.Following[0].LastUpdated.IsZero())

	// Following again is idempotent, not a duplicate insert.
	require.NoError(t, h.toggleFollow(context.Background(), accessor, "creator-1", true))
	assert.Len(t, accessor.view.Following, 1)
}

func TestToggleFollowRemovesOnUnfollow(t *testing.T) {
	h := &Handler{}
	accessor := &fakeAccessor{view: &profileaccessor.View{
		Following: []*po.FollowedCreator{
			{UserID: "creator-1", LastUpdated: time.Now()},
			{UserID: "creator-2", LastUpdated: time.Now()},
		},
	}}

	require.NoError(t, h.toggleFollow(context.Background(), accessor, "creator-1", false))
	require.Len(t, accessor.view.Following, 1)
	assert.Equal(t, "creator-2", accessor.view.Following[0].UserID)
}

func TestToggleFollowUnfollowOfAbsentCreatorIsNoop(t *testing.T) {
	h := &Handler{}
	accessor := &fakeAccessor{view: &profileaccessor.View{}}

	require.NoError(t, h.toggleFollow(context.Background(), accessor, "creator-1", false))
	assert.Empty(t, accessor.view.Following)
}
