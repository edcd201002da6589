package controllers

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// positiveEngagementRequest is the body of POST /engagement/positive
// (spec §6.1): each flag is a 0/1 integer, decoded as an int; any
// non-zero value counts as set.
type positiveEngagementRequest struct {
	Engagement struct {
		PostID    string `json:"postId"`
		Viewed    int    `json:"viewed"`
		Completed int    `json:"completed"`
		Liked     int    `json:"liked"`
		Commented int    `json:"commented"`
		Shared    int    `json:"shared"`
		Followed  int    `json:"followed"`
	} `json:"engagement"`
}

// negativeEngagementRequest is the body of POST /engagement/negative.
type negativeEngagementRequest struct {
	Skip struct {
		PostID string `json:"postId"`
	} `json:"skip"`
}

// engagementScore sums the weighted contribution of every set flag
// (spec §4.5's engagement weight table).
func (req positiveEngagementRequest) engagementScore() float64 {
	var total float64
	e := req.Engagement
	if e.Viewed != 0 {
		total += scoring.EngagementWeights["view"]
	}
	if e.Liked != 0 {
		total += scoring.EngagementWeights["like"]
	}
	if e.Commented != 0 {
		total += scoring.EngagementWeights["comment"]
	}
	if e.Shared != 0 {
		total += scoring.EngagementWeights["share"]
	}
	if e.Completed != 0 {
		total += scoring.EngagementWeights["completion"]
	}
	return total
}

// PostPositive handles POST /engagement/positive.
func (h *Handler) PostPositive(ctx khttp.Context) error {
	userID, accessor, err := h.gateway.resolve(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	var req positiveEngagementRequest
	if err := ctx.Bind(&req); err != nil {
		return writeError(ctx, errValidation("malformed body"))
	}
	if req.Engagement.PostID == "" {
		return writeError(ctx, errValidation("postId is required"))
	}

	rctx := ctx.Request().Context()
	post, err := h.posts.Get(rctx, req.Engagement.PostID)
	if err != nil {
		return writeError(ctx, errPostNotFound(req.Engagement.PostID))
	}

	score := req.engagementScore()

	if err := h.interests.Score(rctx, userID, accessor, post.Category, post.SubCategory, specificOf(post), score); err != nil {
		return writeError(ctx, err)
	}
	if err := h.creators.Score(rctx, accessor, post.Creator, score); err != nil {
		return writeError(ctx, err)
	}
	if req.Engagement.Followed != 0 {
		if err := h.toggleFollow(rctx, accessor, post.Creator, true); err != nil {
			return writeError(ctx, err)
		}
	}
	if err := h.metrics.Apply(rctx, post.ID, "", score); err != nil {
		return writeError(ctx, err)
	}

	if err := h.producer.PublishEngagement(rctx, events.EngagementEvent{
		PostID: post.ID, UserID: userID, Category: post.Category,
		SubCategory: post.SubCategory, CreatorID: post.Creator, EngagementScore: score,
	}); err != nil {
		return writeError(ctx, err)
	}
	if err := h.producer.PublishScoreDelta(rctx, events.PostScoreEvent{
		PostID: post.ID, UserID: userID, EngagementType: "positive",
		ScoreDelta: score, Timestamp: time.Now(),
	}); err != nil {
		return writeError(ctx, err)
	}

	return ctx.Result(200, okEnvelope())
}

// PostNegative handles POST /engagement/negative.
func (h *Handler) PostNegative(ctx khttp.Context) error {
	userID, accessor, err := h.gateway.resolve(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	var req negativeEngagementRequest
	if err := ctx.Bind(&req); err != nil {
		return writeError(ctx, errValidation("malformed body"))
	}
	if req.Skip.PostID == "" {
		return writeError(ctx, errValidation("postId is required"))
	}

	rctx := ctx.Request().Context()
	post, err := h.posts.Get(rctx, req.Skip.PostID)
	if err != nil {
		return writeError(ctx, errPostNotFound(req.Skip.PostID))
	}

	if err := h.interests.Skip(rctx, accessor, post.Category, post.SubCategory, specificOf(post)); err != nil {
		return writeError(ctx, err)
	}
	if err := h.creators.Skip(rctx, accessor, post.Creator); err != nil {
		return writeError(ctx, err)
	}

	if err := h.producer.PublishEngagement(rctx, events.EngagementEvent{
		PostID: post.ID, UserID: userID, Category: post.Category,
		SubCategory: post.SubCategory, CreatorID: post.Creator, EngagementScore: scoring.SkipWeight,
	}); err != nil {
		return writeError(ctx, err)
	}

	return ctx.Result(200, okEnvelope())
}

func specificOf(post *po.Post) string {
	if post.Specific == nil {
		return ""
	}
	return *post.Specific
}

// toggleFollow upserts creatorID into the accessor's following list
// with score=0 and timestamps=now, or removes it (spec §6.1 "upsert on
// follow, remove on unfollow").
func (h *Handler) toggleFollow(ctx context.Context, accessor profileaccessor.Accessor, creatorID string, follow bool) error {
	view, err := accessor.Load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i, f := range view.Following {
		if f.UserID == creatorID {
			idx = i
			break
		}
	}

	if follow {
		if idx < 0 {
			now := time.Now()
			view.Following = append(view.Following, &po.FollowedCreator{
				UserID: creatorID, Score: 0, LastUpdated: now,
			})
		}
	} else if idx >= 0 {
		view.Following = append(view.Following[:idx], view.Following[idx+1:]...)
	}

	return accessor.Save(ctx, view)
}
