package feed

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/models/vo"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
)

// scoreCandidate implements step 5's composite score (spec §4.7 step
// 5). categoryScore/creatorScore fall back to 0.1·avg when the user
// has no node for that category/creator yet.
func (a *Assembler) scoreCandidate(ctx context.Context, c candidate, view *profileaccessor.View, now time.Time) (vo.FeedPost, error) {
	p := c.post

	interestScore, err := a.interestScore(ctx, view, p.Category)
	if err != nil {
		return vo.FeedPost{}, err
	}
	creatorScore, err := a.creatorScore(ctx, view, p.Creator)
	if err != nil {
		return vo.FeedPost{}, err
	}

	timeDecay := scoring.TimeDecay(p.CreatedAt, now)
	overall := scoring.PersonalWeight*timeDecay*(scoring.InterestWeight*interestScore+scoring.CreatorWeight*creatorScore) +
		scoring.RawWeight*p.RawScore +
		scoring.TrendWeight*p.TrendingScore +
		scoring.BayesianWeight*p.BayesianScore

	return vo.FeedPost{
		PostID:        p.ID,
		Creator:       p.Creator,
		Category:      p.Category,
		Bucket:        string(c.bucket),
		OverallScore:  overall,
		InterestScore: interestScore,
		CreatorScore:  creatorScore,
		RawScore:      p.RawScore,
		TrendingScore: p.TrendingScore,
		BayesianScore: p.BayesianScore,
		CreatedAt:     p.CreatedAt,
	}, nil
}

func (a *Assembler) interestScore(ctx context.Context, view *profileaccessor.View, category string) (float64, error) {
	for _, n := range append(append([]*po.CategoryNode{}, view.TopInterests...), view.RisingInterests...) {
		if n.Name == category && n.Score != 0 {
			return n.Score, nil
		}
	}
	global, err := a.stats.GetGlobal(ctx, po.EntityTypeCategory, category)
	if err != nil {
		return 0, err
	}
	return 0.1 * global.Avg(), nil
}

func (a *Assembler) creatorScore(ctx context.Context, view *profileaccessor.View, creatorID string) (float64, error) {
	for _, n := range append(append([]*po.CreatorNode{}, view.CreatorsInterests.TopCreators...), view.CreatorsInterests.RisingCreators...) {
		if n.CreatorID == creatorID && n.Score != 0 {
			return n.Score, nil
		}
	}
	for _, f := range view.Following {
		if f.UserID == creatorID && f.Score != 0 {
			return f.Score, nil
		}
	}
	stats, err := a.stats.GetCreator(ctx, creatorID)
	if err != nil {
		return 0, err
	}
	return 0.1 * stats.Avg(), nil
}
