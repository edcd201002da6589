package jobs

import (
	"context"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/go-kratos/kratos/v2/log"
)

// PostStore is the subset of the post repository the evergreen
// recompute job needs.
type PostStore interface {
	ListEligibleForEvergreen(ctx context.Context, minRaw float64) ([]*po.Post, error)
	UpdateEvergreenFlags(ctx context.Context, postID string, isEvergreen, isRising bool) error
}

// EvergreenJob recomputes the isEvergreen flag for every post whose
// rawScore clears scoring.MinRawForEvergreen, every two hours (spec
// §4.9). A post is evergreen when its short-term velocity has fallen
// to a negligible fraction of its long-term velocity; newly-evergreen
// posts are forced out of the rising pool.
type EvergreenJob struct {
	posts PostStore
	log   *log.Helper
}

// NewEvergreenJob constructs an EvergreenJob.
func NewEvergreenJob(posts PostStore, logger log.Logger) *EvergreenJob {
	return &EvergreenJob{posts: posts, log: log.NewHelper(logger)}
}

// Run recomputes and persists the evergreen/rising flags for every
// eligible post. Per-post failures are logged and the sweep continues.
func (j *EvergreenJob) Run(ctx context.Context) {
	posts, err := j.posts.ListEligibleForEvergreen(ctx, scoring.MinRawForEvergreen)
	if err != nil {
		j.log.WithContext(ctx).Errorw("msg", "evergreen sweep: list candidates failed", "error", err)
		return
	}

	for _, post := range posts {
		const epsilon = 1e-9
		ratio := post.ShortTermVelocityEMA / (post.HistoricalVelocityEMA + epsilon)
		isEvergreen := ratio < scoring.EvergreenVelocityRatio
		isRising := post.IsRising
		if isEvergreen {
			isRising = false
		}
		if isEvergreen == post.IsEvergreen && isRising == post.IsRising {
			continue
		}
		if err := j.posts.UpdateEvergreenFlags(ctx, post.ID, isEvergreen, isRising); err != nil {
			j.log.WithContext(ctx).Errorw("msg", "evergreen sweep: post failed, skipping", "post_id", post.ID, "error", err)
		}
	}
}
