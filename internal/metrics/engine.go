// Package metrics implements the post metrics engine (C7): the
// windowed EMA velocity update, trending score, isRising/isEvergreen
// flags, and the Bayesian popularity score applied to a single post on
// every engagement or aggregator flush (spec §4.5).
package metrics

import (
	"context"
	"math"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
)

const maxWindowEvents = 200

// PostStore is the subset of the post repository the engine needs.
type PostStore interface {
	Get(ctx context.Context, postID string) (*po.Post, error)
	Save(ctx context.Context, p *po.Post) error
}

// StatsStore is the subset of the stats repository the engine needs
// to read category/creator averages. Global/creator stats are
// incremented elsewhere (the engagement-stats consumer, spec §4.8);
// the engine only reads the current row, initializing it with a
// zero-delta upsert if it doesn't exist yet.
type StatsStore interface {
	IncrementGlobal(ctx context.Context, entityType, name string, impressionDelta int64, engagementDelta float64) (po.GlobalStats, error)
	IncrementCreator(ctx context.Context, creatorID string, impressionDelta int64, engagementDelta float64) (po.CreatorStats, error)
}

// Engine applies engagement updates to a post's popularity metrics.
type Engine struct {
	posts PostStore
	stats StatsStore
	now   func() time.Time
}

// New constructs an Engine.
func New(posts PostStore, stats StatsStore) *Engine {
	return &Engine{posts: posts, stats: stats, now: time.Now}
}

// SetClock overrides the engine's clock; used by tests to control
// elapsed-time-dependent EMA math deterministically.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Apply loads postID, applies weight (resolved from engagementType via
// scoring.EngagementWeights, or used directly if engagementType is
// empty), and persists the updated metrics (spec §4.5 steps 1-7).
func (e *Engine) Apply(ctx context.Context, postID, engagementType string, scoreDelta float64) error {
	post, err := e.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	weight := scoreDelta
	if engagementType != "" {
		weight = scoring.EngagementWeights[engagementType]
	}
	now := e.now()

	post.WindowEvents = pruneWindow(post.WindowEvents, now)
	post.WindowEvents = append(post.WindowEvents, po.EngagementWindowEvent{Timestamp: now, Weight: weight})
	if len(post.WindowEvents) > maxWindowEvents {
		post.WindowEvents = post.WindowEvents[len(post.WindowEvents)-maxWindowEvents:]
	}

	firstBatch := post.LastTrendingUpdate.Equal(post.CreatedAt) || post.LastTrendingUpdate.IsZero()
	prevUpdate := post.LastTrendingUpdate
	if prevUpdate.IsZero() {
		prevUpdate = post.CreatedAt
	}
	delta := now.Sub(prevUpdate)
	if delta < 0 {
		delta = 0
	}

	lambdaS := math.Ln2 / float64(scoring.ShortHalfLife)
	lambdaL := math.Ln2 / float64(scoring.LongHalfLife)
	alphaS := 1 - math.Exp(-lambdaS*float64(delta))
	alphaL := 1 - math.Exp(-lambdaL*float64(delta))

	post.ShortTermVelocityEMA = post.ShortTermVelocityEMA*(1-alphaS) + weight*alphaS
	post.HistoricalVelocityEMA = post.HistoricalVelocityEMA*(1-alphaL) + weight*alphaL

	const epsilon = 1e-9
	r := post.ShortTermVelocityEMA / (post.HistoricalVelocityEMA + epsilon)
	ratioScore := scoring.TrendingWeight * math.Pow(r, scoring.TrendingExponent)
	normAct := math.Min(1, post.ShortTermVelocityEMA/scoring.TrendingActivityNormalizer)
	burstScore := scoring.TrendingWeight * scoring.TrendingBurstFactor * normAct
	post.TrendingScore = ratioScore + burstScore

	if firstBatch {
		post.IsRising = weight >= scoring.MinInitialRisingWeight
	} else {
		post.IsRising = r >= scoring.RisingRateMultiplier
	}

	if err := e.applyBayesian(ctx, post, now); err != nil {
		return err
	}

	post.LastTrendingUpdate = now
	post.LastScoreUpdate = now
	return e.posts.Save(ctx, post)
}

// applyBayesian implements step 6 of spec §4.5.
func (e *Engine) applyBayesian(ctx context.Context, post *po.Post, now time.Time) error {
	global, err := e.stats.IncrementGlobal(ctx, po.EntityTypeCategory, post.Category, 0, 0)
	if err != nil {
		return err
	}
	creatorStats, err := e.stats.IncrementCreator(ctx, post.Creator, 0, 0)
	if err != nil {
		return err
	}

	catAvg := global.Avg()
	creatorAvg := creatorStats.Avg()
	if creatorStats.ImpressionCount <= 0 {
		creatorAvg = catAvg
	}
	priorMean := scoring.PriorCreatorWeight*creatorAvg + (1-scoring.PriorCreatorWeight)*catAvg

	initPrior := scoring.ChoosePriorCount(post.ImpressionCount)
	ageMs := float64(now.Sub(post.CreatedAt).Milliseconds())
	priorDecayLambda := math.Ln2 / float64(scoring.PriorHalfLife.Milliseconds())
	decayedPrior := math.Max(scoring.PriorMinDecayed, float64(initPrior)*math.Exp(-priorDecayLambda*ageMs))

	smoothedAvg := (priorMean*decayedPrior + post.EngagementSum) / (decayedPrior + float64(post.ImpressionCount))

	ageDays := now.Sub(post.CreatedAt).Hours() / 24
	timeDecay := math.Exp(-math.Ln2 / scoring.HalfLifeDays * ageDays)

	post.BayesianScore = smoothedAvg * timeDecay
	return nil
}

// pruneWindow drops events older than scoring.RisingWindow.
func pruneWindow(events []po.EngagementWindowEvent, now time.Time) []po.EngagementWindowEvent {
	cutoff := now.Add(-scoring.RisingWindow)
	out := events[:0:0]
	for _, ev := range events {
		if ev.Timestamp.After(cutoff) || ev.Timestamp.Equal(cutoff) {
			out = append(out, ev)
		}
	}
	return out
}
