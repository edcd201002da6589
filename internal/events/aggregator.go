package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-kratos/kratos/v2/log"
)

// ScoreApplier is the subset of the post metrics engine the aggregator
// drives on flush.
type ScoreApplier interface {
	Apply(ctx context.Context, postID, engagementType string, scoreDelta float64) error
}

// ScoreBufferStore mirrors the in-process buffer to the fast store's
// score_buffer hash (spec §4.8, §6.3).
type ScoreBufferStore interface {
	BufferScoreDelta(ctx context.Context, postID string, delta float64) error
	LoadScoreBuffer(ctx context.Context) (map[string]float64, error)
	DropBufferedScore(ctx context.Context, postID string) error
}

// LastTrendingUpdateStore resolves a post's lastTrendingUpdate
// timestamp, the gate Flush uses to decide a buffered post is due
// (spec §4.8). An error, including one for an unknown post, makes
// Flush skip that post for the current tick.
type LastTrendingUpdateStore interface {
	LastTrendingUpdate(ctx context.Context, postID string) (time.Time, error)
}

type bufferedPost struct {
	delta float64
}

// Aggregator buffers post-score-events in process, mirrors every
// delta to the fast store, and flushes on an hourly cron tick (spec
// §4.8). The in-process map is the only process-local mutable state a
// background worker holds (Design Notes §9); it is rebuilt from the
// fast-store hash on startup via Hydrate.
type Aggregator struct {
	mu      sync.Mutex
	buffer  map[string]*bufferedPost
	store   ScoreBufferStore
	posts   LastTrendingUpdateStore
	applier ScoreApplier
	log     *log.Helper
	now     func() time.Time
}

// NewAggregator constructs an Aggregator.
func NewAggregator(store ScoreBufferStore, posts LastTrendingUpdateStore, applier ScoreApplier, logger log.Logger) *Aggregator {
	return &Aggregator{
		buffer:  map[string]*bufferedPost{},
		store:   store,
		posts:   posts,
		applier: applier,
		log:     log.NewHelper(logger),
		now:     time.Now,
	}
}

// Hydrate loads the fast-store hash into the in-process buffer on
// startup (spec §4.8: "on startup, hydrate the in-process buffer").
func (a *Aggregator) Hydrate(ctx context.Context) error {
	loaded, err := a.store.LoadScoreBuffer(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for postID, delta := range loaded {
		a.buffer[postID] = &bufferedPost{delta: delta}
	}
	return nil
}

// Handle is a watermill message.HandlerFunc subscribed to
// post-score-events; it buffers the delta in-process and mirrors it
// to the fast store.
func (a *Aggregator) Handle(msg *message.Message) ([]*message.Message, error) {
	var evt PostScoreEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		a.log.Errorw("msg", "score event unmarshal failed, dropping", "error", err)
		return nil, nil
	}
	if err := evt.Validate(); err != nil {
		a.log.Errorw("msg", "score event failed validation, dropping", "error", err)
		return nil, nil
	}

	ctx := msg.Context()
	if err := a.store.BufferScoreDelta(ctx, evt.PostID, evt.ScoreDelta); err != nil {
		return nil, err
	}

	a.mu.Lock()
	b, ok := a.buffer[evt.PostID]
	if !ok {
		b = &bufferedPost{}
		a.buffer[evt.PostID] = b
	}
	b.delta += evt.ScoreDelta
	a.mu.Unlock()

	return nil, nil
}

// Flush applies every buffered post whose last trending update was at
// least an hour ago, then drops it from both the in-process map and
// the fast-store mirror (spec §4.8). Per-post failures are logged and
// do not prevent the remaining posts from flushing.
func (a *Aggregator) Flush(ctx context.Context) {
	now := a.now()

	a.mu.Lock()
	postIDs := make([]string, 0, len(a.buffer))
	for postID := range a.buffer {
		postIDs = append(postIDs, postID)
	}
	a.mu.Unlock()

	due := make(map[string]float64, len(postIDs))
	for _, postID := range postIDs {
		lastUpdate, err := a.posts.LastTrendingUpdate(ctx, postID)
		if err != nil {
			a.log.Errorw("msg", "look up last trending update failed, skipping this tick", "post_id", postID, "error", err)
			continue
		}
		if now.Sub(lastUpdate) >= time.Hour {
			a.mu.Lock()
			if b, ok := a.buffer[postID]; ok {
				due[postID] = b.delta
			}
			a.mu.Unlock()
		}
	}

	for postID, delta := range due {
		if err := a.applier.Apply(ctx, postID, "", delta); err != nil {
			a.log.Errorw("msg", "flush post score failed, will retry next tick", "post_id", postID, "error", err)
			continue
		}
		a.mu.Lock()
		delete(a.buffer, postID)
		a.mu.Unlock()
		if err := a.store.DropBufferedScore(ctx, postID); err != nil {
			a.log.Errorw("msg", "drop buffered score from fast store failed", "post_id", postID, "error", err)
		}
	}
}

// FlushAll drains the entire buffer regardless of last-update age; it
// is invoked on graceful shutdown (spec §5: "hourly aggregator
// flushes its buffer").
func (a *Aggregator) FlushAll(ctx context.Context) {
	a.mu.Lock()
	all := make(map[string]float64, len(a.buffer))
	for postID, b := range a.buffer {
		all[postID] = b.delta
	}
	a.mu.Unlock()

	for postID, delta := range all {
		if err := a.applier.Apply(ctx, postID, "", delta); err != nil {
			a.log.Errorw("msg", "shutdown flush failed", "post_id", postID, "error", err)
			continue
		}
		a.mu.Lock()
		delete(a.buffer, postID)
		a.mu.Unlock()
		if err := a.store.DropBufferedScore(ctx, postID); err != nil {
			a.log.Errorw("msg", "drop buffered score from fast store failed", "post_id", postID, "error", err)
		}
	}
}
