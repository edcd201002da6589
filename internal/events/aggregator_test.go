package events_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

type fakeBufferStore struct {
	hash map[string]float64
}

func newFakeBufferStore() *fakeBufferStore { return &fakeBufferStore{hash: map[string]float64{}} }

func (f *fakeBufferStore) BufferScoreDelta(_ context.Context, postID string, delta float64) error {
	f.hash[postID] += delta
	return nil
}
func (f *fakeBufferStore) LoadScoreBuffer(context.Context) (map[string]float64, error) {
	out := make(map[string]float64, len(f.hash))
	for k, v := range f.hash {
		out[k] = v
	}
	return out, nil
}
func (f *fakeBufferStore) DropBufferedScore(_ context.Context, postID string) error {
	delete(f.hash, postID)
	return nil
}

type fakeLastUpdate struct {
	at map[string]time.Time
}

func (f *fakeLastUpdate) LastTrendingUpdate(_ context.Context, postID string) (time.Time, error) {
	return f.at[postID], nil
}

type fakeApplier struct {
	applied map[string]float64
}

func (f *fakeApplier) Apply(_ context.Context, postID, _ string, scoreDelta float64) error {
	if f.applied == nil {
		f.applied = map[string]float64{}
	}
	f.applied[postID] += scoreDelta
	return nil
}

func TestAggregatorHandleBuffersDeltaInProcessAndFastStore(t *testing.T) {
	store := newFakeBufferStore()
	agg := events.NewAggregator(store, &fakeLastUpdate{at: map[string]time.Time{}}, &fakeApplier{}, log.NewStdLogger(io.Discard))

	evt := events.PostScoreEvent{PostID: "p1", ScoreDelta: 2.5, Timestamp: time.Now()}
	payload, _ := json.Marshal(evt)
	_, err := agg.Handle(message.NewMessage("1", payload))
	require.NoError(t, err)

	require.Equal(t, 2.5, store.hash["p1"])
}

func TestAggregatorFlushSkipsPostsUpdatedWithinTheLastHour(t *testing.T) {
	store := newFakeBufferStore()
	lastUpdate := &fakeLastUpdate{at: map[string]time.Time{"p1": time.Now(), "p2": time.Now().Add(-2 * time.Hour)}}
	applier := &fakeApplier{}
	agg := events.NewAggregator(store, lastUpdate, applier, log.NewStdLogger(io.Discard))

	for _, evt := range []events.PostScoreEvent{
		{PostID: "p1", ScoreDelta: 1, Timestamp: time.Now()},
		{PostID: "p2", ScoreDelta: 3, Timestamp: time.Now()},
	} {
		payload, _ := json.Marshal(evt)
		_, err := agg.Handle(message.NewMessage(evt.PostID, payload))
		require.NoError(t, err)
	}

	agg.Flush(context.Background())

	require.Equal(t, 3.0, applier.applied["p2"])
	require.Zero(t, applier.applied["p1"])
	require.NotContains(t, store.hash, "p2")
	require.Contains(t, store.hash, "p1")
}

func TestAggregatorHydrateRebuildsBufferFromFastStore(t *testing.T) {
	store := newFakeBufferStore()
	store.hash["p9"] = 4.0
	agg := events.NewAggregator(store, &fakeLastUpdate{at: map[string]time.Time{"p9": time.Now().Add(-2 * time.Hour)}}, &fakeApplier{applied: map[string]float64{}}, log.NewStdLogger(io.Discard))

	require.NoError(t, agg.Hydrate(context.Background()))

	applier := &fakeApplier{applied: map[string]float64{}}
	agg2 := events.NewAggregator(store, &fakeLastUpdate{at: map[string]time.Time{"p9": time.Now().Add(-2 * time.Hour)}}, applier, log.NewStdLogger(io.Discard))
	require.NoError(t, agg2.Hydrate(context.Background()))
	agg2.Flush(context.Background())
	require.Equal(t, 4.0, applier.applied["p9"])
}
