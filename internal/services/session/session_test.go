package session_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/session"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	blobs   map[string]*po.SessionBlob
	owners  map[string]string
	access  map[string]int64
	corrupt map[string]bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		blobs:   map[string]*po.SessionBlob{},
		owners:  map[string]string{},
		access:  map[string]int64{},
		corrupt: map[string]bool{},
	}
}

func (f *fakeSessions) Get(_ context.Context, sessionID string) (*po.SessionBlob, error) {
	if f.corrupt[sessionID] {
		return nil, sessionstore.ErrCorrupt
	}
	b, ok := f.blobs[sessionID]
	if !ok {
		return nil, sessionstore.ErrNotFound
	}
	return b, nil
}

func (f *fakeSessions) Put(_ context.Context, sessionID string, blob *po.SessionBlob) error {
	f.blobs[sessionID] = blob
	f.owners[sessionID] = blob.UserID
	return nil
}

func (f *fakeSessions) Owner(_ context.Context, sessionID string) (string, error) {
	owner, ok := f.owners[sessionID]
	if !ok {
		return "", sessionstore.ErrNotFound
	}
	return owner, nil
}

func (f *fakeSessions) Delete(_ context.Context, sessionID string) error {
	delete(f.blobs, sessionID)
	delete(f.owners, sessionID)
	delete(f.corrupt, sessionID)
	return nil
}

func (f *fakeSessions) Touch(_ context.Context, sessionID string, nowMs int64) error {
	f.access[sessionID] = nowMs
	return nil
}

func (f *fakeSessions) RemoveAccess(_ context.Context, sessionID string) error {
	delete(f.access, sessionID)
	return nil
}

func (f *fakeSessions) ExpiredBefore(_ context.Context, cutoffMs int64) ([]string, error) {
	var out []string
	for sid, at := range f.access {
		if at <= cutoffMs {
			out = append(out, sid)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	byUser map[string]*po.UserProfile
}

func newFakeProfiles() *fakeProfiles { return &fakeProfiles{byUser: map[string]*po.UserProfile{}} }

func (f *fakeProfiles) Load(_ context.Context, userID string) (*po.UserProfile, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	return po.NewUserProfile(userID), nil
}

func (f *fakeProfiles) Save(_ context.Context, profile *po.UserProfile) error {
	f.byUser[profile.UserID] = profile
	return nil
}

func testLogger() log.Logger { return log.NewStdLogger(io.Discard) }

func TestStartProjectsProfileIntoSessionBlobAndTouchesAccess(t *testing.T) {
	sessions := newFakeSessions()
	profiles := newFakeProfiles()
	profiles.byUser["u1"] = &po.UserProfile{
		UserID:       "u1",
		TopInterests: []*po.CategoryNode{{Name: "sports", Score: 3}},
	}
	svc := session.NewService(sessions, profiles, testLogger())

	sessionID, err := svc.Start(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	blob := sessions.blobs[sessionID]
	require.NotNil(t, blob)
	require.Equal(t, "u1", blob.UserID)
	require.Len(t, blob.TopCategories, 1)
	require.Contains(t, sessions.access, sessionID)
}

func TestRefreshUpdatesLastAccessScore(t *testing.T) {
	sessions := newFakeSessions()
	svc := session.NewService(sessions, newFakeProfiles(), testLogger())
	sessions.access["s1"] = 100

	require.NoError(t, svc.Refresh(context.Background(), "s1"))
	require.Greater(t, sessions.access["s1"], int64(100))
}

func TestExpiryWorkerSweepBlendsCategoryScoreIntoPersistentProfile(t *testing.T) {
	sessions := newFakeSessions()
	profiles := newFakeProfiles()
	profiles.byUser["u1"] = &po.UserProfile{
		UserID: "u1",
		TopInterests: []*po.CategoryNode{
			{Name: "music", Score: 10, LastUpdated: time.Now()},
		},
	}
	svc := session.NewService(sessions, profiles, testLogger())

	sessions.blobs["s1"] = &po.SessionBlob{
		UserID: "u1",
		TopCategories: []*po.CategoryNode{
			{Name: "music", Score: 20},
		},
	}
	sessions.access["s1"] = time.Now().Add(-20 * time.Minute).UnixMilli()

	session.NewExpiryWorker(svc).Sweep(context.Background())

	merged := profiles.byUser["u1"]
	want := scoring.EMABlend(scoring.SessionBlendAlpha, 10, 20)
	require.InDelta(t, want, merged.TopInterests[0].Score, 1e-9)
}

func TestExpiryWorkerSweepPromotesNewCreatorIntoTopPool(t *testing.T) {
	sessions := newFakeSessions()
	profiles := newFakeProfiles()
	svc := session.NewService(sessions, profiles, testLogger())

	sessions.blobs["s2"] = &po.SessionBlob{
		UserID:      "u2",
		TopCreators: []*po.CreatorNode{{CreatorID: "creatorA", Score: 8}},
	}
	sessions.access["s2"] = time.Now().Add(-20 * time.Minute).UnixMilli()

	session.NewExpiryWorker(svc).Sweep(context.Background())

	merged := profiles.byUser["u2"]
	require.Len(t, merged.CreatorsInterests.TopCreators, 1)
	require.Equal(t, "creatorA", merged.CreatorsInterests.TopCreators[0].CreatorID)
}

func TestExpiryWorkerSweepPushesHighSkipCreatorIntoSkippedPool(t *testing.T) {
	sessions := newFakeSessions()
	profiles := newFakeProfiles()
	profiles.byUser["u3"] = &po.UserProfile{
		UserID: "u3",
		CreatorsInterests: po.CreatorsInterests{
			Skipped: []*po.SkippedEntry{{CreatorID: "creatorB", Skips: scoring.HardSkipThreshold}},
		},
	}
	svc := session.NewService(sessions, profiles, testLogger())

	sessions.blobs["s3"] = &po.SessionBlob{
		UserID:          "u3",
		SkippedCreators: []*po.SkippedEntry{{CreatorID: "creatorB", Skips: scoring.HardSkipThreshold}},
	}
	sessions.access["s3"] = time.Now().Add(-20 * time.Minute).UnixMilli()

	session.NewExpiryWorker(svc).Sweep(context.Background())

	merged := profiles.byUser["u3"]
	require.Len(t, merged.CreatorsInterests.Skipped, 1)
	require.Equal(t, "creatorB", merged.CreatorsInterests.Skipped[0].CreatorID)
	require.Empty(t, merged.CreatorsInterests.TopCreators)
}

func TestExpiryWorkerSweepMergesAndEvictsStaleSessions(t *testing.T) {
	sessions := newFakeSessions()
	profiles := newFakeProfiles()
	svc := session.NewService(sessions, profiles, testLogger())

	sessions.blobs["stale"] = &po.SessionBlob{
		UserID:        "u4",
		TopCategories: []*po.CategoryNode{{Name: "news", Score: 5}},
	}
	sessions.access["stale"] = time.Now().Add(-20 * time.Minute).UnixMilli()

	worker := session.NewExpiryWorker(svc)
	worker.Sweep(context.Background())

	require.NotContains(t, sessions.blobs, "stale")
	require.NotContains(t, sessions.access, "stale")
	require.Contains(t, profiles.byUser, "u4")
}

func TestExpiryWorkerSweepSkipsSessionAccessedWithinTTL(t *testing.T) {
	sessions := newFakeSessions()
	profiles := newFakeProfiles()
	svc := session.NewService(sessions, profiles, testLogger())

	sessions.blobs["fresh"] = &po.SessionBlob{UserID: "u5"}
	sessions.access["fresh"] = time.Now().UnixMilli()

	worker := session.NewExpiryWorker(svc)
	worker.Sweep(context.Background())

	require.Contains(t, sessions.blobs, "fresh")
	require.Contains(t, sessions.access, "fresh")
}

func TestExpiryWorkerSweepDropsCorruptBlobWithoutBlockingOtherSessions(t *testing.T) {
	sessions := newFakeSessions()
	profiles := newFakeProfiles()
	svc := session.NewService(sessions, profiles, testLogger())

	sessions.corrupt["bad"] = true
	sessions.access["bad"] = time.Now().Add(-20 * time.Minute).UnixMilli()
	sessions.blobs["ok"] = &po.SessionBlob{UserID: "u6"}
	sessions.access["ok"] = time.Now().Add(-20 * time.Minute).UnixMilli()

	worker := session.NewExpiryWorker(svc)
	worker.Sweep(context.Background())

	require.NotContains(t, sessions.access, "bad")
	require.NotContains(t, sessions.access, "ok")
	require.Contains(t, profiles.byUser, "u6")
}

func TestExpiryWorkerSweepRefusesMergeOnOwnerMismatchWithoutDeleting(t *testing.T) {
	sessions := newFakeSessions()
	profiles := newFakeProfiles()
	svc := session.NewService(sessions, profiles, testLogger())

	sessions.owners["tampered"] = "u7"
	sessions.blobs["tampered"] = &po.SessionBlob{UserID: "someone-else"}
	sessions.access["tampered"] = time.Now().Add(-20 * time.Minute).UnixMilli()

	worker := session.NewExpiryWorker(svc)
	worker.Sweep(context.Background())

	require.Contains(t, sessions.blobs, "tampered")
	require.NotContains(t, sessions.access, "tampered")
	require.NotContains(t, profiles.byUser, "u7")
	require.NotContains(t, profiles.byUser, "someone-else")
}
