package profileaccessor

import (
	"context"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
)

// sessionStore is the subset of session.Repository the accessor needs;
// narrowed to an interface so services can be tested against a fake.
type sessionStore interface {
	Get(ctx context.Context, sessionID string) (*po.SessionBlob, error)
	Put(ctx context.Context, sessionID string, blob *po.SessionBlob) error
	Touch(ctx context.Context, sessionID string, nowMs int64) error
}

// SessionAccessor backs Accessor with the fast-store session blob,
// refreshing the last-access sorted set on every save (spec §4.3,
// §4.4: "the session variant writes the mutated pools back to the
// session blob and refreshes the last-access sorted-set").
type SessionAccessor struct {
	sessionID string
	store     sessionStore
	now       func() time.Time
	userID    string
}

// NewSessionAccessor constructs a SessionAccessor for sessionID.
func NewSessionAccessor(sessionID string, store *session.Repository) *SessionAccessor {
	return &SessionAccessor{sessionID: sessionID, store: store, now: time.Now}
}

// Mode reports ModeSession.
func (a *SessionAccessor) Mode() scoring.Mode { return scoring.ModeSession }

func (a *SessionAccessor) Load(ctx context.Context) (*View, error) {
	blob, err := a.store.Get(ctx, a.sessionID)
	if err != nil {
		return nil, err
	}
	a.userID = blob.UserID
	return &View{
		TopInterests:    blob.TopCategories,
		RisingInterests: blob.RisingCategories,
		CreatorsInterests: po.CreatorsInterests{
			TopCreators:    blob.TopCreators,
			RisingCreators: blob.RisingCreators,
			Watched:        blob.WatchedCreators,
			Skipped:        blob.SkippedCreators,
		},
		Following: blob.FollowedCreators,
	}, nil
}

func (a *SessionAccessor) Save(ctx context.Context, view *View) error {
	blob := &po.SessionBlob{
		UserID:           a.userID,
		TopCategories:    view.TopInterests,
		RisingCategories: view.RisingInterests,
		TopCreators:      view.CreatorsInterests.TopCreators,
		RisingCreators:   view.CreatorsInterests.RisingCreators,
		WatchedCreators:  view.CreatorsInterests.Watched,
		SkippedCreators:  view.CreatorsInterests.Skipped,
		FollowedCreators: view.Following,
	}
	if err := a.store.Put(ctx, a.sessionID, blob); err != nil {
		return err
	}
	return a.store.Touch(ctx, a.sessionID, a.now().UnixMilli())
}
