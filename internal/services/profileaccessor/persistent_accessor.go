package profileaccessor

import (
	"context"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/store/profile"
)

// profileStore is the subset of profile.Repository the accessor needs.
type profileStore interface {
	Load(ctx context.Context, userID string) (*po.UserProfile, error)
	Save(ctx context.Context, profile *po.UserProfile) error
}

// PersistentAccessor backs Accessor with the long-term document-store
// profile. It caches the loaded profile so Save can round-trip fields
// (like SeenPosts) the View doesn't carry.
type PersistentAccessor struct {
	userID  string
	store   profileStore
	loaded  *po.UserProfile
}

// NewPersistentAccessor constructs a PersistentAccessor for userID.
func NewPersistentAccessor(userID string, store *profile.Repository) *PersistentAccessor {
	return &PersistentAccessor{userID: userID, store: store}
}

// Mode reports ModeDB.
func (a *PersistentAccessor) Mode() scoring.Mode { return scoring.ModeDB }

func (a *PersistentAccessor) Load(ctx context.Context) (*View, error) {
	p, err := a.store.Load(ctx, a.userID)
	if err != nil {
		return nil, err
	}
	a.loaded = p
	return &View{
		TopInterests:      p.TopInterests,
		RisingInterests:   p.RisingInterests,
		CreatorsInterests: p.CreatorsInterests,
		Following:         p.Following,
	}, nil
}

func (a *PersistentAccessor) Save(ctx context.Context, view *View) error {
	p := a.loaded
	if p == nil {
		p = po.NewUserProfile(a.userID)
	}
	p.TopInterests = view.TopInterests
	p.RisingInterests = view.RisingInterests
	p.CreatorsInterests = view.CreatorsInterests
	p.Following = view.Following
	return a.store.Save(ctx, p)
}
