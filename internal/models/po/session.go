package po

// SessionBlob is the JSON mirror of the hot-path subset of a user's
// profile held in the fast store (spec §3.1, §6.3). Unlike UserProfile
// it carries no SeenPosts — the feed assembler reads seen posts from
// the persistent profile regardless of session presence.
type SessionBlob struct {
	UserID           string              `json:"userId"`
	TopCategories    []*CategoryNode     `json:"topCategories"`
	RisingCategories []*CategoryNode     `json:"risingCategories"`
	TopCreators      []*CreatorNode      `json:"topCreators"`
	RisingCreators   []*CreatorNode      `json:"risingCreators"`
	WatchedCreators  []*WatchedEntry     `json:"watchedCreators"`
	SkippedCreators  []*SkippedEntry     `json:"skippedCreators"`
	FollowedCreators []*FollowedCreator  `json:"followedCreators"`
}

// FromProfile projects the subset of a persistent profile used by the
// hot path into a fresh session blob (session start, spec §4.6).
func FromProfile(p *UserProfile) *SessionBlob {
	return &SessionBlob{
		UserID:           p.UserID,
		TopCategories:    p.TopInterests,
		RisingCategories: p.RisingInterests,
		TopCreators:      p.CreatorsInterests.TopCreators,
		RisingCreators:   p.CreatorsInterests.RisingCreators,
		WatchedCreators:  p.CreatorsInterests.Watched,
		SkippedCreators:  p.CreatorsInterests.Skipped,
		FollowedCreators: p.Following,
	}
}
