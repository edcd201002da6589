// Package po defines the persisted domain structures for the feed
// ranking engine: the user profile tree, posts, and the global/
// per-user/per-creator stat counters (spec §3.1).
package po

import "time"

// SpecificNode is the leaf of the category hierarchy.
type SpecificNode struct {
	Name        string    `json:"name"`
	Score       float64   `json:"score"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (n *SpecificNode) NodeKey() string           { return n.Name }
func (n *SpecificNode) GetScore() float64         { return n.Score }
func (n *SpecificNode) SetScore(s float64)        { n.Score = s }
func (n *SpecificNode) GetLastUpdated() time.Time { return n.LastUpdated }
func (n *SpecificNode) SetLastUpdated(t time.Time) {
	n.LastUpdated = t
}

// SubNode is a subcategory under a CategoryNode, with its own
// specific-interest pool.
type SubNode struct {
	Name        string          `json:"name"`
	Score       float64         `json:"score"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Specific    []*SpecificNode `json:"specific"`
}

func (n *SubNode) NodeKey() string           { return n.Name }
func (n *SubNode) GetScore() float64         { return n.Score }
func (n *SubNode) SetScore(s float64)        { n.Score = s }
func (n *SubNode) GetLastUpdated() time.Time { return n.LastUpdated }
func (n *SubNode) SetLastUpdated(t time.Time) {
	n.LastUpdated = t
}

// CategoryNode is a top-level or rising interest category, carrying
// its own topSubs/risingSubs pools.
type CategoryNode struct {
	Name        string     `json:"name"`
	Score       float64    `json:"score"`
	LastUpdated time.Time  `json:"lastUpdated"`
	TopSubs     []*SubNode `json:"topSubs"`
	RisingSubs  []*SubNode `json:"risingSubs"`
}

func (n *CategoryNode) NodeKey() string           { return n.Name }
func (n *CategoryNode) GetScore() float64         { return n.Score }
func (n *CategoryNode) SetScore(s float64)        { n.Score = s }
func (n *CategoryNode) GetLastUpdated() time.Time { return n.LastUpdated }
func (n *CategoryNode) SetLastUpdated(t time.Time) {
	n.LastUpdated = t
}

// CreatorNode lives in topCreators or risingCreators.
type CreatorNode struct {
	CreatorID   string    `json:"creatorId"`
	Score       float64   `json:"score"`
	LastUpdated time.Time `json:"lastUpdated"`
	Skips       int       `json:"skips"`
	LastSkipAt  time.Time `json:"lastSkipAt"`
}

func (n *CreatorNode) NodeKey() string           { return n.CreatorID }
func (n *CreatorNode) GetScore() float64         { return n.Score }
func (n *CreatorNode) SetScore(s float64)        { n.Score = s }
func (n *CreatorNode) GetLastUpdated() time.Time { return n.LastUpdated }
func (n *CreatorNode) SetLastUpdated(t time.Time) {
	n.LastUpdated = t
}

// WatchedEntry / SkippedEntry share the cool-off shape: a creator id,
// a skip count, and a re-entry gate.
type WatchedEntry struct {
	CreatorID       string    `json:"creatorId"`
	Skips           int       `json:"skips"`
	LastSkipUpdate  time.Time `json:"lastSkipUpdate"`
	ReentryAt       time.Time `json:"reentryAt"`
}

type SkippedEntry struct {
	CreatorID      string    `json:"creatorId"`
	Skips          int       `json:"skips"`
	LastSkipUpdate time.Time `json:"lastSkipUpdate"`
	ReentryAt      time.Time `json:"reentryAt"`
}

// FollowedCreator is orthogonal to the top/rising/watched/skipped
// state machine (§3.2) but still takes score updates through the
// pool-manager EMA path, so it satisfies pools.Node too.
type FollowedCreator struct {
	UserID      string    `json:"userId"`
	Score       float64   `json:"score"`
	LastUpdated time.Time `json:"lastUpdated"`
	Skips       int       `json:"skips"`
	LastSkipAt  time.Time `json:"lastSkipAt"`
	ReentryAt   *time.Time `json:"reentryAt,omitempty"`
}

func (n *FollowedCreator) NodeKey() string           { return n.UserID }
func (n *FollowedCreator) GetScore() float64         { return n.Score }
func (n *FollowedCreator) SetScore(s float64)        { n.Score = s }
func (n *FollowedCreator) GetLastUpdated() time.Time { return n.LastUpdated }
func (n *FollowedCreator) SetLastUpdated(t time.Time) {
	n.LastUpdated = t
}

// CreatorsInterests groups the five creator pools for one user.
type CreatorsInterests struct {
	TopCreators    []*CreatorNode  `json:"topCreators"`
	RisingCreators []*CreatorNode  `json:"risingCreators"`
	Watched        []*WatchedEntry `json:"watchedCreatorsPool"`
	Skipped        []*SkippedEntry `json:"skippedCreatorsPool"`
}

// UserProfile is the persistent, long-term user interest profile
// (spec §3.1).
type UserProfile struct {
	UserID            string
	TopInterests      []*CategoryNode
	RisingInterests    []*CategoryNode
	CreatorsInterests CreatorsInterests
	Following         []*FollowedCreator
	SeenPosts         map[string]struct{}
}

// NewUserProfile returns an empty profile for a freshly signed-up user.
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:    userID,
		SeenPosts: map[string]struct{}{},
	}
}

// HasSeen reports whether postID is in the user's seenPosts set.
func (p *UserProfile) HasSeen(postID string) bool {
	_, ok := p.SeenPosts[postID]
	return ok
}
