// Package profileaccessor defines the single interface the interest
// and creator services are written against, with a session-backed and
// a persistent-backed implementation (Design Notes §9: "dual-path
// services"). Writing C5/C6 once against Accessor also gives the
// session merge-back path in internal/session a natural seam to write
// into both sides.
package profileaccessor

import (
	"context"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
)

// View is the subset of a user's profile the interest and creator
// services read and mutate: the two interest pools, the five creator
// pools, and the followed-creator list.
type View struct {
	TopInterests      []*po.CategoryNode
	RisingInterests   []*po.CategoryNode
	CreatorsInterests po.CreatorsInterests
	Following         []*po.FollowedCreator
}

// Accessor abstracts over the session (fast-store) and persistent
// (document-store) backings so C5/C6 can be implemented once.
type Accessor interface {
	Load(ctx context.Context) (*View, error)
	Save(ctx context.Context, view *View) error
	// Mode reports which EMA alpha (session vs db) this accessor's
	// backing store calls for (spec §4.1).
	Mode() scoring.Mode
}
