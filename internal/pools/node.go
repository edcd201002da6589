// Package pools implements the bounded ordered-sequence pool manager
// shared by the interest and creator services: findOrInit, score
// update, and capacity/demotion-aware insertion (spec §4.2).
package pools

import (
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
)

// Node is the constraint every pool element must satisfy. Pool
// elements are stored as pointers (e.g. *CategoryNode) so mutating a
// node found via FindOrInit mutates the slice's backing element
// directly — no double-lookup re-find is needed (Design Notes §9).
type Node interface {
	NodeKey() string
	GetScore() float64
	SetScore(float64)
	GetLastUpdated() time.Time
	SetLastUpdated(time.Time)
}

// FindOrInit scans primary then secondary for a node whose NodeKey
// equals id. If found, it returns that node and true. Otherwise it
// returns makeDefault() and false; the caller is responsible for
// inserting the fresh node via InsertIntoPools.
func FindOrInit[N Node](primary, secondary []N, id string, makeDefault func() N) (node N, found bool) {
	for _, n := range primary {
		if n.NodeKey() == id {
			return n, true
		}
	}
	for _, n := range secondary {
		if n.NodeKey() == id {
			return n, true
		}
	}
	return makeDefault(), false
}

// UpdateNodeScore applies the session-or-db-mode EMA update to node's
// score and stamps lastUpdated (§4.2).
func UpdateNodeScore(node Node, newScore float64, mode scoring.Mode, now time.Time) {
	node.SetScore(scoring.EMAUpdate(node.GetScore(), node.GetLastUpdated(), newScore, mode, now))
	node.SetLastUpdated(now)
}
