package pools_test

import (
	"testing"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/pools"
	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	key         string
	score       float64
	lastUpdated time.Time
}

func (n *testNode) NodeKey() string              { return n.key }
func (n *testNode) GetScore() float64             { return n.score }
func (n *testNode) SetScore(s float64)            { n.score = s }
func (n *testNode) GetLastUpdated() time.Time     { return n.lastUpdated }
func (n *testNode) SetLastUpdated(t time.Time)    { n.lastUpdated = t }

func node(key string, score float64) *testNode {
	return &testNode{key: key, score: score, lastUpdated: time.Now()}
}

func keys(nodes []*testNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.key
	}
	return out
}

func TestFindOrInitReturnsExistingReference(t *testing.T) {
	primary := []*testNode{node("a", 1), node("b", 2)}
	var secondary []*testNode

	found, ok := pools.FindOrInit(primary, secondary, "b", func() *testNode { return node("b", 0) })
	require.True(t, ok)
	found.SetScore(99)
	require.Equal(t, 99.0, primary[1].score)
}

func TestFindOrInitBuildsDefaultWhenMissing(t *testing.T) {
	primary := []*testNode{node("a", 1)}
	built, ok := pools.FindOrInit(primary, nil, "z", func() *testNode { return node("z", 0) })
	require.False(t, ok)
	require.Equal(t, "z", built.key)
}

func TestInsertIntoPoolsCapsPrimary(t *testing.T) {
	var primary, secondary []*testNode
	for i := 0; i < 5; i++ {
		primary, secondary = pools.InsertIntoPools(primary, secondary, 3, 2, node(string(rune('a'+i)), float64(i)))
	}
	require.Len(t, primary, 3)
	require.Len(t, secondary, 2)
	require.ElementsMatch(t, []string{"d", "e", "c"}, keys(primary))
	require.ElementsMatch(t, []string{"a", "b"}, keys(secondary))
}

func TestInsertIntoPoolsDropsNegativeScore(t *testing.T) {
	var primary, secondary []*testNode
	primary, secondary = pools.InsertIntoPools(primary, secondary, 3, 2, node("x", -1))
	require.Empty(t, primary)
	require.Empty(t, secondary)
}

func TestInsertIntoPoolsDropsWhenNeitherPoolHasRoom(t *testing.T) {
	var primary, secondary []*testNode
	primary, secondary = pools.InsertIntoPools(primary, secondary, 1, 1, node("a", 10))
	primary, secondary = pools.InsertIntoPools(primary, secondary, 1, 1, node("b", 5))
	// b displaces nothing into primary (a still wins) and goes to secondary.
	require.Equal(t, []string{"a"}, keys(primary))
	require.Equal(t, []string{"b"}, keys(secondary))

	primary, secondary = pools.InsertIntoPools(primary, secondary, 1, 1, node("c", 1))
	// c beats neither a (primary tail) nor b (secondary tail); dropped.
	require.Equal(t, []string{"a"}, keys(primary))
	require.Equal(t, []string{"b"}, keys(secondary))
}

func TestInsertIntoPoolsIsIdempotent(t *testing.T) {
	var p1, s1 []*testNode
	for i := 0; i < 4; i++ {
		p1, s1 = pools.InsertIntoPools(p1, s1, 2, 2, node(string(rune('a'+i)), float64(i)))
	}
	candidate := node("x", 1.5)
	p2, s2 := pools.InsertIntoPools(p1, s1, 2, 2, candidate)
	p3, s3 := pools.InsertIntoPools(p2, s2, 2, 2, candidate)
	require.Equal(t, keys(p2), keys(p3))
	require.Equal(t, keys(s2), keys(s3))
}

func TestInsertIntoPoolsDisjointAcrossPools(t *testing.T) {
	var primary, secondary []*testNode
	for i := 0; i < 10; i++ {
		primary, secondary = pools.InsertIntoPools(primary, secondary, 3, 3, node(string(rune('a'+i)), float64(i)))
	}
	seen := map[string]bool{}
	for _, n := range primary {
		require.False(t, seen[n.key])
		seen[n.key] = true
	}
	for _, n := range secondary {
		require.False(t, seen[n.key])
		seen[n.key] = true
	}
}

func TestUpdateNodeScoreStampsLastUpdated(t *testing.T) {
	n := node("a", 4)
	before := n.lastUpdated
	now := before.Add(time.Hour)
	pools.UpdateNodeScore(n, 10, scoring.ModeSession, now)
	require.Equal(t, now, n.lastUpdated)
	require.InDelta(t, scoring.EMAAlphaSession*10+(1-scoring.EMAAlphaSession)*scoring.DecayedScore(4, before, now), n.score, 1e-9)
}
