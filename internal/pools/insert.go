package pools

import "sort"

// removeByKey returns a copy of pool with any element matching key
// removed.
func removeByKey[N Node](pool []N, key string) []N {
	out := make([]N, 0, len(pool))
	for _, n := range pool {
		if n.NodeKey() != key {
			out = append(out, n)
		}
	}
	return out
}

// RemoveFromPools returns primary and secondary with any element
// matching key removed from both. Used by callers that must evict a
// node outright rather than reposition it via InsertIntoPools — e.g.
// the interest service's skip path, where a node whose score has
// decayed to exactly zero must be dropped even though InsertIntoPools
// only drops strictly negative scores (spec §4.3, §3.2).
func RemoveFromPools[N Node](primary, secondary []N, key string) (newPrimary, newSecondary []N) {
	return removeByKey(primary, key), removeByKey(secondary, key)
}

// sortDesc sorts pool by score descending, stable (tie-break among
// equal scores is arbitrary and not observable, per spec §4.2).
func sortDesc[N Node](pool []N) {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].GetScore() > pool[j].GetScore()
	})
}

func replaceTail[N Node](pool []N, with N) []N {
	out := make([]N, len(pool))
	copy(out, pool)
	out[len(out)-1] = with
	return out
}

// InsertIntoPools performs the idempotent capacity/demotion-aware
// insertion described in spec §4.2:
//
//  1. Remove any existing occurrence of candidate's key from both pools.
//  2. Drop candidates with a negative score.
//  3. Push into primary if it has room.
//  4. Otherwise, if candidate beats primary's lowest-scored entry,
//     replace the tail and cascade the bumped entry into secondary
//     (push-or-replace; drop it if secondary is full and it doesn't win).
//  5. Otherwise try to push/replace candidate directly into secondary;
//     drop it if secondary is full and it doesn't win there either.
func InsertIntoPools[N Node](primary, secondary []N, capP, capS int, candidate N) (newPrimary, newSecondary []N) {
	primary = removeByKey(primary, candidate.NodeKey())
	secondary = removeByKey(secondary, candidate.NodeKey())

	if candidate.GetScore() < 0 {
		return primary, secondary
	}

	if len(primary) < capP {
		primary = append(primary, candidate)
		sortDesc(primary)
		return primary, secondary
	}

	lowP := primary[len(primary)-1]
	if candidate.GetScore() > lowP.GetScore() {
		primary = replaceTail(primary, candidate)
		sortDesc(primary)
		secondary = pushOrDrop(secondary, capS, lowP)
		return primary, secondary
	}

	secondary = pushOrDrop(secondary, capS, candidate)
	return primary, secondary
}

// InsertIntoSinglePool applies the same idempotent capacity rule as
// InsertIntoPools to a single capped pool with no secondary demotion
// tier (e.g. SubNode.Specific, capped at SpecificMax with no rising
// counterpart, spec §3.1).
func InsertIntoSinglePool[N Node](pool []N, cap int, candidate N) []N {
	newPrimary, _ := InsertIntoPools[N](pool, nil, cap, 0, candidate)
	return newPrimary
}

// pushOrDrop pushes candidate into pool if there's room, or if it
// beats pool's lowest-scored tail; otherwise candidate is dropped and
// pool is returned unchanged.
func pushOrDrop[N Node](pool []N, cap int, candidate N) []N {
	if cap <= 0 {
		return pool
	}
	if len(pool) < cap {
		pool = append(pool, candidate)
		sortDesc(pool)
		return pool
	}
	tail := pool[len(pool)-1]
	if candidate.GetScore() > tail.GetScore() {
		pool = replaceTail(pool, candidate)
		sortDesc(pool)
	}
	return pool
}
