package scoring

import (
	"math"
	"time"
)

// lambda returns ln(2)/halfLifeDays, the decay constant for a
// half-life expressed in days.
func lambda(halfLifeDays float64) float64 {
	return math.Ln2 / halfLifeDays
}

// DecayedScore returns oldScore decayed exponentially from lastUpdated
// to now, using the package half-life (§4.1).
func DecayedScore(oldScore float64, lastUpdated time.Time, now time.Time) float64 {
	if oldScore == 0 {
		return 0
	}
	deltaDays := now.Sub(lastUpdated).Hours() / 24
	if deltaDays < 0 {
		deltaDays = 0
	}
	return oldScore * math.Exp(-lambda(HalfLifeDays)*deltaDays)
}

// TimeDecay returns exp(-ln2/HalfLifeDays * ageDays), the composite
// time-decay factor used by the feed assembler and the post-metrics
// Bayesian score (§4.5 step 6, §4.7 step 5).
func TimeDecay(createdAt time.Time, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-lambda(HalfLifeDays) * ageDays)
}
