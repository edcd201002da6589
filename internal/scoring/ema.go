package scoring

import "time"

// EMAUpdate returns alpha*newScore + (1-alpha)*decayedScore(oldScore,
// lastUpdated), bypassing the decayed term when oldScore is zero so an
// uninitialized node's stale timestamp never gets propagated (§4.1).
func EMAUpdate(oldScore float64, lastUpdated time.Time, newScore float64, mode Mode, now time.Time) float64 {
	alpha := alphaFor(mode)
	decayed := 0.0
	if oldScore != 0 {
		decayed = DecayedScore(oldScore, lastUpdated, now)
	}
	return alpha*newScore + (1-alpha)*decayed
}

// EMABlend returns (1-alpha)*old + alpha*session. Used exclusively by
// session merge-back with alpha = SessionBlendAlpha. The argument order
// is fixed as (alpha, old, session) per Design Notes §9 — every call
// site in internal/session must follow this order.
func EMABlend(alpha float64, old float64, session float64) float64 {
	return (1-alpha)*old + alpha*session
}
