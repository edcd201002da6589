package scoring

import "math"

// ChoosePriorCount returns clamp(floor(20*log10(impr+1)), 20, 500); 20
// when impr <= 0 (§4.1).
func ChoosePriorCount(globalImpressions int64) int {
	if globalImpressions <= 0 {
		return PriorMinCount
	}
	raw := 20 * math.Log10(float64(globalImpressions)+1)
	n := int(math.Floor(raw))
	if n < PriorMinCount {
		return PriorMinCount
	}
	if n > PriorMaxCount {
		return PriorMaxCount
	}
	return n
}

// SafeAvg returns num/den, or 0 when den <= 0, matching the invariant
// that (totalEngagement/impressionCount) is only evaluated when
// impressionCount > 0 (§3.2).
func SafeAvg(num float64, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return num / float64(den)
}

// BayesianSmooth returns (globalAvg*priorCount + userTotal) / (priorCount
// + userCount), the smoothing step used by both the interest service
// (§4.3 step 2) and the post metrics engine (§4.5 step 6, generalized
// with a creator/category prior mean instead of a single global avg).
func BayesianSmooth(priorMean float64, priorCount float64, observedTotal float64, observedCount int64) float64 {
	return (priorMean*priorCount + observedTotal) / (priorCount + float64(observedCount))
}
