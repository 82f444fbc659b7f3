package cloud

import (
	"fmt"
	"math"
)

// Tier quantizes a score into an integer tier index in [0, levels).
//
// The step is (Max-Min)/levels and the tier is floor((score-Min)/step).
// Tier assignment is monotonically non-decreasing in score; the minimum
// score always maps to tier 0.
//
// Known boundary behavior: a score exactly equal to Max yields levels, one
// past the last valid index. This is intentionally NOT corrected here; the
// generated rule set is one tier wider than the quantizer's level count (see
// Widen), so the overflow index still receives a hide rule and a final
// reveal rule in the assembled page. TierClamped exists for callers that
// want the index forced into range.
func Tier(score float64, r ScoreRange, levels int) int {
	step := r.Span() / float64(levels)
	return int(math.Floor((score - r.Min) / step))
}

// TierClamped is Tier with the result clamped into [0, levels-1]. Opt-in
// only; the default pipeline keeps the overflow.
func TierClamped(score float64, r ScoreRange, levels int) int {
	t := Tier(score, r, levels)
	if t < 0 {
		return 0
	}
	if t >= levels {
		return levels - 1
	}
	return t
}

// TierID derives the identifier correlating a visibility rule with its
// rendered fragments.
func TierID(tier int) string {
	return fmt.Sprintf("tier-%d", tier)
}
