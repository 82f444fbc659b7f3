package cloud

// WidthSpan is the (min, max) viewport width range in pixels over which
// tiers are revealed. Invariant: Min < Max.
type WidthSpan struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Rule is one width-threshold rule: at viewport widths >= Threshold, the
// tiers listed in Visible are shown. A surface applies every rule whose
// threshold is at or below the current width and takes the union of their
// visible sets.
type Rule struct {
	Threshold float64
	Visible   []int // tier indices [0..x], inclusive
}

// Widen applies the fixed pre-step before rule generation: the span's upper
// bound grows by one tier-step and the level count by one, so the topmost
// tier becomes visible strictly before the nominal maximum width. This is
// policy, not a tunable; it also gives the quantizer's overflow tier (see
// Tier) a real slot in the rule set.
func Widen(span WidthSpan, levels int) (WidthSpan, int) {
	span.Max += (span.Max - span.Min) / float64(levels)
	return span, levels + 1
}

// BuildRules produces the ordered threshold rules for the given (already
// widened) level count and span. Rule x has threshold Min + x*step and
// reveals tiers [0..x], so each successive rule reveals exactly one more
// tier while keeping all previously revealed tiers visible. Visible-set
// sizes across the rules form the strictly increasing sequence 1..levels,
// and all tiers are visible at or before span.Max.
//
// The initial state - every tier hidden until its threshold is met - is the
// sink's responsibility (a baseline hide-all rule emitted ahead of these).
func BuildRules(levels int, span WidthSpan) []Rule {
	step := (span.Max - span.Min) / float64(levels)

	rules := make([]Rule, 0, levels)
	for x := 0; x < levels; x++ {
		visible := make([]int, x+1)
		for i := range visible {
			visible[i] = i
		}
		rules = append(rules, Rule{
			Threshold: span.Min + float64(x)*step,
			Visible:   visible,
		})
	}
	return rules
}
