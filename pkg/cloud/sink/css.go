// Package sink assembles the generated rules and rendered fragments into a
// self-contained HTML document.
package sink

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/nbeckett/tiercloud/pkg/cloud"
)

// RenderCSS emits the visibility rules as a CSS block: a baseline rule
// hiding every tier identifier in [0, tiers), followed by one min-width
// media rule per threshold revealing tiers [0..x].
//
// tiers is the post-widening tier count; it must cover every identifier the
// threshold rules reference (and the quantizer's overflow tier).
func RenderCSS(tiers int, rules []cloud.Rule) []byte {
	var buf bytes.Buffer

	// Baseline: everything hidden until a threshold is met.
	buf.WriteString(selectorList(allTiers(tiers)))
	buf.WriteString(" { display: none; }\n")

	for _, r := range rules {
		fmt.Fprintf(&buf, "@media screen and (min-width: %spx) { %s { display: inline; } }\n",
			formatWidth(r.Threshold), selectorList(r.Visible))
	}
	return buf.Bytes()
}

// selectorList joins tier class selectors: ".tier-0, .tier-1".
func selectorList(tiers []int) string {
	parts := make([]string, len(tiers))
	for i, t := range tiers {
		parts[i] = "." + cloud.TierID(t)
	}
	return strings.Join(parts, ", ")
}

func allTiers(n int) []int {
	tiers := make([]int, n)
	for i := range tiers {
		tiers[i] = i
	}
	return tiers
}

// formatWidth renders a threshold with the shortest representation that
// round-trips, so fractional steps survive verbatim.
func formatWidth(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}
