package cloud

import (
	"fmt"
	"html"
	"strings"
)

// TextOptions controls the shared text-normalization step. Both flags
// default to on; they are independently toggleable policy knobs.
type TextOptions struct {
	// EscapeHTML escapes markup-significant characters in the content.
	EscapeHTML bool

	// BreakNewlines converts embedded newlines to <br> markers. Runs after
	// escaping; the order is significant (escaping an inserted <br> would
	// destroy it).
	BreakNewlines bool
}

// DefaultTextOptions returns the default normalization policy.
func DefaultTextOptions() TextOptions {
	return TextOptions{EscapeHTML: true, BreakNewlines: true}
}

// NormalizeText applies the shared normalization to row content:
// escape first, then newline conversion.
func NormalizeText(s string, opts TextOptions) string {
	if opts.EscapeHTML {
		s = html.EscapeString(s)
	}
	if opts.BreakNewlines {
		s = strings.ReplaceAll(s, "\n", "<br>")
	}
	return s
}

// Fragment renders one row as a markup fragment.
//
// Ignorable rows emit their normalized content verbatim with no tier tag -
// they stay visible at every width. All other rows are wrapped in a span
// carrying the tier identifier that the generated rules target.
func Fragment(content string, tier int, ignorable bool, opts TextOptions) string {
	text := NormalizeText(content, opts)
	if ignorable {
		return text
	}
	return fmt.Sprintf(`<span class="%s">%s</span>`, TierID(tier), text)
}
