package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/nbeckett/tiercloud/pkg/cloud"
)

// HTMLOption configures the document renderer.
type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	title string
	lang  string
}

// WithTitle sets the document title.
func WithTitle(t string) HTMLOption { return func(r *htmlRenderer) { r.title = t } }

// WithLang sets the document language attribute.
func WithLang(l string) HTMLOption { return func(r *htmlRenderer) { r.lang = l } }

// RenderHTML assembles the complete output document: a header region
// carrying the generated width-conditional display rules, a body region with
// one fragment per input row in input order (newline-separated for
// readability), and a closing region.
//
// tiers is the post-widening tier count passed through to RenderCSS.
func RenderHTML(tiers int, rules []cloud.Rule, fragments []string, opts ...HTMLOption) []byte {
	r := htmlRenderer{title: "tiercloud", lang: "en"}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&buf, "<html lang=\"%s\">\n<head>\n", html.EscapeString(r.lang))
	buf.WriteString("<meta charset=\"utf-8\">\n")
	buf.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(r.title))
	buf.WriteString("<style>\n")
	buf.Write(RenderCSS(tiers, rules))
	buf.WriteString("</style>\n</head>\n<body>\n")

	for _, f := range fragments {
		buf.WriteString(f)
		buf.WriteByte('\n')
	}

	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes()
}
