package sanitize

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// hardenAnchors rewrites every <a> start tag so it carries
// target="_blank" rel="noopener noreferrer", replacing any caller values.
// Everything else is copied through byte for byte.
func hardenAnchors(s string) string {
	if !strings.Contains(s, "<a") {
		return strings.TrimSpace(s)
	}

	var out bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return strings.TrimSpace(out.String())
		}
		raw := append([]byte(nil), z.Raw()...)
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		tok := z.Token()
		if tok.Data != "a" {
			out.Write(raw)
			continue
		}
		attrs := make([]html.Attribute, 0, len(tok.Attr)+2)
		for _, a := range tok.Attr {
			if a.Key == "target" || a.Key == "rel" {
				continue
			}
			attrs = append(attrs, a)
		}
		tok.Attr = append(attrs,
			html.Attribute{Key: "target", Val: "_blank"},
			html.Attribute{Key: "rel", Val: "noopener noreferrer"},
		)
		out.WriteString(tok.String())
	}
}
