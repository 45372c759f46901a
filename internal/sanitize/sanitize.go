// Package sanitize neutralizes markup and dangerous URL schemes in
// user-supplied strings before they are validated and persisted.
//
// Strict output escapes "&", "<" and ">" as entities, the same way a text node
// is serialized, so it never contains a raw angle bracket.
package sanitize

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

var (
	strictOnce sync.Once
	strict     *bluemonday.Policy

	richOnce sync.Once
	rich     *bluemonday.Policy
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var (
	dangerousSchemes = []string{"javascript:", "data:", "vbscript:", "file:", "about:"}
	allowedPrefixes  = []string{"http://", "https://", "mailto:", "tel:", "/", "#"}
)

var warn = func(msg string, fields ...zap.Field) {
	zap.L().Warn(msg, fields...)
}

// SetWarnLogger routes sanitizer warnings to l. Pass nil to silence them, as
// production does.
func SetWarnLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	warn = l.Warn
}

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

func richPolicy() *bluemonday.Policy {
	richOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "em", "u", "h1", "h2", "h3", "ul", "ol", "li", "a", "blockquote")
		p.AllowAttrs("href", "title").OnElements("a")
		p.AllowStandardURLs()
		p.AllowURLSchemes("http", "https", "mailto", "tel")
		p.AllowRelativeURLs(true)
		p.RequireParseableURLs(true)
		rich = p
	})
	return rich
}

// Text removes every tag and attribute, keeps the text content and collapses
// runs of whitespace to single spaces. Content of script and style elements
// is dropped with the element.
func Text(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(strictPolicy().Sanitize(s))
	return textEscaper.Replace(strings.Join(strings.Fields(text), " "))
}

// RichText keeps the structural allow-list (paragraphs, line breaks, emphasis,
// h1 to h3, lists, blockquote, anchors) and strips everything else including
// event handlers and style attributes. Every surviving anchor is forced to
// open in a new browsing context without an opener.
func RichText(s string) string {
	if s == "" {
		return ""
	}
	return hardenAnchors(richPolicy().Sanitize(s))
}

// Email strips markup and lowercases. It does not check validity; a malformed
// address is returned as is for the validator to reject.
func Email(s string) string {
	return strings.ToLower(Text(s))
}

// URL strips markup, returns "" for dangerous schemes and defaults scheme-less
// input to https. Ampersands are left unescaped so query strings survive.
func URL(s string) string {
	clean := strings.ReplaceAll(Text(s), "&amp;", "&")
	if clean == "" {
		return ""
	}

	lower := strings.ToLower(clean)
	for _, scheme := range dangerousSchemes {
		if strings.HasPrefix(lower, scheme) {
			warn("dangerous URL protocol neutralized", zap.String("scheme", scheme))
			return ""
		}
	}

	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return clean
		}
	}
	return "https://" + clean
}

// Phone keeps digits, whitespace, hyphens, parentheses and a leading plus.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '(', r == ')':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

