package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"script dropped", "<script>alert(1)</script>Hello", "Hello"},
		{"whitespace collapsed", "  a   b  ", "a b"},
		{"newlines and tabs", "line1\n\n\tline2", "line1 line2"},
		{"tags stripped", "<b>John</b> <i>Doe</i>", "John Doe"},
		{"attributes stripped", `<img src=x onerror="alert(1)">caption`, "caption"},
		{"apostrophe kept", "O'Brien", "O'Brien"},
		{"ampersand escaped", "Fish & Chips", "Fish &amp; Chips"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextNeverContainsAngleBrackets(t *testing.T) {
	inputs := []string{
		"<script>document.cookie</script>mixed <b>content</b>",
		"a < b > c",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"<<script>script>alert(1)<</script>/script>",
		"<svg/onload=alert(1)>text",
	}
	for _, in := range inputs {
		out := Text(in)
		assert.NotContains(t, out, "<", in)
		assert.NotContains(t, out, ">", in)
		assert.Equal(t, out, Text(out), "idempotent for %q", in)
	}
}

func TestRichText(t *testing.T) {
	assert.Equal(t, "<p>Hi</p>", RichText("<p>Hi</p>"))
	assert.Equal(t, "<p>Hi</p>", RichText(`<p style="color:red" onclick="x()">Hi</p>`))
	assert.Equal(t, "<h2>Title</h2><ul><li>one</li></ul>", RichText("<h2>Title</h2><ul><li>one</li></ul><script>x()</script>"))
	assert.Equal(t, "text", RichText("<div>text</div>"))
}

func TestRichTextHardensAnchors(t *testing.T) {
	out := RichText(`<a href="https://example.com" target="_self" rel="opener" onclick="steal()">link</a>`)
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, `rel="noopener noreferrer"`)
	assert.NotContains(t, out, "_self")
	assert.NotContains(t, out, "onclick")
	assert.Equal(t, 1, strings.Count(out, "target="))

	js := RichText(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, js, "javascript")
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", Email("  USER@EXAMPLE.COM  "))
	once := Email("  USER@EXAMPLE.COM  ")
	assert.Equal(t, once, Email(once))
	assert.Equal(t, "not-an-email", Email("Not-An-Email"))
	assert.Equal(t, "a@b.com", Email("<b>A@B.com</b>"))
}

func TestURLDangerousSchemes(t *testing.T) {
	inputs := []string{
		"javascript:alert(1)",
		"JavaScript:alert(1)",
		"  javascript:alert(1)",
		"data:text/html;base64,PHNjcmlwdD4=",
		"VBScript:msgbox",
		"file:///etc/passwd",
		"about:blank",
		"<b>javascript:</b>alert(1)",
	}
	for _, in := range inputs {
		assert.Equal(t, "", URL(in), in)
	}
}

func TestURLAllowed(t *testing.T) {
	inputs := []string{
		"http://example.com",
		"https://example.com/path?a=1&b=2",
		"mailto:someone@example.com",
		"tel:+33123456789",
		"/relative/path",
		"#anchor",
	}
	for _, in := range inputs {
		assert.Equal(t, in, URL(in))
	}
	assert.Equal(t, "https://example.com", URL("<i>https://example.com</i>"))
}

func TestURLDefaultsToHTTPS(t *testing.T) {
	assert.Equal(t, "https://example.com", URL("example.com"))
	assert.Equal(t, "https://www.example.org/page", URL("www.example.org/page"))
	assert.Equal(t, "", URL(""))
}

func TestURLWarnsOnDangerousScheme(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	SetWarnLogger(zap.New(core))
	t.Cleanup(func() { SetWarnLogger(zap.NewNop()) })

	require.Equal(t, "", URL("javascript:alert(1)"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "javascript:", logs.All()[0].ContextMap()["scheme"])
}

func TestPhone(t *testing.T) {
	assert.Equal(t, "+33 (1) 23-45-67", Phone(" +33 (1) 23-45-67 "))
	assert.Equal(t, "0123456789", Phone("<b>0123456789</b>"))
	assert.Equal(t, "555-1234", Phone("555-1234 ext"))
	assert.Equal(t, "33  1", Phone("33 + 1"))
}

func TestObject(t *testing.T) {
	in := map[string]any{
		"name":  "<b>John</b>",
		"email": "  J@X.COM  ",
		"bio":   "<p>Hi</p>",
	}
	out := Object(in, []string{"bio"})
	assert.Equal(t, map[string]any{
		"name":  "John",
		"email": "j@x.com",
		"bio":   "<p>Hi</p>",
	}, out)
	assert.Equal(t, "<b>John</b>", in["name"], "input is not mutated")
}

func TestObjectNested(t *testing.T) {
	in := map[string]any{
		"age":     float64(42),
		"active":  true,
		"deleted": nil,
		"company": map[string]any{
			"websiteUrl":  "example.com",
			"mobilePhone": "+1 555 <i>0100</i>",
			"notes":       "<p>kept</p>",
		},
		"contactEmails": []any{" A@B.COM ", "C@D.COM"},
		"tags":          []any{"<i>vip</i>", float64(1)},
	}
	out := Object(in, []string{"notes"}).(map[string]any)

	assert.Equal(t, float64(42), out["age"])
	assert.Equal(t, true, out["active"])
	assert.Nil(t, out["deleted"])

	company := out["company"].(map[string]any)
	assert.Equal(t, "https://example.com", company["websiteUrl"])
	assert.Equal(t, "+1 555 0100", company["mobilePhone"])
	assert.Equal(t, "<p>kept</p>", company["notes"])

	assert.Equal(t, []any{"a@b.com", "c@d.com"}, out["contactEmails"])
	assert.Equal(t, []any{"vip", float64(1)}, out["tags"])
}

func TestFieldPrecedence(t *testing.T) {
	// rich text allow-list wins over name heuristics
	assert.Equal(t, "<p>x</p>", Field("emailBody", "<p>x</p>", []string{"emailBody"}))
	assert.Equal(t, "x", Field("emailBody", "<p>X</p>", nil))
}
