package sanitize

import "strings"

// Field returns the value sanitized by the mode the field name selects:
// rich text when key is in richText, then email, url/website and phone by
// case-insensitive substring, strict text otherwise.
func Field(key, value string, richText []string) string {
	for _, f := range richText {
		if f == key {
			return RichText(value)
		}
	}

	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "email"):
		return Email(value)
	case strings.Contains(lower, "url"), strings.Contains(lower, "website"):
		return URL(value)
	case strings.Contains(lower, "phone"):
		return Phone(value)
	default:
		return Text(value)
	}
}

// Object walks decoded JSON (maps, slices and scalars) and sanitizes every
// string leaf by its field name. Strings inside an array take the name of the
// field holding the array. Numbers, booleans and nil pass through. The input
// is not modified.
func Object(v any, richText []string) any {
	return walk("", v, richText)
}

func walk(key string, v any, richText []string) any {
	switch t := v.(type) {
	case string:
		return Field(key, t, richText)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = walk(k, child, richText)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = walk(key, child, richText)
		}
		return out
	default:
		return v
	}
}
