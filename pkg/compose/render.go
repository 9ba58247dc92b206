package compose

import "strings"

// Render replaces every well-formed placeholder in text with its bound value.
// Unbound names render as the empty string. Values are inserted literally and
// never re-scanned. Malformed placeholders are left untouched.
func Render(text string, b Bindings) string {
	var sb strings.Builder
	sb.Grow(len(text))
	tokenize(text, func(s segment) {
		if s.name == "" {
			sb.WriteString(s.text)
			return
		}
		sb.WriteString(b[s.name])
	})
	return sb.String()
}

// RenderMessage renders subject and body with the same bindings.
func RenderMessage(subject, body string, b Bindings) (string, string) {
	return Render(subject, b), Render(body, b)
}
