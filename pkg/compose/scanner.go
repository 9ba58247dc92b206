package compose

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// segment is either literal text or a well-formed placeholder.
type segment struct {
	text string // literal text, or the raw placeholder when name is set
	name string
}

// tokenize splits text into literal and placeholder segments.
// Placeholders are matched leftmost first: a malformed or stray {{ is literal
// and scanning resumes right after its first brace, so it never hides a
// well-formed placeholder that follows. Anything else stays literal.
func tokenize(text string, yield func(segment)) {
	lit, i := 0, 0
	for {
		j := strings.Index(text[i:], openDelim)
		if j < 0 {
			break
		}
		j += i

		name, n, ok := matchAt(text, j)
		if !ok {
			i = j + 1
			continue
		}
		if j > lit {
			yield(segment{text: text[lit:j]})
		}
		yield(segment{text: text[j : j+n], name: name})
		i = j + n
		lit = i
	}
	if lit < len(text) {
		yield(segment{text: text[lit:]})
	}
}

// matchAt reports whether a well-formed placeholder starts at text[at] and
// returns its name and length. A placeholder glued to an extra brace on
// either side, as in {{{name}}}, is not well-formed.
func matchAt(text string, at int) (string, int, bool) {
	if at > 0 && text[at-1] == '{' {
		return "", 0, false
	}
	inner := text[at+len(openDelim):]
	end := strings.Index(inner, closeDelim)
	if end < 0 {
		return "", 0, false
	}
	name, ok := placeholderName(inner[:end])
	if !ok {
		return "", 0, false
	}
	stop := at + len(openDelim) + end + len(closeDelim)
	if stop < len(text) && text[stop] == '}' {
		return "", 0, false
	}
	return name, stop - at, true
}

// placeholderName validates the inside of {{ }} and returns the trimmed name.
func placeholderName(inner string) (string, bool) {
	if strings.ContainsAny(inner, "{}") {
		return "", false
	}
	name := strings.TrimSpace(inner)
	if name == "" {
		return "", false
	}
	for len(name) > 0 {
		r, size := utf8.DecodeRuneInString(name)
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", false
		}
		name = name[size:]
	}
	return strings.TrimSpace(inner), true
}

// Scan returns the distinct placeholder names in text, in first-occurrence order.
// Malformed placeholders are ignored.
func Scan(text string) []string {
	return scanInto(nil, make(map[string]struct{}), text)
}

// ScanTemplate scans subject then body and returns the combined distinct names.
func ScanTemplate(subject, body string) []string {
	seen := make(map[string]struct{})
	names := scanInto(nil, seen, subject)
	return scanInto(names, seen, body)
}

func scanInto(names []string, seen map[string]struct{}, text string) []string {
	tokenize(text, func(s segment) {
		if s.name == "" {
			return
		}
		if _, ok := seen[s.name]; ok {
			return
		}
		seen[s.name] = struct{}{}
		names = append(names, s.name)
	})
	if names == nil {
		return []string{}
	}
	return names
}
