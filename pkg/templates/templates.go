// Package templates loads form-letter templates written as markdown files
// with YAML frontmatter, and ships a built-in catalog of common letters.
//
// A template file looks like:
//
//	---
//	name: Late Entry Request
//	category: request
//	default: false
//	subject: Request for Late Entry - {{date}}
//	---
//	Dear Warden,
//
//	I, {{name}}, request permission for late entry on {{date}}.
//
// The body is everything after the closing delimiter. Variables are never
// declared; they are scanned from the subject and body.
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
)

//go:embed builtin/*.md
var builtinFS embed.FS

var (
	// ErrInvalidFrontmatter indicates invalid YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("templates: invalid frontmatter")

	// ErrNoTemplates indicates a directory without any template file.
	ErrNoTemplates = errors.New("templates: no template files found")
)

// Meta is the frontmatter of a template file.
type Meta struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Subject  string `yaml:"subject"`
	Default  bool   `yaml:"default"`
}

// Document is a template file split into frontmatter and body.
type Document struct {
	Meta Meta
	Body string
}

// ParseDocument splits content into YAML frontmatter and markdown body.
// Content without a leading "---" line is all body.
func ParseDocument(content []byte) (*Document, error) {
	delimiter := []byte("---")

	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(content, delimiter) {
		return &Document{Body: string(content)}, nil
	}

	afterFirst := bytes.TrimPrefix(content, delimiter)
	afterFirst = bytes.TrimLeft(afterFirst, "\n\r")
	if len(afterFirst) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	endIdx := bytes.Index(afterFirst, delimiter)
	if endIdx == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	frontmatter := afterFirst[:endIdx]
	bodyStart := endIdx + len(delimiter)
	// Skip one newline after the closing delimiter.
	if bodyStart < len(afterFirst) {
		if afterFirst[bodyStart] == '\r' && bodyStart+1 < len(afterFirst) && afterFirst[bodyStart+1] == '\n' {
			bodyStart += 2
		} else if afterFirst[bodyStart] == '\n' {
			bodyStart++
		}
	}

	doc := &Document{Body: string(afterFirst[bodyStart:])}
	if len(bytes.TrimSpace(frontmatter)) > 0 {
		if err := yaml.Unmarshal(frontmatter, &doc.Meta); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}
	return doc, nil
}

// Parse builds a template from a file. The file name (without extension and
// ordering prefix) is the fallback template name.
func Parse(filename string, content []byte) (compose.Template, error) {
	doc, err := ParseDocument(content)
	if err != nil {
		return compose.Template{}, fmt.Errorf("%s: %w", filename, err)
	}

	category, err := compose.ParseCategory(doc.Meta.Category)
	if err != nil {
		return compose.Template{}, fmt.Errorf("%s: %w", filename, err)
	}

	t := compose.Template{
		Name:      strings.TrimSpace(doc.Meta.Name),
		Category:  category,
		Subject:   strings.TrimSpace(doc.Meta.Subject),
		Body:      strings.TrimRight(doc.Body, "\r\n"),
		IsDefault: doc.Meta.Default,
	}
	if t.Name == "" {
		t.Name = nameFromFile(filename)
	}
	t.Refresh()

	if err := t.Validate(); err != nil {
		return compose.Template{}, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

// Load parses every *.md file in dir, ordered by file name. At most one
// template may be flagged default; later flags are cleared.
func Load(fsys fs.FS, dir string) ([]compose.Template, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplates, dir)
	}
	sort.Strings(names)

	out := make([]compose.Template, 0, len(names))
	seenDefault := false
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		t, err := Parse(path.Base(name), content)
		if err != nil {
			return nil, err
		}
		if t.IsDefault {
			t.IsDefault = !seenDefault
			seenDefault = true
		}
		out = append(out, t)
	}
	return out, nil
}

// Builtin returns the built-in catalog: leave, late entry, complaint and
// announcement letters, with the leave application as the default.
func Builtin() ([]compose.Template, error) {
	return Load(builtinFS, "builtin")
}

// nameFromFile turns "02_late_entry.md" into "Late Entry".
func nameFromFile(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if i := strings.IndexByte(base, '_'); i > 0 && strings.Trim(base[:i], "0123456789") == "" {
		base = base[i+1:]
	}
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
