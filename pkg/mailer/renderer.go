package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed layouts/*.html
var defaultLayouts embed.FS

// Renderer turns an operator-written plain-text body into a sanitized HTML
// alternative wrapped in a layout. Bodies are treated as markdown with hard
// line breaks, so plain letters keep their shape.
type Renderer struct {
	fs        fs.FS
	layoutDir string
	md        goldmark.Markdown
	policy    *bluemonday.Policy

	// Parsed layouts only; rendered output is never cached.
	layoutCache map[string]*template.Template

	mu sync.RWMutex
}

// RendererConfig configures the renderer.
type RendererConfig struct {
	LayoutDir string // Default: "layouts"
}

// NewRenderer creates a renderer using the built-in layouts.
func NewRenderer() *Renderer {
	return NewRendererWithConfig(defaultLayouts, RendererConfig{})
}

// NewRendererWithConfig creates a renderer reading layouts from filesystem.
func NewRendererWithConfig(filesystem fs.FS, opts RendererConfig) *Renderer {
	if opts.LayoutDir == "" {
		opts.LayoutDir = "layouts"
	}

	return &Renderer{
		fs:        filesystem,
		layoutDir: opts.LayoutDir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy:      letterPolicy(),
		layoutCache: make(map[string]*template.Template),
	}
}

// letterPolicy allows the formatting markdown produces for letters and strips
// everything else, including raw HTML the operator may have typed.
func letterPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowElements(
		"p", "br", "hr",
		"strong", "b", "em", "i", "del",
		"ul", "ol", "li",
		"h1", "h2", "h3", "h4",
		"code", "pre", "blockquote",
	)
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// RenderHTML converts body to HTML and wraps it in the named layout.
func (r *Renderer) RenderHTML(layout, subject, body string) (string, error) {
	var content bytes.Buffer
	if err := r.md.Convert([]byte(body), &content); err != nil {
		return "", fmt.Errorf("%w: failed to convert markdown: %v", ErrRenderFailed, err)
	}

	layoutTmpl, err := r.getLayout(layout)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	data := map[string]any{
		"Subject": subject,
		"Content": template.HTML(r.policy.Sanitize(content.String())),
	}
	if err := layoutTmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("%w: failed to execute layout: %v", ErrRenderFailed, err)
	}
	return out.String(), nil
}

// getLayout returns a cached layout template or parses and caches it.
func (r *Renderer) getLayout(name string) (*template.Template, error) {
	r.mu.RLock()
	if cached, ok := r.layoutCache[name]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.layoutCache[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.layoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
	}

	layoutTmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse layout: %v", ErrRenderFailed, err)
	}

	r.layoutCache[name] = layoutTmpl
	return layoutTmpl, nil
}
