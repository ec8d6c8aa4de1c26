// Package render turns page descriptors into files: each page's template is
// loaded from the template root, executed with the page context and written
// to its output path under the output root.
//
// Templates whose extension is .html, .htm or .xml are parsed with
// html/template and get contextual auto-escaping; any other extension is
// rendered verbatim with text/template. References to context keys that do
// not exist are errors.
package render

import (
	"bytes"
	"context"
	"errors"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	serrors "git.home.luguber.info/inful/simplesite/internal/errors"
	"git.home.luguber.info/inful/simplesite/internal/logfields"
	"git.home.luguber.info/inful/simplesite/internal/page"
)

// escapedExtensions select html/template over text/template.
var escapedExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".xml":  true,
}

// Renderer renders pages from a fixed template root into a fixed output root.
type Renderer struct {
	templates  fs.FS
	outputRoot string
	partials   []string
	funcs      map[string]any
	logger     *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPartials adds glob patterns, relative to the template root, of shared
// templates parsed alongside every page so pages can {{template}} them.
// A partial file is itself named by its slash path, e.g.
// {{template "_partials/nav.html" .}}. Patterns that match nothing are
// ignored.
func WithPartials(patterns ...string) Option {
	return func(r *Renderer) { r.partials = append(r.partials, patterns...) }
}

// WithFuncs registers template functions available to every page.
func WithFuncs(funcs map[string]any) Option {
	return func(r *Renderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithFS loads templates from fsys instead of the template root directory.
func WithFS(fsys fs.FS) Option {
	return func(r *Renderer) { r.templates = fsys }
}

// New returns a Renderer loading templates from templateRoot and writing
// below outputRoot. An empty root means the working directory.
func New(templateRoot, outputRoot string, opts ...Option) *Renderer {
	if templateRoot == "" {
		templateRoot = "."
	}
	r := &Renderer{
		templates:  os.DirFS(templateRoot),
		outputRoot: outputRoot,
		funcs:      map[string]any{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders pages in order and returns how many were written. The first
// failure stops the batch; pages written before it are left in place.
func (r *Renderer) Render(ctx context.Context, pages []page.Descriptor) (int, error) {
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := r.RenderPage(ctx, p); err != nil {
			return i, err
		}
	}
	return len(pages), nil
}

// RenderPage renders a single page and writes it to
// outputRoot/p.Output(), creating parent directories as needed and
// replacing any existing file.
func (r *Renderer) RenderPage(ctx context.Context, p page.Descriptor) error {
	tmpl, err := r.load(p.Template())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p.Context()); err != nil {
		return serrors.RenderFailed(p.Template(), err)
	}

	full := filepath.Join(r.outputRoot, filepath.FromSlash(p.Output()))
	if err := writeFile(full, buf.Bytes()); err != nil {
		return serrors.WriteFailed(full, err)
	}

	r.logger.LogAttrs(ctx, slog.LevelDebug, "Rendered page",
		logfields.Template(p.Template()),
		logfields.Output(full))
	return nil
}

type executor interface {
	Execute(w io.Writer, data any) error
}

// load resolves id in the template root and parses it together with the
// configured partials.
func (r *Renderer) load(id string) (executor, error) {
	name := path.Clean(filepath.ToSlash(id))
	if !fs.ValidPath(name) {
		return nil, serrors.TemplateNotFound(id)
	}
	info, err := fs.Stat(r.templates, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, serrors.TemplateNotFound(id)
		}
		return nil, serrors.TemplateParse(id, err)
	}
	if info.IsDir() {
		return nil, serrors.TemplateNotFound(id)
	}

	sources, err := r.sources(name)
	if err != nil {
		return nil, serrors.TemplateParse(id, err)
	}

	// The page is parsed into the root template; partials are associated
	// under their own paths so a partial can never replace the page.
	var tmpl executor
	if escapedExtensions[strings.ToLower(path.Ext(name))] {
		t := htmltemplate.New(name).
			Option("missingkey=error").
			Funcs(htmltemplate.FuncMap(r.funcs))
		if _, err = t.Parse(sources[0].text); err == nil {
			for _, p := range sources[1:] {
				if _, err = t.New(p.name).Parse(p.text); err != nil {
					break
				}
			}
		}
		tmpl = t
	} else {
		t := texttemplate.New(name).
			Option("missingkey=error").
			Funcs(texttemplate.FuncMap(r.funcs))
		if _, err = t.Parse(sources[0].text); err == nil {
			for _, p := range sources[1:] {
				if _, err = t.New(p.name).Parse(p.text); err != nil {
					break
				}
			}
		}
		tmpl = t
	}
	if err != nil {
		return nil, serrors.TemplateParse(id, err)
	}
	return tmpl, nil
}

type source struct {
	name string
	text string
}

// sources reads the page template followed by every partial matched by the
// configured patterns, skipping the page itself. Names are read as-is, so
// glob metacharacters in a page name are literal.
func (r *Renderer) sources(name string) ([]source, error) {
	files := []string{name}
	seen := map[string]bool{name: true}
	for _, pattern := range r.partials {
		matches, err := fs.Glob(r.templates, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	out := make([]source, 0, len(files))
	for _, f := range files {
		data, err := fs.ReadFile(r.templates, f)
		if err != nil {
			return nil, err
		}
		out = append(out, source{name: f, text: string(data)})
	}
	return out, nil
}

func writeFile(full string, data []byte) (err error) {
	// #nosec G301 -- generated sites are meant to be world-readable.
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	// #nosec G302 G304 -- output path derives from author-controlled page config.
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = f.Write(data)
	return err
}
