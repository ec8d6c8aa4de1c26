// Package page describes the logical pages of a site and derives the path each
// one is written to, relative to the output root.
//
// Two addressing conventions share the Descriptor type:
//
//   - direct: New("feed.xml", ctx, WithOutputDir("feeds/")) writes feeds/feed.xml
//   - pretty URL: NewPretty("about.html", ctx) writes about/index.html, so the
//     page is reachable as /about/
//
// Output paths always use forward slashes; they are the on-disk layout of the
// generated site and are converted to OS separators only when written.
package page

import (
	"maps"
	"path"
	"strings"
)

// IndexFilename is the file a pretty-URL page is written to inside its directory.
const IndexFilename = "index.html"

// Descriptor is an immutable description of one page: the template that
// renders it, the data it is rendered with, and where the result goes.
type Descriptor struct {
	template string
	context  map[string]any
	output   string
}

// Option adjusts how New derives the output path.
type Option func(*options)

type options struct {
	dir      string
	filename string
}

// WithOutputDir places the page under dir, relative to the output root.
// The default is the output root itself.
func WithOutputDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithOutputFilename overrides the output file name. An empty name keeps the
// default, which is the template identifier.
func WithOutputFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// New returns a page rendered from templateID and written to
// join(outputDir, outputFilename).
func New(templateID string, context map[string]any, opts ...Option) Descriptor {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.filename == "" {
		o.filename = templateID
	}

	ctx := make(map[string]any, len(context))
	maps.Copy(ctx, context)

	return Descriptor{
		template: templateID,
		context:  ctx,
		output:   path.Join(o.dir, o.filename),
	}
}

// NewPretty returns a page addressed by directory: the template's name
// without its extension becomes a directory holding index.html.
func NewPretty(templateID string, context map[string]any) Descriptor {
	name := stripExtension(templateID)
	return New(templateID, context, WithOutputDir(name+"/"), WithOutputFilename(IndexFilename))
}

// stripExtension drops the final extension of p. Leading dots of the base
// name do not start an extension, so ".htaccess" is returned unchanged.
func stripExtension(p string) string {
	ext := path.Ext(p)
	if ext == "" || strings.TrimLeft(path.Base(p), ".") == strings.TrimLeft(ext, ".") {
		return p
	}
	return strings.TrimSuffix(p, ext)
}

// Template returns the template identifier, relative to the template root.
func (d Descriptor) Template() string { return d.template }

// Output returns the output path relative to the output root.
func (d Descriptor) Output() string { return d.output }

// Context returns a copy of the render data.
func (d Descriptor) Context() map[string]any {
	return maps.Clone(d.context)
}

// String implements fmt.Stringer for log output.
func (d Descriptor) String() string {
	return d.template + " -> " + d.output
}
