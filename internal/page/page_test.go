package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_OutputPath(t *testing.T) {
	tests := []struct {
		name     string
		template string
		opts     []Option
		want     string
	}{
		{"defaults to template name at root", "t.html", nil, "t.html"},
		{"output dir with trailing slash", "t.html", []Option{WithOutputDir("sub/")}, "sub/t.html"},
		{"output dir without trailing slash", "t.html", []Option{WithOutputDir("sub")}, "sub/t.html"},
		{"output filename override", "t.html", []Option{WithOutputFilename("y.html")}, "y.html"},
		{"dir and filename", "x.html", []Option{WithOutputDir("folder/"), WithOutputFilename("y.html")}, "folder/y.html"},
		{"empty filename keeps template name", "t.html", []Option{WithOutputFilename("")}, "t.html"},
		{"nested template keeps its directories", "blog/post.html", nil, "blog/post.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.template, nil, tt.opts...)
			assert.Equal(t, tt.want, d.Output())
			assert.Equal(t, tt.template, d.Template())
		})
	}
}

func TestNewPretty_OutputPath(t *testing.T) {
	tests := []struct {
		template string
		want     string
	}{
		{"about.html", "about/index.html"},
		{"about", "about/index.html"},
		{"blog/post.html", "blog/post/index.html"},
		{"archive.tar.gz", "archive.tar/index.html"},
		{"index.html", "index/index.html"},
		{".hidden", ".hidden/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			d := NewPretty(tt.template, nil)
			assert.Equal(t, tt.want, d.Output())
			assert.Equal(t, tt.template, d.Template())
		})
	}
}

func TestNewPretty_ExtensionlessMatchesJoin(t *testing.T) {
	for _, id := range []string{"a", "about-us", "docs/intro"} {
		d := NewPretty(id, nil)
		assert.Equal(t, id+"/"+IndexFilename, d.Output())
	}
}

func TestDescriptor_ContextIsCopied(t *testing.T) {
	src := map[string]any{"x": 1}
	d := New("a.html", src)

	src["x"] = 2
	require.Equal(t, 1, d.Context()["x"], "descriptor must not observe caller mutations")

	got := d.Context()
	got["x"] = 3
	assert.Equal(t, 1, d.Context()["x"], "callers must not mutate the descriptor")
}

func TestDescriptor_NilContext(t *testing.T) {
	d := NewPretty("about.html", nil)
	require.NotNil(t, d.Context())
	assert.Empty(t, d.Context())
}

func TestDescriptor_String(t *testing.T) {
	assert.Equal(t, "about.html -> about/index.html", NewPretty("about.html", nil).String())
}
