package static

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/simplesite/internal/errors"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

// snapshot returns relative path -> content for every file under root.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		// #nosec G304 -- test-controlled path.
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func newSource(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "static")
	writeFile(t, filepath.Join(src, "logo.png"), "png-bytes")
	writeFile(t, filepath.Join(src, "secret.css"), "body{color:red}")
	writeFile(t, filepath.Join(src, "css", "base.css"), "base")
	return src
}

func TestSync_ExcludesAndRedirectsMappedFiles(t *testing.T) {
	src := newSource(t)
	out := filepath.Join(t.TempDir(), "output", "static")

	res, err := New().Sync(context.Background(), src, out, Map{"secret.css": "css/main.css"})
	require.NoError(t, err)
	assert.Equal(t, Result{Mirrored: 2, Overrides: 1}, res)

	assert.Equal(t, map[string]string{
		"logo.png":     "png-bytes",
		"css/base.css": "base",
		"css/main.css": "body{color:red}",
	}, snapshot(t, out))
}

func TestSync_RemovesStaleFiles(t *testing.T) {
	src := newSource(t)
	out := filepath.Join(t.TempDir(), "static")
	writeFile(t, filepath.Join(out, "old", "gone.js"), "stale")
	writeFile(t, filepath.Join(out, "removed.txt"), "stale")

	_, err := New().Sync(context.Background(), src, out, nil)
	require.NoError(t, err)

	files := snapshot(t, out)
	assert.NotContains(t, files, "old/gone.js")
	assert.NotContains(t, files, "removed.txt")
	assert.Contains(t, files, "secret.css")
}

func TestSync_Idempotent(t *testing.T) {
	src := newSource(t)
	out := filepath.Join(t.TempDir(), "static")
	m := Map{"secret.css": "css/main.css"}
	s := New()

	_, err := s.Sync(context.Background(), src, out, m)
	require.NoError(t, err)
	first := snapshot(t, out)

	_, err = s.Sync(context.Background(), src, out, m)
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, out))
}

func TestSync_MissingSourceRoot(t *testing.T) {
	_, err := New().Sync(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, serrors.ErrSourceNotFound)
}

func TestSync_MissingMappedSource(t *testing.T) {
	src := newSource(t)
	out := filepath.Join(t.TempDir(), "static")

	res, err := New().Sync(context.Background(), src, out, Map{
		"a-missing.css": "css/a.css",
		"secret.css":    "css/main.css",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, serrors.ErrFileNotFound)
	assert.Zero(t, res.Overrides, "entries after the failing one are not copied")
	assert.NoFileExists(t, filepath.Join(out, "css", "main.css"))
}

func TestSync_MappedDestinationParentMustExist(t *testing.T) {
	src := newSource(t)
	out := filepath.Join(t.TempDir(), "static")

	_, err := New().Sync(context.Background(), src, out, Map{"secret.css": "nowhere/main.css"})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryFileSystem))
}

func TestSync_CreatesMissingParents(t *testing.T) {
	src := newSource(t)
	out := filepath.Join(t.TempDir(), "not", "yet", "there")

	_, err := New().Sync(context.Background(), src, out, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "logo.png"))
}

func TestSync_MappedFileKeepsModTime(t *testing.T) {
	src := newSource(t)
	out := filepath.Join(t.TempDir(), "static")
	srcInfo, err := os.Stat(filepath.Join(src, "secret.css"))
	require.NoError(t, err)

	_, err = New().Sync(context.Background(), src, out, Map{"secret.css": "css/main.css"})
	require.NoError(t, err)

	dstInfo, err := os.Stat(filepath.Join(out, "css", "main.css"))
	require.NoError(t, err)
	assert.True(t, srcInfo.ModTime().Equal(dstInfo.ModTime()))
}

func TestMapPatternsSorted(t *testing.T) {
	m := Map{"b.css": "x", "a.css": "y", "c.css": "z"}
	assert.Equal(t, []string{"a.css", "b.css", "c.css"}, m.patterns())
}

func TestSync_MissingSourceStillClearsOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "static")
	writeFile(t, filepath.Join(out, "stale.css"), "old")

	_, err := New().Sync(context.Background(), filepath.Join(t.TempDir(), "nope"), out, nil)
	require.ErrorIs(t, err, serrors.ErrSourceNotFound)
	assert.NoDirExists(t, out)
}

func TestSync_RefusesOutputOverSource(t *testing.T) {
	src := newSource(t)

	tests := []struct {
		name string
		out  string
	}{
		{"same directory", src},
		{"same directory unclean", src + string(filepath.Separator) + "."},
		{"parent of source", filepath.Dir(src)},
		{"inside source", filepath.Join(src, "out")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Sync(context.Background(), src, tt.out, nil)
			require.Error(t, err)
			assert.True(t, serrors.IsCategory(err, serrors.CategoryValidation))
			assert.FileExists(t, filepath.Join(src, "logo.png"))
		})
	}
}

func TestSync_SiblingWithSharedPrefixIsAllowed(t *testing.T) {
	src := newSource(t)
	sibling := filepath.Join(filepath.Dir(src), "static-out")

	_, err := New().Sync(context.Background(), src, sibling, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(sibling, "logo.png"))
}
