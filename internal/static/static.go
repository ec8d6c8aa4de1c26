// Package static mirrors the static asset tree into the output directory.
//
// A sync is a full replacement: the previous output is removed, the source
// tree is copied with every file named in the static map left out, and then
// each mapped file is copied to its mapped destination. The output therefore
// never keeps files that were deleted from the source.
package static

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	serrors "git.home.luguber.info/inful/simplesite/internal/errors"
	"git.home.luguber.info/inful/simplesite/internal/fsutil"
	"git.home.luguber.info/inful/simplesite/internal/logfields"
)

// Map maps source paths, relative to the static source root, to destination
// paths relative to the static output root. Keys are also name patterns
// excluded from the mirrored tree.
type Map map[string]string

// Result summarizes a sync.
type Result struct {
	Mirrored  int
	Overrides int
}

// Synchronizer copies a static source tree into an output location.
type Synchronizer struct {
	logger *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Synchronizer.
func New(opts ...Option) *Synchronizer {
	s := &Synchronizer{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync replaces outputDir with a copy of sourceRoot, minus the files named by
// m's keys, then copies each mapped file to its destination under outputDir.
// Destination directories of mapped files must exist after the mirror.
//
// The previous output is removed before sourceRoot is checked, so a missing
// source leaves no stale output behind. An outputDir that overlaps
// sourceRoot is refused before anything is removed.
func (s *Synchronizer) Sync(ctx context.Context, sourceRoot, outputDir string, m Map) (Result, error) {
	var res Result

	overlap, err := overlaps(sourceRoot, outputDir)
	if err != nil {
		return res, serrors.FileSystem("resolve static paths", err)
	}
	if overlap {
		return res, serrors.ValidationFailed("static output",
			fmt.Sprintf("%s overlaps the static source %s", outputDir, sourceRoot))
	}

	if fsutil.Exists(outputDir) {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "Removing previous static output", logfields.Output(outputDir))
		if err := fsutil.RemoveTree(outputDir); err != nil {
			return res, serrors.FileSystem("remove static output", err).WithContext("path", outputDir)
		}
	}

	if !fsutil.Exists(sourceRoot) {
		return res, serrors.SourceNotFound(sourceRoot)
	}

	n, err := fsutil.CopyTree(sourceRoot, outputDir, m.patterns())
	res.Mirrored = n
	if err != nil {
		return res, serrors.FileSystem("copy static tree", err).WithContext("path", sourceRoot)
	}

	for _, src := range m.patterns() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		from := filepath.Clean(filepath.Join(sourceRoot, filepath.FromSlash(src)))
		to := filepath.Clean(filepath.Join(outputDir, filepath.FromSlash(m[src])))
		if !fsutil.Exists(from) {
			return res, serrors.FileNotFound(from)
		}
		if err := fsutil.CopyFile(from, to); err != nil {
			return res, serrors.FileSystem("copy static override", err).
				WithContext("source", from).
				WithContext("dest", to)
		}
		res.Overrides++
		s.logger.LogAttrs(ctx, slog.LevelDebug, "Copied static override",
			logfields.Source(from),
			logfields.Dest(to))
	}

	return res, nil
}

// overlaps reports whether src and dst are the same directory or one
// contains the other. Removing dst would then delete source files, or the
// mirror would copy into its own input.
func overlaps(src, dst string) (bool, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return false, err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return false, err
	}
	return within(absDst, absSrc) || within(absSrc, absDst), nil
}

// within reports whether p is dir or lies below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// patterns returns the map keys in sorted order.
func (m Map) patterns() []string {
	return slices.Sorted(maps.Keys(m))
}
