// Package fsutil holds the filesystem primitives the build relies on:
// recursive copy with name-based exclusion, metadata-preserving file copy and
// recursive removal.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Exists reports whether p exists. Errors other than "not exist" count as
// existing so that callers proceed and surface the real error.
func Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil || !os.IsNotExist(err)
}

// RemoveTree removes p and everything beneath it. A missing p is not an error.
func RemoveTree(p string) error {
	return os.RemoveAll(p)
}

// CopyTree recursively copies the directory src to dst and returns the number
// of files copied. Entries whose base name matches any of the exclude patterns
// (path.Match syntax) are skipped at every level of the tree. dst and any
// missing parents are created.
func CopyTree(src, dst string, exclude []string) (int, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !srcInfo.IsDir() {
		return 0, fmt.Errorf("copy tree %s: not a directory", src)
	}

	return copyDir(src, dst, srcInfo.Mode().Perm(), exclude)
}

func copyDir(src, dst string, perm os.FileMode, exclude []string) (int, error) {
	if err := os.MkdirAll(dst, perm|0o700); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	copied := 0
	for _, entry := range entries {
		if Excluded(entry.Name(), exclude) {
			continue
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		// Stat rather than entry.Info so symlinks are followed.
		info, err := os.Stat(srcPath)
		if err != nil {
			return copied, err
		}

		if info.IsDir() {
			n, err := copyDir(srcPath, dstPath, info.Mode().Perm(), exclude)
			copied += n
			if err != nil {
				return copied, err
			}
			continue
		}

		if err := CopyFile(srcPath, dstPath); err != nil {
			return copied, err
		}
		copied++
	}

	return copied, nil
}

// Excluded reports whether name matches one of the patterns. Patterns use
// shell syntax; a negated class may be written [!...] or [^...]. A malformed
// pattern only matches a name equal to it.
func Excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		ok, err := path.Match(strings.ReplaceAll(pattern, "[!", "[^"), name)
		if err != nil {
			ok = pattern == name
		}
		if ok {
			return true
		}
	}
	return false
}

// CopyFile copies the contents of src to dst, truncating dst if it exists,
// then applies src's permission bits and modification time to dst. The parent
// directory of dst must already exist.
func CopyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("copy file %s: is a directory", src)
	}

	// #nosec G304 -- src comes from the author-controlled site configuration.
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}
