package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WalkFunc is invoked once per regular file found under a Walk root, with
// the file's absolute path and its path relative to the root.
type WalkFunc func(absPath, relPath string, info fs.FileInfo) error

// Walk enumerates every regular file under root (recursively), skipping
// symbolic links that would resolve outside root. It is not safe for
// concurrent callers mutating root concurrently, consistent with the
// single-writer storage-root assumption the rest of this module makes.
func Walk(root string, fn WalkFunc) error {
	normRoot, err := NormalizeAbs(root)
	if err != nil {
		return err
	}

	return filepath.WalkDir(normRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Best-effort traversal: skip unreadable entries rather than
			// aborting the whole walk.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, rerr := filepath.EvalSymlinks(path)
			if rerr != nil {
				return nil
			}
			if _, gerr := AssertWithin(normRoot, resolved, "symlink traversal"); gerr != nil {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}

		rel, rerr := filepath.Rel(normRoot, path)
		if rerr != nil {
			return nil
		}

		return fn(path, rel, info)
	})
}

// RemoveAllSafe best-effort recursively deletes path. It never returns an
// error for a path that doesn't exist.
func RemoveAllSafe(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}
	_ = os.RemoveAll(path)
}

// EnsureDir creates dir (and parents) if it doesn't already exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create directory %q", dir)
	}
	return nil
}
