// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches root for files whose name ends
// with one of the given extensions. Paths are returned sorted so that
// registration order does not depend on directory iteration order.
func FindFilesByExtension(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Ext returns the extension of the last element of path. Leading dots of
// that element do not start an extension, so ".caffemodel" has none.
func Ext(path string) string {
	base := filepath.Base(path)
	if !strings.Contains(strings.TrimLeft(base, "."), ".") {
		return ""
	}
	return filepath.Ext(base)
}

// ReplaceExt swaps the extension of name from `from` to `to`. It reports
// false when name does not end with `from`.
func ReplaceExt(name, from, to string) (string, bool) {
	ext := Ext(name)
	if ext != from {
		return "", false
	}
	return strings.TrimSuffix(name, ext) + to, true
}

// BaseNameNoExt returns the last path element without its extension.
func BaseNameNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, Ext(base))
}
