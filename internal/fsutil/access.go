package fsutil

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// Writable reports whether the current user may create files in dir.
func Writable(dir string) bool {
	return unix.Access(dir, unix.W_OK) == nil
}

// EnsureDir makes sure dir exists. It reports whether the directory had to
// be created.
func EnsureDir(dir string) (created bool, err error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, &fs.PathError{Op: "mkdir", Path: dir, Err: unix.ENOTDIR}
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	return true, nil
}
