package fs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the filesystem projection (spec.md §7).
var (
	ErrExists   = errors.New("fs: already exists")
	ErrNotEmpty = errors.New("fs: directory not empty")
	ErrNotDir   = errors.New("fs: not a directory")
	ErrNotFile  = errors.New("fs: not a regular file")
	ErrNotLink  = errors.New("fs: not a symlink")
	ErrNotFound = errors.New("fs: ino not found")
)

func errorf(method, format string, args ...interface{}) error {
	return errors.Wrapf(fmt.Errorf(format, args...), "fs.%s", method)
}
