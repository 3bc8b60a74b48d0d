package crdtnode

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for this package, one var block per the teacher's
// internal/tree/error.go convention.
var ErrNotFound = errors.New("node: not found")

func errorf(method, format string, args ...interface{}) error {
	return errors.Wrapf(fmt.Errorf(format, args...), "crdtnode.%s", method)
}
