package engine

import "github.com/pkg/errors"

// ErrDuplicateTimestamp is returned by ApplyOp when the incoming operation's
// timestamp equals the current log head's timestamp. Per spec.md §4.3 and
// §5, this can only happen if two replicas produced identical timestamps --
// a violation of the clock's uniqueness guarantee -- and is treated as a
// protocol invariant violation, not an ordinary error to recover from.
var ErrDuplicateTimestamp = errors.New("engine: duplicate operation timestamp")
