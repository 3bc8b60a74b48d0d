// Package clock implements the Lamport-plus-actor timestamp used to order
// operations across replicas. A Clock is a pure value: every method returns
// a new Clock rather than mutating the receiver, so replicas can keep the
// latest one without worrying about aliasing.
package clock

import (
	"fmt"

	"github.com/google/uuid"
)

// Clock is a Lamport counter tagged with the identity of the replica that
// produced it. Total order is counter first, actor id second; the actor tie
// break is deterministic but otherwise arbitrary, as spec'd.
type Clock struct {
	Counter uint64
	Actor   uuid.UUID
}

// New returns the zero clock for actor. Counter starts at zero so the first
// Inc produces counter 1.
func New(actor uuid.UUID) Clock {
	return Clock{Counter: 0, Actor: actor}
}

// Inc returns a new clock for the same actor with the counter advanced by
// one.
func (c Clock) Inc() Clock {
	return Clock{Counter: c.Counter + 1, Actor: c.Actor}
}

// Merge returns a new clock for the same actor whose counter is the max of
// the two inputs. A replica merges its clock with every timestamp it
// observes (local or remote) so that its next Inc strictly exceeds every
// known timestamp.
func (c Clock) Merge(other Clock) Clock {
	counter := c.Counter
	if other.Counter > counter {
		counter = other.Counter
	}
	return Clock{Counter: counter, Actor: c.Actor}
}

// Less reports whether c sorts strictly before other: smaller counter
// first, actor id as tiebreak.
func (c Clock) Less(other Clock) bool {
	if c.Counter != other.Counter {
		return c.Counter < other.Counter
	}
	return actorLess(c.Actor, other.Actor)
}

// Equal reports whether c and other are the same timestamp. Two distinct
// replicas never produce equal clocks as long as actor ids are unique;
// receiving an operation whose timestamp equals one already recorded is a
// protocol invariant violation, not a normal Equal outcome (see
// internal/engine).
func (c Clock) Equal(other Clock) bool {
	return c.Counter == other.Counter && c.Actor == other.Actor
}

// Greater reports whether c sorts strictly after other.
func (c Clock) Greater(other Clock) bool {
	return other.Less(c)
}

func actorLess(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// String renders the clock as "counter@actor" for logging.
func (c Clock) String() string {
	return fmt.Sprintf("%d@%s", c.Counter, c.Actor)
}
