// Package vclock implements a vector clock: a map from replica identity to
// a local counter, used for causal comparisons by the counter CRDT layer.
// It is auxiliary to the move-tree (which orders operations with
// internal/clock instead) but shares the same "replica-tagged counter"
// vocabulary.
package vclock

import "github.com/google/uuid"

// Clock maps replica id to the highest counter observed for that replica.
// The zero value is a valid empty clock.
type Clock map[uuid.UUID]uint64

// New returns an empty vector clock.
func New() Clock {
	return make(Clock)
}

// Clone returns an independent copy.
func (c Clock) Clone() Clock {
	out := make(Clock, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Inc returns a copy of c with replica's slot incremented by one.
func (c Clock) Inc(replica uuid.UUID) Clock {
	out := c.Clone()
	out[replica] = out[replica] + 1
	return out
}

// Merge returns the componentwise maximum of c and other, the join
// operation of the vector-clock semilattice.
func (c Clock) Merge(other Clock) Clock {
	out := c.Clone()
	for k, v := range other {
		if v > out[k] {
			out[k] = v
		}
	}
	return out
}

// Dominates reports whether c ≥ other componentwise (c has seen everything
// other has seen, and possibly more).
func (c Clock) Dominates(other Clock) bool {
	for k, v := range other {
		if c[k] < v {
			return false
		}
	}
	return true
}

// Equal reports whether c and other carry the same counters for every
// replica either one mentions.
func (c Clock) Equal(other Clock) bool {
	return c.Dominates(other) && other.Dominates(c)
}

// Concurrent reports whether neither clock dominates the other: the
// defining condition for two causally independent updates.
func (c Clock) Concurrent(other Clock) bool {
	return !c.Dominates(other) && !other.Dominates(c)
}
