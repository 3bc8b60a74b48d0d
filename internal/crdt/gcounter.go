// Package crdt implements the counter CRDT collaborators of spec.md §6: a
// grow-only counter, a positive-negative counter built from two grow-only
// counters, and a bounded counter adding a per-pair transferred-quota
// matrix on top of a positive-negative counter.
//
// Grounded on cshekharsharma-go-crdt's GCounter/PNCounter (mutex-guarded
// slot map, Increment/Value/Merge shape), generalized from that teacher's
// lazily-discovered single slot to spec.md's fixed replica-id membership:
// every counter here is constructed with the full member list up front, so
// Value/Merge never touch an unknown slot.
package crdt

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nicolagi/movetree/internal/vclock"
)

// ReplicaID identifies a participant in a counter CRDT.
type ReplicaID = uuid.UUID

// GCounter is a state-based grow-only counter CRDT over a fixed set of
// replica identifiers (spec.md §6). The total value is the sum of every
// member's slot; each replica may only increment its own slot.
type GCounter struct {
	mu      sync.RWMutex
	self    ReplicaID
	members map[ReplicaID]struct{}
	slots   map[ReplicaID]uint64
}

// NewGCounter constructs a GCounter for self, a member of members (self is
// added to the membership automatically if not already present).
func NewGCounter(self ReplicaID, members []ReplicaID) *GCounter {
	c := &GCounter{
		self:    self,
		members: make(map[ReplicaID]struct{}, len(members)+1),
		slots:   make(map[ReplicaID]uint64, len(members)+1),
	}
	c.members[self] = struct{}{}
	c.slots[self] = 0
	for _, m := range members {
		c.members[m] = struct{}{}
		c.slots[m] = 0
	}
	return c
}

// Increment adds step to the local replica's slot. step is a uint64, so it
// is non-negative by construction, per spec.md §6's "increment(step≥0)".
func (c *GCounter) Increment(step uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[c.self] += step
}

// Value returns the sum of every member's slot.
func (c *GCounter) Value() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sum uint64
	for _, v := range c.slots {
		sum += v
	}
	return sum
}

// VectorClock returns a snapshot of c's per-replica slots as a vector
// clock, the representation spec.md §6 names for causal queries across
// counter states: a GCounter's slot map and a vector clock are the same
// shape, since both are "replica_id -> counter, componentwise compared".
func (c *GCounter) VectorClock() vclock.Clock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := vclock.New()
	for id, n := range c.slots {
		v[id] = n
	}
	return v
}

// HasSeen reports whether c's state causally dominates other's: whether
// every increment reflected in other is already reflected in c. Since a
// GCounter only ever grows, this also means merging other into c would be
// a no-op.
func (c *GCounter) HasSeen(other *GCounter) bool {
	return c.VectorClock().Dominates(other.VectorClock())
}

// ConcurrentWith reports whether c and other each reflect increments the
// other has not yet observed.
func (c *GCounter) ConcurrentWith(other *GCounter) bool {
	return c.VectorClock().Concurrent(other.VectorClock())
}

// Merge folds other's state into c, taking the per-slot maximum -- the join
// operation of the counter's semilattice. Only c is mutated, mirroring the
// teacher's GCounter.Merge.
func (c *GCounter) Merge(other *GCounter) error {
	if other == nil {
		return nil
	}
	other.mu.RLock()
	snapshot := make(map[ReplicaID]uint64, len(other.slots))
	for id, v := range other.slots {
		snapshot[id] = v
	}
	other.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, v := range snapshot {
		if v > c.slots[id] {
			c.slots[id] = v
		}
		c.members[id] = struct{}{}
	}
	return nil
}
