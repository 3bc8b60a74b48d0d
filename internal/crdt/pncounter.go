package crdt

// PNCounter is a positive-negative counter CRDT: two grow-only counters, P
// for increments and N for decrements, so the combined state remains
// monotonic in both directions even though the derived Value can fall
// (spec.md §6). Grounded on cshekharsharma-go-crdt's PNCounter, generalized
// to the fixed-membership GCounter above.
type PNCounter struct {
	p *GCounter
	n *GCounter
}

// NewPNCounter constructs a PNCounter for self over members.
func NewPNCounter(self ReplicaID, members []ReplicaID) *PNCounter {
	return &PNCounter{
		p: NewGCounter(self, members),
		n: NewGCounter(self, members),
	}
}

// Increment adds step to the counter.
func (c *PNCounter) Increment(step uint64) {
	c.p.Increment(step)
}

// Decrement subtracts step from the counter by incrementing the negative
// side.
func (c *PNCounter) Decrement(step uint64) {
	c.n.Increment(step)
}

// Value returns P.Value() - N.Value().
func (c *PNCounter) Value() int64 {
	return int64(c.p.Value()) - int64(c.n.Value())
}

// Merge folds other's state into c by merging the two underlying
// GCounters independently.
func (c *PNCounter) Merge(other *PNCounter) error {
	if other == nil {
		return nil
	}
	if err := c.p.Merge(other.p); err != nil {
		return err
	}
	return c.n.Merge(other.n)
}
