package crdt

import "sync"

// pairKey identifies a directed (sender, receiver) edge in a BCounter's
// transferred-quota matrix.
type pairKey struct {
	Sender   ReplicaID
	Receiver ReplicaID
}

// BCounter is a bounded counter CRDT: a PNCounter plus a per-ordered-pair
// matrix tracking how much quota each replica has transferred to each
// other replica, so that the total available quota can never go negative
// across the whole system even though any single replica can decrement
// locally (spec.md §6).
//
// Per spec.md §9's resolved open question, Transfer has no separate sender
// parameter -- the sender is always the counter's own owning replica,
// fixing the source's undeclared-$sender_id bug.
type BCounter struct {
	mu      sync.RWMutex
	self    ReplicaID
	counter *PNCounter
	quotas  map[pairKey]uint64 // cumulative amount transferred, monotonically increasing per pair
}

// NewBCounter constructs a BCounter for self over members. The counter
// starts with self's full initial quota uncommitted to any transfer.
func NewBCounter(self ReplicaID, members []ReplicaID) *BCounter {
	return &BCounter{
		self:    self,
		counter: NewPNCounter(self, members),
		quotas:  make(map[pairKey]uint64),
	}
}

// Increment adds step to the counter's local quota.
func (b *BCounter) Increment(step uint64) {
	b.counter.Increment(step)
}

// Quota returns the quota currently available to this replica: the
// PNCounter's value, minus everything this replica has sent away, plus
// everything it has received.
func (b *BCounter) Quota() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.quotaLocked()
}

func (b *BCounter) quotaLocked() int64 {
	value := b.counter.Value()
	var sent, received uint64
	for pair, amount := range b.quotas {
		if pair.Sender == b.self {
			sent += amount
		}
		if pair.Receiver == b.self {
			received += amount
		}
	}
	return value - int64(sent) + int64(received)
}

// Decrement subtracts amount from the counter, rejecting the operation with
// ErrInsufficientQuota if the replica's available quota is less than
// amount. The tree state is left unchanged on rejection.
func (b *BCounter) Decrement(amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.quotaLocked() < int64(amount) {
		return ErrInsufficientQuota
	}
	b.counter.Decrement(amount)
	return nil
}

// Transfer moves amount of quota from this replica to to, rejecting with
// ErrInsufficientQuota when this replica's available quota is less than
// amount. The sender is always b.self; there is no separate sender
// parameter (spec.md §9).
func (b *BCounter) Transfer(to ReplicaID, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.quotaLocked() < int64(amount) {
		return ErrInsufficientQuota
	}
	key := pairKey{Sender: b.self, Receiver: to}
	b.quotas[key] += amount
	return nil
}

// Merge folds other's state into b: the underlying PNCounter merges as
// usual, and the quota matrix merges per pair by taking the maximum
// cumulative amount observed for each (sender, receiver) edge.
func (b *BCounter) Merge(other *BCounter) error {
	if other == nil {
		return nil
	}
	if err := b.counter.Merge(other.counter); err != nil {
		return err
	}

	other.mu.RLock()
	snapshot := make(map[pairKey]uint64, len(other.quotas))
	for k, v := range other.quotas {
		snapshot[k] = v
	}
	other.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range snapshot {
		if v > b.quotas[k] {
			b.quotas[k] = v
		}
	}
	return nil
}
