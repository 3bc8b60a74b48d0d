package crdt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBCounterDecrementRejectsOverdraft(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := NewBCounter(a, []ReplicaID{b})
	c.Increment(5)
	require.NoError(t, c.Decrement(5))
	assert.Equal(t, int64(0), c.Quota())
	assert.ErrorIs(t, c.Decrement(1), ErrInsufficientQuota)
}

func TestBCounterTransferMovesQuota(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	ca := NewBCounter(a, []ReplicaID{b})
	cb := NewBCounter(b, []ReplicaID{a})
	ca.Increment(10)

	require.NoError(t, ca.Transfer(b, 4))
	assert.Equal(t, int64(6), ca.Quota(), "sender's quota drops by the transferred amount")

	require.NoError(t, cb.Merge(ca))
	assert.Equal(t, int64(4), cb.Quota(), "receiver's quota rises once it observes the transfer")
}

func TestBCounterTransferRejectsOverdraft(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := NewBCounter(a, []ReplicaID{b})
	c.Increment(3)
	assert.ErrorIs(t, c.Transfer(b, 4), ErrInsufficientQuota)
}

func TestBCounterMergeTakesMaxPerPair(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	ca := NewBCounter(a, []ReplicaID{b})
	ca.Increment(10)
	require.NoError(t, ca.Transfer(b, 3))

	replay := NewBCounter(a, []ReplicaID{b})
	replay.Increment(10)
	require.NoError(t, replay.Transfer(b, 3))
	require.NoError(t, replay.Transfer(b, 2)) // later transfer, larger cumulative total

	require.NoError(t, ca.Merge(replay))
	assert.Equal(t, uint64(5), ca.quotas[pairKey{Sender: a, Receiver: b}])
}
