package crdt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGCounterIncrementAndValue(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := NewGCounter(a, []ReplicaID{b})
	c.Increment(3)
	c.Increment(2)
	assert.Equal(t, uint64(5), c.Value())
}

func TestGCounterMergeIsCommutativeAssociativeIdempotent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	members := []ReplicaID{a, b, c}

	ca := NewGCounter(a, members)
	cb := NewGCounter(b, members)
	cc := NewGCounter(c, members)
	ca.Increment(5)
	cb.Increment(3)
	cc.Increment(7)

	// Commutative: merge order doesn't change the result.
	x := NewGCounter(a, members)
	x.Increment(5)
	require := assert.New(t)
	require.NoError(x.Merge(cb))
	require.NoError(x.Merge(cc))

	y := NewGCounter(a, members)
	y.Increment(5)
	require.NoError(y.Merge(cc))
	require.NoError(y.Merge(cb))

	require.Equal(x.Value(), y.Value())
	require.Equal(uint64(15), x.Value())

	// Idempotent.
	require.NoError(x.Merge(cb))
	require.Equal(uint64(15), x.Value())
}

func TestGCounterCausalQueriesViaVectorClock(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	members := []ReplicaID{a, b}

	ca := NewGCounter(a, members)
	cb := NewGCounter(b, members)
	ca.Increment(5)
	cb.Increment(3)

	assert.True(t, ca.ConcurrentWith(cb), "neither has observed the other's increment yet")
	assert.False(t, ca.HasSeen(cb))

	require := assert.New(t)
	require.NoError(ca.Merge(cb))
	assert.True(t, ca.HasSeen(cb), "after merging, ca reflects everything cb had")
	assert.False(t, ca.ConcurrentWith(cb))
}
