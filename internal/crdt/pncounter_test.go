package crdt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNCounterIncrementDecrement(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := NewPNCounter(a, []ReplicaID{b})
	c.Increment(10)
	c.Decrement(4)
	assert.Equal(t, int64(6), c.Value())
}

func TestPNCounterMergeAcrossReplicas(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	members := []ReplicaID{a, b}

	ca := NewPNCounter(a, members)
	ca.Increment(5)
	cb := NewPNCounter(b, members)
	cb.Decrement(2)

	require.NoError(t, ca.Merge(cb))
	assert.Equal(t, int64(3), ca.Value())
}
