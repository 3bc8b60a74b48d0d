package vclock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIncAndMerge(t *testing.T) {
	r1 := uuid.New()
	r2 := uuid.New()

	c1 := New().Inc(r1).Inc(r1)
	c2 := New().Inc(r2)

	merged := c1.Merge(c2)
	assert.Equal(t, uint64(2), merged[r1])
	assert.Equal(t, uint64(1), merged[r2])

	// original clocks untouched (pure value semantics).
	assert.Equal(t, uint64(2), c1[r1])
	assert.Equal(t, uint64(0), c1[r2])
}

func TestDominatesAndConcurrent(t *testing.T) {
	r1 := uuid.New()
	r2 := uuid.New()

	a := Clock{r1: 2, r2: 1}
	b := Clock{r1: 1, r2: 1}
	assert.True(t, a.Dominates(b))
	assert.False(t, b.Dominates(a))
	assert.False(t, a.Concurrent(b))

	c := Clock{r1: 3, r2: 0}
	assert.True(t, a.Concurrent(c), "neither dominates: a ahead on r2, c ahead on r1")
}

func TestEqual(t *testing.T) {
	r1 := uuid.New()
	a := Clock{r1: 4}
	b := Clock{r1: 4}
	assert.True(t, a.Equal(b))
	assert.True(t, New().Equal(New()))
}
