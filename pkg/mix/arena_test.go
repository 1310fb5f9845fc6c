// ABOUTME: Tests for the output chunk arena
// ABOUTME: Verifies ordering, capacity limits and storage reuse
package mix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaCheckoutFinalizePop(t *testing.T) {
	a := newArena(4, 16)

	for i := 0; i < 3; i++ {
		c, ok := a.Checkout(16)
		require.True(t, ok)
		c.StartUs = int64(i * 100)
		a.Finalize()
	}
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 1, a.Free())

	start, ok := a.PeekStart()
	require.True(t, ok)
	assert.Equal(t, int64(0), start)

	for i := 0; i < 3; i++ {
		c, ok := a.Pop()
		require.True(t, ok)
		assert.Equal(t, int64(i*100), c.StartUs)
	}
	_, ok = a.Pop()
	assert.False(t, ok)
}

func TestArenaCheckoutFailsWhenFull(t *testing.T) {
	a := newArena(2, 8)
	for i := 0; i < 2; i++ {
		_, ok := a.Checkout(8)
		require.True(t, ok)
		a.Finalize()
	}

	_, ok := a.Checkout(8)
	assert.False(t, ok)
}

func TestArenaReusesStorage(t *testing.T) {
	a := newArena(2, 8)

	first, _ := a.Checkout(8)
	firstData := &first.Data[0]
	a.Finalize()
	a.Pop()

	a.Checkout(8)
	a.Finalize()
	a.Pop()

	again, ok := a.Checkout(8)
	require.True(t, ok)
	assert.Same(t, firstData, &again.Data[0])
}

func TestArenaCheckoutZeroesAndSizes(t *testing.T) {
	a := newArena(1, 8)

	c, _ := a.Checkout(8)
	for i := range c.Data {
		c.Data[i] = 0xff
	}
	a.Finalize()
	a.Pop()

	c, ok := a.Checkout(20)
	require.True(t, ok)
	assert.Len(t, c.Data, 8, "capped at chunk size")
	assert.Equal(t, make([]byte, 8), c.Data)

	c, _ = a.Checkout(4)
	assert.Len(t, c.Data, 4)
}

func TestArenaClear(t *testing.T) {
	a := newArena(3, 8)
	a.Checkout(8)
	a.Finalize()

	a.Clear()

	assert.True(t, a.IsEmpty())
	assert.Equal(t, 3, a.Free())
}
