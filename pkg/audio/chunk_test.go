// ABOUTME: Tests for chunk trimming and splitting
// ABOUTME: Verifies splits are frame aligned and never lose bytes
package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(f Format, startUs, durationUs int64) Chunk {
	data := make([]byte, f.UsToBytes(durationUs))
	for i := range data {
		data[i] = byte(i)
	}
	return Chunk{Data: data, StartUs: startUs, DurationUs: durationUs}
}

func TestChunkEnd(t *testing.T) {
	c := Chunk{StartUs: 1000, DurationUs: 2000}
	assert.Equal(t, int64(3000), c.EndUs())
}

func TestTrimFront(t *testing.T) {
	f := DefaultFormat()
	c := testChunk(f, 1000, 2000)
	orig := c.Data

	c.TrimFront(1500, f)

	assert.Equal(t, int64(1500), c.StartUs)
	assert.Equal(t, int64(1500), c.DurationUs)
	assert.Equal(t, int64(3000), c.EndUs())
	assert.Equal(t, f.UsToBytes(1500), c.Len())
	assert.Equal(t, orig[f.UsToBytes(500)], c.Data[0])
	assert.Zero(t, c.Len()%f.FrameSize())
}

func TestTrimFrontBeforeStartIsNoop(t *testing.T) {
	f := DefaultFormat()
	c := testChunk(f, 1000, 2000)
	n := c.Len()

	c.TrimFront(500, f)

	assert.Equal(t, int64(1000), c.StartUs)
	assert.Equal(t, n, c.Len())
}

func TestSplitAtConservesBytes(t *testing.T) {
	f := DefaultFormat()
	for _, at := range []int64{1001, 1500, 1777, 2500, 2999} {
		c := testChunk(f, 1000, 2000)
		total := c.Len()

		rest := c.SplitAt(at, f)

		require.Equal(t, total, c.Len()+rest.Len(), "split at %d", at)
		assert.Equal(t, at, c.EndUs())
		assert.Equal(t, at, rest.StartUs)
		assert.Equal(t, int64(3000), rest.EndUs())
		assert.Zero(t, c.Len()%f.FrameSize())
		assert.Zero(t, rest.Len()%f.FrameSize())
	}
}

func TestSplitAtSharesStorage(t *testing.T) {
	f := DefaultFormat()
	c := testChunk(f, 0, 2000)
	orig := c.Data

	rest := c.SplitAt(1000, f)

	assert.Same(t, &orig[c.Len()], &rest.Data[0])
	// the truncated view cannot grow into the remainder
	assert.Equal(t, c.Len(), cap(c.Data))
}

func TestSplitAtBounds(t *testing.T) {
	f := DefaultFormat()

	c := testChunk(f, 1000, 2000)
	rest := c.SplitAt(1000, f)
	assert.Zero(t, c.Len())
	assert.Equal(t, f.UsToBytes(2000), rest.Len())

	c = testChunk(f, 1000, 2000)
	rest = c.SplitAt(3000, f)
	assert.Zero(t, rest.Len())
	assert.Equal(t, int64(3000), rest.StartUs)
	assert.Equal(t, f.UsToBytes(2000), c.Len())
}

func TestByteLengthMatchesDuration(t *testing.T) {
	f := DefaultFormat()
	c := testChunk(f, 0, 21333)
	require.Equal(t, 4096, c.Len())

	for _, at := range []int64{3, 4000, 10001, 21000} {
		piece := c
		rest := piece.SplitAt(at, f)
		for _, p := range []Chunk{piece, rest} {
			diff := p.Len() - f.UsToBytes(p.DurationUs)
			assert.LessOrEqual(t, diff, f.FrameSize())
			assert.GreaterOrEqual(t, diff, -f.FrameSize())
		}
	}
}

func TestNewEndOfStream(t *testing.T) {
	c := NewEndOfStream(9, 5000)
	assert.True(t, c.EndOfStream)
	assert.Equal(t, uint64(9), c.Seq)
	assert.Equal(t, int64(5000), c.StartUs)
	assert.Zero(t, c.Len())
}
