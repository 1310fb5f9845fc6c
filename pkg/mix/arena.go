// ABOUTME: Slot-indexed pool of reusable output chunks
// ABOUTME: Buffers are allocated once; checkout and finalize recycle them in order
package mix

import (
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/ring"
)

type slot struct {
	buf   []byte
	chunk audio.Chunk
}

// arena hands out fixed-size output chunks without allocating.
// A checked-out chunk stays valid until its slot comes around again,
// which needs Cap further checkouts.
type arena struct {
	slots      *ring.Buffer[*slot]
	chunkBytes int
}

func newArena(capacity, chunkBytes int) *arena {
	slots := ring.New[*slot](capacity, ring.Overwrite)
	for i := 0; i < slots.Cap(); i++ {
		slots.PushHead(&slot{buf: make([]byte, chunkBytes)})
	}
	slots.Clear()

	return &arena{slots: slots, chunkBytes: chunkBytes}
}

// Checkout returns the next free slot's chunk with its view sized to n
// bytes and zeroed. It fails when every slot holds an unplayed chunk.
func (a *arena) Checkout(n int) (*audio.Chunk, bool) {
	if a.slots.IsFull() {
		return nil, false
	}
	if n > a.chunkBytes {
		n = a.chunkBytes
	}

	s := a.slots.PeekHead()
	clear(s.buf[:n])
	s.chunk = audio.Chunk{Data: s.buf[:n]}
	return &s.chunk, true
}

// Finalize commits the chunk returned by the last Checkout
func (a *arena) Finalize() {
	a.slots.PushHead(a.slots.PeekHead())
}

// Pop removes the oldest finalized chunk
func (a *arena) Pop() (audio.Chunk, bool) {
	if a.slots.IsEmpty() {
		return audio.Chunk{}, false
	}
	return a.slots.PopTail().chunk, true
}

// PeekStart returns the start time of the oldest finalized chunk
func (a *arena) PeekStart() (int64, bool) {
	if a.slots.IsEmpty() {
		return 0, false
	}
	return a.slots.PeekTail().chunk.StartUs, true
}

func (a *arena) Free() int     { return a.slots.Cap() - a.slots.Len() }
func (a *arena) Len() int      { return a.slots.Len() }
func (a *arena) IsEmpty() bool { return a.slots.IsEmpty() }
func (a *arena) Clear()        { a.slots.Clear() }
