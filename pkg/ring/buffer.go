// ABOUTME: Generic fixed-capacity circular buffer with overflow policies
// ABOUTME: Backbone for chunk queues and the reusable output arena
package ring

// Policy selects what a push does when the buffer is full
type Policy int

const (
	// Discard drops the new item
	Discard Policy = iota
	// Overwrite evicts the item at the opposite end to make room
	Overwrite
	// ReplaceLast overwrites the most recently written slot in place
	ReplaceLast
)

func (p Policy) String() string {
	switch p {
	case Discard:
		return "discard"
	case Overwrite:
		return "overwrite"
	case ReplaceLast:
		return "replace-last"
	default:
		return "unknown"
	}
}

// Buffer is a fixed-capacity FIFO. Items are written at head and read
// from tail. It is not safe for concurrent use; owners synchronize.
type Buffer[T any] struct {
	items  []T
	head   int // next write
	tail   int // next read
	count  int
	policy Policy
}

// New creates a buffer holding at most size items
func New[T any](size int, policy Policy) *Buffer[T] {
	if size < 1 {
		size = 1
	}
	return &Buffer[T]{
		items:  make([]T, size),
		policy: policy,
	}
}

func (b *Buffer[T]) next(i int) int {
	i++
	if i == len(b.items) {
		return 0
	}
	return i
}

func (b *Buffer[T]) prev(i int) int {
	if i == 0 {
		return len(b.items) - 1
	}
	return i - 1
}

// PushHead appends item as the newest entry. Reports whether it was stored.
func (b *Buffer[T]) PushHead(item T) bool {
	if b.IsFull() {
		switch b.policy {
		case Overwrite:
			b.items[b.head] = item
			b.head = b.next(b.head)
			b.tail = b.next(b.tail)
			return true
		case ReplaceLast:
			b.items[b.prev(b.head)] = item
			return true
		default:
			return false
		}
	}

	b.items[b.head] = item
	b.head = b.next(b.head)
	b.count++
	return true
}

// PushTail inserts item as the oldest entry so it is the next one read.
// On a full buffer Overwrite evicts the newest item and ReplaceLast
// overwrites the current oldest.
func (b *Buffer[T]) PushTail(item T) bool {
	if b.IsFull() {
		switch b.policy {
		case Overwrite:
			b.head = b.prev(b.head)
			b.tail = b.prev(b.tail)
			b.items[b.tail] = item
			return true
		case ReplaceLast:
			b.items[b.tail] = item
			return true
		default:
			return false
		}
	}

	b.tail = b.prev(b.tail)
	b.items[b.tail] = item
	b.count++
	return true
}

// PopTail removes and returns the oldest item. An empty buffer yields the
// zero value; check IsEmpty first.
func (b *Buffer[T]) PopTail() T {
	var zero T
	if b.count == 0 {
		return zero
	}
	item := b.items[b.tail]
	b.tail = b.next(b.tail)
	b.count--
	return item
}

// PeekTail returns the oldest item without removing it
func (b *Buffer[T]) PeekTail() T {
	var zero T
	if b.count == 0 {
		return zero
	}
	return b.items[b.tail]
}

// PeekHead returns the slot that the next push will write. Its previous
// contents can be reused in place to avoid allocating new storage.
func (b *Buffer[T]) PeekHead() T {
	return b.items[b.head]
}

// RewindTail un-reads the last popped item. The slot still holds it, so
// nothing is copied. If a push refilled the buffer since the pop, the head
// moves back as well and one retained item is lost: the size never grows
// past capacity.
func (b *Buffer[T]) RewindTail() {
	b.tail = b.prev(b.tail)
	if b.count < len(b.items) {
		b.count++
		return
	}
	b.head = b.prev(b.head)
}

// IsFull reports whether the buffer holds Cap items
func (b *Buffer[T]) IsFull() bool { return b.count == len(b.items) }

// IsEmpty reports whether the buffer holds no items
func (b *Buffer[T]) IsEmpty() bool { return b.count == 0 }

// Len returns the number of stored items
func (b *Buffer[T]) Len() int { return b.count }

// Cap returns the fixed capacity
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Policy returns the overflow policy
func (b *Buffer[T]) Policy() Policy { return b.policy }

// Clear resets the indices. Slot contents are left in place for reuse.
func (b *Buffer[T]) Clear() {
	b.head = 0
	b.tail = 0
	b.count = 0
}
