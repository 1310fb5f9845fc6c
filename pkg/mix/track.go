// ABOUTME: Per-source chunk buffering and time-range extraction
// ABOUTME: Splits chunks at window boundaries and requeues the remainder
package mix

import (
	"log"
	stdsync "sync"

	"github.com/google/uuid"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/ring"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/sync"
)

const (
	// DefaultTrackCapacity is the number of chunks a mix track buffers
	DefaultTrackCapacity = 250
)

// TrackConfig holds mix track configuration
type TrackConfig struct {
	Name         string
	OriginUs     int64 // start of the track's content on the main timeline
	Capacity     int
	MinFrameRate float64
	Format       audio.Format
	Stats        *Stats
}

// MixTrack buffers one source's decoded chunks until the main track pulls
// them. One producer and one consumer may use it concurrently.
type MixTrack struct {
	id     uuid.UUID
	name   string
	format audio.Format
	clock  *sync.TrackClock

	mu              stdsync.Mutex
	buf             *ring.Buffer[audio.Chunk]
	closed          bool
	bufferedUntilUs int64
	stats           *Stats
}

// NewMixTrack creates a track with defaults filled in
func NewMixTrack(cfg TrackConfig) *MixTrack {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultTrackCapacity
	}
	if cfg.Format.SampleRate == 0 {
		cfg.Format = audio.DefaultFormat()
	}
	if cfg.Stats == nil {
		cfg.Stats = NewStats()
	}

	id := uuid.New()
	if cfg.Name == "" {
		cfg.Name = id.String()[:8]
	}

	return &MixTrack{
		id:              id,
		name:            cfg.Name,
		format:          cfg.Format,
		clock:           sync.NewTrackClock(cfg.OriginUs, cfg.MinFrameRate),
		buf:             ring.New[audio.Chunk](cfg.Capacity, ring.Discard),
		bufferedUntilUs: cfg.OriginUs,
		stats:           cfg.Stats,
	}
}

// Enqueue appends a decoded chunk. It never blocks on the consumer: when
// the buffer is full the chunk is dropped and false is returned.
// An end-of-stream chunk closes the track instead of being buffered.
func (t *MixTrack) Enqueue(c audio.Chunk) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c.EndOfStream {
		t.closed = true
		return true
	}

	if !t.buf.PushHead(c) {
		t.stats.dropped.Add(1)
		if t.stats.dropped.Load()%50 == 1 {
			log.Printf("Mix track %s: buffer full, dropped chunk seq=%d", t.name, c.Seq)
		}
		return false
	}

	t.stats.enqueued.Add(1)
	if end := c.EndUs(); end > t.bufferedUntilUs {
		t.bufferedUntilUs = end
	}
	return true
}

// FirstPresentationTimeUs returns the start of the oldest buffered chunk,
// or audio.InfiniteUs when nothing is buffered
func (t *MixTrack) FirstPresentationTimeUs() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buf.IsEmpty() {
		return audio.InfiniteUs
	}
	return t.buf.PeekTail().StartUs
}

// PopChunksInRange removes the audio covering [fromUs, toUs) and appends
// it to dst in order. Chunks ending before fromUs are discarded. A chunk
// reaching past toUs is split; its remainder goes back to the front of
// the buffer for the next window.
func (t *MixTrack) PopChunksInRange(fromUs, toUs int64, dst []audio.Chunk) []audio.Chunk {
	t.mu.Lock()
	defer t.mu.Unlock()

	for !t.buf.IsEmpty() {
		c := t.buf.PopTail()

		if c.EndUs() <= fromUs {
			t.stats.discardedLate.Add(1)
			continue
		}
		if c.StartUs >= toUs {
			t.buf.RewindTail()
			break
		}
		if c.StartUs < fromUs {
			c.TrimFront(fromUs, t.format)
		}
		if c.EndUs() > toUs {
			rest := c.SplitAt(toUs, t.format)
			t.buf.PushTail(rest)
			t.stats.splits.Add(1)
			dst = append(dst, c)
			break
		}
		dst = append(dst, c)
	}
	return dst
}

// DiscardBefore drops buffered chunks that end at or before us and
// returns how many were dropped. A chunk reaching past us is kept whole.
func (t *MixTrack) DiscardBefore(us int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	dropped := 0
	for !t.buf.IsEmpty() {
		if t.buf.PopTail().EndUs() > us {
			t.buf.RewindTail()
			break
		}
		t.stats.discardedLate.Add(1)
		dropped++
	}
	return dropped
}

// Clock returns the track's media clock
func (t *MixTrack) Clock() *sync.TrackClock { return t.clock }

// ObserveFrame reports that a consumer reached frameUs (track-local)
func (t *MixTrack) ObserveFrame(frameUs int64) { t.clock.ObserveFrame(frameUs) }

// Reset empties the buffer, reopens the track and resets its clock
func (t *MixTrack) Reset() {
	t.mu.Lock()
	t.buf.Clear()
	t.closed = false
	t.bufferedUntilUs = t.clock.OriginUs()
	t.mu.Unlock()

	t.clock.Reset()
}

// Closed reports whether the producer has signaled end of stream
func (t *MixTrack) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Ended reports whether the track is closed and fully consumed
func (t *MixTrack) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed && t.buf.IsEmpty()
}

// BufferedUntilUs returns the end of the newest chunk ever enqueued
func (t *MixTrack) BufferedUntilUs() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bufferedUntilUs
}

// Len returns the number of buffered chunks
func (t *MixTrack) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Len()
}

// Cap returns the buffer capacity in chunks
func (t *MixTrack) Cap() int { return t.buf.Cap() }

// IsFull reports whether the next Enqueue would drop
func (t *MixTrack) IsFull() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.IsFull()
}

func (t *MixTrack) ID() uuid.UUID { return t.id }
func (t *MixTrack) Name() string  { return t.name }

func (t *MixTrack) setStats(s *Stats) {
	t.mu.Lock()
	t.stats = s
	t.mu.Unlock()
}

// bufferState returns BufferedUntilUs and Closed under one lock
func (t *MixTrack) bufferState() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bufferedUntilUs, t.closed
}
