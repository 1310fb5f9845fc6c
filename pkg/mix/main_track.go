// ABOUTME: Main output timeline that mixes every mix track into one stream
// ABOUTME: Owns the playhead, the output arena and the playback drain loop
package mix

import (
	"context"
	"fmt"
	"log"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

const (
	// DefaultChunkBytes is the output chunk size (~21.3ms at 48kHz stereo)
	DefaultChunkBytes = 4096
	// DefaultOutputCapacity is the number of mixed chunks kept ready
	DefaultOutputCapacity = 250
	// DefaultBufferAhead is how far past the playhead the loop mixes
	DefaultBufferAhead = 200 * time.Millisecond
	// DefaultTickInterval paces the playback loop
	DefaultTickInterval = 10 * time.Millisecond
)

// State is the main track's playback state
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Config holds main track configuration
type Config struct {
	Format         audio.Format
	ChunkBytes     int
	OutputCapacity int
	BufferAhead    time.Duration
	TickInterval   time.Duration
	Overflow       Overflow

	// Offline never mixes past audio a live producer has not delivered yet
	Offline bool

	Sink  Sink
	Stats *Stats

	// OnEnd fires once every track has ended and all output has drained
	OnEnd func()
}

// MainTrack mixes its mix tracks into one timeline and plays it out.
//
// Run owns mixing and draining. Control methods may be called from any
// goroutine; they take effect at the next chunk boundary.
type MainTrack struct {
	cfg   Config
	stats *Stats

	state      atomic.Int32
	playheadUs atomic.Int64

	mu            stdsync.Mutex
	tracks        []*MixTrack
	arena         *arena
	playheadKnown bool
	mixedToUs     int64
	muted         bool
	seq           uint64
	pending       []audio.Chunk
}

// NewMainTrack creates a stopped main track with defaults filled in
func NewMainTrack(cfg Config) *MainTrack {
	if cfg.Format.SampleRate == 0 {
		cfg.Format = audio.DefaultFormat()
	}
	if cfg.ChunkBytes <= 0 {
		cfg.ChunkBytes = DefaultChunkBytes
	}
	cfg.ChunkBytes = cfg.Format.AlignBytes(cfg.ChunkBytes)
	if cfg.ChunkBytes == 0 {
		cfg.ChunkBytes = cfg.Format.FrameSize()
	}
	if cfg.OutputCapacity <= 0 {
		cfg.OutputCapacity = DefaultOutputCapacity
	}
	if cfg.BufferAhead <= 0 {
		cfg.BufferAhead = DefaultBufferAhead
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Stats == nil {
		cfg.Stats = NewStats()
	}

	return &MainTrack{
		cfg:   cfg,
		stats: cfg.Stats,
		arena: newArena(cfg.OutputCapacity, cfg.ChunkBytes),
	}
}

// AddMixTrack registers a track. Tracks can only be added while stopped.
func (m *MainTrack) AddMixTrack(t *MixTrack) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() != Stopped {
		return fmt.Errorf("add track %s: %w", t.Name(), ErrSessionActive)
	}

	t.setStats(m.stats)
	t.Clock().SetUnthrottled(m.muted)
	m.tracks = append(m.tracks, t)
	log.Printf("Main track: added mix track %s (origin %dµs)", t.Name(), t.Clock().OriginUs())
	return nil
}

// Tracks returns the registered mix tracks
func (m *MainTrack) Tracks() []*MixTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MixTrack(nil), m.tracks...)
}

// State returns the current playback state
func (m *MainTrack) State() State { return State(m.state.Load()) }

// PlayheadUs returns the main timeline position of the last audio played
func (m *MainTrack) PlayheadUs() int64 { return m.playheadUs.Load() }

// Stats returns the shared collector
func (m *MainTrack) Stats() *Stats { return m.stats }

// Format returns the engine format
func (m *MainTrack) Format() audio.Format { return m.cfg.Format }

// Muted reports whether output is muted
func (m *MainTrack) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// Buffered returns the number of mixed chunks waiting to be played
func (m *MainTrack) Buffered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.arena.Len()
}

// Start begins or resumes playback. From Stopped the playhead moves to the
// earliest buffered audio; with nothing buffered it stays unresolved until
// the loop sees audio.
func (m *MainTrack) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.State() {
	case Playing:
		return
	case Stopped:
		m.playheadKnown = false
		if first := m.resolveStartLocked(); first != audio.InfiniteUs {
			m.setPlayheadLocked(first)
		}
	}

	m.state.Store(int32(Playing))
	log.Printf("Main track: playing from %dµs", m.playheadUs.Load())
}

// Pause halts draining without discarding anything
func (m *MainTrack) Pause() {
	m.state.CompareAndSwap(int32(Playing), int32(Paused))
}

// Stop halts playback, empties every track and the output, and rewinds
// the playhead to zero. Safe to call from any goroutine.
func (m *MainTrack) Stop() {
	m.state.Store(int32(Stopped))

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tracks {
		t.Reset()
		t.Clock().SetUnthrottled(m.muted)
	}
	m.arena.Clear()
	m.mixedToUs = 0
	m.playheadKnown = false
	m.playheadUs.Store(0)
}

// Reset drops mixed but unplayed output. The playhead is resolved again
// from the tracks on the next loop iteration.
func (m *MainTrack) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.arena.Clear()
	m.mixedToUs = 0
	m.playheadKnown = false
}

// Mute stops writing to the sink. Muted, the track clocks run unthrottled;
// unmuting pulls every clock back to the playhead.
func (m *MainTrack) Mute(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.muted = on
	playhead := m.playheadUs.Load()
	for _, t := range m.tracks {
		t.Clock().SetUnthrottled(on)
		if !on {
			t.Clock().SetFromMain(playhead)
		}
	}
}

// EarliestMediaClockTimeUs returns the smallest track clock position on
// the main timeline, or audio.InfiniteUs without tracks
func (m *MainTrack) EarliestMediaClockTimeUs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	earliest := audio.InfiniteUs
	for _, t := range m.tracks {
		earliest = min(earliest, t.Clock().MainPosition())
	}
	return earliest
}

// FirstAudioPresentationTimeUs returns the earliest buffered audio across
// tracks, or audio.InfiniteUs when none is buffered
func (m *MainTrack) FirstAudioPresentationTimeUs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.firstPresentationLocked()
}

func (m *MainTrack) firstPresentationLocked() int64 {
	first := audio.InfiniteUs
	for _, t := range m.tracks {
		first = min(first, t.FirstPresentationTimeUs())
	}
	return first
}

// resolveStartLocked picks the initial playhead. Offline, every open
// track must have buffered audio so none is skipped as late.
func (m *MainTrack) resolveStartLocked() int64 {
	if m.cfg.Offline {
		for _, t := range m.tracks {
			if !t.Closed() && t.FirstPresentationTimeUs() == audio.InfiniteUs {
				return audio.InfiniteUs
			}
		}
	}
	return m.firstPresentationLocked()
}

func (m *MainTrack) setPlayheadLocked(us int64) {
	m.playheadUs.Store(us)
	m.playheadKnown = true
	for _, t := range m.tracks {
		t.Clock().SetFromMain(us)
	}
}

// BufferAndMixToUs mixes output chunks covering the timeline from the
// current mix position up to targetUs. It returns the number of chunks
// produced, which is limited by free output slots.
func (m *MainTrack) BufferAndMixToUs(targetUs int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bufferAndMixLocked(targetUs)
}

func (m *MainTrack) bufferAndMixLocked(targetUs int64) int {
	if len(m.tracks) == 0 {
		return 0
	}

	f := m.cfg.Format
	cursor := max(m.playheadUs.Load(), m.mixedToUs)
	targetUs = m.clampTargetLocked(targetUs)
	chunkUs := f.BytesToUs(m.cfg.ChunkBytes)
	gain := 1 / float64(len(m.tracks))

	produced := 0
	for cursor < targetUs {
		dur := min(targetUs-cursor, chunkUs)
		n := min(f.UsToBytes(dur), m.cfg.ChunkBytes)
		if n <= 0 {
			break
		}

		out, ok := m.arena.Checkout(n)
		if !ok {
			m.stats.arenaFull.Add(1)
			break
		}
		m.seq++
		out.Seq = m.seq
		out.StartUs = cursor
		out.DurationUs = dur

		end := cursor + dur
		m.pending = m.pending[:0]
		for _, t := range m.tracks {
			m.pending = t.PopChunksInRange(cursor, end, m.pending)
		}
		if len(m.pending) > 0 {
			Mix(out, m.pending, gain, m.cfg.Overflow, f)
		}
		m.arena.Finalize()
		m.stats.mixedWindows.Add(1)

		cursor = end
		m.mixedToUs = end
		produced++
	}

	// audio delivered behind the mix position can no longer be heard
	for _, t := range m.tracks {
		if n := t.DiscardBefore(cursor); n > 0 {
			log.Printf("Mix track %s: discarded %d late chunks before %dµs", t.Name(), n, cursor)
		}
	}

	clear(m.pending)
	m.pending = m.pending[:0]
	return produced
}

// clampTargetLocked keeps the mix from running past the audio producers
// can still deliver: offline it stops at the least buffered open track,
// and once every track is closed it stops at the end of the last one.
func (m *MainTrack) clampTargetLocked(targetUs int64) int64 {
	allClosed := true
	openUntil := audio.InfiniteUs
	var lastEnd int64
	for i, t := range m.tracks {
		until, closed := t.bufferState()
		if i == 0 || until > lastEnd {
			lastEnd = until
		}
		if !closed {
			allClosed = false
			openUntil = min(openUntil, until)
		}
	}

	if allClosed {
		return min(targetUs, lastEnd)
	}
	if m.cfg.Offline {
		return min(targetUs, openUntil)
	}
	return targetUs
}

// Run drives playback until ctx is done
func (m *MainTrack) Run(ctx context.Context) error {
	if m.cfg.Sink == nil {
		return ErrNoSink
	}

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		progressed := m.Step()

		if m.cfg.Offline && progressed {
			select {
			case <-ctx.Done():
				return nil
			default:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Step runs one loop iteration: resolve the playhead, mix ahead of it and
// drain ready output. It reports whether any chunk was drained.
func (m *MainTrack) Step() bool {
	m.mu.Lock()

	if m.State() != Playing {
		m.mu.Unlock()
		return false
	}

	if !m.playheadKnown {
		first := m.resolveStartLocked()
		if first == audio.InfiniteUs {
			ended := m.sessionEndedLocked()
			m.mu.Unlock()
			if ended {
				m.finish()
			}
			return false
		}
		m.setPlayheadLocked(first)
	}

	m.bufferAndMixLocked(m.playheadUs.Load() + m.cfg.BufferAhead.Microseconds())
	drained := m.drainLocked()
	ended := m.sessionEndedLocked()
	m.mu.Unlock()

	if ended {
		m.finish()
	}
	return drained > 0
}

func (m *MainTrack) finish() {
	if !m.state.CompareAndSwap(int32(Playing), int32(Stopped)) {
		return
	}
	log.Printf("Main track: all tracks ended at %dµs", m.playheadUs.Load())
	if m.cfg.OnEnd != nil {
		m.cfg.OnEnd()
	}
}

func (m *MainTrack) sessionEndedLocked() bool {
	if len(m.tracks) == 0 || !m.arena.IsEmpty() {
		return false
	}
	for _, t := range m.tracks {
		if !t.Ended() {
			return false
		}
	}
	return true
}

// drainLocked plays every ready chunk, checking the state between chunks
func (m *MainTrack) drainLocked() int {
	drained := 0
	for m.State() == Playing {
		c, ok := m.arena.Pop()
		if !ok {
			break
		}
		if m.muted {
			m.skipChunkLocked(c)
		} else {
			m.writeChunkLocked(c)
		}
		drained++
	}
	return drained
}

// skipChunkLocked consumes a chunk without output. The clocks observe its
// end and run a frame budget ahead; the playhead follows the slowest clock
// but never passes audio that has been mixed.
func (m *MainTrack) skipChunkLocked(c audio.Chunk) {
	playhead := c.EndUs()
	for _, t := range m.tracks {
		clk := t.Clock()
		clk.ObserveFrame(c.EndUs() - clk.OriginUs())
		playhead = min(playhead, clk.MainPosition())
	}
	m.playheadUs.Store(playhead)
}

// writeChunkLocked writes c in sub-writes no larger than the sink buffer.
// A write accepting nothing abandons the rest of the chunk.
func (m *MainTrack) writeChunkLocked(c audio.Chunk) {
	sink := m.cfg.Sink
	limit := sink.BufferSize()
	if limit <= 0 {
		limit = len(c.Data)
	}

	written := 0
	for written < len(c.Data) {
		n := min(limit, len(c.Data)-written)
		accepted, err := sink.Write(c.Data[written : written+n])
		if accepted <= 0 || err != nil {
			m.stats.abortedWrites.Add(1)
			log.Printf("Main track: sink write aborted chunk seq=%d at %d/%d bytes: accepted=%d err=%v",
				c.Seq, written, len(c.Data), accepted, err)
			if accepted > 0 {
				written += accepted
			}
			break
		}
		written += accepted
	}

	mediaUs := m.cfg.Format.BytesToUs(written)
	m.stats.bytesWritten.Add(int64(written))
	m.stats.ObserveWrite(mediaUs, time.Now())
	m.setPlayheadLocked(c.StartUs + mediaUs)
}
