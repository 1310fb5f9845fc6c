// ABOUTME: Mixer statistics collector
// ABOUTME: Constructed explicitly and shared by pointer between main and mix tracks
package mix

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats counts engine events. All methods are safe for concurrent use.
type Stats struct {
	enqueued      atomic.Int64
	dropped       atomic.Int64
	discardedLate atomic.Int64
	splits        atomic.Int64
	mixedWindows  atomic.Int64
	arenaFull     atomic.Int64
	bytesWritten  atomic.Int64
	abortedWrites atomic.Int64

	mu             sync.Mutex
	lastWrite      time.Time
	realtimeFactor float64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Enqueued       int64
	Dropped        int64
	DiscardedLate  int64
	Splits         int64
	MixedWindows   int64
	ArenaFull      int64
	BytesWritten   int64
	AbortedWrites  int64
	RealtimeFactor float64
}

// NewStats creates an empty collector
func NewStats() *Stats {
	return &Stats{}
}

// Snapshot returns the current counters by value
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	rate := s.realtimeFactor
	s.mu.Unlock()

	return StatsSnapshot{
		Enqueued:       s.enqueued.Load(),
		Dropped:        s.dropped.Load(),
		DiscardedLate:  s.discardedLate.Load(),
		Splits:         s.splits.Load(),
		MixedWindows:   s.mixedWindows.Load(),
		ArenaFull:      s.arenaFull.Load(),
		BytesWritten:   s.bytesWritten.Load(),
		AbortedWrites:  s.abortedWrites.Load(),
		RealtimeFactor: rate,
	}
}

// ObserveWrite records mediaUs of audio delivered to the sink at now and
// updates the instantaneous realtime factor. Two writes sharing a
// timestamp use a 1µs denominator.
func (s *Stats) ObserveWrite(mediaUs int64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastWrite.IsZero() {
		elapsed := now.Sub(s.lastWrite).Microseconds()
		if elapsed <= 0 {
			elapsed = 1
		}
		s.realtimeFactor = float64(mediaUs) / float64(elapsed)
	}
	s.lastWrite = now
}

// Reset zeroes every counter
func (s *Stats) Reset() {
	s.enqueued.Store(0)
	s.dropped.Store(0)
	s.discardedLate.Store(0)
	s.splits.Store(0)
	s.mixedWindows.Store(0)
	s.arenaFull.Store(0)
	s.bytesWritten.Store(0)
	s.abortedWrites.Store(0)

	s.mu.Lock()
	s.lastWrite = time.Time{}
	s.realtimeFactor = 0
	s.mu.Unlock()
}
