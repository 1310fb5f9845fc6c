// ABOUTME: Per-track virtual media clock offset from the shared timeline
// ABOUTME: Supports an unthrottled mode that runs one frame ahead of observed frames
package sync

import (
	"sync"
	"time"
)

const (
	// DefaultMinFrameRate bounds how far an unthrottled clock runs ahead
	DefaultMinFrameRate = 10.0
)

// TrackClock tracks a source's logical playback position.
//
// Positions are track-local: main timeline time minus the track's origin
// offset. While throttled, the position only moves through Advance and
// SetFromMain. While unthrottled it reads as the last observed frame time
// plus one frame budget, so a consumer waiting on it never blocks.
type TrackClock struct {
	mu             sync.RWMutex
	originUs       int64 // track start on the main timeline
	positionUs     int64
	lastObservedUs int64
	unthrottled    bool
	frameBudgetUs  int64
}

// NewTrackClock creates a clock whose content starts at originUs on the
// main timeline. minFrameRate <= 0 selects DefaultMinFrameRate.
func NewTrackClock(originUs int64, minFrameRate float64) *TrackClock {
	if minFrameRate <= 0 {
		minFrameRate = DefaultMinFrameRate
	}
	return &TrackClock{
		originUs:      originUs,
		frameBudgetUs: int64(float64(time.Second/time.Microsecond) / minFrameRate),
	}
}

// Position returns the track-local position in microseconds
func (c *TrackClock) Position() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.positionLocked()
}

func (c *TrackClock) positionLocked() int64 {
	if c.unthrottled {
		return c.lastObservedUs + c.frameBudgetUs
	}
	return c.positionUs
}

// MainPosition returns the position translated onto the main timeline
func (c *TrackClock) MainPosition() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.positionLocked() + c.originUs
}

// SetFromMain aligns the clock with a main timeline position
func (c *TrackClock) SetFromMain(mainUs int64) {
	c.mu.Lock()
	c.positionUs = mainUs - c.originUs
	c.mu.Unlock()
}

// Advance moves the throttled position forward by deltaUs
func (c *TrackClock) Advance(deltaUs int64) {
	c.mu.Lock()
	c.positionUs += deltaUs
	c.mu.Unlock()
}

// ObserveFrame records that a consumer reached frameUs (track-local).
// The observed time never moves backward.
func (c *TrackClock) ObserveFrame(frameUs int64) {
	c.mu.Lock()
	if frameUs > c.lastObservedUs {
		c.lastObservedUs = frameUs
	}
	c.mu.Unlock()
}

// SetUnthrottled switches between explicit and free-running positions
func (c *TrackClock) SetUnthrottled(on bool) {
	c.mu.Lock()
	c.unthrottled = on
	c.mu.Unlock()
}

// Unthrottled reports whether the clock is free-running
func (c *TrackClock) Unthrottled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unthrottled
}

// OriginUs returns the track start on the main timeline
func (c *TrackClock) OriginUs() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.originUs
}

// FrameBudgetUs returns the unthrottled look-ahead
func (c *TrackClock) FrameBudgetUs() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frameBudgetUs
}

// Reset returns the clock to position zero, throttled, with nothing observed
func (c *TrackClock) Reset() {
	c.mu.Lock()
	c.positionUs = 0
	c.lastObservedUs = 0
	c.unthrottled = false
	c.mu.Unlock()
}
