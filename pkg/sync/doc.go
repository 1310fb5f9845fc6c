// ABOUTME: Media clock package
// ABOUTME: Provides per-track virtual clocks for the mixing timeline
// Package sync provides the media clocks used to keep mix tracks aligned
// with the main playback timeline.
//
// Each track owns a TrackClock offset from the shared timeline origin. The
// main track pushes its playhead into every clock; when output is muted the
// clocks run unthrottled so dependent consumers never wait on audio.
//
// Example:
//
//	clock := sync.NewTrackClock(2_000_000, 24) // starts 2s into the mix
//	clock.SetFromMain(2_500_000)
//	local := clock.Position() // 500000
package sync
