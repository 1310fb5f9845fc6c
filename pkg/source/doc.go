// ABOUTME: Source package for mix track producers
// ABOUTME: Provides the Feeder that pumps decoded streams into tracks
// Package source feeds decoded audio into mix tracks.
//
// A Feeder owns the producer side of one MixTrack: it cuts the stream into
// frame aligned chunks, stamps them on the main timeline and closes the
// track at end of stream.
//
//	track := mix.NewMixTrack(mix.TrackConfig{Name: "vocals", Format: format})
//	go source.New(track, stream).Run(ctx)
package source
