// ABOUTME: Rolling multi-track mixing engine
// ABOUTME: Mix tracks buffer sources; the main track mixes and plays them out
// Package mix merges independently clocked PCM sources into one gapless
// output stream.
//
// Producers push decoded chunks into a MixTrack. The MainTrack pulls fixed
// size windows from every track, splitting chunks exactly at window
// boundaries, mixes them with a flat 1/N gain into recycled output chunks
// and drains those to a Sink.
//
// Example:
//
//	main := mix.NewMainTrack(mix.Config{Sink: sink})
//	track := mix.NewMixTrack(mix.TrackConfig{Name: "music"})
//	main.AddMixTrack(track)
//
//	go producer(track) // track.Enqueue(chunk) ...
//
//	main.Start()
//	main.Run(ctx)
package mix
