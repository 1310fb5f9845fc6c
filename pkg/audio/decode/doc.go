// ABOUTME: Audio decoder package for feeding mix tracks
// ABOUTME: Provides the Stream interface and decoders for common file formats
// Package decode turns audio files into 16-bit PCM streams.
//
// Supports: MP3, FLAC, WAV, AIFF, Ogg Vorbis, framed Opus packets,
// raw PCM (16-bit and 24-bit) and a generated test tone.
//
// All decoders implement Stream, an io.Reader of s16le interleaved
// samples. Sample rate and channel layout are kept as decoded; Open
// rejects streams that do not match the engine format.
//
// Example:
//
//	stream, err := decode.Open("song.flac", audio.DefaultFormat())
//	defer stream.Close()
//	n, err := stream.Read(buf)
package decode
