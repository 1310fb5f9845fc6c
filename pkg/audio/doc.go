// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Chunk and PCM time/byte conversions
// Package audio provides the PCM types shared by the mixing engine.
//
// This package defines:
//   - Format: the fixed engine format (sample rate, channels, 16-bit depth)
//   - Chunk: a timestamped span of PCM bytes that can be trimmed and split
//
// All conversions between microseconds and bytes round through the frame
// size, so a split never lands in the middle of a frame.
//
// Example:
//
//	format := audio.DefaultFormat()
//	n := format.UsToBytes(21333) // 4096 bytes at 48kHz stereo
//
//	rest := chunk.SplitAt(chunk.StartUs+10000, format)
package audio
