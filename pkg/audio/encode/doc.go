// ABOUTME: Audio encoder package for re-encoding mixed PCM
// ABOUTME: Provides Encoder interface, PCM and Opus encoders and packet framing
// Package encode provides audio encoders for the render path.
//
// Supports: PCM (16-bit and 24-bit output), Opus
//
// Encoders accept 16-bit interleaved samples, the engine's native format.
// Opus packets are framed with PacketWriter so they can be read back with
// PacketReader.
//
// Example:
//
//	encoder, err := encode.NewOpus(format)
//	packet, err := encoder.Encode(frame)
package encode
