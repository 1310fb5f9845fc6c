// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms frames of 16-bit samples to Opus packets
package encode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// MaxOpusPacket bounds a single encoded packet
const MaxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int
	data       []byte
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format) (*OpusEncoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	return &OpusEncoder{
		encoder:    encoder,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
		frameSize:  format.SampleRate / 50, // 20ms frame
		data:       make([]byte, MaxOpusPacket),
	}, nil
}

// FrameSamples returns the interleaved sample count of one 20ms frame
func (e *OpusEncoder) FrameSamples() int {
	return e.frameSize * e.channels
}

// Encode converts exactly one frame of samples to an Opus packet. The
// returned slice is only valid until the next call.
func (e *OpusEncoder) Encode(samples []int16) ([]byte, error) {
	if len(samples) != e.FrameSamples() {
		return nil, fmt.Errorf("opus frame needs %d samples, got %d", e.FrameSamples(), len(samples))
	}

	n, err := e.encoder.Encode(samples, e.data)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}
	return e.data[:n], nil
}

// SetBitrate changes the target bitrate in bits per second
func (e *OpusEncoder) SetBitrate(bps int) error {
	if err := e.encoder.SetBitrate(bps); err != nil {
		return fmt.Errorf("failed to set opus bitrate: %w", err)
	}
	return nil
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
