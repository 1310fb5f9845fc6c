// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests Opus encoding functionality
package encode

import (
	"strings"
	"testing"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid Opus 48kHz stereo",
			format: audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16},
		},
		{
			name:   "valid Opus 48kHz mono",
			format: audio.Format{Codec: "opus", SampleRate: 48000, Channels: 1, BitDepth: 16},
		},
		{
			name:        "invalid codec",
			format:      audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16},
			wantErr:     true,
			errContains: "invalid codec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewOpus() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewOpus() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpus() unexpected error = %v", err)
			}
			if encoder.FrameSamples() != 960*tt.format.Channels {
				t.Errorf("FrameSamples() = %d, want %d", encoder.FrameSamples(), 960*tt.format.Channels)
			}
			encoder.Close()
		})
	}
}

func newStereoOpus(t *testing.T) *OpusEncoder {
	t.Helper()
	encoder, err := NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	return encoder
}

func TestOpusEncoder_Encode(t *testing.T) {
	encoder := newStereoOpus(t)
	defer encoder.Close()

	samples := make([]int16, encoder.FrameSamples())
	for i := range samples {
		samples[i] = int16((i % 1000) * 32)
	}

	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if len(output) == 0 {
		t.Errorf("Encode() returned empty output")
	}
	if len(output) > MaxOpusPacket {
		t.Errorf("Encode() output size %d exceeds max Opus packet size %d", len(output), MaxOpusPacket)
	}
}

func TestOpusEncoder_EncodeSilence(t *testing.T) {
	encoder := newStereoOpus(t)
	defer encoder.Close()

	output, err := encoder.Encode(make([]int16, encoder.FrameSamples()))
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	// Even silence should produce valid Opus packets
	if len(output) == 0 {
		t.Errorf("Encode() returned empty output for silence")
	}
}

func TestOpusEncoder_RejectsPartialFrame(t *testing.T) {
	encoder := newStereoOpus(t)
	defer encoder.Close()

	if _, err := encoder.Encode(make([]int16, 100)); err == nil {
		t.Error("Encode() expected error for partial frame")
	}
}

func TestOpusEncoder_SetBitrate(t *testing.T) {
	encoder := newStereoOpus(t)
	defer encoder.Close()

	if err := encoder.SetBitrate(64000); err != nil {
		t.Errorf("SetBitrate() unexpected error = %v", err)
	}
}
