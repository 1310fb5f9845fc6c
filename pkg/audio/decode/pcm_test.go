// ABOUTME: Tests for raw PCM decoding
// ABOUTME: Tests 16-bit passthrough and 24-bit narrowing
package decode

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	stream, err := NewPCM(bytes.NewReader(nil), format)
	if err != nil {
		t.Fatalf("failed to create stream: %v", err)
	}

	if stream.Format().BitDepth != 16 {
		t.Errorf("expected 16-bit output, got %d", stream.Format().BitDepth)
	}
}

func TestPCMRead16Bit(t *testing.T) {
	format := audio.DefaultFormat()
	input := []byte{0x00, 0x01, 0x02, 0x03}

	stream, err := NewPCM(bytes.NewReader(input), format)
	if err != nil {
		t.Fatalf("failed to create stream: %v", err)
	}

	output, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if !bytes.Equal(output, input) {
		t.Errorf("expected passthrough %v, got %v", input, output)
	}
}

func TestPCMRead24Bit(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   24,
	}

	// 0x020100 >> 8 = 0x0201, 0xFFFF00 (-256) >> 8 = -1
	input := []byte{0x00, 0x01, 0x02, 0x00, 0xFF, 0xFF}
	stream, err := NewPCM(bytes.NewReader(input), format)
	if err != nil {
		t.Fatalf("failed to create stream: %v", err)
	}

	output, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(output) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(output))
	}
	if got := audio.Int16At(output, 0); got != 0x0201 {
		t.Errorf("expected first sample %d, got %d", 0x0201, got)
	}
	if got := audio.Int16At(output, 1); got != -1 {
		t.Errorf("expected second sample -1, got %d", got)
	}
}

func TestNewPCM_UnsupportedBitDepth(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   32,
	}

	stream, err := NewPCM(bytes.NewReader(nil), format)
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}

	if stream != nil {
		t.Fatal("expected stream to be nil for unsupported bit depth")
	}

	if !errors.Is(err, audio.ErrUnsupportedBitDepth) {
		t.Errorf("expected ErrUnsupportedBitDepth, got %v", err)
	}
}

func TestPCMRead_EmptyInput(t *testing.T) {
	stream, err := NewPCM(bytes.NewReader(nil), audio.DefaultFormat())
	if err != nil {
		t.Fatalf("failed to create stream: %v", err)
	}

	output, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read failed with empty input: %v", err)
	}

	if len(output) != 0 {
		t.Errorf("expected 0 bytes from empty input, got %d", len(output))
	}
}
