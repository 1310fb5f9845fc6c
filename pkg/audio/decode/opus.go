// ABOUTME: Opus packet stream decoder
// ABOUTME: Reads framed Opus packets back into 16-bit PCM
package decode

import (
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/encode"
)

// maxOpusFrame is 120ms at 48kHz, the longest Opus frame
const maxOpusFrame = 5760

// OpusPacketStream decodes a stream written by encode.PacketWriter
type OpusPacketStream struct {
	pending
	packets *encode.PacketReader
	decoder *opus.Decoder
	src     io.Reader
	pcm16   []int16
	format  audio.Format
}

// NewOpusPackets creates a decoder over a framed Opus packet stream.
// Closing the stream closes r if it is an io.Closer.
func NewOpusPackets(r io.Reader) (*OpusPacketStream, error) {
	packets, err := encode.NewPacketReader(r, "opus")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	format := packets.Format()

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusPacketStream{
		packets: packets,
		decoder: dec,
		src:     r,
		pcm16:   make([]int16, maxOpusFrame*format.Channels),
		format:  format,
	}, nil
}

func (s *OpusPacketStream) Read(p []byte) (int, error) {
	for s.empty() {
		packet, err := s.packets.ReadPacket()
		if err != nil {
			return 0, err
		}

		n, err := s.decoder.Decode(packet, s.pcm16)
		if err != nil {
			return 0, fmt.Errorf("opus decode failed: %w", err)
		}

		samples := n * s.format.Channels
		out := s.grow(samples * 2)
		for i, v := range s.pcm16[:samples] {
			audio.PutInt16(out, i, v)
		}
		s.left = out
	}
	return s.drain(p), nil
}

func (s *OpusPacketStream) Format() audio.Format { return s.format }

// Close releases the underlying reader
func (s *OpusPacketStream) Close() error {
	return closeReader(s.src)
}
