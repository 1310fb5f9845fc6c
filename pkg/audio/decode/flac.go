// ABOUTME: FLAC file decoder
// ABOUTME: Parses FLAC frames with mewkiz/flac and interleaves them as 16-bit PCM
package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// FLACStream decodes FLAC audio frame by frame
type FLACStream struct {
	pending
	stream   *flac.Stream
	src      io.Reader
	channels int
	bitDepth int
	format   audio.Format
}

// NewFLAC creates a FLAC stream over r. Closing the stream closes r if it
// is an io.Closer.
func NewFLAC(r io.Reader) (*FLACStream, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	return &FLACStream{
		stream:   stream,
		src:      r,
		channels: channels,
		bitDepth: int(info.BitsPerSample),
		format: audio.Format{
			Codec:      "flac",
			SampleRate: int(info.SampleRate),
			Channels:   channels,
			BitDepth:   16,
		},
	}, nil
}

func (s *FLACStream) Read(p []byte) (int, error) {
	for s.empty() {
		frame, err := s.stream.ParseNext()
		if err != nil {
			return 0, err
		}

		blockSize := int(frame.BlockSize)
		out := s.grow(blockSize * s.channels * 2)
		for i := 0; i < blockSize; i++ {
			for ch := 0; ch < s.channels; ch++ {
				sample := frame.Subframes[ch].Samples[i]
				audio.PutInt16(out, i*s.channels+ch, audio.ScaleToInt16(sample, s.bitDepth))
			}
		}
		s.left = out
	}
	return s.drain(p), nil
}

func (s *FLACStream) Format() audio.Format { return s.format }

// Close releases the underlying reader
func (s *FLACStream) Close() error {
	return closeReader(s.src)
}
