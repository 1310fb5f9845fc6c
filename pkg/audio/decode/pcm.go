// ABOUTME: Raw PCM decoder
// ABOUTME: Passes 16-bit PCM through and narrows 24-bit PCM to 16-bit
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// PCMStream reads headerless little-endian PCM
type PCMStream struct {
	pending
	src      io.Reader
	bitDepth int
	raw      []byte
	format   audio.Format
}

// NewPCM reads raw interleaved PCM laid out as format describes.
// 16-bit input is passed through; 24-bit input is narrowed to 16-bit.
func NewPCM(r io.Reader, format audio.Format) (*PCMStream, error) {
	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("%w: %d (supported: 16, 24)", audio.ErrUnsupportedBitDepth, format.BitDepth)
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("%w: %dHz %dch", audio.ErrInvalidFormat, format.SampleRate, format.Channels)
	}

	out := format
	out.Codec = "pcm"
	out.BitDepth = 16
	return &PCMStream{
		src:      r,
		bitDepth: format.BitDepth,
		format:   out,
	}, nil
}

func (s *PCMStream) Read(p []byte) (int, error) {
	if s.bitDepth == 16 {
		return s.src.Read(p)
	}

	for s.empty() {
		// 24-bit: 3 bytes in, 2 bytes out per sample
		want := len(p) / 2 * 3
		if want < 3 {
			want = 3
		}
		if cap(s.raw) < want {
			s.raw = make([]byte, want)
		}
		n, err := io.ReadAtLeast(s.src, s.raw[:want], 3)
		samples := n / 3
		if samples == 0 {
			if err == io.ErrUnexpectedEOF {
				err = io.EOF
			}
			return 0, err
		}

		out := s.grow(samples * 2)
		for i := 0; i < samples; i++ {
			b := s.raw[i*3:]
			v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
			audio.PutInt16(out, i, audio.ScaleToInt16(v, 24))
		}
		s.left = out
	}
	return s.drain(p), nil
}

func (s *PCMStream) Format() audio.Format { return s.format }

// Close releases the underlying reader
func (s *PCMStream) Close() error {
	return closeReader(s.src)
}
