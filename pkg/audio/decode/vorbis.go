// ABOUTME: Ogg Vorbis decoder
// ABOUTME: Converts oggvorbis float samples to 16-bit PCM
package decode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// VorbisStream decodes Ogg Vorbis audio
type VorbisStream struct {
	pending
	dec    *oggvorbis.Reader
	src    io.Reader
	floats []float32
	format audio.Format
	err    error
}

// NewVorbis creates a Vorbis stream over r. Closing the stream closes r if
// it is an io.Closer.
func NewVorbis(r io.Reader) (*VorbisStream, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ogg vorbis: %w", err)
	}

	return &VorbisStream{
		dec:    dec,
		src:    r,
		floats: make([]float32, 4096*dec.Channels()),
		format: audio.Format{
			Codec:      "vorbis",
			SampleRate: dec.SampleRate(),
			Channels:   dec.Channels(),
			BitDepth:   16,
		},
	}, nil
}

func (s *VorbisStream) Read(p []byte) (int, error) {
	for s.empty() {
		if s.err != nil {
			return 0, s.err
		}

		// n counts interleaved values, not frames
		n, err := s.dec.Read(s.floats)
		if err != nil {
			s.err = err
		} else if n == 0 {
			s.err = io.EOF
		}

		out := s.grow(n * 2)
		for i, v := range s.floats[:n] {
			audio.PutInt16(out, i, audio.FloatToInt16(v))
		}
		s.left = out
	}
	return s.drain(p), nil
}

func (s *VorbisStream) Format() audio.Format { return s.format }

// Close releases the underlying reader
func (s *VorbisStream) Close() error {
	return closeReader(s.src)
}
