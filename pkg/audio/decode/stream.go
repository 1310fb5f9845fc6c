// ABOUTME: Shared plumbing for block-based decoders
// ABOUTME: Buffers converted PCM between decoder blocks and reader calls
package decode

import (
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// pending holds converted bytes not yet handed to a reader
type pending struct {
	out  []byte
	left []byte
}

func (p *pending) empty() bool { return len(p.left) == 0 }

func (p *pending) drain(dst []byte) int {
	n := copy(dst, p.left)
	p.left = p.left[n:]
	return n
}

// grow returns a scratch slice of n bytes, reusing the previous one
func (p *pending) grow(n int) []byte {
	if cap(p.out) < n {
		p.out = make([]byte, n)
	}
	return p.out[:n]
}

// pcmBufferer is implemented by the go-audio wav and aiff decoders
type pcmBufferer interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// intStream adapts a go-audio decoder to Stream
type intStream struct {
	pending
	dec      pcmBufferer
	buf      *goaudio.IntBuffer
	bitDepth int
	format   audio.Format
	src      any
	err      error
}

func newIntStream(dec pcmBufferer, format *goaudio.Format, bitDepth int, codec string, src any) *intStream {
	return &intStream{
		dec: dec,
		buf: &goaudio.IntBuffer{
			Format:         format,
			Data:           make([]int, 4096),
			SourceBitDepth: bitDepth,
		},
		bitDepth: bitDepth,
		format: audio.Format{
			Codec:      codec,
			SampleRate: format.SampleRate,
			Channels:   format.NumChannels,
			BitDepth:   16,
		},
		src: src,
	}
}

func (s *intStream) Read(p []byte) (int, error) {
	for s.empty() {
		if s.err != nil {
			return 0, s.err
		}

		n, err := s.dec.PCMBuffer(s.buf)
		if err != nil {
			s.err = err
		} else if n == 0 {
			s.err = io.EOF
		}

		out := s.grow(n * 2)
		for i, v := range s.buf.Data[:n] {
			audio.PutInt16(out, i, audio.ScaleToInt16(int32(v), s.bitDepth))
		}
		s.left = out
	}
	return s.drain(p), nil
}

func (s *intStream) Format() audio.Format { return s.format }
func (s *intStream) Close() error         { return closeReader(s.src) }
