// ABOUTME: Headerless PCM file output
// ABOUTME: Re-encodes mixed samples through the PCM encoder at 16 or 24 bits
package output

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/encode"
)

// Raw writes interleaved little-endian PCM with no header
type Raw struct {
	w          io.Writer
	bitDepth   int
	bufferSize int
	enc        encode.Encoder
	samples    []int16
	written    int64
}

// NewRaw creates a raw output over w writing bitDepth-bit samples.
// Close closes w if it is an io.Closer.
func NewRaw(w io.Writer, bitDepth, bufferSize int) *Raw {
	return &Raw{
		w:          w,
		bitDepth:   bitDepth,
		bufferSize: bufferSizeOrDefault(bufferSize),
	}
}

func (o *Raw) Open(format audio.Format) error {
	format.Codec = "pcm"
	format.BitDepth = o.bitDepth
	enc, err := encode.NewPCM(format)
	if err != nil {
		return err
	}
	o.enc = enc
	o.samples = make([]int16, 0, o.bufferSize/2)
	return nil
}

// Write encodes whole samples of p
func (o *Raw) Write(p []byte) (int, error) {
	if o.enc == nil {
		return 0, ErrNotOpen
	}

	n := len(p) / 2
	o.samples = o.samples[:0]
	for i := 0; i < n; i++ {
		o.samples = append(o.samples, audio.Int16At(p, i))
	}

	data, err := o.enc.Encode(o.samples)
	if err != nil {
		return 0, err
	}
	if _, err := o.w.Write(data); err != nil {
		return 0, fmt.Errorf("raw write failed: %w", err)
	}
	o.written += int64(len(data))
	return n * 2, nil
}

func (o *Raw) BufferSize() int { return o.bufferSize }

// Written returns the number of encoded bytes written
func (o *Raw) Written() int64 { return o.written }

func (o *Raw) Close() error {
	if o.enc != nil {
		o.enc.Close()
		o.enc = nil
	}
	return closeWriter(o.w)
}
