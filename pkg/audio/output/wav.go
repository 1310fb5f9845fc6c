// ABOUTME: WAV file output
// ABOUTME: Writes mixed PCM through go-audio/wav and finalizes the header on close
package output

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// WAV writes a 16-bit PCM WAV file
type WAV struct {
	w          io.WriteSeeker
	enc        *wav.Encoder
	buf        *goaudio.IntBuffer
	bufferSize int
	written    int64
}

// NewWAV creates a WAV output over w. Close closes w if it is an io.Closer.
func NewWAV(w io.WriteSeeker, bufferSize int) *WAV {
	return &WAV{
		w:          w,
		bufferSize: bufferSizeOrDefault(bufferSize),
	}
}

// Open writes nothing yet; the header is produced by the encoder
func (o *WAV) Open(format audio.Format) error {
	if format.BitDepth != 16 {
		return fmt.Errorf("%w: wav output needs 16-bit, got %d", audio.ErrUnsupportedBitDepth, format.BitDepth)
	}

	o.enc = wav.NewEncoder(o.w, format.SampleRate, 16, format.Channels, 1)
	o.buf = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           make([]int, o.bufferSize/2),
		SourceBitDepth: 16,
	}
	return nil
}

// Write encodes whole samples of p
func (o *WAV) Write(p []byte) (int, error) {
	if o.enc == nil {
		return 0, ErrNotOpen
	}

	samples := len(p) / 2
	if cap(o.buf.Data) < samples {
		o.buf.Data = make([]int, samples)
	}
	o.buf.Data = o.buf.Data[:samples]
	for i := range o.buf.Data {
		o.buf.Data[i] = int(audio.Int16At(p, i))
	}

	if err := o.enc.Write(o.buf); err != nil {
		return 0, fmt.Errorf("wav write failed: %w", err)
	}
	o.written += int64(samples * 2)
	return samples * 2, nil
}

// BufferSize returns the largest write taken at once
func (o *WAV) BufferSize() int { return o.bufferSize }

// Written returns the number of PCM bytes encoded
func (o *WAV) Written() int64 { return o.written }

// Close finalizes the WAV header
func (o *WAV) Close() error {
	if o.enc != nil {
		if err := o.enc.Close(); err != nil {
			return fmt.Errorf("failed to finalize wav: %w", err)
		}
		o.enc = nil
	}
	return closeWriter(o.w)
}
