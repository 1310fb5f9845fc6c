// ABOUTME: WAV file decoder
// ABOUTME: Streams integer PCM WAV through go-audio/wav
package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// NewWAV decodes an integer PCM WAV file. Closing the stream closes r if
// it is an io.Closer.
func NewWAV(r io.ReadSeeker) (Stream, error) {
	probe := wav.NewDecoder(r)
	if !probe.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrUnsupportedFormat)
	}
	if probe.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: wav encoding %d (supported: integer pcm)", ErrUnsupportedFormat, probe.WavAudioFormat)
	}

	// validation may have consumed the header; start again from the top
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind wav: %w", err)
	}
	dec := wav.NewDecoder(r)
	dec.ReadInfo()

	format := dec.Format()
	if format == nil {
		return nil, fmt.Errorf("%w: wav without format chunk", ErrUnsupportedFormat)
	}

	return newIntStream(dec, format, int(dec.BitDepth), "wav", r), nil
}
