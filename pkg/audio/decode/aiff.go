// ABOUTME: AIFF file decoder
// ABOUTME: Streams integer PCM AIFF through go-audio/aiff
package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
)

// NewAIFF decodes an AIFF file. Closing the stream closes r if it is an
// io.Closer.
func NewAIFF(r io.ReadSeeker) (Stream, error) {
	probe := aiff.NewDecoder(r)
	if !probe.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid aiff file", ErrUnsupportedFormat)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind aiff: %w", err)
	}
	dec := aiff.NewDecoder(r)
	dec.ReadInfo()

	format := dec.Format()
	if format == nil {
		return nil, fmt.Errorf("%w: aiff without comm chunk", ErrUnsupportedFormat)
	}

	return newIntStream(dec, format, int(dec.BitDepth), "aiff", r), nil
}
