// ABOUTME: MP3 file decoder
// ABOUTME: go-mp3 already produces 16-bit stereo PCM, so reads pass through
package decode

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// MP3Stream decodes MP3 audio
type MP3Stream struct {
	decoder *mp3.Decoder
	src     io.Reader
}

// NewMP3 creates an MP3 stream over r. Closing the stream closes r if it
// is an io.Closer.
func NewMP3(r io.Reader) (*MP3Stream, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &MP3Stream{
		decoder: decoder,
		src:     r,
	}, nil
}

func (s *MP3Stream) Read(p []byte) (int, error) {
	return s.decoder.Read(p)
}

// Format reports the decoder output: go-mp3 always emits stereo s16le
func (s *MP3Stream) Format() audio.Format {
	return audio.Format{
		Codec:      "mp3",
		SampleRate: s.decoder.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}
}

// Close releases the underlying reader
func (s *MP3Stream) Close() error {
	return closeReader(s.src)
}
