// ABOUTME: Decoded stream interface and file dispatch
// ABOUTME: Every stream yields 16-bit little-endian interleaved PCM
package decode

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned for containers or encodings we cannot read
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrFormatMismatch is returned when a stream's rate or channels differ from the engine
	ErrFormatMismatch = errors.New("stream format does not match engine format")
)

// Stream is a decoded audio source. Read yields s16le interleaved PCM in
// the layout Format describes.
type Stream interface {
	io.Reader
	Format() audio.Format
	Close() error
}

// Open decodes the file at path, choosing the decoder by extension, and
// verifies the result matches want. Raw .pcm/.raw files are taken to be
// in want's layout.
func Open(path string, want audio.Format) (Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	var s Stream
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		s, err = NewMP3(f)
	case ".flac":
		s, err = NewFLAC(f)
	case ".wav":
		s, err = NewWAV(f)
	case ".aif", ".aiff":
		s, err = NewAIFF(f)
	case ".ogg", ".oga":
		s, err = NewVorbis(f)
	case ".opuspkt":
		s, err = NewOpusPackets(f)
	case ".pcm", ".raw":
		s, err = NewPCM(f, want)
	default:
		err = fmt.Errorf("%w: %s (supported: .mp3, .flac, .wav, .aiff, .ogg, .opuspkt, .pcm)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := Check(s, want); err != nil {
		s.Close()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	log.Printf("Loaded %s: %s", filepath.Base(path), s.Format())
	return s, nil
}

// Check verifies that s can be mixed without conversion
func Check(s Stream, want audio.Format) error {
	got := s.Format()
	if got.SampleRate != want.SampleRate || got.Channels != want.Channels || got.BitDepth != want.BitDepth {
		return fmt.Errorf("%w: got %dHz %dch %dbit, want %dHz %dch %dbit", ErrFormatMismatch,
			got.SampleRate, got.Channels, got.BitDepth, want.SampleRate, want.Channels, want.BitDepth)
	}
	return nil
}

// closeReader closes r if it owns a resource
func closeReader(r any) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
