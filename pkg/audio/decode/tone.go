// ABOUTME: Test tone generator
// ABOUTME: Produces a sine wave at half volume in the engine format
package decode

import (
	"io"
	"math"
	"time"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// DefaultToneFrequency is A4
const DefaultToneFrequency = 440.0

// ToneStream generates a sine tone on every channel
type ToneStream struct {
	format      audio.Format
	frequency   float64
	sampleIndex uint64
	totalFrames uint64 // 0 means endless
}

// NewTone creates a tone in format. A zero duration never ends.
func NewTone(format audio.Format, frequency float64, duration time.Duration) *ToneStream {
	if frequency <= 0 {
		frequency = DefaultToneFrequency
	}
	format.Codec = "tone"
	format.BitDepth = 16

	return &ToneStream{
		format:      format,
		frequency:   frequency,
		totalFrames: uint64(format.UsToFrames(duration.Microseconds())),
	}
}

func (s *ToneStream) Read(p []byte) (int, error) {
	frameSize := s.format.FrameSize()
	frames := uint64(len(p) / frameSize)
	if s.totalFrames > 0 {
		if s.sampleIndex >= s.totalFrames {
			return 0, io.EOF
		}
		frames = min(frames, s.totalFrames-s.sampleIndex)
	}

	for i := uint64(0); i < frames; i++ {
		t := float64(s.sampleIndex+i) / float64(s.format.SampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)
		v := int16(sample * 32767.0 * 0.5)

		base := int(i) * s.format.Channels
		for ch := 0; ch < s.format.Channels; ch++ {
			audio.PutInt16(p, base+ch, v)
		}
	}
	s.sampleIndex += frames

	return int(frames) * frameSize, nil
}

func (s *ToneStream) Format() audio.Format { return s.format }
func (s *ToneStream) Close() error         { return nil }
