// ABOUTME: Audio type definitions
// ABOUTME: Defines the fixed PCM format and time/byte conversions
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// Engine defaults: 16-bit signed little-endian, stereo, 48kHz
	DefaultSampleRate = 48000
	DefaultChannels   = 2
	DefaultBitDepth   = 16

	// InfiniteUs marks "no audio buffered yet". Combine with min().
	InfiniteUs int64 = math.MaxInt64

	usPerSecond = 1_000_000
)

var (
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	ErrInvalidFormat       = errors.New("invalid audio format")
)

// Format describes the PCM layout the engine runs at
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns 48kHz stereo 16-bit PCM
func DefaultFormat() Format {
	return Format{
		Codec:      "pcm",
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		BitDepth:   DefaultBitDepth,
	}
}

// Validate checks that the engine can mix this format
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("%w: %dHz %dch", ErrInvalidFormat, f.SampleRate, f.Channels)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("%w: %d (supported: 16)", ErrUnsupportedBitDepth, f.BitDepth)
	}
	return nil
}

// BytesPerSample returns the size of one sample of one channel
func (f Format) BytesPerSample() int { return f.BitDepth / 8 }

// FrameSize returns the size of one sample across all channels
func (f Format) FrameSize() int { return f.Channels * f.BytesPerSample() }

// UsToFrames converts a duration to the nearest whole frame count
func (f Format) UsToFrames(us int64) int64 {
	scaled := us * int64(f.SampleRate)
	if scaled < 0 {
		return -((-scaled + usPerSecond/2) / usPerSecond)
	}
	return (scaled + usPerSecond/2) / usPerSecond
}

// UsToBytes converts a duration to a frame-aligned byte count
func (f Format) UsToBytes(us int64) int {
	return int(f.UsToFrames(us)) * f.FrameSize()
}

// BytesToUs converts a byte count to microseconds, ignoring any partial frame
func (f Format) BytesToUs(n int) int64 {
	frames := int64(n / f.FrameSize())
	return frames * usPerSecond / int64(f.SampleRate)
}

// AlignBytes rounds n down to a whole number of frames
func (f Format) AlignBytes(n int) int {
	fs := f.FrameSize()
	return n - n%fs
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dHz %dch %dbit", f.Codec, f.SampleRate, f.Channels, f.BitDepth)
}

// Int16At reads the i-th 16-bit little-endian sample of b
func Int16At(b []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(b[i*2:]))
}

// PutInt16 writes the i-th 16-bit little-endian sample of b
func PutInt16(b []byte, i int, v int16) {
	binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
}

// ScaleToInt16 converts a sample of the given bit depth to 16-bit range
func ScaleToInt16(sample int32, bitDepth int) int16 {
	shift := bitDepth - 16
	if shift > 0 {
		return int16(sample >> shift)
	}
	return int16(sample << -shift)
}

// FloatToInt16 converts a [-1,1] float sample to 16-bit, clamping outliers
func FloatToInt16(v float32) int16 {
	s := float64(v) * 32767.0
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(s))
}
