// ABOUTME: PCM audio encoder
// ABOUTME: Encodes 16-bit samples to 16-bit or 24-bit little-endian PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int16) ([]byte, error) {
	if e.bitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample, widened by 8 bits
		output := make([]byte, len(samples)*3)
		for i, sample := range samples {
			v := int32(sample) << 8
			output[i*3] = byte(v)
			output[i*3+1] = byte(v >> 8)
			output[i*3+2] = byte(v >> 16)
		}
		return output, nil
	}

	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(sample))
	}
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
