// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for devices and files that consume mixed PCM
package output

import (
	"errors"
	"io"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// DefaultBufferSize is the largest write a sink takes at once
const DefaultBufferSize = 8192

// ErrNotOpen is returned when writing to an output before Open
var ErrNotOpen = errors.New("output not initialized")

// Output represents an audio sink for s16le interleaved PCM
type Output interface {
	// Open prepares the output for format
	Open(format audio.Format) error

	// Write outputs PCM bytes and returns how many were accepted
	Write(p []byte) (int, error)

	// BufferSize is the largest write the output takes at once
	BufferSize() int

	// Close flushes and releases output resources
	Close() error
}

func closeWriter(w any) error {
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func bufferSizeOrDefault(n int) int {
	if n <= 0 {
		return DefaultBufferSize
	}
	return n
}
