// ABOUTME: Output sink contract for mixed PCM
// ABOUTME: Writes are bounded by the sink's reported buffer capacity
package mix

import "errors"

var (
	// ErrNoSink is returned by Run when no sink was configured
	ErrNoSink = errors.New("mix: no output sink configured")
	// ErrSessionActive is returned when tracks are added while playing
	ErrSessionActive = errors.New("mix: session already started")
)

// Sink consumes mixed PCM in the engine format.
//
// The main track never passes more than BufferSize bytes to one Write.
// A Write that accepts zero or fewer bytes aborts the current chunk.
type Sink interface {
	Write(p []byte) (int, error)
	BufferSize() int
}
