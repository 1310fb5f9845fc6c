// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for re-encoding mixed PCM
package encode

// Encoder encodes 16-bit interleaved samples
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int16) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
