// ABOUTME: Timestamped PCM chunk with cheap sub-range views
// ABOUTME: Splitting and trimming round through the frame size
package audio

// Chunk is one span of PCM audio on the shared timeline.
//
// Data is either owned by the chunk or a window into a larger buffer.
// Copying a Chunk is a shallow clone: both copies share the backing
// array but can be re-windowed independently.
type Chunk struct {
	Data        []byte
	Seq         uint64
	StartUs     int64
	DurationUs  int64
	EndOfStream bool
}

// NewEndOfStream returns the sentinel a producer enqueues after its last chunk
func NewEndOfStream(seq uint64, atUs int64) Chunk {
	return Chunk{Seq: seq, StartUs: atUs, EndOfStream: true}
}

// EndUs returns the exclusive end time
func (c Chunk) EndUs() int64 { return c.StartUs + c.DurationUs }

// Len returns the byte length of the current view
func (c Chunk) Len() int { return len(c.Data) }

// TrimFront drops everything before us. The end time is unchanged.
func (c *Chunk) TrimFront(us int64, f Format) {
	if us <= c.StartUs {
		return
	}
	end := c.EndUs()
	if us > end {
		us = end
	}
	skip := clampBytes(f.UsToBytes(us-c.StartUs), len(c.Data))
	c.Data = c.Data[skip:]
	c.StartUs = us
	c.DurationUs = end - us
}

// SplitAt truncates c to end at us and returns the remainder, which starts
// at us and shares c's backing array. Together they hold exactly c's bytes.
func (c *Chunk) SplitAt(us int64, f Format) Chunk {
	rest := *c
	end := c.EndUs()
	if us <= c.StartUs {
		c.Data = c.Data[:0:0]
		c.DurationUs = 0
		return rest
	}
	if us >= end {
		rest.Data = rest.Data[len(rest.Data):]
		rest.StartUs = end
		rest.DurationUs = 0
		return rest
	}

	keep := clampBytes(f.UsToBytes(us-c.StartUs), len(c.Data))
	rest.Data = c.Data[keep:]
	rest.StartUs = us
	rest.DurationUs = end - us

	c.Data = c.Data[:keep:keep]
	c.DurationUs = us - c.StartUs
	return rest
}

func clampBytes(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
