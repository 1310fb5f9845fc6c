// ABOUTME: Output that discards audio at real-time pace
// ABOUTME: For headless preview serving where no audio device exists
package output

import (
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// Null accepts PCM and blocks long enough to keep real-time pace
type Null struct {
	mu         sync.Mutex
	format     audio.Format
	bufferSize int
	started    time.Time
	playedUs   int64
	sleep      func(time.Duration)
	now        func() time.Time
}

// NewNull creates a paced discard output
func NewNull(bufferSize int) *Null {
	return &Null{
		bufferSize: bufferSizeOrDefault(bufferSize),
		sleep:      time.Sleep,
		now:        time.Now,
	}
}

func (o *Null) Open(format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.format = format
	o.started = time.Time{}
	o.playedUs = 0
	return nil
}

// Write drops p, then waits until the wall clock catches up with it
func (o *Null) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format.SampleRate == 0 {
		return 0, ErrNotOpen
	}
	if o.started.IsZero() {
		o.started = o.now()
	}

	n := o.format.AlignBytes(len(p))
	o.playedUs += o.format.BytesToUs(n)

	ahead := time.Duration(o.playedUs)*time.Microsecond - o.now().Sub(o.started)
	if ahead > 0 {
		o.sleep(ahead)
	}
	return n, nil
}

func (o *Null) BufferSize() int { return o.bufferSize }
func (o *Null) Close() error    { return nil }
