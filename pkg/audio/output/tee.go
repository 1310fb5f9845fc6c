// ABOUTME: Fan-out output that mirrors accepted PCM to observers
// ABOUTME: Used to feed the preview server from the playback path
package output

import (
	"sync"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// Observer receives a copy of PCM that reached the primary output.
// It must not block.
type Observer interface {
	ObservePCM(p []byte)
}

// Tee writes to a primary output and reports accepted bytes to observers
type Tee struct {
	primary Output

	mu        sync.RWMutex
	observers []Observer
}

// NewTee wraps primary
func NewTee(primary Output, observers ...Observer) *Tee {
	return &Tee{primary: primary, observers: observers}
}

// AddObserver registers another observer
func (t *Tee) AddObserver(o Observer) {
	t.mu.Lock()
	t.observers = append(t.observers, o)
	t.mu.Unlock()
}

func (t *Tee) Open(format audio.Format) error { return t.primary.Open(format) }

// Write forwards p; observers only see what the primary accepted
func (t *Tee) Write(p []byte) (int, error) {
	n, err := t.primary.Write(p)
	if n > 0 {
		t.mu.RLock()
		for _, o := range t.observers {
			o.ObservePCM(p[:n])
		}
		t.mu.RUnlock()
	}
	return n, err
}

func (t *Tee) BufferSize() int { return t.primary.BufferSize() }
func (t *Tee) Close() error    { return t.primary.Close() }
