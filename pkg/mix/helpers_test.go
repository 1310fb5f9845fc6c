// ABOUTME: Shared fixtures for mix package tests
// ABOUTME: Constant-valued chunks and a recording sink
package mix

import (
	"sync"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// constChunk returns a chunk whose every sample is v
func constChunk(f audio.Format, startUs, durationUs int64, v int16) audio.Chunk {
	data := make([]byte, f.UsToBytes(durationUs))
	for i := 0; i < len(data)/2; i++ {
		audio.PutInt16(data, i, v)
	}
	return audio.Chunk{Data: data, StartUs: startUs, DurationUs: durationUs}
}

func samples(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = audio.Int16At(b, i)
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	size   int
	data   []byte
	writes []int
	// accept caps how much of each write is taken; nil takes everything
	accept func(n int) int
}

func (s *recordingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(p)
	if s.accept != nil {
		n = s.accept(n)
	}
	s.writes = append(s.writes, len(p))
	if n > 0 {
		s.data = append(s.data, p[:n]...)
	}
	return n, nil
}

func (s *recordingSink) BufferSize() int { return s.size }

func (s *recordingSink) written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

func (s *recordingSink) writeSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.writes...)
}
