// ABOUTME: Pumps a decoded stream into a mix track as timestamped chunks
// ABOUTME: Waits while the track is full instead of dropping audio
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/mix"
)

const (
	// DefaultChunkBytes is the size of each enqueued chunk
	DefaultChunkBytes = 4096

	// DefaultRetryInterval is how often a full track is polled
	DefaultRetryInterval = 5 * time.Millisecond
)

// Stream is decoded s16le PCM with a known format
type Stream interface {
	io.Reader
	Format() audio.Format
}

// Feeder reads a stream and enqueues it on a track
type Feeder struct {
	Track         *mix.MixTrack
	Stream        Stream
	ChunkBytes    int
	RetryInterval time.Duration

	seq   uint64
	total int
}

// New creates a feeder with default chunking
func New(track *mix.MixTrack, stream Stream) *Feeder {
	return &Feeder{
		Track:         track,
		Stream:        stream,
		ChunkBytes:    DefaultChunkBytes,
		RetryInterval: DefaultRetryInterval,
	}
}

// Run feeds until the stream ends, then closes the track. Chunks are
// stamped from the track origin plus the audio already fed.
func (f *Feeder) Run(ctx context.Context) error {
	format := f.Stream.Format()
	size := format.AlignBytes(f.ChunkBytes)
	if size <= 0 {
		size = format.AlignBytes(DefaultChunkBytes)
	}
	if f.RetryInterval <= 0 {
		f.RetryInterval = DefaultRetryInterval
	}
	origin := f.Track.Clock().OriginUs()

	for {
		data := make([]byte, size)
		n, err := io.ReadFull(f.Stream, data)
		n = format.AlignBytes(n)

		if n > 0 {
			chunk := audio.Chunk{
				Seq:        f.seq,
				StartUs:    origin + format.BytesToUs(f.total),
				DurationUs: format.BytesToUs(n),
				Data:       data[:n],
			}
			if perr := f.push(ctx, chunk); perr != nil {
				return perr
			}
			f.seq++
			f.total += n
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				end := origin + format.BytesToUs(f.total)
				f.Track.Enqueue(audio.NewEndOfStream(f.seq, end))
				log.Printf("Feeder %s: stream ended after %d chunks (%dms)",
					f.Track.Name(), f.seq, format.BytesToUs(f.total)/1000)
				return nil
			}
			return fmt.Errorf("feeder %s: read failed: %w", f.Track.Name(), err)
		}
	}
}

// push enqueues c, polling while the track is full
func (f *Feeder) push(ctx context.Context, c audio.Chunk) error {
	if !f.Track.IsFull() && f.Track.Enqueue(c) {
		return nil
	}

	ticker := time.NewTicker(f.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !f.Track.IsFull() && f.Track.Enqueue(c) {
				return nil
			}
		}
	}
}

// Fed returns the number of PCM bytes enqueued so far
func (f *Feeder) Fed() int { return f.total }
