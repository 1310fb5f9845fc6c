// ABOUTME: Oto-based audio output implementation
// ABOUTME: Handles PCM playback with software volume control using oto library
package output

import (
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	format     audio.Format
	bufferSize int
	latency    time.Duration
	volume     int
	muted      bool
	ready      bool
	scratch    []byte
}

// NewOto creates a new Oto output. bufferSize bounds each write; latency
// sizes the device buffer (0 lets oto choose).
func NewOto(bufferSize int, latency time.Duration) *Oto {
	return &Oto{
		bufferSize: bufferSizeOrDefault(bufferSize),
		latency:    latency,
		volume:     100,
		muted:      false,
	}
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format) error {
	if format.BitDepth != 16 {
		return fmt.Errorf("%w: oto output needs 16-bit, got %d", audio.ErrUnsupportedBitDepth, format.BitDepth)
	}

	// oto allows one context per process
	if o.otoCtx != nil {
		if o.format.SampleRate != format.SampleRate || o.format.Channels != format.Channels {
			log.Printf("Warning: format change detected (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization. Continuing with existing context.",
				o.format.SampleRate, o.format.Channels, format.SampleRate, format.Channels)
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   o.latency,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.format = format

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", format.SampleRate, format.Channels)

	return nil
}

// Write outputs PCM (blocks until the player takes it)
func (o *Oto) Write(p []byte) (int, error) {
	if !o.ready {
		return 0, ErrNotOpen
	}

	o.mu.Lock()
	volume, muted := o.volume, o.muted
	o.mu.Unlock()

	n := len(p) &^ 1
	if cap(o.scratch) < n {
		o.scratch = make([]byte, n)
	}
	out := o.scratch[:n]
	applyVolume(out, p[:n], volume, muted)

	// Write to pipe (which feeds the persistent player)
	written, err := o.pipeWriter.Write(out)
	if err != nil {
		return written, fmt.Errorf("pipe write failed: %w", err)
	}
	return written, nil
}

// BufferSize returns the largest write taken at once
func (o *Oto) BufferSize() int { return o.bufferSize }

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.ready = false
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets device mute state. The mixer keeps running.
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (o *Oto) Volume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

// applyVolume scales s16le samples from src into dst with clipping protection
func applyVolume(dst, src []byte, volume int, muted bool) {
	multiplier := getVolumeMultiplier(volume, muted)
	if multiplier == 1.0 {
		copy(dst, src)
		return
	}

	for i := 0; i < len(src)/2; i++ {
		scaled := math.Round(float64(audio.Int16At(src, i)) * multiplier)

		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		} else if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}

		audio.PutInt16(dst, i, int16(scaled))
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
