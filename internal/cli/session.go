// ABOUTME: Mix session wiring shared by play and render
// ABOUTME: Opens inputs, builds tracks and feeders, and runs the main track
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-mixer/internal/config"
	"github.com/Resonate-Protocol/resonate-mixer/internal/preview"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/mix"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/source"
)

// session wires decoded inputs, the main track and a sink together
type session struct {
	cfg     *config.Config
	format  audio.Format
	main    *mix.MainTrack
	out     output.Output
	preview *preview.Server

	streams []decode.Stream
	feeders []*source.Feeder

	done     chan struct{}
	doneOnce sync.Once
}

// trackSpec is one input: a file path, or empty for the test tone
type trackSpec struct {
	path   string
	offset time.Duration
}

func trackSpecs(files []string, offsets []time.Duration) ([]trackSpec, error) {
	if len(offsets) > max(len(files), 1) {
		return nil, fmt.Errorf("%d offsets given for %d inputs", len(offsets), max(len(files), 1))
	}

	specs := make([]trackSpec, max(len(files), 1))
	for i := range specs {
		if i < len(files) {
			specs[i].path = files[i]
		}
		if i < len(offsets) {
			if offsets[i] < 0 {
				return nil, fmt.Errorf("offset %v must not be negative", offsets[i])
			}
			specs[i].offset = offsets[i]
		}
	}
	return specs, nil
}

// newSession opens out and every input. toneDuration bounds the test tone
// used when no files are given; 0 plays it until stopped.
func newSession(cfg *config.Config, specs []trackSpec, out output.Output, toneDuration time.Duration) (*session, error) {
	s := &session{
		cfg:    cfg,
		format: cfg.Audio.Format(),
		out:    out,
		done:   make(chan struct{}),
	}

	if err := out.Open(s.format); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to open output: %w", err)
	}

	sink := out
	if cfg.Preview.Enabled {
		s.preview = preview.New(preview.Config{
			Port:       cfg.Preview.Port,
			Name:       cfg.Preview.Name,
			EnableMDNS: cfg.Preview.MDNS,
			Format:     s.format,
		})
		if err := s.preview.Start(); err != nil {
			out.Close()
			return nil, err
		}
		sink = output.NewTee(out, s.preview)
	}

	overflow := mix.Wrap
	if cfg.Mixer.Clamp {
		overflow = mix.Clamp
	}

	s.main = mix.NewMainTrack(mix.Config{
		Format:         s.format,
		ChunkBytes:     cfg.Audio.ChunkBytes,
		OutputCapacity: cfg.Mixer.OutputCapacity,
		BufferAhead:    cfg.Mixer.BufferAhead,
		TickInterval:   cfg.Mixer.TickInterval,
		Overflow:       overflow,
		Offline:        cfg.Mixer.Offline,
		Sink:           sink,
		OnEnd:          func() { s.doneOnce.Do(func() { close(s.done) }) },
	})

	for _, spec := range specs {
		if err := s.addTrack(spec, toneDuration); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) addTrack(spec trackSpec, toneDuration time.Duration) error {
	var (
		stream decode.Stream
		name   string
		err    error
	)
	if spec.path == "" {
		stream = decode.NewTone(s.format, decode.DefaultToneFrequency, toneDuration)
		name = "tone"
	} else {
		stream, err = decode.Open(spec.path, s.format)
		if err != nil {
			return err
		}
		name = filepath.Base(spec.path)
	}
	s.streams = append(s.streams, stream)

	track := mix.NewMixTrack(mix.TrackConfig{
		Name:         name,
		OriginUs:     spec.offset.Microseconds(),
		Capacity:     s.cfg.Mixer.TrackCapacity,
		MinFrameRate: s.cfg.Mixer.MinFrameRate,
		Format:       s.format,
	})
	if err := s.main.AddMixTrack(track); err != nil {
		return err
	}

	feeder := source.New(track, stream)
	feeder.ChunkBytes = s.cfg.Audio.ChunkBytes
	s.feeders = append(s.feeders, feeder)
	return nil
}

// run plays until every track ends or ctx is done
func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, f := range s.feeders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Track %s failed: %v", f.Track.Name(), err)
				// end the track so the session can still finish
				f.Track.Enqueue(audio.NewEndOfStream(0, f.Track.BufferedUntilUs()))
			}
		}()
	}

	runErr := make(chan error, 1)
	s.main.Start()
	go func() { runErr <- s.main.Run(ctx) }()

	var err error
	returned := false
	select {
	case <-s.done:
		log.Printf("Mix finished at %s", time.Duration(s.main.PlayheadUs())*time.Microsecond)
	case <-ctx.Done():
	case err = <-runErr:
		returned = true
	}

	cancel()
	if !returned {
		err = <-runErr
	}
	s.main.Stop()
	wg.Wait()
	return err
}

// close releases inputs, preview and the output
func (s *session) close() error {
	for _, stream := range s.streams {
		stream.Close()
	}
	if s.preview != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.preview.Stop(ctx); err != nil {
			log.Printf("Preview shutdown error: %v", err)
		}
	}
	return s.out.Close()
}

// listeners returns the number of connected preview clients
func (s *session) listeners() int {
	if s.preview == nil {
		return 0
	}
	return s.preview.ClientCount()
}
