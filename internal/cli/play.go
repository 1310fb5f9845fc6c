// ABOUTME: Play command
// ABOUTME: Mixes files live to the audio device with optional TUI and preview
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/resonate-mixer/internal/config"
	"github.com/Resonate-Protocol/resonate-mixer/internal/ui"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/mix"
)

type playFlags struct {
	offsets      []time.Duration
	noTUI        bool
	toneDuration time.Duration
}

func newPlayCommand(o *options) *cobra.Command {
	pf := &playFlags{}

	cmd := &cobra.Command{
		Use:   "play [files...]",
		Short: "Mix files and play them on the audio device",
		Long: `Mix the given files and play the result. Each file becomes one track;
--offset places tracks on the shared timeline in the order given.
Without files a 440Hz test tone is played.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), o.cfg, args, pf)
		},
	}

	flags := cmd.Flags()
	flags.DurationSliceVar(&pf.offsets, "offset", nil, "Start offset per track, e.g. --offset 0s,1.5s")
	flags.BoolVar(&pf.noTUI, "no-tui", false, "Disable TUI, use streaming logs instead")
	flags.DurationVar(&pf.toneDuration, "tone-duration", 0, "Length of the test tone (0 plays until stopped)")
	flags.String("sink", config.SinkOto, "Output sink (oto, null)")
	flags.Int("volume", 100, "Device volume (0-100)")
	flags.Bool("preview", false, "Serve the mix to websocket listeners")
	flags.Int("preview-port", 8928, "Preview server port")
	flags.String("name", "resonate-mixer", "Preview service name")
	flags.Bool("mdns", true, "Advertise the preview via mDNS")

	mustBindPFlag(o.v, "output.sink", flags.Lookup("sink"))
	mustBindPFlag(o.v, "output.volume", flags.Lookup("volume"))
	mustBindPFlag(o.v, "preview.enabled", flags.Lookup("preview"))
	mustBindPFlag(o.v, "preview.port", flags.Lookup("preview-port"))
	mustBindPFlag(o.v, "preview.name", flags.Lookup("name"))
	mustBindPFlag(o.v, "preview.mdns", flags.Lookup("mdns"))

	return cmd
}

func runPlay(ctx context.Context, cfg *config.Config, files []string, pf *playFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	useTUI := !pf.noTUI

	logs, err := setupLogging(cfg.Logging.File, useTUI, os.Stdout)
	if err != nil {
		return err
	}
	defer logs.Close()

	specs, err := trackSpecs(files, pf.offsets)
	if err != nil {
		return err
	}

	var (
		out output.Output
		oto *output.Oto
	)
	switch cfg.Output.Sink {
	case config.SinkOto:
		oto = output.NewOto(cfg.Output.DeviceBuffer, cfg.Output.Latency)
		oto.SetVolume(cfg.Output.Volume)
		out = oto
	case config.SinkNull:
		out = output.NewNull(cfg.Output.DeviceBuffer)
	default:
		return fmt.Errorf("play cannot use the %s sink, use render", cfg.Output.Sink)
	}

	s, err := newSession(cfg, specs, out, pf.toneDuration)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if useTUI {
		control := ui.NewControl()
		prog, err := ui.Run(control)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		go func() {
			if _, err := prog.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			cancel()
		}()
		defer prog.Quit()

		go handleControl(ctx, cancel, control, s.main, oto)
		go statusLoop(ctx, s, oto, prog)
	} else {
		log.Printf("Playing %d track(s) to %s sink", len(specs), cfg.Output.Sink)
	}

	return s.run(ctx)
}

// handleControl applies TUI actions to the engine
func handleControl(ctx context.Context, quit context.CancelFunc, control *ui.Control, main *mix.MainTrack, oto *output.Oto) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-control.Quit:
			log.Printf("Received quit signal from TUI")
			quit()
			return
		case msg := <-control.Actions:
			switch msg.Action {
			case ui.ActionTogglePause:
				if main.State() == mix.Playing {
					main.Pause()
				} else {
					main.Start()
				}
			case ui.ActionToggleMute:
				main.Mute(!main.Muted())
			case ui.ActionVolume:
				if oto != nil {
					oto.SetVolume(msg.Volume)
				}
			}
		}
	}
}

// statusLoop periodically updates the TUI with engine state
func statusLoop(ctx context.Context, s *session, oto *output.Oto, prog *tea.Program) {
	f := s.format
	sink := s.cfg.Output.Sink
	prog.Send(ui.StatusMsg{
		Codec:      f.Codec,
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
		BitDepth:   f.BitDepth,
		Sink:       sink,
	})

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prog.Send(buildStatus(s, oto))
		}
	}
}

func buildStatus(s *session, oto *output.Oto) ui.StatusMsg {
	tracks := s.main.Tracks()
	rows := make([]ui.TrackStatus, len(tracks))
	for i, t := range tracks {
		rows[i] = ui.TrackStatus{
			Name:     t.Name(),
			Buffered: t.Len(),
			Capacity: t.Cap(),
			Ended:    t.Ended(),
		}
	}

	stats := s.main.Stats().Snapshot()
	muted := s.main.Muted()
	msg := ui.StatusMsg{
		State:      s.main.State().String(),
		PlayheadUs: s.main.PlayheadUs(),
		Muted:      &muted,
		Tracks:     rows,
		Stats:      &stats,
		Listeners:  s.listeners(),
		Output:     s.main.Buffered(),
	}
	if oto != nil {
		msg.Volume = oto.Volume()
	}
	return msg
}
