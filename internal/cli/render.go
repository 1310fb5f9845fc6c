// ABOUTME: Render command
// ABOUTME: Mixes files offline into a WAV, raw PCM or Opus packet file
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/resonate-mixer/internal/config"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/output"
)

// ErrUnsupportedOutput is returned for an --out extension no writer handles
var ErrUnsupportedOutput = errors.New("unsupported output format")

type renderFlags struct {
	offsets      []time.Duration
	toneDuration time.Duration
	bitDepth     int
}

func newRenderCommand(o *options) *cobra.Command {
	rf := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render --out mix.wav [files...]",
		Short: "Mix files into a WAV, raw PCM or Opus packet file",
		Long: `Mix the given files as fast as they decode and write the result.
The output type follows the --out extension: .wav, .pcm/.raw or .opuspkt.
Without files a test tone of --duration is rendered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), o.cfg, args, rf)
		},
	}

	flags := cmd.Flags()
	flags.String("out", "", "Output file (.wav, .pcm, .raw or .opuspkt)")
	flags.DurationSliceVar(&rf.offsets, "offset", nil, "Start offset per track, e.g. --offset 0s,1.5s")
	flags.DurationVar(&rf.toneDuration, "duration", 10*time.Second, "Length of the test tone when no files are given")
	flags.Int("bitrate", 128000, "Opus bitrate in bits per second")
	flags.IntVar(&rf.bitDepth, "bit-depth", 16, "Sample size of .pcm/.raw output (16 or 24)")

	mustBindPFlag(o.v, "output.path", flags.Lookup("out"))
	mustBindPFlag(o.v, "output.opus_bitrate", flags.Lookup("bitrate"))

	return cmd
}

func runRender(ctx context.Context, cfg *config.Config, files []string, rf *renderFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Output.Path == "" {
		return fmt.Errorf("render needs --out")
	}
	if len(files) == 0 && rf.toneDuration <= 0 {
		return fmt.Errorf("render without files needs a positive --duration")
	}

	logs, err := setupLogging(cfg.Logging.File, false, os.Stderr)
	if err != nil {
		return err
	}
	defer logs.Close()

	specs, err := trackSpecs(files, rf.offsets)
	if err != nil {
		return err
	}

	rc := *cfg
	rc.Mixer.Offline = true
	rc.Output.Sink = config.SinkFile

	out, err := openFileOutput(rc.Output, rf.bitDepth)
	if err != nil {
		return err
	}

	s, err := newSession(&rc, specs, out, rf.toneDuration)
	if err != nil {
		return err
	}

	start := time.Now()
	runErr := s.run(ctx)
	closeErr := s.close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to finish %s: %w", rc.Output.Path, closeErr)
	}

	stats := s.main.Stats().Snapshot()
	log.Printf("Rendered %s: %d bytes in %s (%.1fx realtime)",
		rc.Output.Path, stats.BytesWritten, time.Since(start).Round(time.Millisecond), stats.RealtimeFactor)
	return nil
}

// openFileOutput creates the file writer chosen by the path extension
func openFileOutput(oc config.OutputConfig, bitDepth int) (output.Output, error) {
	ext := strings.ToLower(filepath.Ext(oc.Path))
	switch ext {
	case ".wav", ".opuspkt", ".pcm", ".raw":
	default:
		return nil, fmt.Errorf("%w: %s (supported: .wav, .pcm, .raw, .opuspkt)", ErrUnsupportedOutput, ext)
	}

	f, err := os.Create(oc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}

	switch ext {
	case ".wav":
		return output.NewWAV(f, oc.DeviceBuffer), nil
	case ".opuspkt":
		return output.NewOpusStream(f, oc.OpusBitrate, oc.DeviceBuffer), nil
	default:
		return output.NewRaw(f, bitDepth, oc.DeviceBuffer), nil
	}
}
