// ABOUTME: Root cobra command
// ABOUTME: Loads configuration and registers the play, render and version commands
// Package cli implements the resonate-mixer commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Resonate-Protocol/resonate-mixer/internal/config"
	"github.com/Resonate-Protocol/resonate-mixer/internal/version"
)

// options is shared by every command of one root
type options struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// Execute runs the root command with os.Args.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

// NewRootCommand builds the command tree with its own configuration state.
func NewRootCommand() *cobra.Command {
	o := &options{v: viper.New()}

	root := &cobra.Command{
		Use:     "resonate-mixer",
		Short:   "Mix multiple audio files into one gapless stream",
		Version: version.Version,
		Long: `resonate-mixer decodes several audio sources, places each on a shared
timeline and mixes them into one stream for playback or rendering.

Supported inputs: MP3, FLAC, WAV, AIFF, Ogg Vorbis, Opus packet streams
and raw s16le PCM. All inputs must share the engine sample rate and
channel count.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadViper(o.v, o.cfgFile)
			if err != nil {
				return err
			}
			o.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.cfgFile, "config", "", "config file (default is ./mixer.yaml)")
	flags.String("log-file", "resonate-mixer.log", "Log file path")
	flags.Int("chunk-bytes", 4096, "Bytes per mixed output chunk")
	flags.Duration("buffer-ahead", 0, "How far ahead of the playhead to mix")
	flags.Bool("clamp", false, "Saturate samples on overflow instead of wrapping")

	mustBindPFlag(o.v, "logging.file", flags.Lookup("log-file"))
	mustBindPFlag(o.v, "audio.chunk_bytes", flags.Lookup("chunk-bytes"))
	mustBindPFlag(o.v, "mixer.buffer_ahead", flags.Lookup("buffer-ahead"))
	mustBindPFlag(o.v, "mixer.clamp", flags.Lookup("clamp"))

	root.AddCommand(newPlayCommand(o), newRenderCommand(o), newVersionCommand())
	return root
}

// mustBindPFlag binds a viper key to a cobra flag and panics if binding fails.
func mustBindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %q to key %q: %v", flag.Name, key, err))
	}
}
