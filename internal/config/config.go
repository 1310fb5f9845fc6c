// ABOUTME: Viper-backed configuration for the mixer
// ABOUTME: Defaults, config file, RESONATE_MIXER_* env and validation
// Package config provides configuration management for the mixer using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// EnvPrefix prefixes every environment override, e.g. RESONATE_MIXER_AUDIO_SAMPLE_RATE
const EnvPrefix = "RESONATE_MIXER"

// Default configuration values.
const (
	defaultSampleRate     = 48000
	defaultChannels       = 2
	defaultChunkBytes     = 4096
	defaultBufferAhead    = 200 * time.Millisecond
	defaultTickInterval   = 10 * time.Millisecond
	defaultOutputCapacity = 250
	defaultTrackCapacity  = 250
	defaultMinFrameRate   = 10.0
	defaultDeviceBuffer   = 8192
	defaultPreviewPort    = 8928
	defaultOpusBitrate    = 128000
)

// Sink names
const (
	SinkOto  = "oto"
	SinkNull = "null"
	SinkFile = "file"
)

// Config holds all configuration for the application.
type Config struct {
	Audio   AudioConfig   `mapstructure:"audio"`
	Mixer   MixerConfig   `mapstructure:"mixer"`
	Output  OutputConfig  `mapstructure:"output"`
	Preview PreviewConfig `mapstructure:"preview"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AudioConfig holds the engine PCM format.
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	Channels   int `mapstructure:"channels"`
	ChunkBytes int `mapstructure:"chunk_bytes"`
}

// MixerConfig holds main track tuning.
type MixerConfig struct {
	BufferAhead    time.Duration `mapstructure:"buffer_ahead"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	OutputCapacity int           `mapstructure:"output_capacity"`
	TrackCapacity  int           `mapstructure:"track_capacity"`
	MinFrameRate   float64       `mapstructure:"min_frame_rate"`
	Clamp          bool          `mapstructure:"clamp"` // saturate instead of wrapping on overflow
	Offline        bool          `mapstructure:"offline"`
}

// OutputConfig holds sink configuration.
type OutputConfig struct {
	Sink         string        `mapstructure:"sink"` // oto, null, file
	DeviceBuffer int           `mapstructure:"device_buffer"`
	Latency      time.Duration `mapstructure:"latency"`
	Path         string        `mapstructure:"path"`
	OpusBitrate  int           `mapstructure:"opus_bitrate"`
	Volume       int           `mapstructure:"volume"`
}

// PreviewConfig holds the websocket preview server configuration.
type PreviewConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Name    string `mapstructure:"name"`
	MDNS    bool   `mapstructure:"mdns"`
}

// LoggingConfig holds log destination configuration.
type LoggingConfig struct {
	File string `mapstructure:"file"`
}

// Load reads configuration from file, environment variables, and defaults.
// An empty configPath searches the usual locations; a missing file is fine.
func Load(configPath string) (*Config, error) {
	return LoadViper(viper.New(), configPath)
}

// LoadViper is Load on a caller supplied instance, so flags already bound
// to v take precedence over file and environment values.
func LoadViper(v *viper.Viper, configPath string) (*Config, error) {
	// Set defaults
	SetDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("mixer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.resonate-mixer")
	}

	// Environment variable settings
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Audio defaults
	v.SetDefault("audio.sample_rate", defaultSampleRate)
	v.SetDefault("audio.channels", defaultChannels)
	v.SetDefault("audio.chunk_bytes", defaultChunkBytes)

	// Mixer defaults
	v.SetDefault("mixer.buffer_ahead", defaultBufferAhead)
	v.SetDefault("mixer.tick_interval", defaultTickInterval)
	v.SetDefault("mixer.output_capacity", defaultOutputCapacity)
	v.SetDefault("mixer.track_capacity", defaultTrackCapacity)
	v.SetDefault("mixer.min_frame_rate", defaultMinFrameRate)
	v.SetDefault("mixer.clamp", false)
	v.SetDefault("mixer.offline", false)

	// Output defaults
	v.SetDefault("output.sink", SinkOto)
	v.SetDefault("output.device_buffer", defaultDeviceBuffer)
	v.SetDefault("output.latency", time.Duration(0))
	v.SetDefault("output.path", "")
	v.SetDefault("output.opus_bitrate", defaultOpusBitrate)
	v.SetDefault("output.volume", 100)

	// Preview defaults
	v.SetDefault("preview.enabled", false)
	v.SetDefault("preview.port", defaultPreviewPort)
	v.SetDefault("preview.name", "resonate-mixer")
	v.SetDefault("preview.mdns", true)

	// Logging defaults
	v.SetDefault("logging.file", "resonate-mixer.log")
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	// Audio validation
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 8 {
		return fmt.Errorf("audio.channels must be between 1 and 8")
	}
	frame := c.Audio.Channels * 2
	if c.Audio.ChunkBytes < frame || c.Audio.ChunkBytes%frame != 0 {
		return fmt.Errorf("audio.chunk_bytes must be a positive multiple of %d", frame)
	}

	// Mixer validation
	if c.Mixer.BufferAhead <= 0 {
		return fmt.Errorf("mixer.buffer_ahead must be positive")
	}
	if c.Mixer.TickInterval <= 0 {
		return fmt.Errorf("mixer.tick_interval must be positive")
	}
	if c.Mixer.OutputCapacity < 1 {
		return fmt.Errorf("mixer.output_capacity must be at least 1")
	}
	if c.Mixer.TrackCapacity < 1 {
		return fmt.Errorf("mixer.track_capacity must be at least 1")
	}
	if c.Mixer.MinFrameRate <= 0 {
		return fmt.Errorf("mixer.min_frame_rate must be positive")
	}

	// Output validation
	validSinks := map[string]bool{SinkOto: true, SinkNull: true, SinkFile: true}
	if !validSinks[c.Output.Sink] {
		return fmt.Errorf("output.sink must be one of: oto, null, file")
	}
	if c.Output.Sink == SinkFile && c.Output.Path == "" {
		return fmt.Errorf("output.path is required for the file sink")
	}
	if c.Output.DeviceBuffer < frame {
		return fmt.Errorf("output.device_buffer must be at least %d", frame)
	}
	if c.Output.Volume < 0 || c.Output.Volume > 100 {
		return fmt.Errorf("output.volume must be between 0 and 100")
	}

	// Preview validation
	const maxPort = 65535
	if c.Preview.Enabled && (c.Preview.Port < 0 || c.Preview.Port > maxPort) {
		return fmt.Errorf("preview.port must be between 0 and %d", maxPort)
	}

	return nil
}

// Format returns the engine PCM format. The engine mixes 16-bit only.
func (c *AudioConfig) Format() audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		BitDepth:   16,
	}
}
