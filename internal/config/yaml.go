// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"luxsync/internal/analysis"
	"luxsync/internal/log"
	"luxsync/internal/pipeline"
)

// Hardware and processing limits.
const (
	MinDeviceID     = -1     // -1 represents the system default device
	MinSampleRate   = 8000   // Hz
	MaxSampleRate   = 192000 // Hz
	MaxBufferFrames = 8192
)

// DefaultPaths are searched, in order, when LoadConfig is given no path.
var DefaultPaths = []string{"luxsync.yaml", "config.yaml"}

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug    bool   `yaml:"debug"`     // Enable debug mode (forces log level debug).
	LogLevel string `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").

	Audio     AudioConfig     `yaml:"audio"`     // Audio capture settings.
	Analysis  analysis.Config `yaml:"analysis"`  // Feature extraction.
	Pipeline  pipeline.Config `yaml:"pipeline"`  // Energy engine, memory and drop bridge tuning.
	Recording RecordingConfig `yaml:"recording"` // Capture-to-WAV settings.
	Transport TransportConfig `yaml:"transport"` // UDP status output.
	Server    ServerConfig    `yaml:"server"`    // HTTP API, WebSocket and metrics.
	Journal   JournalConfig   `yaml:"journal"`   // Event persistence.

	CueSheet string `yaml:"cue_sheet,omitempty"` // Optional path to a section cue sheet.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from the device.
	InputChannels   int     `yaml:"input_channels"`    // Channels to capture; downmixed to mono for analysis.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the input stream to WAV.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	BitDepth  int    `yaml:"bit_depth"`  // 16, 24 or 32.
}

// TransportConfig holds settings related to sending status packets over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable UDP status packets.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between status packets.
	LogEvery         uint64        `yaml:"log_every"`          // Debug status line every N frames, 0 disables.
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// JournalConfig holds the event store settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			SampleRate:      44100,
			FramesPerBuffer: 512,
			InputChannels:   2,
		},
		Analysis: analysis.DefaultConfig(),
		Pipeline: pipeline.DefaultConfig(),
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // ~30Hz
			LogEvery:         250,
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8080",
		},
		Journal: JournalConfig{
			Path: "./journal",
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches DefaultPaths. If no file is found, it uses built-in defaults. After
// loading, it applies environment variable overrides and validates the final
// configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range DefaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("Config: loaded %s", path)
	}

	// Environment overrides win over the file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Level resolves the effective log level.
func (c *Config) Level() log.LogLevel {
	if c.Debug {
		return log.LevelDebug
	}
	lvl, _ := log.ParseLevel(c.LogLevel)
	return lvl
}

// Validate reports every out-of-range value, joined.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	_, ok := log.ParseLevel(c.LogLevel)
	check(ok, "log_level %q is not one of debug, info, warn, error", c.LogLevel)

	a := c.Audio
	check(a.InputDevice >= MinDeviceID, "audio.input_device must be >= %d", MinDeviceID)
	check(a.SampleRate >= MinSampleRate && a.SampleRate <= MaxSampleRate,
		"audio.sample_rate %.0f outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	check(a.FramesPerBuffer > 0 && a.FramesPerBuffer <= MaxBufferFrames,
		"audio.frames_per_buffer %d outside [1, %d]", a.FramesPerBuffer, MaxBufferFrames)
	check(a.InputChannels >= 1, "audio.input_channels must be at least 1")

	errs = append(errs, validateAnalysis(c.Analysis)...)
	errs = append(errs, validatePipeline(c.Pipeline)...)

	switch c.Recording.BitDepth {
	case 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("recording.bit_depth %d must be 16, 24 or 32", c.Recording.BitDepth))
	}
	if c.Recording.Enabled {
		check(c.Recording.OutputDir != "", "recording.output_dir must be set when recording is enabled")
	}

	if t := c.Transport; t.UDPEnabled {
		check(t.UDPTargetAddress != "", "transport.udp_target_address must be set when UDP is enabled")
		check(strings.Contains(t.UDPTargetAddress, ":"),
			"transport.udp_target_address '%s' appears invalid (missing port?)", t.UDPTargetAddress)
		check(t.UDPSendInterval > 0, "transport.udp_send_interval must be positive when UDP is enabled")
	}
	if c.Server.Enabled {
		check(c.Server.Addr != "", "server.addr must be set when the server is enabled")
	}
	if c.Journal.Enabled {
		check(c.Journal.Path != "", "journal.path must be set when the journal is enabled")
	}
	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables. Unparseable values are ignored
// with a warning.
func (c *Config) applyEnvOverrides() {
	boolVar := func(key string, dst *bool) {
		if val, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(val)
			if err != nil {
				log.Warnf("Config: ignoring %s=%q: %v", key, val, err)
				return
			}
			*dst = b
			log.Infof("Config: Overriding from env %s=%v", key, b)
		}
	}
	stringVar := func(key string, dst *string) {
		if val, ok := os.LookupEnv(key); ok {
			*dst = val
			log.Infof("Config: Overriding from env %s=%s", key, val)
		}
	}

	boolVar("ENV_DEBUG", &c.Debug)
	stringVar("ENV_LOG_LEVEL", &c.LogLevel)

	boolVar("ENV_UDP_ENABLED", &c.Transport.UDPEnabled)
	stringVar("ENV_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			log.Infof("Config: Overriding from env ENV_UDP_SEND_INTERVAL=%s", dur)
		} else {
			log.Warnf("Config: ignoring ENV_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}

	stringVar("ENV_WS_ADDR", &c.Server.Addr)
	if val, ok := os.LookupEnv("ENV_JOURNAL_PATH"); ok {
		c.Journal.Path = val
		c.Journal.Enabled = val != ""
		log.Infof("Config: Overriding from env ENV_JOURNAL_PATH=%s", val)
	}
}
