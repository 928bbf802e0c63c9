// SPDX-License-Identifier: MIT
// Package cmd wires the command line to the capture, analysis and decision
// stages.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"luxsync/internal/config"
	"luxsync/internal/log"
	"luxsync/pkg/build"
)

// options holds flag values. A flag only overrides the loaded configuration
// when it was set explicitly.
type options struct {
	configPath string
	cuesPath   string
	headless   bool
	section    string

	device          int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool

	record    bool
	outputDir string
	verbose   bool
}

// Execute parses args and runs the selected command until it finishes or
// ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	root := newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	return rootCommand(&options{})
}

func rootCommand(o *options) *cobra.Command {
	info := build.Get()

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         build.Description,
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			return runLive(cmd.Context(), cfg, o)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "f", "",
		fmt.Sprintf("Configuration file. Defaults to the first of %v that exists", config.DefaultPaths))
	pf.StringVar(&o.cuesPath, "cues", "",
		"Section cue sheet (YAML). Overrides cue_sheet in the configuration")
	pf.StringVar(&o.section, "section", "",
		"Initial section label when no cue sheet is used (e.g. verse, drop)")
	pf.BoolVarP(&o.verbose, "verbose", "v", false,
		"Show verbose output")

	// Audio Device Configuration
	pf.IntVarP(&o.device, "device", "d", config.MinDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVarP(&o.channels, "channels", "c", 2,
		"Number of channels to capture (1=mono, 2=stereo)")
	pf.Float64VarP(&o.sampleRate, "sample-rate", "s", 44100,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&o.framesPerBuffer, "frames-per-buffer", "b", 512,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&o.lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")

	// Recording Configuration
	rootCmd.Flags().BoolVarP(&o.record, "record", "r", false,
		"Record audio from the specified input device")
	rootCmd.Flags().StringVarP(&o.outputDir, "output", "o", "",
		"Directory for recordings. Files are named recording-DD-MM-YYYY-HHMMSS.wav")
	rootCmd.Flags().BoolVar(&o.headless, "headless", false,
		"Run without the terminal monitor")

	rootCmd.AddCommand(
		newListCommand(),
		newReplayCommand(o),
		newJournalCommand(o),
	)
	return rootCmd
}

// loadConfig resolves the configuration file then applies explicit flags.
func loadConfig(cmd *cobra.Command, o *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Audio.InputDevice = o.device
	}
	if flags.Changed("channels") {
		cfg.Audio.InputChannels = o.channels
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = o.sampleRate
	}
	if flags.Changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = o.framesPerBuffer
	}
	if flags.Changed("low-latency") {
		cfg.Audio.LowLatency = o.lowLatency
	}
	if flags.Changed("record") {
		cfg.Recording.Enabled = o.record
	}
	if o.outputDir != "" {
		cfg.Recording.OutputDir = o.outputDir
	}
	if o.cuesPath != "" {
		cfg.CueSheet = o.cuesPath
	}
	if o.verbose {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log.SetLevel(cfg.Level())
	return cfg, nil
}
