// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"luxsync/internal/analysis"
	"luxsync/internal/config"
	"luxsync/internal/log"
)

func newReplayCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file.wav>",
		Short: "Run the decision pipeline over a WAV file",
		Long: "Replay decodes a PCM WAV file, extracts features at the configured frame rate\n" +
			"and runs them through the pipeline as fast as possible. Sections come from\n" +
			"--cues or stay fixed at --section. Journal and UDP outputs follow the configuration.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			return runReplay(cmd.Context(), cfg, o, args[0], cmd.OutOrStdout())
		},
	}
}

func runReplay(ctx context.Context, cfg *config.Config, o *options, path string, w io.Writer) (err error) {
	src, err := analysis.OpenWAV(path)
	if err != nil {
		return err
	}
	defer src.Close()
	info := src.Info()
	log.Infof("Replay: %s (%d Hz, %d channel(s), %d bit)", path, info.SampleRate, info.Channels, info.BitDepth)

	source, _, err := sectionSource(cfg, o.section)
	if err != nil {
		return err
	}

	out, err := openOutputs(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sess := newSession(cfg, source, out)

	// Keep the first pipeline error and skip the frames after it.
	var procErr error
	extractor, err := analysis.NewExtractor(cfg.Analysis, float64(info.SampleRate), func(f analysis.Features) {
		if procErr == nil {
			procErr = sess.handle(f)
		}
	})
	if err != nil {
		return err
	}

	if err := src.Stream(ctx, extractor); err != nil {
		return err
	}
	if procErr != nil {
		return procErr
	}

	fmt.Fprintf(w, "session %s: %d frames, %d force strikes\n", sess.pipe.SessionID(), sess.frames, sess.strikes)
	return nil
}
