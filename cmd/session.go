// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"

	"luxsync/internal/analysis"
	"luxsync/internal/config"
	"luxsync/internal/journal"
	"luxsync/internal/log"
	"luxsync/internal/pipeline"
	"luxsync/internal/section"
	"luxsync/internal/transport"
	"luxsync/internal/transport/udp"
)

// session drives one pipeline from extracted features to its outputs. It is
// not safe for concurrent use.
type session struct {
	pipe    *pipeline.Pipeline
	source  section.Source
	out     transport.Fanout
	frames  uint64
	strikes int
}

func newSession(cfg *config.Config, source section.Source, out transport.Fanout) *session {
	return &session{
		pipe:   pipeline.New(cfg.Pipeline),
		source: source,
		out:    out,
	}
}

// handle runs one frame. Output failures are logged, pipeline failures are
// returned.
func (s *session) handle(f analysis.Features) error {
	snap, err := s.pipe.Process(pipeline.Frame{
		Timestamp:    f.Timestamp,
		Energy:       f.Energy,
		Bass:         f.Bass,
		Harshness:    f.Harshness,
		HasKick:      f.Kick,
		HasTransient: f.Kick,
		Section:      s.source.LabelAt(f.Timestamp),
	})
	if err != nil {
		return err
	}

	s.frames++
	if snap.Bridge.ShouldForceStrike {
		s.strikes++
	}
	if err := s.out.Send(snap); err != nil {
		log.Warnf("Session: output: %v", err)
	}
	return nil
}

// sectionSource picks the cue sheet when one is configured, otherwise an
// operator selector starting at initial.
func sectionSource(cfg *config.Config, initial string) (section.Source, *section.Selector, error) {
	if cfg.CueSheet != "" {
		cues, err := config.LoadCueSheet(cfg.CueSheet)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Session: %d section cues from %s", len(cues), cfg.CueSheet)
		return cues, nil, nil
	}

	label, err := section.ParseLabel(initial)
	if err != nil {
		return nil, nil, err
	}
	sel := section.NewSelector(label)
	return sel, sel, nil
}

// openOutputs builds the configured network and storage outputs. The
// returned fanout is closed by the caller.
func openOutputs(cfg *config.Config) (out transport.Fanout, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(err, out.Close())
			out = nil
		}
	}()

	out = append(out, transport.NewLoggingTransport(cfg.Transport.LogEvery))

	if t := cfg.Transport; t.UDPEnabled {
		sender, err := udp.NewSender(t.UDPTargetAddress)
		if err != nil {
			return out, fmt.Errorf("udp: %w", err)
		}
		pub, err := udp.NewPublisher(t.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return out, err
		}
		pub.Start()
		out = append(out, pub)
	}

	if cfg.Journal.Enabled {
		j, err := journal.Open(journal.Options{Dir: cfg.Journal.Path})
		if err != nil {
			return out, fmt.Errorf("journal: %w", err)
		}
		out = append(out, j)
	}
	return out, nil
}
