// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"luxsync/internal/analysis"
	"luxsync/internal/audio"
	"luxsync/internal/config"
	"luxsync/internal/log"
	"luxsync/internal/metrics"
	"luxsync/internal/server"
	"luxsync/internal/transport"
	"luxsync/internal/tui"
)

// Extracted frames queued between the audio callback and the pipeline.
const featureQueue = 256

// runLive captures from the input device until ctx is cancelled or the
// operator quits the monitor.
//
// The audio callback only extracts features and queues them. A single
// worker goroutine owns the pipeline, so operator resets are delivered to it
// over a channel.
func runLive(ctx context.Context, cfg *config.Config, o *options) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	source, selector, err := sectionSource(cfg, o.section)
	if err != nil {
		return err
	}

	out, err := openOutputs(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Warnf("Live: closing outputs: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return err
	}
	out = append(out, rec)

	var srv *server.Server
	if cfg.Server.Enabled {
		ws := transport.NewWebSocketTransport()
		srv = server.New(server.Options{
			Addr:      cfg.Server.Addr,
			Gatherer:  reg,
			WebSocket: ws,
			Selector:  selector,
		})
		out = append(out, ws, srv)
	}

	var monitor *transport.ChannelTransport
	if !o.headless {
		monitor = transport.NewChannelTransport(64)
		out = append(out, monitor)
		// The monitor owns the terminal.
		log.SetOutput(io.Discard)
	}

	sess := newSession(cfg, source, out)

	features := make(chan analysis.Features, featureQueue)
	var dropped atomic.Uint64
	extractor, err := analysis.NewExtractor(cfg.Analysis, cfg.Audio.SampleRate, func(f analysis.Features) {
		select {
		case features <- f:
		default:
			dropped.Add(1)
		}
	})
	if err != nil {
		return err
	}

	engine, err := audio.NewEngine(cfg.Audio, extractor)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Errorf("Live: closing audio engine: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	resets := make(chan struct{}, 1)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-resets:
				sess.pipe.Reset()
			case f := <-features:
				if err := sess.handle(f); err != nil {
					log.Warnf("Live: %v", err)
				}
			}
		}
	})

	if srv != nil {
		g.Go(func() error { return srv.Run(ctx) })
	}

	// CRITICAL: Start of real-time audio processing
	if err := engine.StartInputStream(); err != nil {
		cancel()
		g.Wait()
		return err
	}
	if cfg.Recording.Enabled {
		if _, err := engine.StartRecording(cfg.Recording.OutputDir, cfg.Recording.BitDepth); err != nil {
			cancel()
			g.Wait()
			return err
		}
	}

	if monitor != nil {
		g.Go(func() error {
			defer cancel()
			return tui.RunMonitor(monitor.C(), tui.Controls{
				Selector: selector,
				Reset: func() {
					select {
					case resets <- struct{}{}:
					default:
					}
				},
			})
		})
	} else {
		log.Infof("Live: session %s running, press Ctrl+C to stop", sess.pipe.SessionID())
	}

	err = g.Wait()
	log.SetOutput(os.Stderr)
	log.Infof("Live: %d frames, %d strikes, %d frames dropped", sess.frames, sess.strikes, dropped.Load())
	return err
}
