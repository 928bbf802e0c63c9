// SPDX-License-Identifier: MIT
/*
Package pipeline wires the decision stages into a single per-frame call:

	Frame -> energy.Engine -> memory.Memory -> dropbridge.Bridge -> Snapshot

The pipeline is single-threaded; callers serialise Process and Reset. The
resulting Snapshot is an immutable value that transports, metrics and the
journal consume without further synchronisation.
*/
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"luxsync/internal/dropbridge"
	"luxsync/internal/energy"
	"luxsync/internal/log"
	"luxsync/internal/memory"
	"luxsync/internal/section"
)

// ErrNonMonotonic is returned when a frame's timestamp does not advance.
var ErrNonMonotonic = errors.New("pipeline: timestamp not increasing")

// Config groups the stage configurations.
type Config struct {
	Energy energy.Config     `yaml:"energy" json:"energy"`
	Memory memory.Config     `yaml:"memory" json:"memory"`
	Bridge dropbridge.Config `yaml:"drop_bridge" json:"dropBridge"`
}

// DefaultConfig returns the defaults of every stage.
func DefaultConfig() Config {
	return Config{
		Energy: energy.DefaultConfig(),
		Memory: memory.DefaultConfig(),
		Bridge: dropbridge.DefaultConfig(),
	}
}

// Frame is one analysed slice of audio. Energy, Bass and Harshness are
// normalised to [0,1]. HasTransient is the extractor's onset flag and feeds
// the transient rate; HasKick feeds the drop bridge.
type Frame struct {
	Timestamp    time.Duration `json:"timestamp"`
	Energy       float64       `json:"energy"`
	Bass         float64       `json:"bass"`
	Harshness    float64       `json:"harshness"`
	HasKick      bool          `json:"hasKick"`
	HasTransient bool          `json:"hasTransient"`
	Section      section.Label `json:"section"`
}

// Snapshot is the full decision for one frame.
type Snapshot struct {
	SessionID string            `json:"sessionId"`
	Track     int               `json:"track"`
	Sequence  uint64            `json:"sequence"`
	Frame     Frame             `json:"frame"`
	Energy    energy.Context    `json:"energy"`
	Memory    memory.Output     `json:"memory"`
	Bridge    dropbridge.Result `json:"bridge"`

	// Confidence in the current zone transition, see energy.TransitionConfidence.
	Confidence float64 `json:"confidence"`
	Vocal      bool    `json:"vocal"`
}

// Pipeline owns one instance of each stage.
type Pipeline struct {
	cfg       Config
	sessionID string
	track     int
	seq       uint64
	last      time.Duration
	started   bool

	engine *energy.Engine
	memory *memory.Memory
	bridge *dropbridge.Bridge
}

// New builds a pipeline with a fresh session ID.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		track:     1,
		engine:    energy.NewEngine(cfg.Energy),
		memory:    memory.New(cfg.Memory),
		bridge:    dropbridge.New(cfg.Bridge),
	}
	log.Infof("Pipeline: session %s started", p.sessionID)
	return p
}

// SessionID identifies this pipeline instance across all outputs.
func (p *Pipeline) SessionID() string { return p.sessionID }

// Track returns the 1-based track counter, incremented by Reset.
func (p *Pipeline) Track() int { return p.track }

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Process runs one frame through every stage.
func (p *Pipeline) Process(f Frame) (Snapshot, error) {
	if p.started && f.Timestamp <= p.last {
		return Snapshot{}, fmt.Errorf("%w: %s after %s", ErrNonMonotonic, f.Timestamp, p.last)
	}
	if f.Section == "" {
		f.Section = section.Unknown
	}
	p.started = true
	p.last = f.Timestamp

	ctx := p.engine.Process(f.Energy, f.Bass, f.Timestamp)
	if ctx.Zone != ctx.PreviousZone && ctx.LastZoneChange == f.Timestamp {
		log.Debugf("Pipeline: zone %s -> %s at %s", ctx.PreviousZone, ctx.Zone, f.Timestamp)
	}

	mem := p.memory.Update(memory.Input{
		Energy:       ctx.Smoothed,
		Bass:         f.Bass,
		Harshness:    f.Harshness,
		Section:      f.Section,
		Timestamp:    f.Timestamp,
		HasTransient: f.HasTransient,
	})
	if mem.ClosedSection != nil {
		log.Debugf("Pipeline: closed %s after %s (avg %.2f)",
			mem.ClosedSection.Type, mem.ClosedSection.Duration, mem.ClosedSection.AvgEnergy)
	}

	res := p.bridge.Process(dropbridge.Input{
		EnergyZ:   mem.Energy.ZScore,
		Section:   f.Section,
		Energy:    ctx.Absolute,
		HasKick:   f.HasKick,
		Harshness: f.Harshness,
		WarmedUp:  mem.WarmedUp,
		Timestamp: f.Timestamp,
	})
	if res.ShouldForceStrike {
		log.Infof("Pipeline: force strike at %s intensity %.2f (%s)", f.Timestamp, res.Intensity, res.Reason)
	}

	p.seq++
	return Snapshot{
		SessionID:  p.sessionID,
		Track:      p.track,
		Sequence:   p.seq,
		Frame:      f,
		Energy:     ctx,
		Memory:     mem,
		Bridge:     res,
		Confidence: energy.TransitionConfidence(ctx),
		Vocal:      energy.IsProbablyVocal(ctx),
	}, nil
}

// Reset clears every stage for a new track. The session ID is kept.
func (p *Pipeline) Reset() {
	p.engine.Reset()
	p.memory.Reset()
	p.bridge.Reset()
	p.started = false
	p.last = 0
	p.track++
	log.Infof("Pipeline: reset for track %d", p.track)
}
