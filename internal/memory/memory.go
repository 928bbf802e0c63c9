// SPDX-License-Identifier: MIT
/*
Package memory aggregates long-window statistics over energy, bass and
harshness, tracks a bounded history of musical sections, and derives a
narrative phase, a next-section prediction and a per-frame anomaly report.

It only classifies. Nothing here chooses colors, patterns or channel values.
*/
package memory

import (
	"time"

	"luxsync/internal/section"
	"luxsync/internal/stats"
	"luxsync/pkg/ringbuf"
)

// Config tunes the contextual memory.
type Config struct {
	Stats              stats.Config  `yaml:"stats" json:"stats"`
	SectionHistorySize int           `yaml:"section_history_size" json:"sectionHistorySize"`
	RecentDropLookback int           `yaml:"recent_drop_lookback" json:"recentDropLookback"`
	TransientWindow    time.Duration `yaml:"transient_window" json:"transientWindow"`

	NotableThreshold     float64 `yaml:"notable_threshold" json:"notableThreshold"`
	SignificantThreshold float64 `yaml:"significant_threshold" json:"significantThreshold"`
	EpicThreshold        float64 `yaml:"epic_threshold" json:"epicThreshold"`

	// Whole-window energy levels reported as sustained_high / sustained_low
	// when no metric is notable.
	SustainedHighLevel float64 `yaml:"sustained_high_level" json:"sustainedHighLevel"`
	SustainedLowLevel  float64 `yaml:"sustained_low_level" json:"sustainedLowLevel"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Stats:                stats.DefaultConfig(),
		SectionHistorySize:   16,
		RecentDropLookback:   3,
		TransientWindow:      time.Second,
		NotableThreshold:     1.5,
		SignificantThreshold: 2.0,
		EpicThreshold:        2.5,
		SustainedHighLevel:   0.7,
		SustainedLowLevel:    0.2,
	}
}

// Input is one frame of context metrics.
type Input struct {
	Energy       float64
	Bass         float64
	Harshness    float64
	Section      section.Label
	Timestamp    time.Duration
	HasTransient bool
}

// SectionHistoryEntry describes a closed section. Entries are immutable.
type SectionHistoryEntry struct {
	Type       section.Label `json:"type"`
	StartTime  time.Duration `json:"startTime"`
	Duration   time.Duration `json:"duration"`
	AvgEnergy  float64       `json:"avgEnergy"`
	PeakEnergy float64       `json:"peakEnergy"`
}

// Output is the per-frame snapshot of the contextual memory.
type Output struct {
	Energy    stats.MetricStats `json:"energy"`
	Bass      stats.MetricStats `json:"bass"`
	Harshness stats.MetricStats `json:"harshness"`
	WarmedUp  bool              `json:"warmedUp"`

	Section         section.Label         `json:"section"`
	SectionStart    time.Duration         `json:"sectionStart"`
	SectionDuration time.Duration         `json:"sectionDuration"`
	History         []SectionHistoryEntry `json:"history"`
	ClosedSection   *SectionHistoryEntry  `json:"closedSection,omitempty"` // set only on the frame a section closed

	Phase                 section.Phase `json:"phase"`
	Predicted             section.Label `json:"predicted"`
	PredictionProbability float64       `json:"predictionProbability"`

	TransientRate float64       `json:"transientRate"` // transients per second over TransientWindow
	Anomaly       AnomalyReport `json:"anomaly"`
}

type openSection struct {
	label     section.Label
	start     time.Duration
	energySum float64
	frames    int
	peak      float64
}

func (o openSection) close(end time.Duration) SectionHistoryEntry {
	avg := 0.0
	if o.frames > 0 {
		avg = o.energySum / float64(o.frames)
	}
	return SectionHistoryEntry{
		Type:       o.label,
		StartTime:  o.start,
		Duration:   end - o.start,
		AvgEnergy:  avg,
		PeakEnergy: o.peak,
	}
}

// Memory is the contextual memory for one audio stream. Not safe for
// concurrent use.
type Memory struct {
	cfg Config

	energy    *stats.Rolling
	bass      *stats.Rolling
	harshness *stats.Rolling

	current    openSection
	hasSection bool
	history    *ringbuf.Ring[SectionHistoryEntry]

	phase      section.Phase
	transients []time.Duration
}

// New builds a memory in its reset state.
func New(cfg Config) *Memory {
	m := &Memory{
		cfg:       cfg,
		energy:    stats.NewRolling(cfg.Stats),
		bass:      stats.NewRolling(cfg.Stats),
		harshness: stats.NewRolling(cfg.Stats),
		history:   ringbuf.New[SectionHistoryEntry](cfg.SectionHistorySize),
	}
	m.Reset()
	return m
}

// Update folds one frame into the memory.
func (m *Memory) Update(in Input) Output {
	label := in.Section
	if label == "" {
		label = section.Unknown
	}

	out := Output{
		Energy:    m.energy.Update(in.Energy),
		Bass:      m.bass.Update(in.Bass),
		Harshness: m.harshness.Update(in.Harshness),
	}
	out.WarmedUp = m.energy.IsWarmedUp()

	switch {
	case !m.hasSection:
		m.openSection(label, in.Timestamp)
	case label != m.current.label:
		closed := m.current.close(in.Timestamp)
		m.history.Push(closed)
		out.ClosedSection = &closed
		m.openSection(label, in.Timestamp)
	}
	m.current.energySum += in.Energy
	m.current.frames++
	m.current.peak = max(m.current.peak, in.Energy)

	out.TransientRate = m.trackTransients(in.HasTransient, in.Timestamp)

	streak := m.buildupStreak()
	m.phase = m.derivePhase(label, streak)
	out.Predicted, out.PredictionProbability = predictNext(label, streak)

	out.Section = label
	out.SectionStart = m.current.start
	out.SectionDuration = in.Timestamp - m.current.start
	out.History = m.history.Values()
	out.Phase = m.phase
	out.Anomaly = detectAnomaly(m.cfg, out.Energy, out.Bass, out.Harshness, label, out.WarmedUp)
	return out
}

// IsWarmedUp reports whether the rolling windows hold enough samples for
// anomaly decisions.
func (m *Memory) IsWarmedUp() bool { return m.energy.IsWarmedUp() }

// History returns closed sections, oldest first.
func (m *Memory) History() []SectionHistoryEntry { return m.history.Values() }

// Reset zeroes every rolling window, the section history and the phase.
func (m *Memory) Reset() {
	m.energy.Reset()
	m.bass.Reset()
	m.harshness.Reset()
	m.history.Reset()
	m.current = openSection{}
	m.hasSection = false
	m.phase = section.PhaseIntro
	m.transients = m.transients[:0]
}

func (m *Memory) openSection(label section.Label, ts time.Duration) {
	m.current = openSection{label: label, start: ts}
	m.hasSection = true
}

func (m *Memory) trackTransients(hit bool, ts time.Duration) float64 {
	if hit {
		m.transients = append(m.transients, ts)
	}
	cutoff := ts - m.cfg.TransientWindow
	drop := 0
	for drop < len(m.transients) && m.transients[drop] <= cutoff {
		drop++
	}
	if drop > 0 {
		m.transients = append(m.transients[:0], m.transients[drop:]...)
	}
	if m.cfg.TransientWindow <= 0 {
		return 0
	}
	return float64(len(m.transients)) / m.cfg.TransientWindow.Seconds()
}
