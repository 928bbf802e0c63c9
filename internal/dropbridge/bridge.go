// SPDX-License-Identifier: MIT
//
// Package dropbridge is the final override gate of the pipeline. It forces a
// maximum-intensity action when energy, section and statistical extremity all
// align, independent of and higher priority than any other decision logic.
// A cooldown keeps it from re-firing while a previous strike is resolving.
package dropbridge

import (
	"fmt"
	"math"
	"slices"
	"time"

	"luxsync/internal/section"
)

// MetricsVersion is bumped whenever the Metrics layout changes.
const MetricsVersion = 1

// AlertLevel is the early-warning progression exposed to consumers.
type AlertLevel string

const (
	AlertNone      AlertLevel = "none"
	AlertWatching  AlertLevel = "watching"
	AlertImminent  AlertLevel = "imminent"
	AlertActivated AlertLevel = "activated"
)

// Config tunes the gate.
type Config struct {
	StrikeZ          float64         `yaml:"strike_z" json:"strikeZ"`
	ImminentZ        float64         `yaml:"imminent_z" json:"imminentZ"`
	WatchingZ        float64         `yaml:"watching_z" json:"watchingZ"`
	ImminentFrames   int             `yaml:"imminent_frames" json:"imminentFrames"` // consecutive frames at ImminentZ before imminent
	AllowedSections  []section.Label `yaml:"allowed_sections" json:"allowedSections"`
	MinEnergy        float64         `yaml:"min_energy" json:"minEnergy"`
	RequireKick      bool            `yaml:"require_kick" json:"requireKick"`
	Cooldown         time.Duration   `yaml:"cooldown" json:"cooldown"`
	BaseIntensity    float64         `yaml:"base_intensity" json:"baseIntensity"`
	IntensityPerZ    float64         `yaml:"intensity_per_z" json:"intensityPerZ"`
	KickBonus        float64         `yaml:"kick_bonus" json:"kickBonus"`
	HarshnessBonus   float64         `yaml:"harshness_bonus" json:"harshnessBonus"`
	HarshnessTrigger float64         `yaml:"harshness_trigger" json:"harshnessTrigger"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		StrikeZ:          3.0,
		ImminentZ:        2.5,
		WatchingZ:        2.0,
		ImminentFrames:   3,
		AllowedSections:  []section.Label{section.Drop, section.Chorus},
		MinEnergy:        0.75,
		RequireKick:      false,
		Cooldown:         2 * time.Second,
		BaseIntensity:    0.85,
		IntensityPerZ:    0.15,
		KickBonus:        0.05,
		HarshnessBonus:   0.03,
		HarshnessTrigger: 0.7,
	}
}

// Input is one frame presented to the gate. Harshness and HasKick are
// optional; zero values skip their bonuses.
type Input struct {
	EnergyZ   float64
	Section   section.Label
	Energy    float64
	HasKick   bool
	Harshness float64
	WarmedUp  bool
	Timestamp time.Duration
}

// Metrics is the diagnostic echo of a decision.
type Metrics struct {
	Version           int           `json:"version"`
	EnergyZ           float64       `json:"energyZ"`
	Energy            float64       `json:"energy"`
	Section           section.Label `json:"section"`
	HasKick           bool          `json:"hasKick"`
	Harshness         float64       `json:"harshness"`
	WarmedUp          bool          `json:"warmedUp"`
	ConsecutiveHighZ  int           `json:"consecutiveHighZ"`
	CooldownRemaining time.Duration `json:"cooldownRemaining"`
}

// Result is the per-frame decision. ShouldForceStrike overrides every other
// decision path for the frame.
type Result struct {
	ShouldForceStrike bool       `json:"shouldForceStrike"`
	Intensity         float64    `json:"intensity"`
	Reason            string     `json:"reason"`
	AlertLevel        AlertLevel `json:"alertLevel"`
	Metrics           Metrics    `json:"metrics"`
}

// Bridge owns the cooldown timestamp and the consecutive high-Z counter.
type Bridge struct {
	cfg         Config
	lastStrike  time.Duration
	hasStruck   bool
	consecutive int
	strikes     int
}

// New builds a bridge in its reset state.
func New(cfg Config) *Bridge {
	return &Bridge{cfg: cfg}
}

// Process evaluates one frame.
func (b *Bridge) Process(in Input) Result {
	if in.EnergyZ >= b.cfg.ImminentZ {
		b.consecutive++
	} else {
		b.consecutive = 0
	}

	res := Result{
		AlertLevel: b.alertLevel(in.EnergyZ),
		Metrics: Metrics{
			Version:          MetricsVersion,
			EnergyZ:          in.EnergyZ,
			Energy:           in.Energy,
			Section:          in.Section,
			HasKick:          in.HasKick,
			Harshness:        in.Harshness,
			WarmedUp:         in.WarmedUp,
			ConsecutiveHighZ: b.consecutive,
		},
	}

	switch {
	case !in.WarmedUp:
		res.Reason = "statistics warming up"
		return res
	case in.EnergyZ < b.cfg.StrikeZ:
		res.Reason = fmt.Sprintf("energy z %.2f below %.2f", in.EnergyZ, b.cfg.StrikeZ)
		return res
	case !slices.Contains(b.cfg.AllowedSections, in.Section):
		res.Reason = fmt.Sprintf("section %s not eligible", in.Section)
		return res
	case in.Energy < b.cfg.MinEnergy:
		res.Reason = fmt.Sprintf("energy %.2f below minimum %.2f", in.Energy, b.cfg.MinEnergy)
		return res
	case b.cfg.RequireKick && !in.HasKick:
		res.Reason = "no kick confirmed"
		return res
	}

	if b.hasStruck {
		if remaining := b.cfg.Cooldown - (in.Timestamp - b.lastStrike); remaining > 0 {
			res.Metrics.CooldownRemaining = remaining
			res.Reason = fmt.Sprintf("cooldown active (%dms remaining)", remaining.Milliseconds())
			return res
		}
	}

	res.ShouldForceStrike = true
	res.Intensity = b.intensity(in)
	res.AlertLevel = AlertActivated
	res.Reason = fmt.Sprintf("drop bridge: %.2f sigma in %s at energy %.2f", in.EnergyZ, in.Section, in.Energy)
	b.lastStrike = in.Timestamp
	b.hasStruck = true
	b.strikes++
	return res
}

// Strikes returns how many times the bridge fired since the last reset.
func (b *Bridge) Strikes() int { return b.strikes }

// Reset clears the cooldown and counters. Call on track change.
func (b *Bridge) Reset() {
	b.lastStrike = 0
	b.hasStruck = false
	b.consecutive = 0
	b.strikes = 0
}

func (b *Bridge) alertLevel(z float64) AlertLevel {
	switch {
	case z >= b.cfg.ImminentZ && b.consecutive >= b.cfg.ImminentFrames:
		return AlertImminent
	case z >= b.cfg.WatchingZ:
		return AlertWatching
	default:
		return AlertNone
	}
}

func (b *Bridge) intensity(in Input) float64 {
	v := b.cfg.BaseIntensity + (in.EnergyZ-b.cfg.StrikeZ)*b.cfg.IntensityPerZ
	if in.HasKick {
		v += b.cfg.KickBonus
	}
	if in.Harshness >= b.cfg.HarshnessTrigger {
		v += b.cfg.HarshnessBonus
	}
	return math.Max(b.cfg.BaseIntensity, math.Min(1.0, v))
}
