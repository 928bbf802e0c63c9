// SPDX-License-Identifier: MIT
/*
Package energy turns one raw energy scalar per frame into a stable zone
classification that resists noise but reacts instantly to real surges.

Two transient preservers run side by side:
  - an asymmetric EMA that rises fast and falls slowly
  - a peak hold that freezes a capture for a short window, then decays

A frame counts as transient when raw jumps well above the EMA or a peak hold is
still live. Transient frames report and classify the peak hold instead of the
EMA, so percussive hits are not blurred across hundreds of milliseconds.

All time comes from the caller as a monotonic stream offset. The engine never
reads a wall clock.
*/
package energy

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"luxsync/pkg/ringbuf"
)

// Config tunes the engine. All fields are required; use DefaultConfig and
// override what you need.
type Config struct {
	Zones Boundaries `yaml:"zones" json:"zones"`

	RisingFactor  float64 `yaml:"rising_factor" json:"risingFactor"`   // EMA retention when raw > smoothed
	FallingFactor float64 `yaml:"falling_factor" json:"fallingFactor"` // EMA retention otherwise

	PeakHold            time.Duration `yaml:"peak_hold" json:"peakHold"`
	PeakDecayFast       float64       `yaml:"peak_decay_fast" json:"peakDecayFast"`
	PeakDecaySlow       float64       `yaml:"peak_decay_slow" json:"peakDecaySlow"`
	PercussionThreshold float64       `yaml:"percussion_threshold" json:"percussionThreshold"` // bass level selecting the fast decay

	TransientDelta   float64       `yaml:"transient_delta" json:"transientDelta"`
	TransientPersist time.Duration `yaml:"transient_persist" json:"transientPersist"`

	PercentileWindow int `yaml:"percentile_window" json:"percentileWindow"`
	PercentileWarmup int `yaml:"percentile_warmup" json:"percentileWarmup"`

	TrendWindow int     `yaml:"trend_window" json:"trendWindow"`
	TrendGain   float64 `yaml:"trend_gain" json:"trendGain"`

	SustainedHighThreshold float64       `yaml:"sustained_high_threshold" json:"sustainedHighThreshold"`
	SustainedHighMax       time.Duration `yaml:"sustained_high_max" json:"sustainedHighMax"`
	SustainedLowThreshold  float64       `yaml:"sustained_low_threshold" json:"sustainedLowThreshold"`
	SustainedLowMin        time.Duration `yaml:"sustained_low_min" json:"sustainedLowMin"`

	FlashbangWindow time.Duration `yaml:"flashbang_window" json:"flashbangWindow"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Zones:                  DefaultBoundaries(),
		RisingFactor:           0.3,
		FallingFactor:          0.92,
		PeakHold:               80 * time.Millisecond,
		PeakDecayFast:          0.85,
		PeakDecaySlow:          0.95,
		PercussionThreshold:    0.5,
		TransientDelta:         0.05,
		TransientPersist:       1500 * time.Millisecond,
		PercentileWindow:       300,
		PercentileWarmup:       10,
		TrendWindow:            10,
		TrendGain:              5,
		SustainedHighThreshold: 0.7,
		SustainedHighMax:       3 * time.Second,
		SustainedLowThreshold:  0.4,
		SustainedLowMin:        5 * time.Second,
		FlashbangWindow:        100 * time.Millisecond,
	}
}

// Context is the per-frame output of the engine.
type Context struct {
	Timestamp      time.Duration `json:"timestamp"`
	Absolute       float64       `json:"absolute"`
	Smoothed       float64       `json:"smoothed"` // effective energy: peak hold on transient frames, EMA otherwise
	EMA            float64       `json:"ema"`
	PeakHold       float64       `json:"peakHold"`
	Transient      bool          `json:"transient"`
	Percentile     int           `json:"percentile"`
	Zone           Zone          `json:"zone"`
	PreviousZone   Zone          `json:"previousZone"`
	LastZoneChange time.Duration `json:"lastZoneChange"`
	SustainedLow   bool          `json:"sustainedLow"`
	SustainedHigh  bool          `json:"sustainedHigh"`
	Trend          float64       `json:"trend"`
	IsFlashbang    bool          `json:"isFlashbang"`
}

// SinceZoneChange is the time spent in the current zone as of this frame.
func (c Context) SinceZoneChange() time.Duration {
	return c.Timestamp - c.LastZoneChange
}

// Engine is the energy consciousness state machine. It is owned by a single
// pipeline and is not safe for concurrent use.
type Engine struct {
	cfg Config

	ema float64

	peakHold   float64
	peakHoldAt time.Duration
	hasPeak    bool

	zone           Zone
	previousZone   Zone
	lastZoneChange time.Duration

	history    *ringbuf.Ring[float64]
	trend      *ringbuf.Ring[float64]
	trendFirst []float64
	trendLast  []float64

	aboveHigh bool
	highSince time.Duration
	belowLow  bool
	lowSince  time.Duration

	last Context
}

// NewEngine builds an engine in its reset state.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		cfg:        cfg,
		history:    ringbuf.New[float64](cfg.PercentileWindow),
		trend:      ringbuf.New[float64](cfg.TrendWindow),
		trendFirst: make([]float64, 0, cfg.TrendWindow),
		trendLast:  make([]float64, 0, cfg.TrendWindow),
	}
	e.Reset()
	return e
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Process consumes one frame. raw is the frame energy in [0,1]; bass is the
// concurrent percussion indicator (0 when unavailable, which selects the slow
// peak decay). ts must increase between calls.
func (e *Engine) Process(raw, bass float64, ts time.Duration) Context {
	raw = clamp01(raw)

	e.ema = smooth(e.ema, raw, e.cfg.RisingFactor, e.cfg.FallingFactor)
	e.updatePeakHold(raw, bass, ts)

	transient := raw-e.ema > e.cfg.TransientDelta ||
		(e.hasPeak && ts-e.peakHoldAt < e.cfg.TransientPersist)
	effective := e.ema
	if transient {
		effective = e.peakHold
	}

	e.updateZone(raw, effective, ts)

	// Rank against prior samples only.
	pct := e.percentile(raw)
	e.history.Push(raw)
	e.trend.Push(raw)

	ctx := Context{
		Timestamp:      ts,
		Absolute:       raw,
		Smoothed:       effective,
		EMA:            e.ema,
		PeakHold:       e.peakHold,
		Transient:      transient,
		Percentile:     pct,
		Zone:           e.zone,
		PreviousZone:   e.previousZone,
		LastZoneChange: e.lastZoneChange,
		SustainedHigh:  e.sustainedHigh(effective, ts),
		SustainedLow:   e.sustainedLow(effective, ts),
		Trend:          e.computeTrend(),
	}
	ctx.IsFlashbang = ctx.SinceZoneChange() < e.cfg.FlashbangWindow &&
		ctx.PreviousZone.IsLow() && ctx.Zone.IsHigh()

	e.last = ctx
	return ctx
}

// Last returns the context produced by the most recent Process call.
func (e *Engine) Last() Context { return e.last }

// Reset clears smoothing, zone, history, peak hold and sustain timers. Call on
// track change.
func (e *Engine) Reset() {
	e.ema = 0
	e.peakHold, e.peakHoldAt, e.hasPeak = 0, 0, false
	e.zone, e.previousZone, e.lastZoneChange = Silence, Silence, 0
	e.history.Reset()
	e.trend.Reset()
	e.aboveHigh, e.highSince = false, 0
	e.belowLow, e.lowSince = false, 0
	e.last = Context{Percentile: 50}
}

// smooth applies the asymmetric EMA. factor is the retention of the previous
// value, so the rising factor being smaller means rises are tracked faster.
func smooth(prev, raw, rising, falling float64) float64 {
	factor := falling
	if raw > prev {
		factor = rising
	}
	return prev*factor + raw*(1-factor)
}

func (e *Engine) updatePeakHold(raw, bass float64, ts time.Duration) {
	if raw > e.peakHold {
		e.peakHold = raw
		e.peakHoldAt = ts
		e.hasPeak = true
		return
	}
	if ts-e.peakHoldAt < e.cfg.PeakHold {
		return
	}
	decay := e.cfg.PeakDecaySlow
	if bass > e.cfg.PercussionThreshold {
		decay = e.cfg.PeakDecayFast
	}
	e.peakHold = math.Max(e.peakHold*decay, raw)
}

func (e *Engine) updateZone(raw, effective float64, ts time.Duration) {
	b := e.cfg.Zones
	next := e.zone
	if e.zone.IsLow() {
		if up := b.Classify(raw); up > e.zone {
			next = up
		} else if down := b.Classify(e.ema); down < e.zone {
			next = down
		}
	} else {
		next = b.Classify(effective)
	}

	if next != e.zone {
		e.previousZone = e.zone
		e.zone = next
		e.lastZoneChange = ts
	}
}

func (e *Engine) percentile(raw float64) int {
	n := e.history.Len()
	if n == 0 || n < e.cfg.PercentileWarmup {
		return 50
	}
	below := 0
	for _, v := range e.history.All() {
		if v < raw {
			below++
		}
	}
	return max(0, min(100, below*100/n))
}

func (e *Engine) computeTrend() float64 {
	n := e.trend.Len()
	if n < 2 {
		return 0
	}
	half := n / 2
	e.trendFirst = e.trendFirst[:0]
	e.trendLast = e.trendLast[:0]
	for i, v := range e.trend.All() {
		if i < half {
			e.trendFirst = append(e.trendFirst, v)
		} else {
			e.trendLast = append(e.trendLast, v)
		}
	}
	diff := stat.Mean(e.trendLast, nil) - stat.Mean(e.trendFirst, nil)
	return math.Max(-1, math.Min(1, diff*e.cfg.TrendGain))
}

func (e *Engine) sustainedHigh(energy float64, ts time.Duration) bool {
	if energy < e.cfg.SustainedHighThreshold {
		e.aboveHigh = false
		return false
	}
	if !e.aboveHigh {
		e.aboveHigh = true
		e.highSince = ts
	}
	return ts-e.highSince < e.cfg.SustainedHighMax
}

func (e *Engine) sustainedLow(energy float64, ts time.Duration) bool {
	if energy >= e.cfg.SustainedLowThreshold {
		e.belowLow = false
		return false
	}
	if !e.belowLow {
		e.belowLow = true
		e.lowSince = ts
	}
	return ts-e.lowSince >= e.cfg.SustainedLowMin
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
