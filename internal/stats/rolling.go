// SPDX-License-Identifier: MIT
//
// Package stats tracks mean, variance, min, max and Z-score over a bounded
// window of a single scalar metric. Updates are O(1) amortized: running sum and
// sum of squares are adjusted for the evicted sample before the new one is
// pushed, and min/max are rescanned only once the window is at capacity.
package stats

import (
	"math"

	"luxsync/pkg/ringbuf"
)

// Defaults for a Rolling window.
const (
	DefaultWindowSize = 1800 // ~30s at 60 frames per second
	DefaultMinStdDev  = 0.05 // floor that keeps quiet passages from producing absurd Z-scores
)

// Config sizes a rolling window. MinStdDev is a calibration constant, not a law:
// too small a floor turns ordinary variation during near-silence into huge
// Z-scores.
type Config struct {
	WindowSize int     `yaml:"window_size" json:"windowSize"`
	MinStdDev  float64 `yaml:"min_std_dev" json:"minStdDev"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize: DefaultWindowSize,
		MinStdDev:  DefaultMinStdDev,
	}
}

// MetricStats is a snapshot of one metric after an update.
type MetricStats struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stdDev"` // floored at Config.MinStdDev
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Current  float64 `json:"current"`
	ZScore   float64 `json:"zScore"`
	Count    int     `json:"count"`
	WarmedUp bool    `json:"warmedUp"`
}

// Rolling is a windowed statistics tracker over one metric.
type Rolling struct {
	cfg    Config
	values *ringbuf.Ring[float64]
	sum    float64
	sumSq  float64
	min    float64
	max    float64
	last   MetricStats
}

// NewRolling builds a tracker. Non-positive sizes fall back to the defaults.
func NewRolling(cfg Config) *Rolling {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.MinStdDev <= 0 {
		cfg.MinStdDev = DefaultMinStdDev
	}
	r := &Rolling{
		cfg:    cfg,
		values: ringbuf.New[float64](cfg.WindowSize),
	}
	r.Reset()
	return r
}

// Update folds value into the window and returns the new snapshot.
func (r *Rolling) Update(value float64) MetricStats {
	if old, ok := r.values.Oldest(); ok && r.values.Full() {
		r.sum -= old
		r.sumSq -= old * old
	}
	r.values.Push(value)
	r.sum += value
	r.sumSq += value * value

	n := float64(r.values.Len())
	mean := r.sum / n
	variance := math.Max(0, r.sumSq/n-mean*mean)
	stdDev := math.Max(math.Sqrt(variance), r.cfg.MinStdDev)

	if r.values.Full() {
		// Incremental min/max cannot forget evicted extremes.
		r.min, r.max = math.Inf(1), math.Inf(-1)
		for _, v := range r.values.All() {
			r.min = math.Min(r.min, v)
			r.max = math.Max(r.max, v)
		}
	} else {
		r.min = math.Min(r.min, value)
		r.max = math.Max(r.max, value)
	}

	r.last = MetricStats{
		Mean:     mean,
		StdDev:   stdDev,
		Min:      r.min,
		Max:      r.max,
		Current:  value,
		ZScore:   (value - mean) / stdDev,
		Count:    r.values.Len(),
		WarmedUp: r.IsWarmedUp(),
	}
	return r.last
}

// Stats returns the snapshot produced by the last Update.
func (r *Rolling) Stats() MetricStats { return r.last }

// IsWarmedUp reports whether at least half the window is populated. Anomaly
// decisions must be suppressed until then.
func (r *Rolling) IsWarmedUp() bool {
	return r.values.Len() >= (r.values.Cap()+1)/2
}

// Len returns the number of buffered samples.
func (r *Rolling) Len() int { return r.values.Len() }

// Reset discards all samples.
func (r *Rolling) Reset() {
	r.values.Reset()
	r.sum, r.sumSq = 0, 0
	r.min, r.max = math.Inf(1), math.Inf(-1)
	r.last = MetricStats{StdDev: r.cfg.MinStdDev}
}
