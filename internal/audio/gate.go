// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// Gate suppresses buffers whose peak amplitude stays under a threshold. It
// is safe to adjust from another goroutine while the stream runs.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Int32 // Absolute amplitude threshold (0-2147483647)
}

// NewGate returns an enabled gate at ~0.1% of full scale.
func NewGate() *Gate {
	g := &Gate{}
	g.enabled.Store(true)
	g.threshold.Store(math.MaxInt32 / 1000)
	return g
}

func (g *Gate) Enable()       { g.enabled.Store(true) }
func (g *Gate) Disable()      { g.enabled.Store(false) }
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// SetThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	threshold = min(max(threshold, 0), 1)
	g.threshold.Store(int32(threshold * float64(math.MaxInt32)))
}

// Threshold returns the current threshold in the range 0.0-1.0.
func (g *Gate) Threshold() float64 {
	return float64(g.threshold.Load()) / float64(math.MaxInt32)
}

// Open reports whether buf should pass. A disabled gate is always open.
func (g *Gate) Open(buf []int32) bool {
	if !g.enabled.Load() {
		return true
	}
	return peak(buf) > g.threshold.Load()
}

// peak returns the largest absolute sample without branching.
func peak(buf []int32) int32 {
	var maxAmplitude int32
	for _, sample := range buf {
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - maxAmplitude
		maxAmplitude += diff &^ (diff >> 31)
	}
	return maxAmplitude
}
