package analysis

import "math"

// OnsetDetector flags kick-like onsets from broadband energy jumps: the
// current RMS must exceed Threshold and rise by more than MinRatio over the
// previous frame.
type OnsetDetector struct {
	threshold float64
	minRatio  float64
	last      float64
}

// NewOnsetDetector builds a detector with the given RMS threshold and ratio.
func NewOnsetDetector(threshold, minRatio float64) *OnsetDetector {
	return &OnsetDetector{threshold: threshold, minRatio: minRatio}
}

// Detect consumes one frame's RMS and reports an onset.
func (d *OnsetDetector) Detect(rms float64) bool {
	hit := rms > d.threshold && (d.last == 0 || rms/d.last > d.minRatio)
	d.last = rms
	return hit
}

// Reset forgets the previous frame.
func (d *OnsetDetector) Reset() { d.last = 0 }

// RMS returns the root mean square of samples in [-1, 1].
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquare float64
	for _, s := range samples {
		sumSquare += s * s
	}
	return math.Sqrt(sumSquare / float64(len(samples)))
}

// NormalizeDB maps an RMS level onto [0, 1] over [floorDB, 0] dBFS.
func NormalizeDB(rms, floorDB float64) float64 {
	if rms <= 0 || floorDB >= 0 {
		return 0
	}
	db := 20 * math.Log10(rms)
	return math.Max(0, math.Min(1, (db-floorDB)/-floorDB))
}
