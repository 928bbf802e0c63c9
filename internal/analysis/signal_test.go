// SPDX-License-Identifier: MIT
package analysis

import "math"

func sineWave(size int, sampleRate, frequency, amplitude float64) []float64 {
	buf := make([]float64, size)
	for i := range buf {
		t := float64(i) / sampleRate
		buf[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return buf
}

// complexWave is a 440Hz fundamental with two harmonics.
func complexWave(size int, sampleRate float64) []float64 {
	buf := make([]float64, size)
	for i := range buf {
		t := float64(i) / sampleRate
		buf[i] = 0.9 * (math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2)
	}
	return buf
}

func findPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	startBin = max(startBin, 0)
	endBin = min(endBin, len(magnitudes)-1)

	peak := startBin
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > magnitudes[peak] {
			peak = bin
		}
	}
	return peak
}

type collector struct {
	samples []float64
	calls   int
}

func (c *collector) Process(samples []float64) {
	c.samples = append(c.samples, samples...)
	c.calls++
}
