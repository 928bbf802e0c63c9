// SPDX-License-Identifier: MIT
package stats

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestRollingIdenticalValuesUseFloor(t *testing.T) {
	cfg := Config{WindowSize: 16, MinStdDev: 0.02}
	r := NewRolling(cfg)

	for range cfg.WindowSize {
		r.Update(0.5)
	}
	s := r.Update(0.5)

	if s.StdDev != cfg.MinStdDev {
		t.Errorf("StdDev = %v, want floor %v", s.StdDev, cfg.MinStdDev)
	}
	if math.Abs(s.ZScore) > epsilon {
		t.Errorf("ZScore = %v, want 0", s.ZScore)
	}
	if s.Min != 0.5 || s.Max != 0.5 {
		t.Errorf("Min/Max = %v/%v, want 0.5/0.5", s.Min, s.Max)
	}
}

func TestRollingOutlierSign(t *testing.T) {
	tests := []struct {
		name     string
		baseline float64
		outlier  float64
		positive bool
	}{
		{"Spike", 0.3, 0.9, true},
		{"Dip", 0.7, 0.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const n = 32
			r := NewRolling(Config{WindowSize: n, MinStdDev: 0.01})
			for range n - 1 {
				r.Update(tt.baseline)
			}
			s := r.Update(tt.outlier)

			if (s.ZScore > 0) != tt.positive {
				t.Errorf("ZScore = %v, want positive=%v", s.ZScore, tt.positive)
			}
			if s.ZScore == 0 {
				t.Error("outlier produced a zero Z-score")
			}
		})
	}
}

func TestRollingMeanVarianceMatchesDirect(t *testing.T) {
	r := NewRolling(Config{WindowSize: 5, MinStdDev: 1e-6})
	input := []float64{0.1, 0.4, 0.2, 0.9, 0.5, 0.3, 0.8}

	var s MetricStats
	for _, v := range input {
		s = r.Update(v)
	}

	window := input[len(input)-5:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / 5
	var sq float64
	for _, v := range window {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / 5)

	if math.Abs(s.Mean-mean) > epsilon {
		t.Errorf("Mean = %v, want %v", s.Mean, mean)
	}
	if math.Abs(s.StdDev-std) > 1e-7 {
		t.Errorf("StdDev = %v, want %v", s.StdDev, std)
	}
}

func TestRollingMinMaxForgetsEvicted(t *testing.T) {
	r := NewRolling(Config{WindowSize: 3, MinStdDev: 0.01})
	r.Update(1.0) // evicted below
	r.Update(0.2)
	r.Update(0.3)
	s := r.Update(0.4)

	if s.Max != 0.4 {
		t.Errorf("Max = %v, want 0.4 after 1.0 was evicted", s.Max)
	}
	if s.Min != 0.2 {
		t.Errorf("Min = %v, want 0.2", s.Min)
	}
}

func TestRollingWarmUp(t *testing.T) {
	r := NewRolling(Config{WindowSize: 10, MinStdDev: 0.01})

	for i := range 4 {
		if s := r.Update(float64(i)); s.WarmedUp {
			t.Fatalf("warmed up after %d samples", i+1)
		}
	}
	if s := r.Update(1); !s.WarmedUp || !r.IsWarmedUp() {
		t.Error("expected warm-up at half capacity")
	}

	r.Reset()
	if r.IsWarmedUp() || r.Len() != 0 {
		t.Error("Reset should clear warm-up and samples")
	}
	if s := r.Stats(); s.Count != 0 {
		t.Errorf("Stats().Count after Reset = %d, want 0", s.Count)
	}
}

func TestNewRollingDefaults(t *testing.T) {
	r := NewRolling(Config{})
	if r.cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want %+v", r.cfg, DefaultConfig())
	}
}

func BenchmarkRollingUpdate(b *testing.B) {
	r := NewRolling(DefaultConfig())
	for i := range DefaultWindowSize {
		r.Update(float64(i%7) / 7)
	}
	b.ReportAllocs()
	b.ResetTimer()

	v := 0.0
	for b.Loop() {
		v += 0.001
		if v > 1 {
			v = 0
		}
		r.Update(v)
	}
}
