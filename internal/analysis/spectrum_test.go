// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

const testSampleRate = 44100.0

func TestNewSpectrumValidation(t *testing.T) {
	if _, err := NewSpectrum(1000, testSampleRate, Hann); err == nil {
		t.Error("expected error for non power of 2 size")
	}
	if _, err := NewSpectrum(1024, 0, Hann); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestSpectrumPeakBin(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		win  WindowFunc
	}{
		{"1kHz Hann", 1000, Hann},
		{"440Hz Blackman", 440, Blackman},
		{"5kHz Hamming", 5000, Hamming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSpectrum(1024, testSampleRate, tt.win)
			if err != nil {
				t.Fatal(err)
			}
			mags := s.Compute(sineWave(1024, testSampleRate, tt.freq, 0.8))
			peak := findPeakBin(mags, 1, len(mags)-1)
			want := int(math.Round(tt.freq * 1024 / testSampleRate))
			if d := peak - want; d < -1 || d > 1 {
				t.Errorf("peak bin = %d (%.1f Hz), want about %d", peak, s.BinFrequency(peak), want)
			}
		})
	}
}

func TestSpectrumZeroPads(t *testing.T) {
	s, err := NewSpectrum(256, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}
	mags := s.Compute(nil)
	for i, m := range mags {
		if m != 0 {
			t.Fatalf("bin %d = %f for empty input", i, m)
		}
	}
	if len(mags) != 129 {
		t.Errorf("len(magnitudes) = %d, want 129", len(mags))
	}
}

func TestBinFrequency(t *testing.T) {
	s, _ := NewSpectrum(1024, testSampleRate, Hann)
	if got := s.BinFrequency(512); got != testSampleRate/2 {
		t.Errorf("Nyquist bin = %f", got)
	}
	if s.BinFrequency(-1) != 0 || s.BinFrequency(513) != 0 {
		t.Error("out of range bins should map to 0 Hz")
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		in      string
		want    WindowFunc
		wantErr bool
	}{
		{"Hann", Hann, false},
		{"hanning", Hann, false},
		{"BLACKMANNUTTALL", BlackmanNuttall, false},
		{"lanczos", Lanczos, false},
		{"square", Hann, true},
	}
	for _, tt := range tests {
		got, err := ParseWindowFunc(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseWindowFunc(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestBandShares(t *testing.T) {
	s, _ := NewSpectrum(2048, testSampleRate, Hann)
	bands := []Band{
		{Name: "bass", LowHz: 20, HighHz: 250},
		{Name: "harshness", LowHz: 2000, HighHz: 6000},
	}

	tests := []struct {
		name  string
		freq  float64
		index int
	}{
		{"Bass tone", 100, 0},
		{"Harsh tone", 3000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := BandShares(s, s.Compute(sineWave(2048, testSampleRate, tt.freq, 0.5)), bands)
			if shares[tt.index] < 0.9 {
				t.Errorf("share of %s = %.3f, want > 0.9", bands[tt.index].Name, shares[tt.index])
			}
			if other := shares[1-tt.index]; other > 0.05 {
				t.Errorf("leakage into %s = %.3f", bands[1-tt.index].Name, other)
			}
		})
	}

	silent := BandShares(s, s.Compute(nil), bands)
	if silent[0] != 0 || silent[1] != 0 {
		t.Errorf("silence shares = %v", silent)
	}
}

func BenchmarkSpectrum(b *testing.B) {
	s, _ := NewSpectrum(2048, testSampleRate, Hann)
	input := complexWave(2048, testSampleRate)
	for b.Loop() {
		s.Compute(input)
	}
}
