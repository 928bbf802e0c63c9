// SPDX-License-Identifier: MIT
/*
Package analysis turns a mono sample stream into per-frame features for the
decision pipeline: normalised loudness, bass and harshness spectral shares,
and a kick onset flag. Frames are timestamped from the number of samples
consumed, so the clock is monotonic and independent of wall time.
*/
package analysis

import (
	"fmt"
	"math"
	"time"

	"luxsync/pkg/bitint"
	"luxsync/pkg/ringbuf"
)

// Processor is implemented by components that consume mono audio in [-1, 1].
// Implementations should be efficient as this is often called from within a
// hot path such as the real-time audio callback.
type Processor interface {
	Process(samples []float64)
}

// Config tunes the feature extractor.
type Config struct {
	FrameRate      float64 `yaml:"frame_rate" json:"frameRate"` // frames per second
	FFTSize        int     `yaml:"fft_size" json:"fftSize"`     // rounded up to a power of 2
	Window         string  `yaml:"window" json:"window"`
	FloorDB        float64 `yaml:"floor_db" json:"floorDb"`
	Bass           Band    `yaml:"bass" json:"bass"`
	Harshness      Band    `yaml:"harshness" json:"harshness"`
	OnsetThreshold float64 `yaml:"onset_threshold" json:"onsetThreshold"`
	OnsetMinRatio  float64 `yaml:"onset_min_ratio" json:"onsetMinRatio"`
}

// DefaultConfig returns 50 frames per second with a 2048 point Hann FFT.
func DefaultConfig() Config {
	return Config{
		FrameRate:      50,
		FFTSize:        2048,
		Window:         "hann",
		FloorDB:        -60,
		Bass:           Band{Name: "bass", LowHz: 20, HighHz: 250},
		Harshness:      Band{Name: "harshness", LowHz: 2000, HighHz: 6000},
		OnsetThreshold: 0.1,
		OnsetMinRatio:  1.5,
	}
}

// Features is the analysis of one frame.
type Features struct {
	Timestamp time.Duration `json:"timestamp"`
	RMS       float64       `json:"rms"`
	Energy    float64       `json:"energy"`
	Bass      float64       `json:"bass"`
	Harshness float64       `json:"harshness"`
	Kick      bool          `json:"kick"`
}

// Extractor slices a sample stream into hops of sampleRate/FrameRate samples
// and emits Features for each complete hop. The spectrum is taken over the
// most recent FFTSize samples.
type Extractor struct {
	cfg        Config
	sampleRate float64
	emit       func(Features)

	spectrum *Spectrum
	onset    *OnsetDetector
	bands    []Band
	history  *ringbuf.Ring[float64]
	block    []float64
	hop      []float64
	consumed int64
}

var _ Processor = (*Extractor)(nil)

// NewExtractor builds an extractor that calls emit once per frame.
func NewExtractor(cfg Config, sampleRate float64, emit func(Features)) (*Extractor, error) {
	if sampleRate <= 0 || cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("analysis: sample rate %.1f and frame rate %.1f must be positive", sampleRate, cfg.FrameRate)
	}
	hop := int(sampleRate / cfg.FrameRate)
	if hop < 1 {
		return nil, fmt.Errorf("analysis: frame rate %.1f exceeds sample rate %.1f", cfg.FrameRate, sampleRate)
	}
	w, err := ParseWindowFunc(cfg.Window)
	if err != nil {
		return nil, err
	}
	size := bitint.NextPowerOfTwo(cfg.FFTSize)
	spectrum, err := NewSpectrum(size, sampleRate, w)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		cfg:        cfg,
		sampleRate: sampleRate,
		emit:       emit,
		spectrum:   spectrum,
		onset:      NewOnsetDetector(cfg.OnsetThreshold, cfg.OnsetMinRatio),
		bands:      []Band{cfg.Bass, cfg.Harshness},
		history:    ringbuf.New[float64](size),
		block:      make([]float64, size),
		hop:        make([]float64, 0, hop),
	}, nil
}

// HopSize returns the number of samples per frame.
func (x *Extractor) HopSize() int { return cap(x.hop) }

// Process consumes samples and emits a frame for every completed hop.
func (x *Extractor) Process(samples []float64) {
	for _, s := range samples {
		x.history.Push(s)
		x.hop = append(x.hop, s)
		x.consumed++
		if len(x.hop) == cap(x.hop) {
			x.emit(x.analyse())
			x.hop = x.hop[:0]
		}
	}
}

// Reset drops buffered audio and restarts the stream clock.
func (x *Extractor) Reset() {
	x.history.Reset()
	x.hop = x.hop[:0]
	x.consumed = 0
	x.onset.Reset()
}

func (x *Extractor) analyse() Features {
	// Left-pad with silence until the history fills.
	pad := len(x.block) - x.history.Len()
	clear(x.block[:pad])
	for i, v := range x.history.All() {
		x.block[pad+i] = v
	}

	shares := BandShares(x.spectrum, x.spectrum.Compute(x.block), x.bands)
	rms := RMS(x.hop)
	return Features{
		Timestamp: time.Duration(math.Round(float64(x.consumed) * float64(time.Second) / x.sampleRate)),
		RMS:       rms,
		Energy:    NormalizeDB(rms, x.cfg.FloorDB),
		Bass:      shares[0],
		Harshness: shares[1],
		Kick:      x.onset.Detect(rms),
	}
}
