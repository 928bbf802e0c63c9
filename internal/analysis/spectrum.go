// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"luxsync/pkg/bitint"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var windowNames = map[WindowFunc]string{
	BartlettHann:    "bartletthann",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("window(%d)", int(w))
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	n := strings.ToLower(name)
	if n == "hanning" {
		return Hann, nil
	}
	for w, wn := range windowNames {
		if wn == n {
			return w, nil
		}
	}
	return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
}

// Spectrum computes the magnitude spectrum of fixed-size real blocks. It
// reuses its buffers and is not safe for concurrent use.
type Spectrum struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64

	input     []float64
	coeffs    []complex128
	magnitude []float64
	window    []float64
}

// NewSpectrum builds a spectrum analyser. size must be a power of 2.
func NewSpectrum(size int, sampleRate float64, w WindowFunc) (*Spectrum, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	// Real input yields N/2 + 1 coefficients.
	bins := size/2 + 1
	s := &Spectrum{
		fft:        fourier.NewFFT(size),
		size:       size,
		sampleRate: sampleRate,
		input:      make([]float64, size),
		coeffs:     make([]complex128, bins),
		magnitude:  make([]float64, bins),
		window:     make([]float64, size),
	}
	applyWindow(s.window, w)
	return s, nil
}

// Compute windows block, zero-padding or truncating to the FFT size, and
// returns the magnitudes. The returned slice is reused by the next call.
func (s *Spectrum) Compute(block []float64) []float64 {
	for i := range s.size {
		if i < len(block) {
			s.input[i] = block[i] * s.window[i]
		} else {
			s.input[i] = 0
		}
	}
	s.fft.Coefficients(s.coeffs, s.input)
	for i, c := range s.coeffs {
		s.magnitude[i] = cmplx.Abs(c)
	}
	return s.magnitude
}

// BinFrequency returns the centre frequency (Hz) of bin i, or 0 when out of
// range.
func (s *Spectrum) BinFrequency(i int) float64 {
	if i < 0 || i >= len(s.magnitude) {
		return 0
	}
	return float64(i) * s.sampleRate / float64(s.size)
}

// Size returns the FFT size.
func (s *Spectrum) Size() int { return s.size }

// SampleRate returns the sample rate in Hz.
func (s *Spectrum) SampleRate() float64 { return s.sampleRate }

func applyWindow(coeffs []float64, w WindowFunc) {
	// gonum windows scale in place, so start from a rectangular window.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch w {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}
