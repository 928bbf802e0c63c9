// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when the input is not a readable PCM WAV file.
var ErrInvalidWAV = errors.New("analysis: invalid wav file")

// WAVInfo describes a decoded file.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// WAVSource streams a WAV file as mono float samples.
type WAVSource struct {
	dec   *wav.Decoder
	info  WAVInfo
	buf   *audio.IntBuffer
	mono  []float64
	scale float64
	close func() error
}

// OpenWAV opens path for streaming. The caller must Close the source.
func OpenWAV(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewWAVSource(f, 4096)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.close = f.Close
	return src, nil
}

// NewWAVSource reads the header from r and prepares to decode frames blocks
// of multichannel frames at a time.
func NewWAVSource(r io.ReadSeeker, frames int) (*WAVSource, error) {
	dec := wav.NewDecoder(r)
	// IsValidFile also reads the fmt chunk into the decoder fields.
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	info := WAVInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if info.Channels < 1 || info.SampleRate <= 0 || info.BitDepth <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz, %d bit", ErrInvalidWAV, info.Channels, info.SampleRate, info.BitDepth)
	}

	return &WAVSource{
		dec:  dec,
		info: info,
		buf: &audio.IntBuffer{
			Format: dec.Format(),
			Data:   make([]int, frames*info.Channels),
		},
		mono:  make([]float64, frames),
		scale: 1 / math.Pow(2, float64(info.BitDepth-1)),
	}, nil
}

// Info returns the decoded header.
func (s *WAVSource) Info() WAVInfo { return s.info }

// Stream decodes the whole file, passing mono blocks to p until EOF or ctx
// is cancelled.
func (s *WAVSource) Stream(ctx context.Context, p Processor) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.dec.PCMBuffer(s.buf)
		if err != nil {
			return fmt.Errorf("analysis: decode pcm: %w", err)
		}
		if n == 0 {
			return nil
		}
		p.Process(s.downmix(s.buf.Data[:n]))
	}
}

// downmix averages interleaved channels into the reusable mono buffer.
func (s *WAVSource) downmix(data []int) []float64 {
	ch := s.info.Channels
	frames := len(data) / ch
	mono := s.mono[:frames]
	for i := range frames {
		var sum int
		for c := range ch {
			sum += data[i*ch+c]
		}
		mono[i] = float64(sum) / float64(ch) * s.scale
	}
	return mono
}

// Close releases the underlying file, if any.
func (s *WAVSource) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
