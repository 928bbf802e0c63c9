// SPDX-License-Identifier: MIT
package analysis

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWAVSourceDownmix(t *testing.T) {
	const frames = 1000
	data := make([]int, frames*2)
	for i := range frames {
		data[2*i] = 16384 // left at half scale
		data[2*i+1] = 0
	}
	src, err := OpenWAV(writeTestWAV(t, 2, data))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if info := src.Info(); info.SampleRate != 8000 || info.Channels != 2 || info.BitDepth != 16 {
		t.Fatalf("info = %+v", info)
	}

	var c collector
	if err := src.Stream(context.Background(), &c); err != nil {
		t.Fatal(err)
	}
	if len(c.samples) != frames {
		t.Fatalf("decoded %d mono samples, want %d", len(c.samples), frames)
	}
	for i, s := range c.samples {
		if math.Abs(s-0.25) > 1e-9 {
			t.Fatalf("sample %d = %f, want 0.25", i, s)
		}
	}
}

func TestWAVSourceFeedsExtractor(t *testing.T) {
	tone := sineWave(8000, 8000, 100, 0.5)
	data := make([]int, len(tone))
	for i, v := range tone {
		data[i] = int(v * 32767)
	}
	src, err := OpenWAV(writeTestWAV(t, 1, data))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	var frames []Features
	x, err := NewExtractor(DefaultConfig(), float64(src.Info().SampleRate), func(f Features) { frames = append(frames, f) })
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Stream(context.Background(), x); err != nil {
		t.Fatal(err)
	}
	if len(frames) != 50 {
		t.Errorf("one second at 50 fps produced %d frames", len(frames))
	}
}

func TestWAVSourceCancelled(t *testing.T) {
	src, err := OpenWAV(writeTestWAV(t, 1, make([]int, 100)))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := src.Stream(ctx, &collector{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Stream error = %v, want context.Canceled", err)
	}
}

func TestWAVSourceInvalid(t *testing.T) {
	_, err := NewWAVSource(bytes.NewReader([]byte("not a riff file at all")), 512)
	if !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("error = %v, want ErrInvalidWAV", err)
	}
	if _, err := OpenWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
