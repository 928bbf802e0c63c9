// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

func readWAV(t *testing.T, path string) (*wav.Decoder, []int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	return dec, buf.Data
}

func TestRecorderBitDepth(t *testing.T) {
	in := []int32{1 << 30, -(1 << 30), 1 << 24, 0}

	tests := []struct {
		bitDepth int
		want     []int
	}{
		{16, []int{1 << 14, -(1 << 14), 1 << 8, 0}},
		{24, []int{1 << 22, -(1 << 22), 1 << 16, 0}},
		{32, []int{1 << 30, -(1 << 30), 1 << 24, 0}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-bit", tt.bitDepth), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.wav")
			rec, err := NewRecorder(path, testSampleRate, 2, tt.bitDepth)
			if err != nil {
				t.Fatal(err)
			}
			if err := rec.Write(in); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := rec.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			dec, data := readWAV(t, path)
			if int(dec.BitDepth) != tt.bitDepth || dec.NumChans != 2 || dec.SampleRate != testSampleRate {
				t.Errorf("header = %d bit, %d ch, %d Hz", dec.BitDepth, dec.NumChans, dec.SampleRate)
			}
			if len(data) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(data), len(tt.want))
			}
			for i := range tt.want {
				if data[i] != tt.want[i] {
					t.Errorf("sample %d = %d, want %d", i, data[i], tt.want[i])
				}
			}
		})
	}
}

func TestRecorderInvalidBitDepth(t *testing.T) {
	if _, err := NewRecorder(filepath.Join(t.TempDir(), "x.wav"), testSampleRate, 1, 12); err == nil {
		t.Error("expected error for 12 bit")
	}
}

func TestRecorderClosed(t *testing.T) {
	rec, err := NewRecorder(filepath.Join(t.TempDir(), "x.wav"), testSampleRate, 1, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := rec.Write([]int32{1}); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Write after Close = %v, want os.ErrClosed", err)
	}
}

func TestEngineRecording(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")
	e := newEngine(testAudioConfig(2), nil)

	path, err := e.StartRecording(dir, 16)
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if !e.Recording() {
		t.Error("Engine should be in recording state")
	}
	if _, err := e.StartRecording(dir, 16); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartRecording = %v, want ErrAlreadyRecording", err)
	}

	buf := make([]int32, testFrameSize*2)
	for i := range buf {
		buf[i] = 1 << 28
	}
	for range 4 {
		e.processInputStream(buf)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if e.Recording() {
		t.Error("Engine should not be recording after Close")
	}

	_, data := readWAV(t, path)
	if len(data) != 4*len(buf) {
		t.Errorf("got %d samples, want %d", len(data), 4*len(buf))
	}
}

func TestRecordingName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	if got, want := RecordingName(at), "recording-09-03-2024-140507.wav"; got != want {
		t.Errorf("RecordingName() = %q, want %q", got, want)
	}
}
