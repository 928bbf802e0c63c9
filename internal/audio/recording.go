// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"luxsync/internal/log"
)

var ErrAlreadyRecording = errors.New("already recording")

// Recorder writes interleaved int32 capture buffers to a PCM WAV file,
// reducing them to the configured bit depth.
type Recorder struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	enc   *wav.Encoder
	buf   *audio.IntBuffer // Reusable buffer for format conversion
	shift uint
}

// NewRecorder creates path and writes the WAV header lazily on first Write.
func NewRecorder(path string, sampleRate float64, channels, bitDepth int) (*Recorder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		path: path,
		file: file,
		enc:  wav.NewEncoder(file, int(sampleRate), bitDepth, channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: int(sampleRate)},
			SourceBitDepth: bitDepth,
		},
		shift: uint(32 - bitDepth),
	}, nil
}

func (r *Recorder) Path() string { return r.path }

// Write appends one interleaved buffer.
func (r *Recorder) Write(in []int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return os.ErrClosed
	}

	if cap(r.buf.Data) < len(in) {
		r.buf.Data = make([]int, len(in))
	}
	r.buf.Data = r.buf.Data[:len(in)]
	for i, sample := range in {
		r.buf.Data[i] = int(sample >> r.shift)
	}
	return r.enc.Write(r.buf)
}

// Close finalises the WAV header. Calling it twice is a no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return nil
	}

	err := r.enc.Close()
	r.enc = nil
	return errors.Join(err, r.file.Close())
}

// RecordingName is the file name used for a capture started at t.
func RecordingName(t time.Time) string {
	return "recording-" + t.UTC().Format("02-01-2006-150405") + ".wav"
}

// StartRecording begins writing the raw input to a new file in dir and
// returns its path.
func (e *Engine) StartRecording(dir string, bitDepth int) (string, error) {
	if e.recorder.Load() != nil {
		return "", ErrAlreadyRecording
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, RecordingName(time.Now()))
	rec, err := NewRecorder(path, e.cfg.SampleRate, e.cfg.InputChannels, bitDepth)
	if err != nil {
		return "", err
	}
	if !e.recorder.CompareAndSwap(nil, rec) {
		rec.Close()
		os.Remove(path)
		return "", ErrAlreadyRecording
	}
	log.Infof("Audio: recording to %s", path)
	return path, nil
}

// StopRecording closes the active recording, if any.
func (e *Engine) StopRecording() error {
	rec := e.recorder.Swap(nil)
	if rec == nil {
		return nil
	}
	log.Infof("Audio: recording saved to %s", rec.Path())
	return rec.Close()
}

// Recording reports whether a recording is active.
func (e *Engine) Recording() bool { return e.recorder.Load() != nil }
