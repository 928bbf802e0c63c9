// SPDX-License-Identifier: MIT
/*
Package audio captures live input with PortAudio and hands it to the analysis
stage:
- Interleaved int32 capture into pre-allocated buffers
- Noise gate with a branchless peak detector
- Mono downmix into float64 for feature extraction
- Optional WAV recording of the raw input

Thread Safety:
- Gate and recorder state are atomic and may be changed while streaming
- Buffers are pre-allocated to avoid GC in the hot path
- The callback locks its OS thread while processing
*/
package audio

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"luxsync/internal/analysis"
	"luxsync/internal/config"
	"luxsync/internal/log"
)

// int32 full scale, for normalising samples to [-1, 1).
const fullScale = 1 << 31

type Engine struct {
	cfg config.AudioConfig

	// Audio input handling.
	device  *portaudio.DeviceInfo
	latency time.Duration
	stream  *portaudio.Stream

	// Analysis stage fed with mono blocks.
	proc analysis.Processor
	gate *Gate

	input []int32   // Interleaved copy of the callback buffer
	mono  []float64 // Downmixed block passed to proc

	recorder atomic.Pointer[Recorder]
	blocks   atomic.Uint64
}

// NewEngine resolves the configured input device. PortAudio must already be
// initialised.
func NewEngine(cfg config.AudioConfig, proc analysis.Processor) (*Engine, error) {
	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}

	e := newEngine(cfg, proc)
	e.device = device
	if cfg.LowLatency {
		e.latency = device.DefaultLowInputLatency
	} else {
		e.latency = device.DefaultHighInputLatency
	}
	log.Infof("Audio: using %q, %d channel(s) at %.0f Hz, latency %s",
		device.Name, cfg.InputChannels, cfg.SampleRate, e.latency)
	return e, nil
}

func newEngine(cfg config.AudioConfig, proc analysis.Processor) *Engine {
	return &Engine{
		cfg:   cfg,
		proc:  proc,
		gate:  NewGate(),
		input: make([]int32, cfg.FramesPerBuffer*cfg.InputChannels),
		mono:  make([]float64, cfg.FramesPerBuffer),
	}
}

// Gate returns the input noise gate.
func (e *Engine) Gate() *Gate { return e.gate }

// Blocks reports how many callback buffers have been processed.
func (e *Engine) Blocks() uint64 { return e.blocks.Load() }

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.InputChannels,
			Device:   e.device,
			Latency:  e.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.cfg.FramesPerBuffer,
		SampleRate:      e.cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.stream = stream

	if err := e.stream.Start(); err != nil {
		e.stream.Close()
		e.stream = nil
		return err
	}
	return nil
}

func (e *Engine) StopInputStream() error {
	if e.stream == nil {
		return nil
	}
	if err := e.stream.Stop(); err != nil {
		return err
	}
	if err := e.stream.Close(); err != nil {
		return err
	}
	e.stream = nil
	return nil
}

// Close stops recording and the input stream.
func (e *Engine) Close() error {
	if err := e.StopRecording(); err != nil {
		return err
	}
	return e.StopInputStream()
}

// processInputStream is the PortAudio callback. It must not allocate.
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.input, in)
	buf := e.input[:n]

	if rec := e.recorder.Load(); rec != nil {
		if err := rec.Write(buf); err != nil {
			log.Errorf("Audio: writing to %s: %v", rec.Path(), err)
		}
	}
	e.processBuffer(buf)
}

// processBuffer downmixes one interleaved buffer and feeds the processor.
// A closed gate still emits a block of silence so the stream clock keeps
// advancing.
func (e *Engine) processBuffer(buf []int32) {
	frames := len(buf) / e.cfg.InputChannels
	mono := e.mono[:frames]

	if e.gate.Open(buf) {
		downmix(mono, buf, e.cfg.InputChannels)
	} else {
		clear(mono)
	}

	e.blocks.Add(1)
	if e.proc != nil {
		e.proc.Process(mono)
	}
}

// downmix averages interleaved channels into dst, normalised to [-1, 1).
func downmix(dst []float64, in []int32, channels int) {
	if channels == 1 {
		for i, s := range in[:len(dst)] {
			dst[i] = float64(s) / fullScale
		}
		return
	}
	scale := 1 / (fullScale * float64(channels))
	for i := range dst {
		var sum int64
		for _, s := range in[i*channels : (i+1)*channels] {
			sum += int64(s)
		}
		dst[i] = float64(sum) * scale
	}
}
