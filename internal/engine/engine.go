// Package engine drives the effect against live audio I/O. A duplex PortAudio
// stream plays the role of the plugin host: it hands the callback one input
// and one output block per cycle at a fixed cadence.
package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/grieferpig/zippify/internal/dsp"
	"github.com/grieferpig/zippify/internal/meter"
)

// Config controls how an Engine is created.
type Config struct {
	InputDevice  string // substring match, empty for default
	OutputDevice string // substring match, empty for default
	SampleRate   float64
	BlockSize    int
}

// DefaultBlockSize is used when the configuration does not name one.
const DefaultBlockSize = 512

// Engine owns the duplex stream and the processor it feeds. The callback is
// the real-time thread: it never locks, allocates or logs.
type Engine struct {
	stream *portaudio.Stream
	proc   *dsp.Processor
	meter  *meter.Meter

	input      *portaudio.DeviceInfo
	output     *portaudio.DeviceInfo
	sampleRate float64
	blockSize  int

	lastNanos uint64
	maxNanos  uint64
}

// New resolves devices and opens (but does not start) the duplex stream.
// proc must already be sized for cfg.BlockSize.
func New(cfg Config, proc *dsp.Processor) (*Engine, error) {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}

	input, err := findInputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}
	output, err := findOutputDevice(cfg.OutputDevice)
	if err != nil {
		return nil, err
	}
	if input.MaxInputChannels < 2 {
		return nil, fmt.Errorf("input device %q has no stereo input", input.Name)
	}
	if output.MaxOutputChannels < 2 {
		return nil, fmt.Errorf("output device %q has no stereo output", output.Name)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = output.DefaultSampleRate
	}

	e := &Engine{
		proc:       proc,
		input:      input,
		output:     output,
		sampleRate: sampleRate,
		blockSize:  cfg.BlockSize,
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   input,
			Channels: 2,
			Latency:  input.DefaultLowInputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Device:   output,
			Channels: 2,
			Latency:  output.DefaultLowOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: cfg.BlockSize,
	}, e.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	e.stream = stream

	return e, nil
}

// AttachMeter hooks up the output tap. Must be called before Start.
func (e *Engine) AttachMeter(m *meter.Meter) {
	e.meter = m
}

// Start begins real-time processing.
func (e *Engine) Start() error {
	if err := e.stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	return nil
}

// Close stops and closes the underlying PortAudio stream.
func (e *Engine) Close() error {
	if e.stream == nil {
		return nil
	}
	if err := e.stream.Stop(); err != nil && !isInvalidStreamState(err) {
		return err
	}
	return e.stream.Close()
}

// SampleRate returns the stream sample rate.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// BlockSize returns the negotiated frames per callback.
func (e *Engine) BlockSize() int { return e.blockSize }

// InputDeviceName returns the resolved input device name.
func (e *Engine) InputDeviceName() string { return e.input.Name }

// OutputDeviceName returns the resolved output device name.
func (e *Engine) OutputDeviceName() string { return e.output.Name }

func (e *Engine) process(in, out [][]float32) {
	if len(in) < 2 || len(out) < 2 {
		return
	}
	start := time.Now()

	e.proc.Process(in[0], in[1], out[0], out[1])

	if e.meter != nil {
		e.meter.Push(out[0], out[1])
	}

	elapsed := uint64(time.Since(start))
	atomic.StoreUint64(&e.lastNanos, elapsed)
	if elapsed > atomic.LoadUint64(&e.maxNanos) {
		atomic.StoreUint64(&e.maxNanos, elapsed)
	}
}

// Stats reports callback timing, readable from any thread.
type Stats struct {
	LastCallback time.Duration
	MaxCallback  time.Duration
}

// Stats returns the most recent callback timing snapshot.
func (e *Engine) Stats() Stats {
	return Stats{
		LastCallback: time.Duration(atomic.LoadUint64(&e.lastNanos)),
		MaxCallback:  time.Duration(atomic.LoadUint64(&e.maxNanos)),
	}
}

// isInvalidStreamState checks if the error stems from stopping an already
// stopped stream.
func isInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}
