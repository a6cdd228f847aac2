// Package dsp implements the fixed five-stage degradation pipeline: clamp
// (hard clip), silence gate, gain, precision reduction and dry/wet mix.
package dsp

import (
	"github.com/grieferpig/zippify/internal/params"
)

// Samples quieter than -36 dB count toward a silent run; runs longer than
// silentThresholdCount samples are muted from that point on.
const (
	silentThreshold      float32 = 0.015848932
	silentThresholdCount         = 32
)

// Processor runs the pipeline over stereo blocks. It owns pre-allocated dry
// snapshot buffers so the audio callback never touches the heap.
type Processor struct {
	params *params.Store
	dryL   []float32
	dryR   []float32
}

const defaultMaxBlockSize = 4096

// New creates a Processor reading from store, sized for blocks up to
// maxBlockSize samples per channel.
func New(store *params.Store, maxBlockSize int) *Processor {
	if maxBlockSize <= 0 {
		maxBlockSize = defaultMaxBlockSize
	}
	return &Processor{
		params: store,
		dryL:   make([]float32, maxBlockSize),
		dryR:   make([]float32, maxBlockSize),
	}
}

// Process runs one block through the pipeline. Input and output buffers may
// alias; channel buffers are assumed equal length per the host contract.
// Every parameter is read once per block.
func (p *Processor) Process(inL, inR, outL, outR []float32) {
	n := len(outL)
	if n > len(p.dryL) {
		// Host exceeded the negotiated block size. Growing allocates, but
		// beats reading past the snapshot.
		p.dryL = make([]float32, n)
		p.dryR = make([]float32, n)
	}
	dryL := p.dryL[:n]
	dryR := p.dryR[:n]

	// Some hosts deliver the real samples in the output buffer and leave the
	// nominal input silent. Only the first channel is probed.
	srcL, srcR := inL, inR
	if allZero(inL) {
		srcL, srcR = outL, outR
	}
	copy(dryL, srcL)
	copy(dryR, srcR)

	threshold := p.params.ClampThreshold()
	gain := p.params.Gain()
	losePrecision := p.params.LosePrecision() > 0.5
	mix := p.params.Mix()

	processChannel(dryL, outL, threshold, gain, losePrecision, mix)
	processChannel(dryR, outR, threshold, gain, losePrecision, mix)
}

func processChannel(dry, out []float32, threshold, gain float32, losePrecision bool, mix float32) {
	for i, s := range dry {
		out[i] = clamp(s, -threshold, threshold)
	}

	gateSilence(out)

	for i := range out {
		out[i] *= gain
	}

	if losePrecision {
		for i := range out {
			out[i] = bitify(out[i])
		}
	}

	for i := range out {
		out[i] = out[i]*mix + (1-mix)*dry[i]
	}
}

// gateSilence mutes sustained quiet stretches of the freshly clamped signal.
// The run counter is block-local and never resets once counting has started:
// after the run exceeds the limit, every further sub-threshold sample in the
// block is zeroed.
func gateSilence(buf []float32) {
	run := 0
	for i, s := range buf {
		if s < silentThreshold && s > -silentThreshold {
			run++
			if run > silentThresholdCount {
				buf[i] = 0
			}
		}
	}
}

// bitify quantizes a sample to a coarse grid of 1/15 steps through a signed
// 8-bit truncation. Overdriven samples wrap two's-complement style rather
// than saturating; the wrap is part of the sound.
func bitify(s float32) float32 {
	return float32(int8(int32(s*15))) / 15
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func allZero(buf []float32) bool {
	for _, s := range buf {
		if s != 0 {
			return false
		}
	}
	return true
}
