package app

import (
	"context"
	"math"
	"time"

	"github.com/grieferpig/zippify/internal/dsp"
	"github.com/grieferpig/zippify/internal/meter"
)

// toneGenerator stands in for the audio device when none is available. It
// feeds a sine through the pipeline at real-time block cadence so the meter
// and the surfaces still have live data.
type toneGenerator struct {
	proc       *dsp.Processor
	meter      *meter.Meter
	sampleRate float64
	blockSize  int

	phase float64
	inL   []float32
	inR   []float32
	outL  []float32
	outR  []float32
}

const (
	toneFrequency = 440.0
	toneAmplitude = 0.5
)

func newToneGenerator(proc *dsp.Processor, m *meter.Meter, sampleRate float64, blockSize int) *toneGenerator {
	return &toneGenerator{
		proc:       proc,
		meter:      m,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		inL:        make([]float32, blockSize),
		inR:        make([]float32, blockSize),
		outL:       make([]float32, blockSize),
		outR:       make([]float32, blockSize),
	}
}

// Run produces blocks until ctx is cancelled.
func (t *toneGenerator) Run(ctx context.Context) {
	blockDuration := time.Duration(float64(t.blockSize) / t.sampleRate * float64(time.Second))
	ticker := time.NewTicker(blockDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.next()
		}
	}
}

func (t *toneGenerator) next() {
	step := 2 * math.Pi * toneFrequency / t.sampleRate
	for i := range t.inL {
		s := float32(toneAmplitude * math.Sin(t.phase))
		t.inL[i] = s
		t.inR[i] = s
		t.phase += step
	}
	if t.phase > 2*math.Pi {
		t.phase -= 2 * math.Pi * math.Floor(t.phase/(2*math.Pi))
	}

	t.proc.Process(t.inL, t.inR, t.outL, t.outR)
	if t.meter != nil {
		t.meter.Push(t.outL, t.outR)
	}
}
