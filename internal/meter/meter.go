// Package meter taps the processed output for level and spectrum readouts
// shown by the editor and the status surfaces.
package meter

import (
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

// Meter keeps a ring of recent wet samples (mono mix of both channels).
// Push is called from the audio callback and must never block; readers take
// the lock normally.
type Meter struct {
	sampleRate float64

	mu     sync.Mutex
	buffer []float32
	index  int

	window []float64
}

// Levels is a point-in-time loudness readout of the ring contents.
type Levels struct {
	RMS  float64 `json:"rms"`
	Peak float64 `json:"peak"`
}

const defaultBufferSize = 2048

// New creates a Meter holding bufferSize recent samples.
func New(sampleRate float64, bufferSize int) *Meter {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if sampleRate <= 0 {
		sampleRate = 44_100
	}
	return &Meter{
		sampleRate: sampleRate,
		buffer:     make([]float32, bufferSize),
	}
}

// SampleRate returns the rate the meter was created with.
func (m *Meter) SampleRate() float64 { return m.sampleRate }

// Push mixes a stereo block into the ring buffer. If a reader currently
// holds the lock the block is dropped; the audio thread never waits.
func (m *Meter) Push(left, right []float32) {
	if !m.mu.TryLock() {
		return
	}
	defer m.mu.Unlock()

	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		m.buffer[m.index] = (left[i] + right[i]) * 0.5
		m.index++
		if m.index == len(m.buffer) {
			m.index = 0
		}
	}
}

// Levels computes RMS and peak magnitude over the ring contents.
func (m *Meter) Levels() Levels {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sumSq, peak float64
	for _, s := range m.buffer {
		v := float64(s)
		sumSq += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return Levels{
		RMS:  math.Sqrt(sumSq / float64(len(m.buffer))),
		Peak: peak,
	}
}

// Spectrum returns bins normalized magnitude groups covering 0..Nyquist,
// each clamped to [0,1].
func (m *Meter) Spectrum(bins int) []float64 {
	if bins <= 0 {
		return nil
	}
	samples := m.snapshot()

	size := nextPow2(len(samples))
	m.ensureWindow(size)

	buffer := make([]complex128, size)
	for i := range buffer {
		if i < len(samples) {
			buffer[i] = complex(float64(samples[i])*m.window[i], 0)
		}
	}
	res := fft.FFT(buffer)

	half := size / 2
	out := make([]float64, bins)
	perBin := half / bins
	if perBin < 1 {
		perBin = 1
	}
	for b := 0; b < bins; b++ {
		lo := b * perBin
		hi := lo + perBin
		if hi > half {
			hi = half
		}
		if lo >= hi {
			break
		}
		sum := 0.0
		for _, c := range res[lo:hi] {
			sum += math.Hypot(real(c), imag(c))
		}
		v := sum / float64(hi-lo) / float64(half) * 8
		if v > 1 {
			v = 1
		}
		out[b] = v
	}
	return out
}

// snapshot copies the ring out in chronological order.
func (m *Meter) snapshot() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]float32, len(m.buffer))
	copy(cp, m.buffer[m.index:])
	copy(cp[len(m.buffer)-m.index:], m.buffer[:m.index])
	return cp
}

func (m *Meter) ensureWindow(size int) {
	if len(m.window) == size {
		return
	}
	m.window = make([]float64, size)
	sizeF := float64(size)
	for i := range m.window {
		m.window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/sizeF))
	}
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
