package meter

import (
	"math"
	"testing"
)

func pushSine(m *Meter, freq, amp float64, samples int) {
	block := make([]float32, 256)
	written := 0
	for written < samples {
		for i := range block {
			phase := 2 * math.Pi * freq * float64(written+i) / m.SampleRate()
			block[i] = float32(amp * math.Sin(phase))
		}
		m.Push(block, block)
		written += len(block)
	}
}

func TestLevelsOfSine(t *testing.T) {
	m := New(48_000, 2048)
	pushSine(m, 1000, 0.5, 4096)

	levels := m.Levels()
	wantRMS := 0.5 / math.Sqrt2
	if math.Abs(levels.RMS-wantRMS) > 0.02 {
		t.Errorf("RMS = %v, want ~%v", levels.RMS, wantRMS)
	}
	if math.Abs(levels.Peak-0.5) > 0.02 {
		t.Errorf("peak = %v, want ~0.5", levels.Peak)
	}
}

func TestLevelsOfSilence(t *testing.T) {
	m := New(48_000, 1024)
	levels := m.Levels()
	if levels.RMS != 0 || levels.Peak != 0 {
		t.Errorf("levels of empty ring = %+v, want zeros", levels)
	}
}

func TestSpectrumPeakBin(t *testing.T) {
	const (
		rate = 48_000.0
		freq = 3000.0
		bins = 64
	)
	m := New(rate, 2048)
	pushSine(m, freq, 0.8, 4096)

	spectrum := m.Spectrum(bins)
	if len(spectrum) != bins {
		t.Fatalf("len(spectrum) = %d, want %d", len(spectrum), bins)
	}

	maxBin := 0
	for i, v := range spectrum {
		if v > spectrum[maxBin] {
			maxBin = i
		}
		if v < 0 || v > 1 {
			t.Errorf("bin %d = %v, outside [0,1]", i, v)
		}
	}

	wantBin := int(freq / (rate / 2) * bins)
	if maxBin < wantBin-1 || maxBin > wantBin+1 {
		t.Errorf("spectral peak at bin %d, want ~%d", maxBin, wantBin)
	}
}

func TestPushTruncatesMismatchedChannels(t *testing.T) {
	m := New(48_000, 64)
	left := make([]float32, 32)
	right := make([]float32, 16)
	for i := range left {
		left[i] = 1
	}
	m.Push(left, right) // must not panic past the shorter channel
}
