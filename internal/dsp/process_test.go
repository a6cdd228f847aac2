package dsp

import (
	"math"
	"testing"

	"github.com/grieferpig/zippify/internal/params"
)

func newTestProcessor(clampThreshold, gainLinear float32, losePrecision bool, mix float32) *Processor {
	store := params.NewStore()
	store.Set(params.ParamClampThreshold, clampThreshold)
	if losePrecision {
		store.Set(params.ParamLosePrecision, 1)
	} else {
		store.Set(params.ParamLosePrecision, 0)
	}
	store.Set(params.ParamMix, mix)
	store.Set(params.ParamGain, params.NormalizeGain(gainLinear))
	return New(store, 256)
}

func runMono(p *Processor, input []float32) []float32 {
	inL := append([]float32(nil), input...)
	inR := append([]float32(nil), input...)
	outL := make([]float32, len(input))
	outR := make([]float32, len(input))
	p.Process(inL, inR, outL, outR)
	return outL
}

func approx(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestClampStage(t *testing.T) {
	const threshold = 0.5
	p := newTestProcessor(threshold, 1, false, 1)

	input := []float32{0.9, -0.9, 0.5, -0.5, 0.3, -0.3, 1.0, -1.0}
	out := runMono(p, input)

	for i, s := range input {
		if math.Abs(float64(out[i])) > threshold+1e-7 {
			t.Errorf("sample %d: |%v| exceeds threshold %v", i, out[i], threshold)
		}
		if math.Abs(float64(s)) <= threshold && out[i] != s {
			t.Errorf("sample %d: in-range sample %v changed to %v", i, s, out[i])
		}
	}
	if out[0] != threshold || out[1] != -threshold {
		t.Errorf("over-range samples = %v, %v, want +-%v", out[0], out[1], threshold)
	}
}

func TestSilenceGateZeroesLongRuns(t *testing.T) {
	p := newTestProcessor(1, 1, false, 1)

	input := make([]float32, 40)
	for i := range input {
		input[i] = 0.001
	}
	out := runMono(p, input)

	for i := 0; i < 32; i++ {
		if out[i] != 0.001 {
			t.Errorf("sample %d = %v, want 0.001 (run not yet over limit)", i, out[i])
		}
	}
	for i := 32; i < 40; i++ {
		if out[i] != 0 {
			t.Errorf("sample %d = %v, want 0", i, out[i])
		}
	}
}

func TestSilenceGateLeavesExactLimitRun(t *testing.T) {
	p := newTestProcessor(1, 1, false, 1)

	input := make([]float32, 32)
	for i := range input {
		input[i] = 0.001
	}
	out := runMono(p, input)

	for i, s := range out {
		if s != 0.001 {
			t.Errorf("sample %d = %v, want 0.001", i, s)
		}
	}
}

func TestSilenceGateIgnoresLoudNegativeSamples(t *testing.T) {
	p := newTestProcessor(1, 1, false, 1)

	input := make([]float32, 40)
	for i := range input {
		input[i] = -0.5
	}
	out := runMono(p, input)

	for i, s := range out {
		if s != -0.5 {
			t.Errorf("sample %d = %v, want -0.5", i, s)
		}
	}
}

func TestMixFullDryIsIdentity(t *testing.T) {
	// Even with heavy clipping and crushing enabled, mix 0 must reproduce
	// the untouched input.
	p := newTestProcessor(0.1, 2, true, 0)

	input := []float32{0.9, -0.7, 0.33, 0.001, -0.002, 0.5}
	out := runMono(p, input)

	for i, s := range input {
		if out[i] != s {
			t.Errorf("sample %d = %v, want %v", i, out[i], s)
		}
	}
}

func TestMixBlend(t *testing.T) {
	p := newTestProcessor(0.5, 1, false, 0.5)

	out := runMono(p, []float32{0.8})
	// wet = clamp(0.8) = 0.5, dry = 0.8 -> 0.5*0.5 + 0.5*0.8 = 0.65
	if !approx(out[0], 0.65, 1e-6) {
		t.Errorf("blended sample = %v, want 0.65", out[0])
	}
}

func TestPrecisionReductionOffIsIdentity(t *testing.T) {
	p := newTestProcessor(1, 1, false, 1)

	input := []float32{0.37, -0.62, 0.111, 0.999}
	out := runMono(p, input)
	for i, s := range input {
		if out[i] != s {
			t.Errorf("sample %d = %v, want %v", i, out[i], s)
		}
	}
}

func TestPrecisionReductionQuantizes(t *testing.T) {
	p := newTestProcessor(1, 1, true, 1)

	input := []float32{0.37, -0.62, 0.111, 0.999, -1.0, 0.5}
	out := runMono(p, input)
	for i, s := range out {
		steps := float64(s) * 15
		if math.Abs(steps-math.Round(steps)) > 1e-5 {
			t.Errorf("sample %d = %v, not a multiple of 1/15", i, s)
		}
	}
	// 0.37*15 = 5.55 truncates to 5.
	if !approx(out[0], 5.0/15, 1e-6) {
		t.Errorf("sample 0 = %v, want %v", out[0], 5.0/15)
	}
}

func TestPrecisionReductionWrapsOverdrive(t *testing.T) {
	// Full gain drives a clamped 1.0 to ~16.85; *15 truncates to 252,
	// which wraps to -4 as a signed byte.
	p := newTestProcessor(1, params.DenormalizeGain(1), true, 1)

	out := runMono(p, []float32{1.0})
	if !approx(out[0], -4.0/15, 1e-6) {
		t.Errorf("overdriven sample = %v, want %v", out[0], -4.0/15)
	}
}

func TestGainScenario(t *testing.T) {
	p := newTestProcessor(1, params.ToLinear(6), false, 1)

	out := runMono(p, []float32{0.4})
	if !approx(out[0], 0.7981, 1e-3) {
		t.Errorf("gained sample = %v, want ~0.7981", out[0])
	}
}

func TestEndToEndScenario(t *testing.T) {
	threshold := params.ToLinear(-12)
	p := newTestProcessor(threshold, 1, false, 1)

	input := make([]float32, 43)
	input[0], input[1], input[2] = 0.5, 0.5, -0.5
	for i := 3; i < len(input); i++ {
		input[i] = 0.001
	}
	out := runMono(p, input)

	if !approx(out[0], threshold, 1e-6) || !approx(out[1], threshold, 1e-6) {
		t.Errorf("clipped head = %v, %v, want %v", out[0], out[1], threshold)
	}
	if !approx(out[2], -threshold, 1e-6) {
		t.Errorf("clipped negative sample = %v, want %v", out[2], -threshold)
	}
	// Trailing silent run: first 32 samples survive, the rest are muted.
	for i := 3; i < 35; i++ {
		if out[i] != 0.001 {
			t.Errorf("sample %d = %v, want 0.001", i, out[i])
		}
	}
	for i := 35; i < 43; i++ {
		if out[i] != 0 {
			t.Errorf("sample %d = %v, want 0", i, out[i])
		}
	}
}

func TestZeroInputFallsBackToOutputBuffer(t *testing.T) {
	// Hosts like Ableton leave the nominal input silent and deliver samples
	// in the output buffer instead.
	p := newTestProcessor(1, 1, false, 1)

	inL := make([]float32, 8)
	inR := make([]float32, 8)
	outL := make([]float32, 8)
	outR := make([]float32, 8)
	for i := range outL {
		outL[i] = 0.5
		outR[i] = -0.5
	}
	p.Process(inL, inR, outL, outR)

	for i := range outL {
		if outL[i] != 0.5 || outR[i] != -0.5 {
			t.Fatalf("sample %d = %v/%v, want 0.5/-0.5", i, outL[i], outR[i])
		}
	}
}

func TestInPlaceProcessing(t *testing.T) {
	p := newTestProcessor(0.25, 1, false, 1)

	bufL := []float32{0.5, -0.5, 0.1, 0.2}
	bufR := []float32{0.5, -0.5, 0.1, 0.2}
	p.Process(bufL, bufR, bufL, bufR)

	want := []float32{0.25, -0.25, 0.1, 0.2}
	for i := range want {
		if bufL[i] != want[i] || bufR[i] != want[i] {
			t.Errorf("sample %d = %v/%v, want %v", i, bufL[i], bufR[i], want[i])
		}
	}
}

func TestZeroThresholdStaysFinite(t *testing.T) {
	p := newTestProcessor(0, params.DenormalizeGain(1), true, 1)

	input := []float32{1.0, -1.0, 0.5, 0.0}
	out := runMono(p, input)
	for i, s := range out {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			t.Fatalf("sample %d = %v, want finite", i, s)
		}
		if s != 0 {
			t.Errorf("sample %d = %v, want 0 (fully clamped)", i, s)
		}
	}
}

func TestChannelsProcessedIndependently(t *testing.T) {
	p := newTestProcessor(1, 1, false, 1)

	inL := make([]float32, 40)
	inR := make([]float32, 40)
	for i := range inL {
		inL[i] = 0.5   // loud: untouched
		inR[i] = 0.001 // silent run: muted past the limit
	}
	outL := make([]float32, 40)
	outR := make([]float32, 40)
	p.Process(inL, inR, outL, outR)

	for i := range outL {
		if outL[i] != 0.5 {
			t.Errorf("left %d = %v, want 0.5", i, outL[i])
		}
	}
	for i := 32; i < 40; i++ {
		if outR[i] != 0 {
			t.Errorf("right %d = %v, want 0", i, outR[i])
		}
	}
}

func TestBlockLargerThanConfiguredMax(t *testing.T) {
	p := newTestProcessor(1, 1, false, 1)

	input := make([]float32, 1024)
	for i := range input {
		input[i] = 0.25
	}
	out := runMono(p, input)
	for i, s := range out {
		if s != 0.25 {
			t.Fatalf("sample %d = %v, want 0.25", i, s)
		}
	}
}
