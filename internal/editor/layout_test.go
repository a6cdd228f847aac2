package editor

import (
	"math"
	"testing"
)

func TestClampSliderMappingRoundTrip(t *testing.T) {
	for _, frac := range []float64{0, 0.25, 0.5, 0.75, 1} {
		v := normalizedFromFraction(controlClamp, frac)
		back := fractionFromNormalized(controlClamp, v)
		if math.Abs(back-frac) > 1e-6 {
			t.Errorf("frac %v -> %v -> %v", frac, v, back)
		}
	}
}

func TestClampSliderEndpoints(t *testing.T) {
	if got := normalizedFromFraction(controlClamp, 0); math.Abs(float64(got)-0.01) > 1e-9 {
		t.Errorf("bottom of slider = %v, want 0.01", got)
	}
	if got := normalizedFromFraction(controlClamp, 1); math.Abs(float64(got)-1) > 1e-9 {
		t.Errorf("top of slider = %v, want 1", got)
	}
	// Log scale: the midpoint lands at the geometric mean.
	if got := normalizedFromFraction(controlClamp, 0.5); math.Abs(float64(got)-0.1) > 1e-6 {
		t.Errorf("midpoint = %v, want 0.1", got)
	}
}

func TestLinearSlidersAreIdentity(t *testing.T) {
	for _, c := range []control{controlMix, controlGain} {
		for _, frac := range []float64{0, 0.3, 1} {
			if got := normalizedFromFraction(c, frac); float64(got) != frac {
				t.Errorf("control %d: frac %v -> %v", c, frac, got)
			}
		}
	}
}

func TestFractionClamping(t *testing.T) {
	if got := normalizedFromFraction(controlMix, 1.7); got != 1 {
		t.Errorf("overdrag = %v, want 1", got)
	}
	if got := normalizedFromFraction(controlMix, -0.4); got != 0 {
		t.Errorf("underdrag = %v, want 0", got)
	}
}

func TestHitTest(t *testing.T) {
	for c := control(0); c < numControls; c++ {
		r := controlRect(c)
		got, ok := hitTest(r.x+1, r.y+1)
		if !ok || got != c {
			t.Errorf("hitTest inside control %d = %d, %v", c, got, ok)
		}
	}
	if _, ok := hitTest(windowWidth-1, windowHeight-1); ok {
		t.Error("hitTest in empty corner reported a control")
	}
}
