// Package editor renders the plugin window: four controls bound to the
// parameter store plus an output spectrum. The SDL backend is optional;
// build with -tags sdl to enable it.
package editor

import (
	"math"

	"github.com/grieferpig/zippify/internal/params"
)

const (
	windowWidth  = 600
	windowHeight = 400
)

// control identifies one interactive widget, in top-to-bottom screen order.
type control int

const (
	controlClamp control = iota
	controlBitify
	controlMix
	controlGain
	numControls
)

var controlIndex = [numControls]int{
	controlClamp:  params.ParamClampThreshold,
	controlBitify: params.ParamLosePrecision,
	controlMix:    params.ParamMix,
	controlGain:   params.ParamGain,
}

type rect struct {
	x, y, w, h int
}

func (r rect) contains(px, py int) bool {
	return px >= r.x && px < r.x+r.w && py >= r.y && py < r.y+r.h
}

const (
	trackX      = 40
	trackW      = 340
	trackH      = 10
	controlTop  = 70
	controlStep = 56
	checkboxW   = 18
)

// controlRect returns the hit area of a control. Sliders use their full
// track; the toggle is a small box.
func controlRect(c control) rect {
	y := controlTop + int(c)*controlStep
	if c == controlBitify {
		return rect{trackX, y, checkboxW, checkboxW}
	}
	return rect{trackX, y, trackW, trackH}
}

// hitTest maps a click to the control under it, widening slider tracks a few
// pixels vertically so thin tracks are grabbable.
func hitTest(x, y int) (control, bool) {
	for c := control(0); c < numControls; c++ {
		r := controlRect(c)
		if c != controlBitify {
			r.y -= 6
			r.h += 12
		}
		if r.contains(x, y) {
			return c, true
		}
	}
	return 0, false
}

// The clamp slider is logarithmic over [0.01, 1], mirroring the on-screen
// range the host automation path is not bound by.
const (
	clampSliderMin = 0.01
	clampSliderMax = 1.0
)

var clampSliderSpan = math.Log(clampSliderMax / clampSliderMin)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizedFromFraction converts a slider position in [0,1] to the
// host-facing normalized value for the control.
func normalizedFromFraction(c control, frac float64) float32 {
	frac = clamp01(frac)
	if c == controlClamp {
		return float32(clampSliderMin * math.Exp(frac*clampSliderSpan))
	}
	return float32(frac)
}

// fractionFromNormalized is the inverse mapping, used to place the knob.
func fractionFromNormalized(c control, v float32) float64 {
	if c == controlClamp {
		if v <= clampSliderMin {
			return 0
		}
		return clamp01(math.Log(float64(v)/clampSliderMin) / clampSliderSpan)
	}
	return clamp01(float64(v))
}
