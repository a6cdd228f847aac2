// Package params holds the four effect parameters shared between the audio
// callback and the UI/automation threads. Each parameter is an independently
// atomic float32 cell: the audio thread only loads, everybody else stores.
// No cross-cell consistency is provided; a write landing mid-block may apply
// to only part of that block's stages, which is fine for these controls.
package params

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Parameter indices as seen by hosts, the editor and remote automation.
const (
	ParamClampThreshold = iota
	ParamLosePrecision
	ParamMix
	ParamGain

	NumParams = 4
)

// ToLinear converts decibels to a linear amplitude factor.
func ToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// ToDB converts a linear amplitude factor to decibels.
func ToDB(linear float32) float32 {
	return 20 * float32(math.Log10(float64(linear)))
}

// gainSpan is the linear headroom mapped onto the gain parameter's
// normalized range: gain = normalized*gainSpan + 1.
var gainSpan = ToLinear(24)

// NormalizeGain maps a linear gain factor (>= 1) to the host-facing [0,1]
// range. Inverse of DenormalizeGain.
func NormalizeGain(linear float32) float32 {
	return (linear - 1) / gainSpan
}

// DenormalizeGain maps a host-facing [0,1] value to the stored linear gain.
func DenormalizeGain(norm float32) float32 {
	return norm*gainSpan + 1
}

// descriptor is the fixed metadata for one parameter index: display name,
// stored default, normalized<->stored value mappings and text formatter.
// The table replaces per-call index switching.
type descriptor struct {
	name string
	def  float32
	// store maps a normalized host value to the stored representation;
	// load is its inverse. nil means identity.
	store func(float32) float32
	load  func(float32) float32
	text  func(float32) string
}

var descriptors = [NumParams]descriptor{
	ParamClampThreshold: {
		name: "Chocolate!",
		def:  ToLinear(-12),
		text: decibelText,
	},
	ParamLosePrecision: {
		name: "8-bitify",
		def:  1.0,
		text: toggleText,
	},
	ParamMix: {
		name: "Mix",
		def:  1.0,
		text: percentText,
	},
	ParamGain: {
		name:  "Gain",
		def:   1.0, // 0 dB
		store: DenormalizeGain,
		load:  NormalizeGain,
		text:  decibelText,
	},
}

func decibelText(v float32) string {
	if v <= 0 {
		return "-inf dB"
	}
	return fmt.Sprintf("%.2f dB", ToDB(v))
}

func toggleText(v float32) string {
	if v > 0.5 {
		return "on"
	}
	return "off"
}

func percentText(v float32) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// Store is the shared parameter object. One instance per effect instance,
// handed to both the audio engine and the editor at construction time.
type Store struct {
	cells [NumParams]uint32
}

// NewStore returns a Store with every parameter at its default.
func NewStore() *Store {
	s := &Store{}
	for i := range descriptors {
		atomic.StoreUint32(&s.cells[i], math.Float32bits(descriptors[i].def))
	}
	return s
}

// Count reports the number of parameters.
func (s *Store) Count() int { return NumParams }

// Get returns the host-facing normalized value for index, or 0 if the index
// is out of range (hosts probe defensively).
func (s *Store) Get(index int) float32 {
	if index < 0 || index >= NumParams {
		return 0
	}
	v := s.stored(index)
	if load := descriptors[index].load; load != nil {
		return load(v)
	}
	return v
}

// Set stores a host-facing normalized value for index. Values outside [0,1]
// are clamped before the stage-specific mapping; out-of-range indices are
// ignored.
func (s *Store) Set(index int, value float32) {
	if index < 0 || index >= NumParams {
		return
	}
	if value < 0 || value != value { // NaN guard
		value = 0
	} else if value > 1 {
		value = 1
	}
	if store := descriptors[index].store; store != nil {
		value = store(value)
	}
	atomic.StoreUint32(&s.cells[index], math.Float32bits(value))
}

// Name returns the control's display name, or "" for an unknown index.
func (s *Store) Name(index int) string {
	if index < 0 || index >= NumParams {
		return ""
	}
	return descriptors[index].name
}

// DisplayText returns the formatted current value, or "" for an unknown index.
func (s *Store) DisplayText(index int) string {
	if index < 0 || index >= NumParams {
		return ""
	}
	return descriptors[index].text(s.stored(index))
}

func (s *Store) stored(index int) float32 {
	return math.Float32frombits(atomic.LoadUint32(&s.cells[index]))
}

// Stored-representation accessors for the audio thread: one atomic load each.

// ClampThreshold returns the clip threshold as a linear amplitude.
func (s *Store) ClampThreshold() float32 { return s.stored(ParamClampThreshold) }

// LosePrecision returns the bit-crush toggle as its raw 0/1 float.
func (s *Store) LosePrecision() float32 { return s.stored(ParamLosePrecision) }

// Mix returns the dry/wet ratio in [0,1].
func (s *Store) Mix() float32 { return s.stored(ParamMix) }

// Gain returns the post-clip boost as a linear factor >= 1.
func (s *Store) Gain() float32 { return s.stored(ParamGain) }
