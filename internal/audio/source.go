// Package audio binds an external audio source and turns its low-frequency
// content into a smoothed beat energy in [0,1].
package audio

import (
	"errors"
	"math"
)

// ErrNoSource is returned by a Binder when no audio is available to bind.
var ErrNoSource = errors.New("audio: no source available")

// Source is a playable track with a gain stage and a spectrum tap.
type Source interface {
	Play()
	Pause()
	// SetGain sets the output gain in [0,1].
	SetGain(g float64)
	// FrequencyData fills dst with byte-scaled magnitudes, lowest bin
	// first, and returns the number of bins written.
	FrequencyData(dst []uint8) int
	// Bins is the size of a full spectrum.
	Bins() int
}

// Binder produces a Source. It is called at most once per session.
type Binder interface {
	Bind() (Source, error)
}

// BinderFunc adapts a function to Binder.
type BinderFunc func() (Source, error)

// Bind calls f.
func (f BinderFunc) Bind() (Source, error) { return f() }

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
