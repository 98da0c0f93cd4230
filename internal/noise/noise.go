// Package noise provides the deterministic scalar fields that displace
// particles. None of them is a source of randomness.
package noise

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Bound is the largest magnitude any Field returns.
const Bound = 1.2

// Field is a smooth scalar function of a 2D phase.
type Field interface {
	Sample(x, y float64) float64
}

// Sine is the weighted sum of three sinusoids. It has no state.
type Sine struct{}

// Sample returns sin(x)*0.6 + sin(y)*0.4 + sin(x+y)*0.2.
func (Sine) Sample(x, y float64) float64 {
	v := math.Sin(x)*0.6 + math.Sin(y)*0.4 + math.Sin(x+y)*0.2
	// the weighted sum never exceeds the bound analytically; clamp covers
	// rounding at the extremes
	return math.Max(-Bound, math.Min(Bound, v))
}

// Simplex samples OpenSimplex noise rescaled to [-1, 1].
type Simplex struct {
	noise opensimplex.Noise
}

// NewSimplex returns a simplex field for the given seed.
func NewSimplex(seed int64) *Simplex {
	return &Simplex{noise: opensimplex.NewNormalized(seed)}
}

// Sample returns a value in [-1, 1]; equal seeds and inputs give equal output.
func (s *Simplex) Sample(x, y float64) float64 {
	return s.noise.Eval2(x, y)*2 - 1
}

// Zero is a flat field.
type Zero struct{}

// Sample always returns 0.
func (Zero) Sample(x, y float64) float64 { return 0 }

// New returns the field named by kind.
func New(kind string, seed int64) (Field, error) {
	switch kind {
	case "", "sine":
		return Sine{}, nil
	case "simplex":
		return NewSimplex(seed), nil
	case "none":
		return Zero{}, nil
	}
	return nil, fmt.Errorf("unknown noise kind %q", kind)
}
