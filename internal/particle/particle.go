// Package particle owns the symbol population and advances it one frame at a
// time. Update is a pure step over the particle slice: it returns draw
// commands and never touches a display.
package particle

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/iburimskiy/particle-field/internal/config"
	"github.com/iburimskiy/particle-field/internal/noise"
	"github.com/iburimskiy/particle-field/internal/theme"
)

// Viewport is the size of the render surface in surface units.
type Viewport struct {
	Width, Height float64
}

// Pointer is an optional pointer position.
type Pointer struct {
	X, Y    float64
	Present bool
}

// Particle is one symbol drifting across the field.
type Particle struct {
	X, Y   float64 // position, kept inside the wrap margin
	NX, NY float64 // noise phase, only ever increases
	Depth  float64 // scroll parallax weight in [0,1)
	Size   float64 // glyph size
	Symbol string
	Color  color.RGBA
}

// DrawCommand is what the render surface receives for one particle.
type DrawCommand struct {
	Symbol  string
	X, Y    float64
	Size    float64
	Color   color.RGBA
	Opacity float64
}

// Frame carries everything one update reads besides the particles.
type Frame struct {
	T           float64 // global time accumulator, shared by all particles
	Energy      float64
	Sensitivity float64
	Pointer     Pointer
	ScrollDelta float64
	Viewport    Viewport
}

// System owns the particle storage.
type System struct {
	particles []Particle
	field     noise.Field
	tuning    config.Tuning
}

// Create spawns count particles at uniformly random positions.
func Create(count int, symbols []string, palette theme.Palette, vp Viewport, sizes config.ParticlesConfig, rng *rand.Rand) []Particle {
	ps := make([]Particle, count)
	for i := range ps {
		ps[i] = Particle{
			X:      rng.Float64() * vp.Width,
			Y:      rng.Float64() * vp.Height,
			NX:     rng.Float64() * 10,
			NY:     rng.Float64() * 10,
			Depth:  rng.Float64(),
			Size:   sizes.MinSize + rng.Float64()*sizes.SizeSpread,
			Symbol: symbols[i%len(symbols)],
			Color:  palette.Pick(rng),
		}
	}
	return ps
}

// NewSystem wraps an existing population.
func NewSystem(particles []Particle, field noise.Field, tuning config.Tuning) *System {
	return &System{particles: particles, field: field, tuning: tuning}
}

// Particles exposes the population. Callers must not retain it across updates.
func (s *System) Particles() []Particle {
	return s.particles
}

// Len returns the population size.
func (s *System) Len() int {
	return len(s.particles)
}

// Update advances every particle by one tick and returns its draw commands.
func (s *System) Update(f Frame) []DrawCommand {
	return s.AppendUpdate(make([]DrawCommand, 0, len(s.particles)), f)
}

// AppendUpdate is Update appending into dst.
func (s *System) AppendUpdate(dst []DrawCommand, f Frame) []DrawCommand {
	tn := &s.tuning
	energyFactor := 1 + f.Energy*f.Sensitivity

	for i := range s.particles {
		p := &s.particles[i]

		n := s.field.Sample(p.NX+f.T, p.NY)
		d := n * tn.DisplacementScale * energyFactor
		p.X += d
		p.Y += d

		p.Y -= f.ScrollDelta * p.Depth * tn.ParallaxFactor

		p.NX += tn.PhaseStep
		p.NY += tn.PhaseStep

		opacity := tn.BaseOpacity
		if f.Pointer.Present {
			dx := p.X - f.Pointer.X
			dy := p.Y - f.Pointer.Y
			dist := math.Hypot(dx, dy)
			if dist == 0 {
				dist = 1
			}
			if dist < tn.RepulsionRadius {
				force := Repulsion(dist, tn.RepulsionRadius)
				p.X += dx / dist * force * tn.RepulsionMagnitude
				p.Y += dy / dist * force * tn.RepulsionMagnitude
				opacity = tn.NearOpacity
			}
		}

		p.X = wrap(p.X, f.Viewport.Width, tn.WrapMargin)
		p.Y = wrap(p.Y, f.Viewport.Height, tn.WrapMargin)

		dst = append(dst, DrawCommand{
			Symbol:  p.Symbol,
			X:       p.X,
			Y:       p.Y,
			Size:    p.Size,
			Color:   p.Color,
			Opacity: opacity,
		})
	}
	return dst
}

// Recolor gives every particle a new color drawn from palette. Positions,
// phases and the population size are untouched.
func (s *System) Recolor(palette theme.Palette, rng *rand.Rand) {
	for i := range s.particles {
		s.particles[i].Color = palette.Pick(rng)
	}
}

// Repulsion returns the pointer push strength at dist inside radius.
func Repulsion(dist, radius float64) float64 {
	return (radius - dist) / radius
}

// wrap moves a coordinate that left [-margin, size+margin] to the opposite edge.
func wrap(v, size, margin float64) float64 {
	if v < -margin {
		return size + margin
	}
	if v > size+margin {
		return -margin
	}
	return v
}
