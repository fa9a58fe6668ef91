// Package wind animates the ambient particle field that visualises wind
// speed and direction. The field is independent of any single run.
package wind

import (
	"math"
	"math/rand/v2"

	"github.com/opd-ai/go-trajectory/pkg/canvas"
	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// DefaultParticleCount is the size of the particle collection.
const DefaultParticleCount = 100

// particleSpeedFactor converts wind speed into pixels per frame.
const particleSpeedFactor = 2

// TrailWidth is the stroke width of a particle's trail segment.
const TrailWidth = 1.0

// Particle is one drifting wind marker in pixel space.
type Particle struct {
	X float64
	Y float64
}

// Field owns a fixed collection of particles scattered over a surface of
// Width x Height pixels.
type Field struct {
	particles []Particle
	width     float64
	height    float64
	rng       *rand.Rand
}

// NewField scatters count particles uniformly over the surface. The rng
// also picks the height a particle re-enters at after wrapping.
func NewField(count int, width, height float64, rng *rand.Rand) *Field {
	f := &Field{
		particles: make([]Particle, count),
		width:     width,
		height:    height,
		rng:       rng,
	}
	for i := range f.particles {
		f.particles[i] = Particle{
			X: rng.Float64() * width,
			Y: rng.Float64() * height,
		}
	}
	return f
}

// NewFieldWithParticles wraps an existing particle set, typically seeded
// by tests.
func NewFieldWithParticles(particles []Particle, width, height float64, rng *rand.Rand) *Field {
	return &Field{
		particles: particles,
		width:     width,
		height:    height,
		rng:       rng,
	}
}

// Particles returns a copy of the current particle positions.
func (f *Field) Particles() []Particle {
	out := make([]Particle, len(f.particles))
	copy(out, f.particles)
	return out
}

// Len returns the number of particles in the field.
func (f *Field) Len() int {
	return len(f.particles)
}

// Step returns the horizontal displacement of every particle for one
// frame at the given wind magnitude and direction (-1 or +1).
func Step(magnitude float64, direction int) float64 {
	return float64(direction) * math.Abs(magnitude) * particleSpeedFactor
}

// Advance draws each particle's trail from its current position to where
// it drifts this frame, then moves it. Particles leaving the surface on the
// downwind edge re-enter on the upwind edge at a random height.
// A nil surface advances the field without drawing.
func (f *Field) Advance(s canvas.Surface, magnitude float64, direction int) {
	dx := Step(magnitude, direction)

	for i := range f.particles {
		p := &f.particles[i]

		if s != nil {
			s.StrokeLine(
				physics.Vector2D{X: p.X, Y: p.Y},
				physics.Vector2D{X: p.X + dx, Y: p.Y},
				canvas.WindColor,
				TrailWidth,
			)
		}

		p.X += dx
		switch {
		case p.X > f.width && direction > 0:
			p.X = 0
			p.Y = f.rng.Float64() * f.height
		case p.X < 0 && direction < 0:
			p.X = f.width
			p.Y = f.rng.Float64() * f.height
		}
	}
}
