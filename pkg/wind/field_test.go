package wind

import (
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/opd-ai/go-trajectory/pkg/canvas"
	"github.com/opd-ai/go-trajectory/pkg/physics"
)

type segment struct {
	from, to physics.Vector2D
	color    color.Color
}

// segmentSurface records the line segments drawn by the field.
type segmentSurface struct {
	canvas.Surface
	segments []segment
}

func (s *segmentSurface) StrokeLine(from, to physics.Vector2D, c color.Color, _ float64) {
	s.segments = append(s.segments, segment{from: from, to: to, color: c})
}

func seededRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestNewField_ScattersParticlesInsideSurface(t *testing.T) {
	f := NewField(DefaultParticleCount, 800, 400, seededRNG())

	if f.Len() != DefaultParticleCount {
		t.Fatalf("expected %d particles, got %d", DefaultParticleCount, f.Len())
	}
	for i, p := range f.Particles() {
		if p.X < 0 || p.X > 800 || p.Y < 0 || p.Y > 400 {
			t.Errorf("particle %d at (%v, %v) lies outside the surface", i, p.X, p.Y)
		}
	}
}

func TestStep_ScalesWithMagnitudeAndDirection(t *testing.T) {
	tests := []struct {
		name      string
		magnitude float64
		direction int
		expected  float64
	}{
		{"rightward", 3, 1, 6},
		{"leftward", 3, -1, -6},
		{"negative_magnitude_uses_absolute_value", -3, 1, 6},
		{"calm", 0, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Step(tt.magnitude, tt.direction); got != tt.expected {
				t.Errorf("Step(%v, %d) = %v, expected %v", tt.magnitude, tt.direction, got, tt.expected)
			}
		})
	}
}

func TestAdvance_DrawsTrailFromPreToPostPosition(t *testing.T) {
	f := NewFieldWithParticles([]Particle{{X: 10, Y: 20}, {X: 100, Y: 50}}, 800, 400, seededRNG())
	s := &segmentSurface{}

	f.Advance(s, 2.5, 1)

	if len(s.segments) != 2 {
		t.Fatalf("expected 2 trail segments, got %d", len(s.segments))
	}
	first := s.segments[0]
	if first.from != (physics.Vector2D{X: 10, Y: 20}) || first.to != (physics.Vector2D{X: 15, Y: 20}) {
		t.Errorf("unexpected trail %v -> %v", first.from, first.to)
	}
	if first.color != canvas.WindColor {
		t.Errorf("trail color = %v, expected %v", first.color, canvas.WindColor)
	}

	got := f.Particles()
	if got[0].X != 15 || got[1].X != 105 {
		t.Errorf("particles moved to %v, expected x = 15 and 105", got)
	}
	if got[0].Y != 20 || got[1].Y != 50 {
		t.Errorf("particles changed height without wrapping: %v", got)
	}
}

func TestAdvance_WrapsRightEdgeToZero(t *testing.T) {
	const width, height = 800.0, 400.0
	f := NewFieldWithParticles([]Particle{{X: width - 1, Y: 123}}, width, height, seededRNG())

	f.Advance(nil, 1, 1)

	p := f.Particles()[0]
	if p.X != 0 {
		t.Errorf("expected wrap to x = 0, got %v", p.X)
	}
	if p.Y < 0 || p.Y > height {
		t.Errorf("re-entry height %v outside surface", p.Y)
	}
}

func TestAdvance_WrapsLeftEdgeToWidth(t *testing.T) {
	const width, height = 800.0, 400.0
	f := NewFieldWithParticles([]Particle{{X: 1, Y: 50}}, width, height, seededRNG())

	f.Advance(nil, 1, -1)

	if p := f.Particles()[0]; p.X != width {
		t.Errorf("expected wrap to x = %v, got %v", width, p.X)
	}
}

func TestAdvance_DoesNotWrapAgainstTheWind(t *testing.T) {
	// A particle beyond the right edge while the wind blows left keeps
	// drifting back towards the surface.
	f := NewFieldWithParticles([]Particle{{X: 805, Y: 50}}, 800, 400, seededRNG())

	f.Advance(nil, 1, -1)

	if p := f.Particles()[0]; p.X != 803 || p.Y != 50 {
		t.Errorf("expected particle at (803, 50), got (%v, %v)", p.X, p.Y)
	}
}

func TestAdvance_KeepsCollectionSize(t *testing.T) {
	f := NewField(DefaultParticleCount, 200, 100, seededRNG())

	for i := 0; i < 500; i++ {
		f.Advance(nil, 7, 1)
	}

	if f.Len() != DefaultParticleCount {
		t.Errorf("particle count changed to %d", f.Len())
	}
	for i, p := range f.Particles() {
		if p.X < 0 || p.X > 200+14 {
			t.Errorf("particle %d escaped to x = %v", i, p.X)
		}
	}
}
