package physics

import (
	"math"
	"testing"
)

func TestLaunch_StartsAtOriginWithAngledVelocity(t *testing.T) {
	state := Launch(30, 20)

	if state.Position != (Vector2D{}) {
		t.Errorf("expected launch at origin, got %v", state.Position)
	}
	if !approxEqual(state.Velocity.X, 20*math.Cos(math.Pi/6)) {
		t.Errorf("expected vx %v, got %v", 20*math.Cos(math.Pi/6), state.Velocity.X)
	}
	if !approxEqual(state.Velocity.Y, 10) {
		t.Errorf("expected vy 10, got %v", state.Velocity.Y)
	}
	if !approxEqual(state.Speed(), 20) {
		t.Errorf("expected speed 20, got %v", state.Speed())
	}
}

func TestStep_WithoutDragOrWind_FollowsProjectileLaw(t *testing.T) {
	state := Launch(60, 40)
	env := Environment{Gravity: 9.8}
	vx0 := state.Velocity.X

	for i := 0; i < 200; i++ {
		before := state.Velocity.Y
		Step(&state, env, DefaultTimeStep)

		if state.Velocity.X != vx0 {
			t.Fatalf("step %d: horizontal velocity changed from %v to %v", i, vx0, state.Velocity.X)
		}
		if delta := before - state.Velocity.Y; !approxEqual(delta, 9.8*DefaultTimeStep) {
			t.Fatalf("step %d: vertical velocity dropped by %v, expected %v", i, delta, 9.8*DefaultTimeStep)
		}
	}
}

func TestStep_PositionUsesPreUpdateVelocity(t *testing.T) {
	state := ProjectileState{Velocity: Vector2D{X: 10, Y: 5}}
	Step(&state, Environment{Gravity: 10, Drag: 0.5}, 0.1)

	if !approxEqual(state.Position.X, 1) || !approxEqual(state.Position.Y, 0.5) {
		t.Errorf("expected position {1 0.5}, got %v", state.Position)
	}
}

func TestStep_ReturnsSpeedOfEvaluatedVelocity(t *testing.T) {
	tests := []struct {
		name     string
		velocity Vector2D
	}{
		{"pythagorean", Vector2D{X: 3, Y: 4}},
		{"negative_components", Vector2D{X: -6, Y: -8}},
		{"at_rest", Vector2D{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := ProjectileState{Velocity: tt.velocity}
			speed := Step(&state, Environment{Gravity: 9.8, Drag: 0.3, WindBias: 2}, DefaultTimeStep)

			expected := math.Sqrt(tt.velocity.X*tt.velocity.X + tt.velocity.Y*tt.velocity.Y)
			if speed < 0 {
				t.Errorf("speed is negative: %v", speed)
			}
			if !approxEqual(speed, expected) {
				t.Errorf("Step() speed = %v, expected %v", speed, expected)
			}
		})
	}
}

func TestStep_ZeroSpeedLaunch_ProducesNoNaN(t *testing.T) {
	state := Launch(45, 0)
	env := Environment{Gravity: 9.8, Drag: 1, WindBias: -3}

	for i := 0; i < 10; i++ {
		Step(&state, env, DefaultTimeStep)
		if !state.Position.IsFinite() || !state.Velocity.IsFinite() {
			t.Fatalf("step %d produced non-finite state %+v", i, state)
		}
	}

	if state.Velocity.Y >= 0 {
		t.Errorf("gravity should still pull the ball down, got vy %v", state.Velocity.Y)
	}
	if state.Velocity.X >= 0 {
		t.Errorf("leftward wind should still push the ball left, got vx %v", state.Velocity.X)
	}
}

func TestStep_WindBiasAcceleratesHorizontally(t *testing.T) {
	state := ProjectileState{Velocity: Vector2D{X: 5, Y: 0}}
	Step(&state, Environment{WindBias: 4}, 0.5)

	if !approxEqual(state.Velocity.X, 7) {
		t.Errorf("expected vx 7 after tailwind, got %v", state.Velocity.X)
	}
}

func TestStep_DragSlowsTheBall(t *testing.T) {
	state := Launch(30, 50)
	env := Environment{Drag: 0.5}

	prev := state.Speed()
	for i := 0; i < 50; i++ {
		Step(&state, env, DefaultTimeStep)
		if state.Speed() >= prev {
			t.Fatalf("step %d: speed %v did not drop below %v", i, state.Speed(), prev)
		}
		prev = state.Speed()
	}
}

func TestStep_SymmetricParabolaPeak(t *testing.T) {
	const (
		speed   = 50.0
		gravity = 9.8
	)
	state := Launch(45, speed)
	env := Environment{Gravity: gravity}

	peakY, peakT := 0.0, 0.0
	elapsed := 0.0
	for state.Position.Y >= 0 {
		Step(&state, env, DefaultTimeStep)
		elapsed += DefaultTimeStep
		if state.Position.Y > peakY {
			peakY = state.Position.Y
			peakT = elapsed
		}
	}

	expectedPeakT := speed * math.Sin(math.Pi/4) / gravity
	if math.Abs(peakT-expectedPeakT) > 2*DefaultTimeStep {
		t.Errorf("peak at t=%v, expected near %v", peakT, expectedPeakT)
	}
	if math.Abs(elapsed-2*expectedPeakT) > 3*DefaultTimeStep {
		t.Errorf("flight time %v, expected near %v", elapsed, 2*expectedPeakT)
	}
}

func TestStep_IsDeterministic(t *testing.T) {
	env := Environment{Gravity: 9.8, Drag: 0.1, WindBias: -1.5}

	run := func() []ProjectileState {
		state := Launch(50, 35)
		var out []ProjectileState
		for i := 0; i < 300; i++ {
			Step(&state, env, DefaultTimeStep)
			out = append(out, state)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("runs diverged at step %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
