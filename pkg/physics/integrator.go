package physics

// DefaultTimeStep is the simulated time advanced by one integration step.
const DefaultTimeStep = 0.02

// ProjectileState tracks the kinematics of the ball in simulation space
// (origin at the launch point, Y up).
type ProjectileState struct {
	Position Vector2D
	Velocity Vector2D
}

// Launch returns the initial state of a run: the ball sits at the origin
// moving at speed along angleDeg (degrees above the horizontal).
func Launch(angleDeg, speed float64) ProjectileState {
	return ProjectileState{
		Velocity: FromAngle(DegreesToRadians(angleDeg), speed),
	}
}

// Speed returns the magnitude of the current velocity.
func (s ProjectileState) Speed() float64 {
	return s.Velocity.Length()
}

// Environment carries the forcing terms applied on every step.
type Environment struct {
	Gravity float64
	// Drag is the linear drag coefficient: deceleration = Drag * speed.
	Drag float64
	// WindBias is the signed wind speed (magnitude * direction). It is
	// subtracted from the horizontal drag term rather than applied to the
	// relative air velocity.
	WindBias float64
}

// Step advances state by dt using position-first semi-implicit Euler and
// returns the speed the forces were evaluated at.
//
// A ball at rest has no drag direction, so the drag contribution is zero
// when speed is exactly zero; the wind bias and gravity still apply.
func Step(state *ProjectileState, env Environment, dt float64) float64 {
	vx, vy := state.Velocity.X, state.Velocity.Y
	speed := state.Velocity.Length()

	dragForce := env.Drag * speed
	var dragX, dragY float64
	if speed != 0 {
		dragX = dragForce * (vx / speed)
		dragY = dragForce * (vy / speed)
	}
	dragX -= env.WindBias

	state.Position = state.Position.Add(state.Velocity.Scale(dt))

	state.Velocity.X -= dragX * dt
	state.Velocity.Y -= (env.Gravity + dragY) * dt

	return speed
}
