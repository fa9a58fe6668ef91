package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// Upper bounds applied to launch parameters before a run starts.
const (
	MaxLaunchSpeed     = 100.0
	MaxGravity         = 20.0
	MaxDragCoefficient = 1.0
)

// ErrInvalidConfig is wrapped by every ValidationError.
var ErrInvalidConfig = errors.New("invalid simulation config")

// ValidationError reports the field that failed validation.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %q (value %v): %s", ErrInvalidConfig, e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// SimulationConfig holds the launch parameters of one run. It is never
// modified once the run has started.
type SimulationConfig struct {
	LaunchAngleDeg  float64 `json:"launchAngleDeg"`
	LaunchSpeed     float64 `json:"launchSpeed"`
	Gravity         float64 `json:"gravity"`
	DragCoefficient float64 `json:"dragCoefficient"`
	// WindDirection is +1 for wind blowing right, -1 for left.
	WindDirection  int     `json:"windDirection"`
	WindSpeed      float64 `json:"windSpeed"`
	ShowTrajectory bool    `json:"showTrajectory"`
}

// DefaultSimulation returns a 45° launch in calm air.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		LaunchAngleDeg:  45,
		LaunchSpeed:     30,
		Gravity:         9.8,
		DragCoefficient: 0.1,
		WindDirection:   1,
		WindSpeed:       0,
		ShowTrajectory:  true,
	}
}

// Clamped returns a copy with speed, gravity and drag capped at their
// maximums. Lower bounds are not enforced.
func (c SimulationConfig) Clamped() SimulationConfig {
	c.LaunchSpeed = math.Min(c.LaunchSpeed, MaxLaunchSpeed)
	c.Gravity = math.Min(c.Gravity, MaxGravity)
	c.DragCoefficient = math.Min(c.DragCoefficient, MaxDragCoefficient)
	return c
}

// Validate rejects values that would poison the integrator: NaN or
// infinite numbers and wind directions other than -1 and +1.
func (c SimulationConfig) Validate() error {
	numeric := []struct {
		field string
		value float64
	}{
		{"launchAngleDeg", c.LaunchAngleDeg},
		{"launchSpeed", c.LaunchSpeed},
		{"gravity", c.Gravity},
		{"dragCoefficient", c.DragCoefficient},
		{"windSpeed", c.WindSpeed},
	}
	for _, n := range numeric {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return &ValidationError{Field: n.field, Value: n.value, Message: "must be a finite number"}
		}
	}

	if c.WindDirection != -1 && c.WindDirection != 1 {
		return &ValidationError{Field: "windDirection", Value: c.WindDirection, Message: "must be -1 or 1"}
	}

	return nil
}

// Prepare validates c and returns its clamped form, ready to start a run.
func (c SimulationConfig) Prepare() (SimulationConfig, error) {
	if err := c.Validate(); err != nil {
		return SimulationConfig{}, err
	}
	return c.Clamped(), nil
}

// Environment returns the forcing terms handed to the integrator.
func (c SimulationConfig) Environment() physics.Environment {
	return physics.Environment{
		Gravity:  c.Gravity,
		Drag:     c.DragCoefficient,
		WindBias: c.WindSpeed * float64(c.WindDirection),
	}
}

// InitialState returns the projectile state at the start of a run.
func (c SimulationConfig) InitialState() physics.ProjectileState {
	return physics.Launch(c.LaunchAngleDeg, c.LaunchSpeed)
}
