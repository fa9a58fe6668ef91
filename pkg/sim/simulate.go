package sim

import (
	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/logging"
	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// StepLimit is reported when a headless run hits its step cap before the
// ball lands or leaves the canvas.
const StepLimit physics.TerminationReason = "step_limit"

// DefaultMaxSteps bounds Simulate when no cap is given.
const DefaultMaxSteps = 100000

// Sample is the projectile state after one integrator step.
type Sample struct {
	Time     float64
	Position physics.Vector2D
	Velocity physics.Vector2D
	// Speed is the speed the step evaluated its forces at.
	Speed float64
}

// Trajectory is the full result of a headless run.
type Trajectory struct {
	Config     config.SimulationConfig
	Samples    []Sample
	Peak       physics.Vector2D
	PeakTime   float64
	Range      float64
	FlightTime float64
	Reason     physics.TerminationReason
}

// SimulateOptions configures Simulate. Zero fields take defaults.
type SimulateOptions struct {
	TimeStep float64
	MaxSteps int
	// Viewport decides termination. Its aspect ratio does not matter, only
	// the simulation extents it maps.
	Viewport physics.Viewport
}

// Simulate runs cfg to termination without drawing and returns every
// step. The same cfg always yields the same Trajectory.
func Simulate(cfg config.SimulationConfig, opts SimulateOptions) (*Trajectory, error) {
	prepared, err := cfg.Prepare()
	if err != nil {
		return nil, logging.WrapError(err, "simulate")
	}

	if opts.TimeStep <= 0 {
		opts.TimeStep = physics.DefaultTimeStep
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = physics.NewViewport(physics.SimWidth, physics.SimHeight)
	}

	env := prepared.Environment()
	state := prepared.InitialState()
	traj := &Trajectory{Config: prepared, Reason: StepLimit, Peak: state.Position}

	for i := 1; i <= opts.MaxSteps; i++ {
		speed := physics.Step(&state, env, opts.TimeStep)
		t := float64(i) * opts.TimeStep
		traj.Samples = append(traj.Samples, Sample{
			Time:     t,
			Position: state.Position,
			Velocity: state.Velocity,
			Speed:    speed,
		})

		if state.Position.Y > traj.Peak.Y {
			traj.Peak = state.Position
			traj.PeakTime = t
		}

		if reason, done := opts.Viewport.Terminated(state); done {
			traj.Reason = reason
			break
		}
	}

	last := traj.Samples[len(traj.Samples)-1]
	traj.Range = last.Position.X
	traj.FlightTime = last.Time
	return traj, nil
}
