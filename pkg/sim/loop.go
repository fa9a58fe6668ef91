// Package sim drives projectile runs frame by frame. A Loop owns the state
// of at most one run at a time; hosts call Frame from their per-frame
// callback with the id returned by Start.
package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/opd-ai/go-trajectory/pkg/canvas"
	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/event"
	"github.com/opd-ai/go-trajectory/pkg/logging"
	"github.com/opd-ai/go-trajectory/pkg/physics"
	"github.com/opd-ai/go-trajectory/pkg/render"
	"github.com/opd-ai/go-trajectory/pkg/wind"
)

// ErrNoActiveRun is returned when an operation needs a run in flight.
var ErrNoActiveRun = errors.New("no active run")

// Status is the lifecycle stage of the loop's current run.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusTerminated
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusTerminated:
		return "terminated"
	case StatusCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Snapshot is a copy of the run state taken after a frame.
type Snapshot struct {
	RunID  uint64
	Status Status
	Config config.SimulationConfig
	State  physics.ProjectileState
	// Speed is the speed the last step evaluated its forces at.
	Speed   float64
	Readout string
	Steps   int
	SimTime float64
	Reason  physics.TerminationReason
	Trail   []physics.Vector2D
}

// Observer is notified after every rendered frame.
type Observer interface {
	ObserveFrame(s Snapshot, steps int)
}

// Options configures a Loop. Zero fields take defaults.
type Options struct {
	Stepping config.SteppingConfig
	Style    render.Style
	Bus      *event.Bus
	Logger   *logging.Logger
	Observer Observer
}

// Loop is the animation loop. Starting a run invalidates the id of any
// run in flight, so frames scheduled for the old run do nothing.
type Loop struct {
	mu       sync.Mutex
	surface  canvas.Surface
	renderer *render.Renderer
	viewport physics.Viewport
	stepping config.SteppingConfig
	bus      *event.Bus
	logger   *logging.Logger
	observer Observer

	runID       uint64
	status      Status
	cfg         config.SimulationConfig
	env         physics.Environment
	state       physics.ProjectileState
	trail       []physics.Vector2D
	speed       float64
	readout     string
	steps       int
	accumulator float64
	reason      physics.TerminationReason
}

// NewLoop creates a loop drawing onto surface. The wind field may be shared
// with other loops or nil for no ambient particles.
func NewLoop(surface canvas.Surface, field *wind.Field, opts Options) *Loop {
	if opts.Stepping.TimeStep <= 0 {
		opts.Stepping.TimeStep = physics.DefaultTimeStep
	}
	if opts.Stepping.Mode == "" {
		opts.Stepping.Mode = config.StepFixed
	}
	if opts.Stepping.MaxStepsPerFrame < 1 {
		opts.Stepping.MaxStepsPerFrame = 1
	}
	if opts.Style == (render.Style{}) {
		opts.Style = render.DefaultStyle()
	}
	if opts.Bus == nil {
		opts.Bus = event.NewEventBus()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	return &Loop{
		surface:  surface,
		renderer: render.NewRenderer(field, opts.Style),
		viewport: physics.NewViewport(surface.Size()),
		stepping: opts.Stepping,
		bus:      opts.Bus,
		logger:   opts.Logger,
		observer: opts.Observer,
	}
}

// EventBus returns the bus run lifecycle events are published on.
func (l *Loop) EventBus() *event.Bus {
	return l.bus
}

// Start validates cfg, cancels any run in flight and begins a new run,
// returning its id. An invalid cfg leaves the current run untouched.
func (l *Loop) Start(cfg config.SimulationConfig) (uint64, error) {
	prepared, err := cfg.Prepare()
	if err != nil {
		l.logger.Error(context.Background(), "rejected launch", err)
		return 0, logging.WrapError(err, "start run")
	}

	l.mu.Lock()
	var pending []event.Event
	if l.status == StatusRunning {
		pending = append(pending, event.NewRunEvent(event.RunCancelled, l, l.runID, "", l.steps))
	}

	l.runID++
	l.status = StatusRunning
	l.cfg = prepared
	l.env = prepared.Environment()
	l.state = prepared.InitialState()
	l.trail = l.trail[:0]
	l.speed = l.state.Speed()
	l.readout = render.Readout(l.speed)
	l.steps = 0
	l.accumulator = 0
	l.reason = physics.NotTerminated
	l.surface.Clear()
	id := l.runID
	l.mu.Unlock()

	pending = append(pending, event.NewRunEvent(event.RunStarted, l, id, "", 0))
	l.publish(pending)

	l.logger.Info(logging.WithRunID(context.Background(), id), "run started",
		"angle", prepared.LaunchAngleDeg,
		"speed", prepared.LaunchSpeed,
		"gravity", prepared.Gravity,
		"drag", prepared.DragCoefficient,
		"wind", prepared.WindSpeed*float64(prepared.WindDirection),
	)
	return id, nil
}

// Cancel stops the run in flight without starting another.
func (l *Loop) Cancel() error {
	l.mu.Lock()
	if l.status != StatusRunning {
		l.mu.Unlock()
		return ErrNoActiveRun
	}
	l.status = StatusCancelled
	ev := event.NewRunEvent(event.RunCancelled, l, l.runID, "", l.steps)
	id := l.runID
	l.mu.Unlock()

	l.publish([]event.Event{ev})
	l.logger.Info(logging.WithRunID(context.Background(), id), "run cancelled")
	return nil
}

// Frame integrates and renders one frame of run runID. elapsed is the real
// time since the previous frame and only matters in accumulate mode. It
// returns false without touching anything when runID is not the current
// run or the run has already stopped.
func (l *Loop) Frame(runID uint64, elapsed time.Duration) (Snapshot, bool) {
	l.mu.Lock()
	if runID != l.runID || l.status != StatusRunning {
		l.mu.Unlock()
		return Snapshot{}, false
	}

	n := l.stepsForFrame(elapsed)
	for i := 0; i < n; i++ {
		if l.cfg.ShowTrajectory {
			l.trail = append(l.trail, l.state.Position)
		}
		l.speed = physics.Step(&l.state, l.env, l.stepping.TimeStep)
		l.steps++
	}

	l.readout = l.renderer.DrawFrame(l.surface, render.Frame{
		State:         l.state,
		Speed:         l.speed,
		ShowTrail:     l.cfg.ShowTrajectory,
		Trail:         l.trail,
		WindSpeed:     l.cfg.WindSpeed,
		WindDirection: l.cfg.WindDirection,
	})

	var pending []event.Event
	if n > 0 {
		if reason, done := l.viewport.Terminated(l.state); done {
			l.status = StatusTerminated
			l.reason = reason
			pending = append(pending, event.NewRunEvent(event.RunTerminated, l, l.runID, string(reason), l.steps))
		}
	}

	snap := l.snapshotLocked()
	l.mu.Unlock()

	ctx := logging.WithRunID(context.Background(), runID)
	l.logger.Debug(ctx, "frame", "steps", n, "x", snap.State.Position.X, "y", snap.State.Position.Y)
	if snap.Status == StatusTerminated {
		l.logger.Info(ctx, "run terminated",
			"reason", string(snap.Reason),
			"steps", snap.Steps,
			"sim_time", snap.SimTime,
		)
	}

	l.publish(pending)
	if l.observer != nil {
		l.observer.ObserveFrame(snap, n)
	}
	return snap, true
}

// stepsForFrame returns how many integrator steps the next frame runs.
func (l *Loop) stepsForFrame(elapsed time.Duration) int {
	if l.stepping.Mode != config.StepAccumulate {
		return 1
	}

	dt := l.stepping.TimeStep
	l.accumulator += elapsed.Seconds()
	n := int(math.Floor(l.accumulator / dt))
	if n > l.stepping.MaxStepsPerFrame {
		// Drop the backlog rather than spiral after a long stall.
		n = l.stepping.MaxStepsPerFrame
		l.accumulator = 0
		return n
	}
	l.accumulator -= float64(n) * dt
	return n
}

// Snapshot returns a copy of the current run state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// RunID returns the id of the most recently started run, zero if none.
func (l *Loop) RunID() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runID
}

// Running reports whether a run is in flight.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status == StatusRunning
}

// View calls fn with the loop's surface while no frame is being drawn.
// fn must not call back into the loop.
func (l *Loop) View(fn func(s canvas.Surface)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.surface)
}

func (l *Loop) snapshotLocked() Snapshot {
	trail := make([]physics.Vector2D, len(l.trail))
	copy(trail, l.trail)

	return Snapshot{
		RunID:   l.runID,
		Status:  l.status,
		Config:  l.cfg,
		State:   l.state,
		Speed:   l.speed,
		Readout: l.readout,
		Steps:   l.steps,
		SimTime: float64(l.steps) * l.stepping.TimeStep,
		Reason:  l.reason,
		Trail:   trail,
	}
}

func (l *Loop) publish(events []event.Event) {
	for _, e := range events {
		l.bus.Publish(e)
	}
}
