package api

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/logging"
	"github.com/opd-ai/go-trajectory/pkg/physics"
	"github.com/opd-ai/go-trajectory/pkg/report"
	"github.com/opd-ai/go-trajectory/pkg/sim"
)

// Point is a position or velocity in simulation units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toPoint(v physics.Vector2D) Point {
	return Point{X: v.X, Y: v.Y}
}

// StateResponse is the JSON view of a loop snapshot.
type StateResponse struct {
	RunID    uint64                  `json:"runId"`
	Status   string                  `json:"status"`
	Position Point                   `json:"position"`
	Velocity Point                   `json:"velocity"`
	Speed    float64                 `json:"speed"`
	Readout  string                  `json:"readout"`
	Steps    int                     `json:"steps"`
	SimTime  float64                 `json:"simTime"`
	Reason   string                  `json:"reason,omitempty"`
	Config   config.SimulationConfig `json:"config"`
	Trail    []Point                 `json:"trail,omitempty"`
}

// NewStateResponse converts a snapshot. The trail is only included when
// withTrail is set.
func NewStateResponse(s sim.Snapshot, withTrail bool) StateResponse {
	resp := StateResponse{
		RunID:    s.RunID,
		Status:   s.Status.String(),
		Position: toPoint(s.State.Position),
		Velocity: toPoint(s.State.Velocity),
		Speed:    s.Speed,
		Readout:  s.Readout,
		Steps:    s.Steps,
		SimTime:  s.SimTime,
		Reason:   string(s.Reason),
		Config:   s.Config,
	}
	if withTrail {
		resp.Trail = make([]Point, len(s.Trail))
		for i, p := range s.Trail {
			resp.Trail[i] = toPoint(p)
		}
	}
	return resp
}

var plotContentTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
}

// writeTrajectoryPlot simulates cfg headlessly with the server's stepping
// and canvas and writes the chart in format.
func writeTrajectoryPlot(w io.Writer, cfg config.SimulationConfig, settings *config.Settings, format string) error {
	traj, err := sim.Simulate(cfg, sim.SimulateOptions{
		TimeStep: settings.Stepping.TimeStep,
		MaxSteps: settings.Stepping.MaxSteps,
		Viewport: physics.NewViewport(float64(settings.Display.Width), float64(settings.Display.Height)),
	})
	if err != nil {
		return err
	}
	return report.WritePlot(traj, w, format)
}

// Consecutive plot failures that open the breaker, and how long it stays
// open before letting one request through.
const (
	plotMaxFailures = 3
	plotCooldown    = 30 * time.Second
)

// newPlotBreaker guards the plot endpoint so repeated rendering failures
// are answered with 503 until the cooldown passes.
func newPlotBreaker(logger *logging.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "plot-render",
		MaxRequests: 1,
		Timeout:     plotCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= plotMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

func breakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
