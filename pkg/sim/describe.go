package sim

import (
	"fmt"

	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// Describe summarises a snapshot in one line for status bars.
func Describe(s Snapshot) string {
	switch s.Status {
	case StatusRunning:
		return fmt.Sprintf("Run %d in flight, t = %.2f s", s.RunID, s.SimTime)
	case StatusTerminated:
		switch s.Reason {
		case physics.Landed:
			return fmt.Sprintf("Run %d landed at x = %.2f m after %.2f s", s.RunID, s.State.Position.X, s.SimTime)
		case physics.LeftCanvas:
			return fmt.Sprintf("Run %d left the canvas after %.2f s", s.RunID, s.SimTime)
		}
		return fmt.Sprintf("Run %d stopped: %s", s.RunID, s.Reason)
	case StatusCancelled:
		return fmt.Sprintf("Run %d cancelled", s.RunID)
	default:
		return "Ready to launch"
	}
}

// DescribeConfig lists the launch parameters in one line.
func DescribeConfig(c config.SimulationConfig) string {
	trail := "off"
	if c.ShowTrajectory {
		trail = "on"
	}
	return fmt.Sprintf("Angle %.0f°  Speed %.0f m/s  Gravity %.1f  Drag %.2f  Wind %+.1f  Trail %s",
		c.LaunchAngleDeg, c.LaunchSpeed, c.Gravity, c.DragCoefficient,
		c.WindSpeed*float64(c.WindDirection), trail)
}
