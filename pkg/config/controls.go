package config

// Control is one interactive edit of the launch parameters.
type Control int

const (
	AngleUp Control = iota
	AngleDown
	SpeedUp
	SpeedDown
	WindUp
	WindDown
	WindFlip
	TrailToggle
)

// Adjustment per control step.
const (
	AngleStep    = 5.0
	SpeedStep    = 5.0
	WindStep     = 1.0
	MaxEditAngle = 90.0
	MaxEditWind  = 20.0
)

// Adjust returns c with one control applied. Edited values stay within
// the ranges an interactive user can pick: angles 0-90, speeds up to
// MaxLaunchSpeed and wind speeds up to MaxEditWind.
func (c SimulationConfig) Adjust(ctrl Control) SimulationConfig {
	switch ctrl {
	case AngleUp:
		c.LaunchAngleDeg = clamp(c.LaunchAngleDeg+AngleStep, 0, MaxEditAngle)
	case AngleDown:
		c.LaunchAngleDeg = clamp(c.LaunchAngleDeg-AngleStep, 0, MaxEditAngle)
	case SpeedUp:
		c.LaunchSpeed = clamp(c.LaunchSpeed+SpeedStep, 0, MaxLaunchSpeed)
	case SpeedDown:
		c.LaunchSpeed = clamp(c.LaunchSpeed-SpeedStep, 0, MaxLaunchSpeed)
	case WindUp:
		c.WindSpeed = clamp(c.WindSpeed+WindStep, 0, MaxEditWind)
	case WindDown:
		c.WindSpeed = clamp(c.WindSpeed-WindStep, 0, MaxEditWind)
	case WindFlip:
		if c.WindDirection < 0 {
			c.WindDirection = 1
		} else {
			c.WindDirection = -1
		}
	case TrailToggle:
		c.ShowTrajectory = !c.ShowTrajectory
	}
	return c
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
