package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables recognised by ApplyEnvironmentOverrides.
const (
	EnvAngle           = "TRAJECTORY_ANGLE"
	EnvSpeed           = "TRAJECTORY_SPEED"
	EnvGravity         = "TRAJECTORY_GRAVITY"
	EnvDrag            = "TRAJECTORY_DRAG"
	EnvWindDirection   = "TRAJECTORY_WIND_DIRECTION"
	EnvWindSpeed       = "TRAJECTORY_WIND_SPEED"
	EnvShowTrail       = "TRAJECTORY_SHOW_TRAIL"
	EnvWidth           = "TRAJECTORY_WIDTH"
	EnvHeight          = "TRAJECTORY_HEIGHT"
	EnvStepMode        = "TRAJECTORY_STEP_MODE"
	EnvServerAddr      = "TRAJECTORY_SERVER_ADDR"
	EnvStartsPerMinute = "TRAJECTORY_STARTS_PER_MINUTE"
)

// ApplyEnvironmentOverrides replaces settings with any TRAJECTORY_*
// environment variables that are set and parse, then validates the result.
func ApplyEnvironmentOverrides(s *Settings) error {
	sim := &s.Simulation
	sim.LaunchAngleDeg = getEnvAsFloatOrDefault(EnvAngle, sim.LaunchAngleDeg)
	sim.LaunchSpeed = getEnvAsFloatOrDefault(EnvSpeed, sim.LaunchSpeed)
	sim.Gravity = getEnvAsFloatOrDefault(EnvGravity, sim.Gravity)
	sim.DragCoefficient = getEnvAsFloatOrDefault(EnvDrag, sim.DragCoefficient)
	sim.WindDirection = getEnvAsIntOrDefault(EnvWindDirection, sim.WindDirection)
	sim.WindSpeed = getEnvAsFloatOrDefault(EnvWindSpeed, sim.WindSpeed)
	sim.ShowTrajectory = getEnvAsBoolOrDefault(EnvShowTrail, sim.ShowTrajectory)

	s.Display.Width = getEnvAsIntOrDefault(EnvWidth, s.Display.Width)
	s.Display.Height = getEnvAsIntOrDefault(EnvHeight, s.Display.Height)

	mode := strings.ToLower(getEnvOrDefault(EnvStepMode, string(s.Stepping.Mode)))
	s.Stepping.Mode = StepMode(mode)

	s.Server.Addr = getEnvOrDefault(EnvServerAddr, s.Server.Addr)
	s.Server.StartsPerMinute = getEnvAsIntOrDefault(EnvStartsPerMinute, s.Server.StartsPerMinute)

	return s.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
