// Package config loads the launch parameters and host settings of the
// trajectory simulator from JSON files and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// StepMode selects how simulated time relates to displayed frames.
type StepMode string

const (
	// StepFixed advances exactly one time step per frame, so simulation
	// speed follows the display refresh rate.
	StepFixed StepMode = "fixed"
	// StepAccumulate advances by the real time elapsed between frames,
	// running as many fixed steps as fit.
	StepAccumulate StepMode = "accumulate"
)

// Settings contains the full configuration of a simulator host
type Settings struct {
	Simulation SimulationConfig `json:"simulation"`
	Display    DisplayConfig    `json:"display"`
	Stepping   SteppingConfig   `json:"stepping"`
	Server     ServerConfig     `json:"server"`
}

// DisplayConfig describes the drawing surface
type DisplayConfig struct {
	Width          int `json:"width"`
	Height         int `json:"height"`
	Particles      int `json:"particles"`
	FPS            int `json:"fps"`
	TerminalWidth  int `json:"terminalWidth"`
	TerminalHeight int `json:"terminalHeight"`
}

// SteppingConfig controls the integrator cadence
type SteppingConfig struct {
	Mode             StepMode `json:"mode"`
	TimeStep         float64  `json:"timeStep"`
	MaxStepsPerFrame int      `json:"maxStepsPerFrame"`
	// MaxSteps bounds headless runs that would otherwise never leave the
	// canvas. Zero means unbounded.
	MaxSteps int `json:"maxSteps"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr               string `json:"addr"`
	ReadTimeoutSeconds int    `json:"readTimeoutSeconds"`
	StartsPerMinute    int    `json:"startsPerMinute"`
}

// LoadConfig loads settings from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	settings := DefaultConfig()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveConfig saves settings to a file
func SaveConfig(settings *Settings, path string) error {
	if settings == nil {
		return fmt.Errorf("cannot save nil settings")
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the default settings
func DefaultConfig() *Settings {
	return &Settings{
		Simulation: DefaultSimulation(),
		Display: DisplayConfig{
			Width:          800,
			Height:         400,
			Particles:      100,
			FPS:            60,
			TerminalWidth:  100,
			TerminalHeight: 30,
		},
		Stepping: SteppingConfig{
			Mode:             StepFixed,
			TimeStep:         physics.DefaultTimeStep,
			MaxStepsPerFrame: 8,
			MaxSteps:         100000,
		},
		Server: ServerConfig{
			Addr:               ":8087",
			ReadTimeoutSeconds: 10,
			StartsPerMinute:    30,
		},
	}
}

// Validate checks the launch parameters and host settings.
func (s *Settings) Validate() error {
	if err := s.Simulation.Validate(); err != nil {
		return err
	}

	if s.Display.Width <= 0 || s.Display.Height <= 0 {
		return &ValidationError{Field: "display", Value: fmt.Sprintf("%dx%d", s.Display.Width, s.Display.Height), Message: "must be positive"}
	}
	if s.Display.TerminalWidth <= 0 || s.Display.TerminalHeight <= 0 {
		return &ValidationError{Field: "display.terminal", Value: fmt.Sprintf("%dx%d", s.Display.TerminalWidth, s.Display.TerminalHeight), Message: "must be positive"}
	}
	if s.Display.Particles < 0 {
		return &ValidationError{Field: "display.particles", Value: s.Display.Particles, Message: "cannot be negative"}
	}
	if s.Display.FPS <= 0 {
		return &ValidationError{Field: "display.fps", Value: s.Display.FPS, Message: "must be positive"}
	}

	switch s.Stepping.Mode {
	case StepFixed, StepAccumulate:
	default:
		return &ValidationError{Field: "stepping.mode", Value: s.Stepping.Mode, Message: "must be fixed or accumulate"}
	}
	if !(s.Stepping.TimeStep > 0) {
		return &ValidationError{Field: "stepping.timeStep", Value: s.Stepping.TimeStep, Message: "must be positive"}
	}
	if s.Stepping.MaxStepsPerFrame < 1 {
		return &ValidationError{Field: "stepping.maxStepsPerFrame", Value: s.Stepping.MaxStepsPerFrame, Message: "must be at least 1"}
	}

	return nil
}
