package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	settings := DefaultConfig()
	if err := settings.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if settings.Stepping.Mode != StepFixed {
		t.Errorf("Expected default step mode %q, got %q", StepFixed, settings.Stepping.Mode)
	}
	if settings.Stepping.TimeStep != 0.02 {
		t.Errorf("Expected default time step 0.02, got %v", settings.Stepping.TimeStep)
	}
	if settings.Display.Particles != 100 {
		t.Errorf("Expected 100 wind particles, got %d", settings.Display.Particles)
	}
}

func TestSimulationConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *SimulationConfig)
		field  string
	}{
		{"defaults", func(c *SimulationConfig) {}, ""},
		{"leftward wind", func(c *SimulationConfig) { c.WindDirection = -1 }, ""},
		{"negative speed is accepted", func(c *SimulationConfig) { c.LaunchSpeed = -5 }, ""},
		{"zero wind direction", func(c *SimulationConfig) { c.WindDirection = 0 }, "windDirection"},
		{"wind direction two", func(c *SimulationConfig) { c.WindDirection = 2 }, "windDirection"},
		{"NaN gravity", func(c *SimulationConfig) { c.Gravity = math.NaN() }, "gravity"},
		{"infinite speed", func(c *SimulationConfig) { c.LaunchSpeed = math.Inf(1) }, "launchSpeed"},
		{"NaN angle", func(c *SimulationConfig) { c.LaunchAngleDeg = math.NaN() }, "launchAngleDeg"},
		{"negative infinite wind", func(c *SimulationConfig) { c.WindSpeed = math.Inf(-1) }, "windSpeed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSimulation()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, verr.Field)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Error("ValidationError should wrap ErrInvalidConfig")
			}
		})
	}
}

func TestSimulationConfig_Clamped(t *testing.T) {
	cfg := DefaultSimulation()
	cfg.LaunchSpeed = 250
	cfg.Gravity = 30
	cfg.DragCoefficient = 5
	cfg.LaunchAngleDeg = 120

	got := cfg.Clamped()

	if got.LaunchSpeed != MaxLaunchSpeed || got.Gravity != MaxGravity || got.DragCoefficient != MaxDragCoefficient {
		t.Errorf("Clamped() = %+v", got)
	}
	if got.LaunchAngleDeg != 120 {
		t.Errorf("angle should not be clamped, got %v", got.LaunchAngleDeg)
	}
	if cfg.LaunchSpeed != 250 {
		t.Error("Clamped() must not modify the receiver")
	}
}

func TestSimulationConfig_Environment(t *testing.T) {
	cfg := DefaultSimulation()
	cfg.WindSpeed = 4
	cfg.WindDirection = -1

	env := cfg.Environment()
	if env.WindBias != -4 {
		t.Errorf("Expected wind bias -4, got %v", env.WindBias)
	}
	if env.Gravity != cfg.Gravity || env.Drag != cfg.DragCoefficient {
		t.Errorf("unexpected environment %+v", env)
	}
}

func TestSimulationConfig_Prepare(t *testing.T) {
	cfg := DefaultSimulation()
	cfg.LaunchSpeed = 1000

	got, err := cfg.Prepare()
	if err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}
	if got.LaunchSpeed != MaxLaunchSpeed {
		t.Errorf("Expected clamped speed %v, got %v", MaxLaunchSpeed, got.LaunchSpeed)
	}

	cfg.WindDirection = 0
	if _, err := cfg.Prepare(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Prepare() with bad wind direction = %v, want ErrInvalidConfig", err)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
		field  string
	}{
		{"accumulate mode", func(s *Settings) { s.Stepping.Mode = StepAccumulate }, ""},
		{"unknown mode", func(s *Settings) { s.Stepping.Mode = "variable" }, "stepping.mode"},
		{"zero time step", func(s *Settings) { s.Stepping.TimeStep = 0 }, "stepping.timeStep"},
		{"NaN time step", func(s *Settings) { s.Stepping.TimeStep = math.NaN() }, "stepping.timeStep"},
		{"no steps per frame", func(s *Settings) { s.Stepping.MaxStepsPerFrame = 0 }, "stepping.maxStepsPerFrame"},
		{"zero width", func(s *Settings) { s.Display.Width = 0 }, "display"},
		{"negative terminal width", func(s *Settings) { s.Display.TerminalWidth = -4 }, "display.terminal"},
		{"zero terminal height", func(s *Settings) { s.Display.TerminalHeight = 0 }, "display.terminal"},
		{"negative particles", func(s *Settings) { s.Display.Particles = -1 }, "display.particles"},
		{"zero fps", func(s *Settings) { s.Display.FPS = 0 }, "display.fps"},
		{"bad simulation", func(s *Settings) { s.Simulation.WindDirection = 3 }, "windDirection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultConfig()
			tt.modify(settings)

			err := settings.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("Validate() = %v, want error on field %q", err, tt.field)
			}
		})
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	settings := DefaultConfig()
	settings.Simulation.LaunchAngleDeg = 60
	settings.Simulation.WindDirection = -1
	settings.Stepping.Mode = StepAccumulate

	if err := SaveConfig(settings, path); err != nil {
		t.Fatalf("SaveConfig() failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if *loaded != *settings {
		t.Errorf("loaded settings %+v differ from saved %+v", loaded, settings)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	data := []byte(`{"simulation": {"launchAngleDeg": 30, "windDirection": 1}}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if loaded.Simulation.LaunchAngleDeg != 30 {
		t.Errorf("Expected angle 30, got %v", loaded.Simulation.LaunchAngleDeg)
	}
	if loaded.Simulation.LaunchSpeed != DefaultSimulation().LaunchSpeed {
		t.Errorf("Expected default speed, got %v", loaded.Simulation.LaunchSpeed)
	}
	if loaded.Display.Width != 800 {
		t.Errorf("Expected default width 800, got %d", loaded.Display.Width)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(dir, "absent.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		if err := os.WriteFile(path, []byte(`{"stepping": {"mode": "warp"}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("LoadConfig() = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestSaveConfig_Nil(t *testing.T) {
	if err := SaveConfig(nil, filepath.Join(t.TempDir(), "x.json")); err == nil {
		t.Error("expected error saving nil settings")
	}
}
