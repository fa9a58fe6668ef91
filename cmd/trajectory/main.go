// cmd/trajectory/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-trajectory/pkg/canvas"
	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/logging"
	engorender "github.com/opd-ai/go-trajectory/pkg/render/engo"
	"github.com/opd-ai/go-trajectory/pkg/render/tty"
	"github.com/opd-ai/go-trajectory/pkg/report"
	"github.com/opd-ai/go-trajectory/pkg/sim"
	"github.com/opd-ai/go-trajectory/pkg/wind"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	renderer := flag.String("renderer", "engo", "Renderer type: 'engo', 'terminal' or 'png'")
	out := flag.String("out", "trajectory.png", "Output image (png renderer only)")
	plotPath := flag.String("plot", "", "Also save a height/range plot to this path (png, svg or pdf)")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for wind particle placement")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	settings, err := loadSettings(ctx, logger, *configPath)
	if err != nil {
		os.Exit(1)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	display := settings.Display

	switch *renderer {
	case "engo":
		field := wind.NewField(display.Particles, float64(display.Width), float64(display.Height), rng)
		engorender.Run(settings, field, logger)
	case "terminal":
		field := wind.NewField(display.Particles, float64(display.TerminalWidth), float64(display.TerminalHeight), rng)
		if err := runTerminal(settings, field, logger); err != nil {
			logger.Error(ctx, "Terminal renderer failed", err)
			os.Exit(1)
		}
	case "png":
		field := wind.NewField(display.Particles, float64(display.Width), float64(display.Height), rng)
		if err := renderPNG(ctx, settings, field, logger, *out, *plotPath); err != nil {
			logger.Error(ctx, "Headless render failed", err, "out", *out)
			os.Exit(1)
		}
	default:
		logger.Error(ctx, "Unknown renderer", nil, "renderer", *renderer)
		os.Exit(2)
	}
}

// loadSettings reads configPath, falling back to defaults when the file is
// missing, and applies TRAJECTORY_* overrides.
func loadSettings(ctx context.Context, logger *logging.Logger, configPath string) (*config.Settings, error) {
	var settings *config.Settings

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", configPath,
		)
		settings = config.DefaultConfig()
	} else {
		settings, err = config.LoadConfig(configPath)
		if err != nil {
			logger.Error(ctx, "Failed to load configuration", err,
				"config_path", configPath,
			)
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(settings); err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		return nil, err
	}
	return settings, nil
}

func runTerminal(settings *config.Settings, field *wind.Field, logger *logging.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return logging.WrapError(err, "create screen")
	}
	if err := screen.Init(); err != nil {
		return logging.WrapError(err, "init screen")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tty.NewHost(screen, settings, field, logger).Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// renderPNG flies the configured launch to the end without a window and
// writes the final canvas to out. A summary and height chart are printed;
// plotPath, when set, also receives a gonum plot of the whole flight.
func renderPNG(ctx context.Context, settings *config.Settings, field *wind.Field, logger *logging.Logger, out, plotPath string) error {
	raster := canvas.NewRaster(settings.Display.Width, settings.Display.Height)
	loop := sim.NewLoop(raster, field, sim.Options{
		Stepping: settings.Stepping,
		Logger:   logger,
	})

	id, err := loop.Start(settings.Simulation)
	if err != nil {
		return err
	}

	maxSteps := settings.Stepping.MaxSteps
	if maxSteps <= 0 {
		maxSteps = sim.DefaultMaxSteps
	}
	frame := time.Duration(settings.Stepping.TimeStep * float64(time.Second))
	snap := loop.Snapshot()
	for snap.Status == sim.StatusRunning && snap.Steps < maxSteps {
		snap, _ = loop.Frame(id, frame)
	}
	if snap.Status == sim.StatusRunning {
		loop.Cancel()
		logger.Warn(ctx, "Run stopped at step limit", "max_steps", maxSteps)
	}
	raster.DrawText(10, 20, snap.Readout, canvas.TextColor)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := raster.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info(ctx, "Wrote frame", "out", out, "steps", snap.Steps, "status", snap.Status.String())

	traj, err := sim.Simulate(settings.Simulation, sim.SimulateOptions{
		TimeStep: settings.Stepping.TimeStep,
		MaxSteps: maxSteps,
	})
	if err != nil {
		return err
	}
	fmt.Println(report.Summary(traj))
	fmt.Println(report.ASCIIChart(traj, 60, 12))

	if plotPath != "" {
		if err := report.SavePlot(traj, plotPath); err != nil {
			return logging.WrapError(err, "save plot %s", plotPath)
		}
		logger.Info(ctx, "Wrote plot", "path", plotPath)
	}
	return nil
}
