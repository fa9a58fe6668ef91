// Package engo hosts the animation loop in an engo window: the frame is
// drawn with engo shapes, the readout is a text HUD and the keyboard edits
// and launches runs.
package engo

import (
	"context"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-trajectory/pkg/canvas"
	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/logging"
	"github.com/opd-ai/go-trajectory/pkg/sim"
	"github.com/opd-ai/go-trajectory/pkg/wind"
)

// WindowTitle is the title of the simulator window.
const WindowTitle = "Projectile Trajectory"

// HUDFontSize is the point size of the readout text.
const HUDFontSize = 16

// Scene is the single engo scene of the simulator.
type Scene struct {
	settings *config.Settings
	field    *wind.Field
	logger   *logging.Logger
	assets   *AssetManager

	surface *Surface
	loop    *sim.Loop
	hud     *HUDSystem
	input   *InputSystem
}

// NewScene creates a scene for settings animating field.
func NewScene(settings *config.Settings, field *wind.Field, logger *logging.Logger) *Scene {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scene{
		settings: settings,
		field:    field,
		logger:   logger,
		assets:   NewAssetManager(),
	}
}

// Type returns the scene type (required by Engo)
func (scene *Scene) Type() string {
	return "TrajectoryScene"
}

// Preload registers the embedded assets (required by Engo)
func (scene *Scene) Preload() {
	if err := scene.assets.LoadAssets(); err != nil {
		scene.logger.Error(context.Background(), "Failed to load assets", err)
	}
}

// Setup builds the systems when the window opens (required by Engo)
func (scene *Scene) Setup(u engo.Updater) {
	world, _ := u.(*ecs.World)
	common.SetBackground(canvas.Background)
	SetupInputBindings()

	rs := &common.RenderSystem{}
	world.AddSystem(rs)
	scene.build(rs)

	font, err := scene.assets.Font(HUDFontSize, canvas.TextColor)
	if err != nil {
		scene.logger.Warn(context.Background(), "HUD text disabled", "error", err.Error())
	}
	scene.hud = NewHUDSystem(rs, font)

	world.AddSystem(scene.input)
	world.AddSystem(&frameSystem{loop: scene.loop, hud: scene.hud, input: scene.input})
	world.AddSystem(scene.hud)
}

// build creates the surface, loop and input system drawing through rs.
func (scene *Scene) build(rs shapeSystem) {
	display := scene.settings.Display
	scene.surface = NewSurface(float64(display.Width), float64(display.Height), rs)
	scene.loop = sim.NewLoop(scene.surface, scene.field, sim.Options{
		Stepping: scene.settings.Stepping,
		Logger:   scene.logger,
	})
	scene.input = NewInputSystem(scene.loop, scene.settings.Simulation, scene.logger)
}

// Loop returns the animation loop, nil before Setup.
func (scene *Scene) Loop() *sim.Loop {
	return scene.loop
}

// Exit cancels the run in flight (required by Engo)
func (scene *Scene) Exit() {
	if scene.loop != nil && scene.loop.Running() {
		scene.loop.Cancel()
	}
	scene.logger.Info(context.Background(), "Window closed")
}

// frameSystem advances the loop once per engo frame.
type frameSystem struct {
	loop  *sim.Loop
	hud   *HUDSystem
	input *InputSystem
}

// Update runs one frame of the current run and refreshes the HUD.
func (f *frameSystem) Update(dt float32) {
	elapsed := time.Duration(float64(dt) * float64(time.Second))
	snap, ok := f.loop.Frame(f.loop.RunID(), elapsed)
	if !ok {
		snap = f.loop.Snapshot()
	}
	f.hud.Show(snap, f.input.Config())
}

// Remove satisfies the ecs.System interface
func (f *frameSystem) Remove(basic ecs.BasicEntity) {}

// Run opens the window and blocks until it is closed.
func Run(settings *config.Settings, field *wind.Field, logger *logging.Logger) {
	engo.Run(engo.RunOptions{
		Title:    WindowTitle,
		Width:    settings.Display.Width,
		Height:   settings.Display.Height,
		FPSLimit: settings.Display.FPS,
	}, NewScene(settings, field, logger))
}
