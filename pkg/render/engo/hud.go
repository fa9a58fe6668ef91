package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/sim"
)

// HelpLine lists the key bindings.
const HelpLine = "Space launch  Esc cancel  Up/Down angle  Left/Right speed  Q/E wind speed  W wind direction  T trail"

// hudZIndex keeps the text above every frame shape.
const hudZIndex = 1 << 20

// HUD layout in pixels.
const (
	hudMargin     = 10
	hudLineHeight = 22
)

// HUDSystem draws the speed readout and run status as text in the top-left
// corner, in the place of the page's info box.
type HUDSystem struct {
	system shapeSystem
	font   *common.Font

	lines  []string
	labels []*shape
}

// NewHUDSystem creates a HUD whose text entities are added to system. A
// nil font keeps the lines without drawing them.
func NewHUDSystem(system shapeSystem, font *common.Font) *HUDSystem {
	return &HUDSystem{
		system: system,
		font:   font,
		lines:  []string{"", "", "", HelpLine},
	}
}

// Show updates the text from the latest snapshot and the parameters the
// next launch will use.
func (hud *HUDSystem) Show(snap sim.Snapshot, next config.SimulationConfig) {
	readout := snap.Readout
	if snap.RunID == 0 {
		readout = "Press Space to launch"
	}
	hud.lines[0] = readout
	hud.lines[1] = sim.Describe(snap)
	hud.lines[2] = sim.DescribeConfig(next)
}

// Lines returns the HUD text, top to bottom.
func (hud *HUDSystem) Lines() []string {
	out := make([]string, len(hud.lines))
	copy(out, hud.lines)
	return out
}

// Update pushes the current lines into the text entities.
func (hud *HUDSystem) Update(dt float32) {
	if hud.font == nil {
		return
	}
	if hud.labels == nil {
		hud.createLabels()
	}
	for i, label := range hud.labels {
		label.Drawable = common.Text{Font: hud.font, Text: hud.lines[i]}
	}
}

// Remove satisfies the ecs.System interface
func (hud *HUDSystem) Remove(basic ecs.BasicEntity) {}

func (hud *HUDSystem) createLabels() {
	hud.labels = make([]*shape, len(hud.lines))
	for i := range hud.lines {
		label := &shape{BasicEntity: ecs.NewBasic()}
		label.Drawable = common.Text{Font: hud.font, Text: hud.lines[i]}
		label.SpaceComponent = common.SpaceComponent{
			Position: engo.Point{X: hudMargin, Y: float32(hudMargin + i*hudLineHeight)},
		}
		label.SetZIndex(hudZIndex)
		hud.system.Add(&label.BasicEntity, &label.RenderComponent, &label.SpaceComponent)
		hud.labels[i] = label
	}
}
