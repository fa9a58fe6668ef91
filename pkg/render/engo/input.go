package engo

import (
	"context"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/logging"
)

// Button names registered with engo.
const (
	ActionLaunch    = "launch"
	ActionCancel    = "cancel"
	ActionAngleUp   = "angleUp"
	ActionAngleDown = "angleDown"
	ActionSpeedUp   = "speedUp"
	ActionSpeedDown = "speedDown"
	ActionWindUp    = "windUp"
	ActionWindDown  = "windDown"
	ActionWindFlip  = "windFlip"
	ActionTrail     = "trail"
)

// edits maps the parameter actions to launch parameter controls.
var edits = map[string]config.Control{
	ActionAngleUp:   config.AngleUp,
	ActionAngleDown: config.AngleDown,
	ActionSpeedUp:   config.SpeedUp,
	ActionSpeedDown: config.SpeedDown,
	ActionWindUp:    config.WindUp,
	ActionWindDown:  config.WindDown,
	ActionWindFlip:  config.WindFlip,
	ActionTrail:     config.TrailToggle,
}

var actions = []string{
	ActionLaunch, ActionCancel,
	ActionAngleUp, ActionAngleDown,
	ActionSpeedUp, ActionSpeedDown,
	ActionWindUp, ActionWindDown, ActionWindFlip,
	ActionTrail,
}

// Controller starts and cancels runs.
type Controller interface {
	Start(cfg config.SimulationConfig) (uint64, error)
	Cancel() error
}

// InputSystem edits the launch parameters from the keyboard and launches
// runs with them.
type InputSystem struct {
	ctrl   Controller
	cfg    config.SimulationConfig
	logger *logging.Logger
}

// NewInputSystem creates an input system starting from cfg.
func NewInputSystem(ctrl Controller, cfg config.SimulationConfig, logger *logging.Logger) *InputSystem {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &InputSystem{ctrl: ctrl, cfg: cfg, logger: logger}
}

// Config returns the parameters the next launch will use.
func (is *InputSystem) Config() config.SimulationConfig {
	return is.cfg
}

// Update applies every action whose key was pressed this frame.
func (is *InputSystem) Update(dt float32) {
	for _, action := range actions {
		if engo.Input.Button(action).JustPressed() {
			is.handle(action)
		}
	}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

func (is *InputSystem) handle(action string) {
	ctx := context.Background()

	switch action {
	case ActionLaunch:
		if _, err := is.ctrl.Start(is.cfg); err != nil {
			is.logger.Error(ctx, "launch failed", err)
		}
	case ActionCancel:
		if err := is.ctrl.Cancel(); err != nil {
			is.logger.Debug(ctx, "nothing to cancel")
		}
	default:
		if ctrl, ok := edits[action]; ok {
			is.cfg = is.cfg.Adjust(ctrl)
		}
	}
}

// SetupInputBindings registers the key bindings for the actions.
func SetupInputBindings() {
	engo.Input.RegisterButton(ActionLaunch, engo.KeySpace, engo.KeyEnter)
	engo.Input.RegisterButton(ActionCancel, engo.KeyEscape)
	engo.Input.RegisterButton(ActionAngleUp, engo.KeyArrowUp)
	engo.Input.RegisterButton(ActionAngleDown, engo.KeyArrowDown)
	engo.Input.RegisterButton(ActionSpeedUp, engo.KeyArrowRight)
	engo.Input.RegisterButton(ActionSpeedDown, engo.KeyArrowLeft)
	engo.Input.RegisterButton(ActionWindUp, engo.KeyE)
	engo.Input.RegisterButton(ActionWindDown, engo.KeyQ)
	engo.Input.RegisterButton(ActionWindFlip, engo.KeyW)
	engo.Input.RegisterButton(ActionTrail, engo.KeyT)
}
