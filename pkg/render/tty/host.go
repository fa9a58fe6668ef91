// Package tty hosts the animation loop in a terminal with tcell. The frame
// is drawn on a character-cell surface and the keyboard edits and launches
// runs.
package tty

import (
	"context"
	"image/color"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-trajectory/pkg/canvas"
	"github.com/opd-ai/go-trajectory/pkg/config"
	"github.com/opd-ai/go-trajectory/pkg/logging"
	"github.com/opd-ai/go-trajectory/pkg/render"
	"github.com/opd-ai/go-trajectory/pkg/sim"
	"github.com/opd-ai/go-trajectory/pkg/wind"
)

// HelpLine lists the key bindings.
const HelpLine = "space launch  c cancel  arrows angle/speed  [ ] wind  w direction  t trail  esc quit"

// runeControls maps keys to launch parameter edits.
var runeControls = map[rune]config.Control{
	'[': config.WindDown,
	']': config.WindUp,
	'w': config.WindFlip,
	't': config.TrailToggle,
}

var keyControls = map[tcell.Key]config.Control{
	tcell.KeyUp:    config.AngleUp,
	tcell.KeyDown:  config.AngleDown,
	tcell.KeyRight: config.SpeedUp,
	tcell.KeyLeft:  config.SpeedDown,
}

// Host draws the loop's terminal surface onto a tcell screen.
type Host struct {
	screen tcell.Screen
	term   *canvas.Terminal
	loop   *sim.Loop
	cfg    config.SimulationConfig
	fps    int
	logger *logging.Logger
}

// NewHost creates a host drawing on an initialised screen. The surface
// takes the terminal size from settings; field must be laid out for it.
func NewHost(screen tcell.Screen, settings *config.Settings, field *wind.Field, logger *logging.Logger) *Host {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	term := canvas.NewTerminal(settings.Display.TerminalWidth, settings.Display.TerminalHeight)
	loop := sim.NewLoop(term, field, sim.Options{
		Stepping: settings.Stepping,
		Style:    render.TerminalStyle(),
		Logger:   logger,
	})

	return &Host{
		screen: screen,
		term:   term,
		loop:   loop,
		cfg:    settings.Simulation,
		fps:    settings.Display.FPS,
		logger: logger,
	}
}

// Loop returns the animation loop behind the host.
func (h *Host) Loop() *sim.Loop {
	return h.loop
}

// Config returns the parameters the next launch will use.
func (h *Host) Config() config.SimulationConfig {
	return h.cfg
}

// Run handles input and draws frames until the user quits or ctx is done.
// The screen is finalised on return.
func (h *Host) Run(ctx context.Context) error {
	defer h.screen.Fini()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := sim.NewTicker(h.loop, h.fps)
	frames := time.NewTicker(ticker.Interval())
	defer frames.Stop()

	h.draw()
	prev := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !h.handleEvent(ev) {
				return nil
			}
			h.draw()
		case now := <-frames.C:
			h.loop.Frame(h.loop.RunID(), now.Sub(prev))
			prev = now
			h.draw()
		}
	}
}

// handleEvent applies one input event and reports whether to keep running.
func (h *Host) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return h.handleKey(ev)
	case *tcell.EventResize:
		h.screen.Sync()
	}
	return true
}

func (h *Host) handleKey(ev *tcell.EventKey) bool {
	ctx := context.Background()

	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return false
	}
	if ctrl, ok := keyControls[ev.Key()]; ok {
		h.cfg = h.cfg.Adjust(ctrl)
		return true
	}
	if ev.Key() == tcell.KeyEnter {
		h.launch(ctx)
		return true
	}
	if ev.Key() != tcell.KeyRune {
		return true
	}

	switch r := ev.Rune(); r {
	case ' ':
		h.launch(ctx)
	case 'c':
		if err := h.loop.Cancel(); err != nil {
			h.logger.Debug(ctx, "nothing to cancel")
		}
	default:
		if ctrl, ok := runeControls[r]; ok {
			h.cfg = h.cfg.Adjust(ctrl)
		}
	}
	return true
}

func (h *Host) launch(ctx context.Context) {
	if _, err := h.loop.Start(h.cfg); err != nil {
		h.logger.Error(ctx, "launch failed", err)
	}
}

// draw copies the surface inside a border and writes the status lines
// under it.
func (h *Host) draw() {
	snap := h.loop.Snapshot()
	h.screen.Clear()

	border := tcell.StyleDefault.Foreground(tcell.ColorGray)
	width, height := h.term.Size()
	w, ht := int(width), int(height)

	for x := 0; x <= w+1; x++ {
		h.screen.SetContent(x, 0, '-', nil, border)
		h.screen.SetContent(x, ht+1, '-', nil, border)
	}
	for y := 1; y <= ht; y++ {
		h.screen.SetContent(0, y, '|', nil, border)
		h.screen.SetContent(w+1, y, '|', nil, border)
	}

	h.loop.View(func(canvas.Surface) {
		for y := 0; y < ht; y++ {
			for x := 0; x < w; x++ {
				cell, _ := h.term.Cell(x, y)
				h.screen.SetContent(x+1, y+1, cell.Rune, nil, cellStyle(cell.Color))
			}
		}
	})

	readout := snap.Readout
	if snap.RunID == 0 {
		readout = "Press space to launch"
	}
	lines := []string{readout, sim.Describe(snap), sim.DescribeConfig(h.cfg), HelpLine}
	for i, line := range lines {
		drawText(h.screen, 0, ht+2+i, line, tcell.StyleDefault)
	}
	h.screen.Show()
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func cellStyle(c color.Color) tcell.Style {
	if c == nil || c == canvas.Background {
		return tcell.StyleDefault
	}
	return tcell.StyleDefault.Foreground(tcell.FromImageColor(c))
}
