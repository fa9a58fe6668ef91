package physics

// Simulation-space extents mapped onto the full drawing surface.
const (
	SimWidth  = 100.0
	SimHeight = 50.0
)

// TerminationReason explains why a run stopped.
type TerminationReason string

const (
	NotTerminated TerminationReason = ""
	Landed        TerminationReason = "landed"
	LeftCanvas    TerminationReason = "left_canvas"
)

// Viewport maps simulation space onto a surface of Width x Height pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// NewViewport creates a viewport for a surface of the given pixel size.
func NewViewport(width, height float64) Viewport {
	return Viewport{Width: width, Height: height}
}

// ToScreen converts simulation coordinates to pixel coordinates. The
// vertical axis is flipped so that y = 0 lies on the bottom edge.
func (vp Viewport) ToScreen(p Vector2D) Vector2D {
	return Vector2D{
		X: p.X * (vp.Width / SimWidth),
		Y: vp.Height - p.Y*(vp.Height/SimHeight),
	}
}

// Terminated evaluates the stop condition on state. The landing test uses
// simulation coordinates; the bounds test uses the projected position.
func (vp Viewport) Terminated(state ProjectileState) (TerminationReason, bool) {
	if state.Position.Y <= 0 && state.Velocity.Y < 0 {
		return Landed, true
	}

	screen := vp.ToScreen(state.Position)
	if screen.X > vp.Width || screen.X < 0 || screen.Y > vp.Height || screen.Y < 0 {
		return LeftCanvas, true
	}

	return NotTerminated, false
}
