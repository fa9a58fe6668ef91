// Package render draws one frame of a run onto a canvas.Surface: the wind
// field, the optional trail, the ball and its velocity-component arrows.
package render

import (
	"fmt"

	"github.com/opd-ai/go-trajectory/pkg/canvas"
	"github.com/opd-ai/go-trajectory/pkg/physics"
	"github.com/opd-ai/go-trajectory/pkg/wind"
)

// Style holds the pixel sizes used when drawing a frame.
type Style struct {
	BallRadius  float64
	VectorScale float64
	ArrowHead   float64
	ShaftWidth  float64
	TrailWidth  float64
}

// DefaultStyle returns the sizes used on pixel surfaces.
func DefaultStyle() Style {
	return Style{
		BallRadius:  5,
		VectorScale: 2.5,
		ArrowHead:   canvas.ArrowHeadLength,
		ShaftWidth:  canvas.ArrowShaftWidth,
		TrailWidth:  1,
	}
}

// TerminalStyle shrinks the pixel sizes for character-cell surfaces where
// one cell stands for one pixel.
func TerminalStyle() Style {
	return Style{
		BallRadius:  0.4,
		VectorScale: 0.5,
		ArrowHead:   1,
		ShaftWidth:  1,
		TrailWidth:  1,
	}
}

// Frame is everything needed to draw one animation frame.
type Frame struct {
	State physics.ProjectileState
	// Speed is the value shown in the readout.
	Speed         float64
	ShowTrail     bool
	Trail         []physics.Vector2D
	WindSpeed     float64
	WindDirection int
}

// Renderer draws frames and advances the shared wind field while doing so.
type Renderer struct {
	field *wind.Field
	style Style
}

// NewRenderer creates a renderer drawing the given wind field.
func NewRenderer(field *wind.Field, style Style) *Renderer {
	return &Renderer{field: field, style: style}
}

// Style returns the renderer's drawing sizes.
func (r *Renderer) Style() Style {
	return r.style
}

// DrawFrame redraws s from scratch and returns the speed readout text.
func (r *Renderer) DrawFrame(s canvas.Surface, f Frame) string {
	vp := physics.NewViewport(s.Size())

	s.Clear()

	if r.field != nil {
		r.field.Advance(s, f.WindSpeed, f.WindDirection)
	}

	if f.ShowTrail && len(f.Trail) > 0 {
		points := make([]physics.Vector2D, len(f.Trail))
		for i, p := range f.Trail {
			points[i] = vp.ToScreen(p)
		}
		s.StrokePolyline(points, canvas.TrailColor, r.style.TrailWidth)
	}

	ball := vp.ToScreen(f.State.Position)
	s.FillCircle(ball, r.style.BallRadius, canvas.BallColor)

	horizontal := ball.Add(physics.Vector2D{X: f.State.Velocity.X * r.style.VectorScale})
	canvas.DrawArrow(s, ball, horizontal, canvas.HorizontalColor, r.style.ArrowHead, r.style.ShaftWidth)

	// Screen Y grows downwards, so an upward velocity points to smaller Y.
	vertical := ball.Add(physics.Vector2D{Y: -f.State.Velocity.Y * r.style.VectorScale})
	canvas.DrawArrow(s, ball, vertical, canvas.VerticalColor, r.style.ArrowHead, r.style.ShaftWidth)

	return Readout(f.Speed)
}

// Readout formats the speed shown next to the animation.
func Readout(speed float64) string {
	return fmt.Sprintf("Current speed: %.2f m/s", speed)
}
