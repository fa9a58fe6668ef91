package canvas

import (
	"image/color"
	"math"

	"github.com/opd-ai/go-trajectory/pkg/physics"
)

const (
	// ArrowHeadLength is the length of an arrowhead wing in pixels.
	ArrowHeadLength = 10.0
	// ArrowShaftWidth is the stroke width of an arrow shaft in pixels.
	ArrowShaftWidth = 2.0
	arrowWingAngle  = math.Pi / 6
)

// ArrowHead returns the triangle drawn at the tip of an arrow from -> to:
// the tip itself followed by the two wing ends, splayed at ±30° from the
// shaft direction.
func ArrowHead(from, to physics.Vector2D, headLength float64) [3]physics.Vector2D {
	angle := to.Sub(from).Angle()
	wing := physics.FromAngle(angle, headLength)
	return [3]physics.Vector2D{
		to,
		to.Sub(wing.Rotate(-arrowWingAngle)),
		to.Sub(wing.Rotate(arrowWingAngle)),
	}
}

// DrawArrow strokes the shaft from -> to and fills its arrowhead.
func DrawArrow(s Surface, from, to physics.Vector2D, c color.Color, headLength, shaftWidth float64) {
	s.StrokeLine(from, to, c, shaftWidth)
	head := ArrowHead(from, to, headLength)
	s.FillPolygon(head[:], c)
}
