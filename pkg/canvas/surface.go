// Package canvas defines the drawing surface the renderer paints frames
// onto, together with its raster and terminal implementations.
package canvas

import (
	"image/color"

	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// Surface is a fixed-size drawing target addressed in pixel coordinates
// with the origin at the top-left corner.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height float64)
	Clear()
	StrokeLine(from, to physics.Vector2D, c color.Color, width float64)
	StrokePolyline(points []physics.Vector2D, c color.Color, width float64)
	FillCircle(center physics.Vector2D, radius float64, c color.Color)
	FillPolygon(points []physics.Vector2D, c color.Color)
}

// Palette colors used by the frame renderer.
var (
	Background      color.Color = color.White
	WindColor       color.Color = color.NRGBA{R: 0, G: 0, B: 255, A: 128}
	TrailColor      color.Color = color.NRGBA{R: 173, G: 216, B: 230, A: 255}
	BallColor       color.Color = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	HorizontalColor color.Color = color.NRGBA{R: 0, G: 128, B: 0, A: 255}
	VerticalColor   color.Color = color.NRGBA{R: 255, G: 165, B: 0, A: 255}
	TextColor       color.Color = color.Black
)
