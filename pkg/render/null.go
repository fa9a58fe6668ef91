package render

import (
	"context"
	"image/color"

	"github.com/opd-ai/go-trajectory/pkg/logging"
	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// NullSurface is a canvas.Surface that draws nothing and logs each call
// at debug level. It backs headless runs.
type NullSurface struct {
	width  float64
	height float64
	logger *logging.Logger
}

// NewNullSurface creates a NullSurface reporting the given pixel size. A
// nil logger discards the calls.
func NewNullSurface(width, height float64, logger *logging.Logger) *NullSurface {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NullSurface{width: width, height: height, logger: logger}
}

// Size implements canvas.Surface.
func (n *NullSurface) Size() (float64, float64) {
	return n.width, n.height
}

// Clear implements canvas.Surface.
func (n *NullSurface) Clear() {
	n.logger.Debug(context.Background(), "Clear called")
}

// StrokeLine implements canvas.Surface.
func (n *NullSurface) StrokeLine(from, to physics.Vector2D, _ color.Color, _ float64) {}

// StrokePolyline implements canvas.Surface.
func (n *NullSurface) StrokePolyline(points []physics.Vector2D, _ color.Color, _ float64) {
	n.logger.Debug(context.Background(), "StrokePolyline called", "points", len(points))
}

// FillCircle implements canvas.Surface.
func (n *NullSurface) FillCircle(center physics.Vector2D, radius float64, _ color.Color) {
	n.logger.Debug(context.Background(), "FillCircle called",
		"x", center.X,
		"y", center.Y,
		"radius", radius,
	)
}

// FillPolygon implements canvas.Surface.
func (n *NullSurface) FillPolygon(points []physics.Vector2D, _ color.Color) {}
