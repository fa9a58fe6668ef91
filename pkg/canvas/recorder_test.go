package canvas

import (
	"image/color"

	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// recordedOp captures one call made against a recordingSurface.
type recordedOp struct {
	kind   string
	points []physics.Vector2D
	color  color.Color
}

type recordingSurface struct {
	width, height float64
	ops           []recordedOp
}

func (r *recordingSurface) Size() (float64, float64) { return r.width, r.height }

func (r *recordingSurface) Clear() { r.ops = append(r.ops, recordedOp{kind: "clear"}) }

func (r *recordingSurface) StrokeLine(from, to physics.Vector2D, c color.Color, _ float64) {
	r.ops = append(r.ops, recordedOp{kind: "line", points: []physics.Vector2D{from, to}, color: c})
}

func (r *recordingSurface) StrokePolyline(points []physics.Vector2D, c color.Color, _ float64) {
	r.ops = append(r.ops, recordedOp{kind: "polyline", points: points, color: c})
}

func (r *recordingSurface) FillCircle(center physics.Vector2D, _ float64, c color.Color) {
	r.ops = append(r.ops, recordedOp{kind: "circle", points: []physics.Vector2D{center}, color: c})
}

func (r *recordingSurface) FillPolygon(points []physics.Vector2D, c color.Color) {
	r.ops = append(r.ops, recordedOp{kind: "polygon", points: points, color: c})
}
