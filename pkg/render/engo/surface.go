package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// shapeSystem is the part of common.RenderSystem the surface needs.
type shapeSystem interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

// shape is one pooled drawable entity.
type shape struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// Surface implements canvas.Surface on top of engo's render system. Each
// draw call claims an entity from a pool; Clear hides them all so the next
// frame can reuse them. Later calls are drawn above earlier ones.
type Surface struct {
	width  float64
	height float64
	system shapeSystem
	pool   []*shape
	used   int
}

// NewSurface creates a surface of width x height pixels whose entities
// are added to system.
func NewSurface(width, height float64, system shapeSystem) *Surface {
	return &Surface{
		width:  width,
		height: height,
		system: system,
	}
}

// Size returns the surface size in pixels.
func (s *Surface) Size() (float64, float64) {
	return s.width, s.height
}

// Clear hides every pooled entity.
func (s *Surface) Clear() {
	for _, sh := range s.pool {
		sh.Hidden = true
	}
	s.used = 0
}

// StrokeLine draws a segment as a rotated rectangle.
func (s *Surface) StrokeLine(from, to physics.Vector2D, c color.Color, width float64) {
	d := to.Sub(from)
	length := d.Length()
	if length == 0 {
		return
	}
	if width <= 0 {
		width = 1
	}

	// Offset the rectangle so the stroke is centred on the segment.
	normal := physics.Vector2D{X: -d.Y, Y: d.X}.Scale(width / (2 * length))
	origin := from.Sub(normal)

	sh := s.next()
	sh.Drawable = common.Rectangle{}
	sh.Color = c
	sh.SpaceComponent = common.SpaceComponent{
		Position: toPoint(origin),
		Width:    float32(length),
		Height:   float32(width),
		Rotation: float32(math.Atan2(d.Y, d.X) * 180 / math.Pi),
	}
}

// StrokePolyline draws consecutive segments.
func (s *Surface) StrokePolyline(points []physics.Vector2D, c color.Color, width float64) {
	for i := 1; i < len(points); i++ {
		s.StrokeLine(points[i-1], points[i], c, width)
	}
}

// FillCircle draws a filled disc.
func (s *Surface) FillCircle(center physics.Vector2D, radius float64, c color.Color) {
	if radius <= 0 {
		return
	}
	sh := s.next()
	sh.Drawable = common.Circle{}
	sh.Color = c
	sh.SpaceComponent = common.SpaceComponent{
		Position: engo.Point{X: float32(center.X - radius), Y: float32(center.Y - radius)},
		Width:    float32(2 * radius),
		Height:   float32(2 * radius),
	}
}

// FillPolygon fills a convex polygon as a triangle fan. Points are given
// to engo relative to the polygon's bounding box.
func (s *Surface) FillPolygon(points []physics.Vector2D, c color.Color) {
	if len(points) < 3 {
		return
	}

	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	w, h := hi.X-lo.X, hi.Y-lo.Y
	if w == 0 || h == 0 {
		return
	}

	rel := func(p physics.Vector2D) engo.Point {
		return engo.Point{X: float32((p.X - lo.X) / w), Y: float32((p.Y - lo.Y) / h)}
	}
	tris := make([]engo.Point, 0, 3*(len(points)-2))
	for i := 1; i+1 < len(points); i++ {
		tris = append(tris, rel(points[0]), rel(points[i]), rel(points[i+1]))
	}

	sh := s.next()
	sh.Drawable = common.ComplexTriangles{Points: tris}
	sh.Color = c
	sh.SpaceComponent = common.SpaceComponent{
		Position: toPoint(lo),
		Width:    float32(w),
		Height:   float32(h),
	}
}

// Len returns the number of entities drawn since the last Clear.
func (s *Surface) Len() int {
	return s.used
}

// Release removes every pooled entity from the render system.
func (s *Surface) Release() {
	for _, sh := range s.pool {
		s.system.Remove(sh.BasicEntity)
	}
	s.pool = nil
	s.used = 0
}

// next returns a visible entity from the pool, growing it when needed.
func (s *Surface) next() *shape {
	if s.used == len(s.pool) {
		sh := &shape{BasicEntity: ecs.NewBasic()}
		// The shader is chosen from the drawable when the entity is added;
		// every shape used here shares it.
		sh.Drawable = common.Rectangle{}
		sh.SetZIndex(float32(len(s.pool)))
		s.system.Add(&sh.BasicEntity, &sh.RenderComponent, &sh.SpaceComponent)
		s.pool = append(s.pool, sh)
	}

	sh := s.pool[s.used]
	sh.Hidden = false
	s.used++
	return sh
}

func toPoint(v physics.Vector2D) engo.Point {
	return engo.Point{X: float32(v.X), Y: float32(v.Y)}
}
