package canvas

import (
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// Cell is one character position of a Terminal surface.
type Cell struct {
	Rune  rune
	Color color.Color
}

// Terminal is a Surface made of character cells; one cell stands for one
// pixel.
type Terminal struct {
	width  int
	height int
	buffer [][]Cell
}

// NewTerminal creates a terminal surface with the specified dimensions.
// Negative dimensions give an empty surface.
func NewTerminal(width, height int) *Terminal {
	width, height = max(width, 0), max(height, 0)
	buffer := make([][]Cell, height)
	for i := range buffer {
		buffer[i] = make([]Cell, width)
	}

	t := &Terminal{
		width:  width,
		height: height,
		buffer: buffer,
	}
	t.Clear()
	return t
}

// Size implements Surface
func (t *Terminal) Size() (float64, float64) {
	return float64(t.width), float64(t.height)
}

// Clear implements Surface
func (t *Terminal) Clear() {
	for y := range t.buffer {
		for x := range t.buffer[y] {
			t.buffer[y][x] = Cell{Rune: ' ', Color: Background}
		}
	}
}

// StrokeLine implements Surface. The glyph follows the line's slope.
func (t *Terminal) StrokeLine(from, to physics.Vector2D, c color.Color, _ float64) {
	glyph := lineGlyph(to.Sub(from))

	from, to, ok := clipSegment(from, to, float64(t.width), float64(t.height))
	if !ok {
		return
	}
	dx, dy := to.X-from.X, to.Y-from.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		t.set(from, glyph, c)
		return
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		t.set(physics.Vector2D{X: from.X + dx*f, Y: from.Y + dy*f}, glyph, c)
	}
}

// StrokePolyline implements Surface
func (t *Terminal) StrokePolyline(points []physics.Vector2D, c color.Color, width float64) {
	for i := 1; i < len(points); i++ {
		t.StrokeLine(points[i-1], points[i], c, width)
	}
}

// FillCircle implements Surface. A circle smaller than a cell still marks
// the cell containing its center.
func (t *Terminal) FillCircle(center physics.Vector2D, radius float64, c color.Color) {
	t.set(center, 'O', c)
	for y := int(center.Y - radius); y <= int(center.Y+radius); y++ {
		for x := int(center.X - radius); x <= int(center.X+radius); x++ {
			cell := physics.Vector2D{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if cell.Sub(center).Length() <= radius {
				t.set(cell, 'O', c)
			}
		}
	}
}

// FillPolygon implements Surface. Only triangles are filled cell by
// cell; other polygons mark their vertices.
func (t *Terminal) FillPolygon(points []physics.Vector2D, c color.Color) {
	if len(points) == 0 {
		return
	}
	t.set(points[0], '>', c)
	if len(points) != 3 {
		for _, p := range points[1:] {
			t.set(p, '>', c)
		}
		return
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for y := int(math.Floor(minY)); y <= int(maxY); y++ {
		for x := int(math.Floor(minX)); x <= int(maxX); x++ {
			cell := physics.Vector2D{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if inTriangle(cell, points[0], points[1], points[2]) {
				t.set(cell, '>', c)
			}
		}
	}
}

// Cell returns the cell at column x, row y.
func (t *Terminal) Cell(x, y int) (Cell, bool) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return Cell{}, false
	}
	return t.buffer[y][x], true
}

// Present writes the buffer framed by a border, one row per line.
func (t *Terminal) Present(w io.Writer) error {
	var b strings.Builder

	b.WriteString("+" + strings.Repeat("-", t.width) + "+\n")
	for y := range t.buffer {
		b.WriteString("|")
		for x := range t.buffer[y] {
			b.WriteRune(t.buffer[y][x].Rune)
		}
		b.WriteString("|\n")
	}
	b.WriteString("+" + strings.Repeat("-", t.width) + "+\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Terminal) set(p physics.Vector2D, r rune, c color.Color) {
	x, y := int(math.Floor(p.X)), int(math.Floor(p.Y))
	if x >= 0 && x < t.width && y >= 0 && y < t.height {
		t.buffer[y][x] = Cell{Rune: r, Color: c}
	}
}

// clipSegment trims the segment a-b to the rectangle [0,w]x[0,h] with the
// Liang-Barsky algorithm. ok is false when no part of it is inside.
func clipSegment(a, b physics.Vector2D, w, h float64) (physics.Vector2D, physics.Vector2D, bool) {
	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-d.X, a.X},
		{d.X, w - a.X},
		{-d.Y, a.Y},
		{d.Y, h - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return a.Add(d.Scale(t0)), a.Add(d.Scale(t1)), true
}

func lineGlyph(d physics.Vector2D) rune {
	ax, ay := math.Abs(d.X), math.Abs(d.Y)
	switch {
	case ay <= ax/2:
		return '-'
	case ax <= ay/2:
		return '|'
	case (d.X > 0) == (d.Y > 0):
		// Screen Y grows downwards.
		return '\\'
	default:
		return '/'
	}
}

func inTriangle(p, a, b, c physics.Vector2D) bool {
	d1 := cross(p, a, b)
	d2 := cross(p, b, c)
	d3 := cross(p, c, a)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func cross(p, a, b physics.Vector2D) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}
