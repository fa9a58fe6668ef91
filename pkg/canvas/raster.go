package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/opd-ai/go-trajectory/pkg/physics"
)

// Raster is an anti-aliased Surface backed by an in-memory RGBA image.
type Raster struct {
	img     *image.RGBA
	filler  *rasterx.Filler
	stroker *rasterx.Stroker
}

// NewRaster creates a raster surface of width x height pixels cleared to
// the background color.
func NewRaster(width, height int) *Raster {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())

	r := &Raster{
		img:     img,
		filler:  rasterx.NewFiller(width, height, scanner),
		stroker: rasterx.NewStroker(width, height, scanner),
	}
	r.Clear()
	return r
}

// Size implements Surface
func (r *Raster) Size() (float64, float64) {
	b := r.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Clear implements Surface
func (r *Raster) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
}

// StrokeLine implements Surface
func (r *Raster) StrokeLine(from, to physics.Vector2D, c color.Color, width float64) {
	r.StrokePolyline([]physics.Vector2D{from, to}, c, width)
}

// StrokePolyline implements Surface
func (r *Raster) StrokePolyline(points []physics.Vector2D, c color.Color, width float64) {
	if len(points) < 2 {
		return
	}

	r.stroker.Clear()
	r.stroker.SetStroke(fixed.Int26_6(width*64), 4*64, rasterx.ButtCap, rasterx.ButtCap, rasterx.FlatGap, rasterx.Round)
	r.stroker.SetColor(c)

	r.stroker.Start(toFixed(points[0]))
	for _, p := range points[1:] {
		r.stroker.Line(toFixed(p))
	}
	r.stroker.Stop(false)
	r.stroker.Draw()
	r.stroker.Clear()
}

// FillCircle implements Surface
func (r *Raster) FillCircle(center physics.Vector2D, radius float64, c color.Color) {
	r.filler.Clear()
	r.filler.SetColor(c)
	rasterx.AddCircle(center.X, center.Y, radius, r.filler)
	r.filler.Draw()
	r.filler.Clear()
}

// FillPolygon implements Surface
func (r *Raster) FillPolygon(points []physics.Vector2D, c color.Color) {
	if len(points) < 3 {
		return
	}

	r.filler.Clear()
	r.filler.SetColor(c)
	r.filler.Start(toFixed(points[0]))
	for _, p := range points[1:] {
		r.filler.Line(toFixed(p))
	}
	r.filler.Stop(true)
	r.filler.Draw()
	r.filler.Clear()
}

// DrawText writes text with its baseline starting at (x, y).
func (r *Raster) DrawText(x, y int, text string, c color.Color) {
	d := font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// Image returns the backing image. It is overwritten by later draws.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// WritePNG encodes the current frame as PNG.
func (r *Raster) WritePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

func toFixed(p physics.Vector2D) fixed.Point26_6 {
	return rasterx.ToFixedP(p.X, p.Y)
}
