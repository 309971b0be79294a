package render

import (
	"image"

	"github.com/gogpu/gg"

	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

// Canvas wraps a gg context sized to the device backing store. Geometry is
// issued in logical page coordinates under the current transform; text is
// placed in device space because the rasterizer draws glyphs untransformed.
type Canvas struct {
	dc    *gg.Context
	fonts *Fonts
	m     viewport.Matrix2D
}

func NewCanvas(width, height int, fonts *Fonts) *Canvas {
	return &Canvas{
		dc:    gg.NewContext(max(width, 1), max(height, 1)),
		fonts: fonts,
		m:     viewport.Identity(),
	}
}

// Resize reallocates the backing store when the device size changes.
func (c *Canvas) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if width == c.dc.Width() && height == c.dc.Height() {
		return
	}
	_ = c.dc.Close()
	c.dc = gg.NewContext(width, height)
	c.m = viewport.Identity()
}

func (c *Canvas) Width() int           { return c.dc.Width() }
func (c *Canvas) Height() int          { return c.dc.Height() }
func (c *Canvas) Image() image.Image   { return c.dc.Image() }
func (c *Canvas) Context() *gg.Context { return c.dc }

func (c *Canvas) Close() error {
	return c.dc.Close()
}

func (c *Canvas) Clear(col gg.RGBA) {
	c.dc.ClearWithColor(col)
}

// SetTransform replaces the logical-to-device transform.
func (c *Canvas) SetTransform(m viewport.Matrix2D) {
	c.m = m
	c.dc.SetTransform(gg.Matrix{
		A: m[0], B: m[2], C: m[4],
		D: m[1], E: m[3], F: m[5],
	})
}

func (c *Canvas) setColor(col gg.RGBA) {
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
}

func (c *Canvas) stroke(col gg.RGBA, width float64) error {
	c.setColor(col)
	c.dc.SetLineWidth(width)
	return c.dc.Stroke()
}

func (c *Canvas) fill(col gg.RGBA) error {
	c.setColor(col)
	return c.dc.Fill()
}

// roundRect appends a rounded rectangle to the path. Corners are
// approximated with quadratic curves so the path follows the transform.
func (c *Canvas) roundRect(r geom.Rect, radius float64) {
	radius = min(radius, r.Width/2, r.Height/2)
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height

	c.dc.MoveTo(x0+radius, y0)
	c.dc.LineTo(x1-radius, y0)
	c.dc.QuadraticTo(x1, y0, x1, y0+radius)
	c.dc.LineTo(x1, y1-radius)
	c.dc.QuadraticTo(x1, y1, x1-radius, y1)
	c.dc.LineTo(x0+radius, y1)
	c.dc.QuadraticTo(x0, y1, x0, y1-radius)
	c.dc.LineTo(x0, y0+radius)
	c.dc.QuadraticTo(x0, y0, x0+radius, y0)
	c.dc.ClosePath()
}

// Horizontal and vertical text alignment.
type align int

const (
	alignStart align = iota
	alignCenter
)

// text draws s with its anchor at logical point at. size is in logical
// units. Vertical alignment is either top (alignStart) or middle.
func (c *Canvas) text(s string, at geom.Point, size float64, h, v align, col gg.RGBA) {
	if s == "" {
		return
	}
	face := c.fonts.Face(size * c.m.UniformScale())
	metrics := face.Metrics()
	p := c.m.Apply(at)

	x, baseline := p.X, p.Y+metrics.Ascent
	if h == alignCenter {
		x -= face.Advance(s) / 2
	}
	if v == alignCenter {
		baseline = p.Y + (metrics.Ascent-metrics.Descent)/2
	}

	c.dc.SetFont(face)
	c.setColor(col)
	c.dc.DrawString(s, x, baseline)
}

// screenText draws s with its baseline at a device position, at a device
// font size.
func (c *Canvas) screenText(s string, at geom.Point, size float64, col gg.RGBA) {
	c.dc.SetFont(c.fonts.Face(size))
	c.setColor(col)
	c.dc.DrawString(s, at.X, at.Y)
}

// measure returns the width of s in logical units at a logical font size.
func (c *Canvas) measure(s string, size float64) float64 {
	scale := c.m.UniformScale()
	if scale == 0 {
		return 0
	}
	return c.fonts.Face(size*scale).Advance(s) / scale
}
