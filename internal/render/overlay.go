package render

import (
	"math"

	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

const (
	overlayLineWidth = 1.5
	selectionPadding = 4

	laserTail       = 20
	laserDotRadius  = 4
	laserHeadRadius = 8
	laserHaloRadius = 12
	laserFontSize   = 11
)

// DrawSelection outlines the selection bounds with a dashed rectangle.
func (c *Canvas) DrawSelection(bounds geom.Rect) error {
	r := bounds.Pad(selectionPadding)
	c.dc.SetDash(6, 4)
	defer c.dc.ClearDash()

	c.dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	return c.stroke(colorAccent, overlayLineWidth)
}

// DrawLasso strokes the in-progress lasso as a closed dashed polygon.
func (c *Canvas) DrawLasso(points []geom.Point) error {
	if len(points) < 2 {
		return nil
	}
	c.dc.SetDash(4, 4)
	defer c.dc.ClearDash()

	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.ClosePath()
	return c.stroke(colorLasso, overlayLineWidth)
}

// DrawEraserCursor draws the dashed hit-radius indicator.
func (c *Canvas) DrawEraserCursor(center geom.Point, radius float64) error {
	c.dc.SetDash(4, 3)
	defer c.dc.ClearDash()

	c.dc.DrawCircle(center.X, center.Y, radius)
	return c.stroke(colorEraser, overlayLineWidth)
}

// Laser is a remote participant's pointer trail in logical coordinates,
// oldest point first.
type Laser struct {
	Username string
	Points   []geom.Point
}

// DrawLaser draws a fading trail, a haloed head dot and the owner's name.
// It works in canvas space so dot sizes do not change with zoom; the
// caller's transform is replaced.
func (c *Canvas) DrawLaser(l Laser, view viewport.Viewport) error {
	if len(l.Points) == 0 {
		return nil
	}
	dpr := view.CanvasToDevice(geom.Pt(1, 1)).X
	c.SetTransform(viewport.Scale(dpr, dpr))

	start := max(0, len(l.Points)-laserTail)
	for i := start; i < len(l.Points); i++ {
		a := float64(i-start) / laserTail
		p := view.PageToCanvas(l.Points[i])
		c.dc.DrawCircle(p.X, p.Y, laserDotRadius+a*laserDotRadius)
		if err := c.fill(laserColor(a * 0.8)); err != nil {
			return err
		}
	}

	head := view.PageToCanvas(l.Points[len(l.Points)-1])
	c.dc.DrawCircle(head.X, head.Y, laserHeadRadius)
	if err := c.fill(laserColor(0.9)); err != nil {
		return err
	}
	c.dc.DrawCircle(head.X, head.Y, laserHaloRadius)
	if err := c.fill(laserColor(0.3)); err != nil {
		return err
	}

	if l.Username != "" {
		at := view.CanvasToDevice(head.Add(14, 4))
		c.screenText(l.Username, at, math.Max(1, laserFontSize*dpr), laserColor(0.9))
	}
	return nil
}
