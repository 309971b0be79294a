package render

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
)

const (
	highlighterAlpha     = 0.3
	highlighterWidthMult = 3

	// Selected strokes get a halo approximating an outer blur.
	glowSpread = 8
	glowAlpha  = 0.35
)

// DrawStroke renders one stroke. Eraser strokes and strokes with fewer than
// two points draw nothing.
func (c *Canvas) DrawStroke(s board.Stroke, selected bool) error {
	if s.Type == board.StrokeEraser {
		return nil
	}
	if selected {
		if err := c.drawStrokePass(s, colorAccent, glowAlpha, glowSpread); err != nil {
			return err
		}
	}
	return c.drawStrokePass(s, ParseColor(s.Color, colorLabel), 1, 0)
}

// drawStrokePass draws the stroke geometry in col, scaling opacity by alpha
// and widening every segment by spread.
func (c *Canvas) drawStrokePass(s board.Stroke, col gg.RGBA, alpha, spread float64) error {
	c.dc.SetLineCap(gg.LineCapRound)
	c.dc.SetLineJoin(gg.LineJoinRound)

	if s.Type == board.StrokeShape && s.Shape != nil {
		return c.drawShape(*s.Shape, withAlpha(col, alpha), s.BrushSize, spread)
	}
	if len(s.Points) < 2 {
		return nil
	}

	pen := Profile(s.PenType)
	base := s.BrushSize * pen.WidthMult
	if s.Type == board.StrokeHighlighter {
		col = withAlpha(col, highlighterAlpha*alpha)
		base = s.BrushSize * highlighterWidthMult
	} else {
		col = withAlpha(col, pen.Alpha*alpha)
	}

	pts := s.Points
	if len(pts) < 3 {
		c.dc.MoveTo(pts[0].X, pts[0].Y)
		for i := 1; i < len(pts); i++ {
			m := pts[i-1].Mid(pts[i])
			c.dc.QuadraticTo(pts[i-1].X, pts[i-1].Y, m.X, m.Y)
		}
		return c.stroke(col, base+spread)
	}

	for i := 1; i < len(pts); i++ {
		prev, curr := pts[i-1], pts[i]
		width := base
		if s.Type != board.StrokeHighlighter {
			width = base * pen.PressureFactor(geom.Dist(prev, curr))
		}

		if i == 1 {
			c.dc.MoveTo(prev.X, prev.Y)
			c.dc.LineTo(curr.X, curr.Y)
		} else {
			from, to := pts[i-2].Mid(prev), prev.Mid(curr)
			c.dc.MoveTo(from.X, from.Y)
			c.dc.QuadraticTo(prev.X, prev.Y, to.X, to.Y)
		}
		if err := c.stroke(col, width+spread); err != nil {
			return fmt.Errorf("stroke segment %d of %s: %w", i, s.ID, err)
		}
	}
	return nil
}

// arrowHeadAngle is the half-angle between an arrow shaft and each barb.
const arrowHeadAngle = math.Pi / 6

// drawShape strokes a recognized primitive at the stroke's brush size,
// widened by spread.
func (c *Canvas) drawShape(shape geom.Shape, col gg.RGBA, brushSize, spread float64) error {
	switch shape.Kind {
	case geom.ShapeCircle:
		c.dc.DrawCircle(shape.CX, shape.CY, shape.Radius)
	case geom.ShapeRect:
		c.dc.DrawRectangle(shape.X, shape.Y, shape.Width, shape.Height)
	case geom.ShapeLine:
		c.dc.DrawLine(shape.X1, shape.Y1, shape.X2, shape.Y2)
	case geom.ShapeArrow:
		c.dc.DrawLine(shape.X1, shape.Y1, shape.X2, shape.Y2)
		angle := math.Atan2(shape.Y2-shape.Y1, shape.X2-shape.X1)
		head := max(12, brushSize*4)
		for _, side := range []float64{-1, 1} {
			c.dc.MoveTo(shape.X2, shape.Y2)
			c.dc.LineTo(
				shape.X2-head*math.Cos(angle+side*arrowHeadAngle),
				shape.Y2-head*math.Sin(angle+side*arrowHeadAngle),
			)
		}
	default:
		return nil
	}
	return c.stroke(col, brushSize+spread)
}
