package render

import (
	"math"
	"strings"

	"github.com/gogpu/gg"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
)

const (
	boxRadius       = 10
	boxLineWidth    = 2
	boxDragWidth    = 2.5
	boxLabelSize    = 14
	boxLabelPadding = 16
	lineHeightMult  = 1.3

	connectorWidth = 2
	connectorHead  = 10
)

// DrawElement draws a text, box or arrow element. Arrows resolve their
// endpoints through boxes; an arrow with a missing endpoint draws nothing.
// Image elements are drawn by DrawImage.
func (c *Canvas) DrawElement(e board.Element, boxes map[string]board.Element, dragging bool) error {
	switch e.Type {
	case board.ElementText:
		c.drawTextElement(e)
		return nil
	case board.ElementBox:
		return c.drawBox(e, dragging)
	case board.ElementArrow:
		from, okFrom := boxes[e.From]
		to, okTo := boxes[e.To]
		if !okFrom || !okTo {
			return nil
		}
		return c.drawConnector(from.Rect(), to.Rect())
	}
	return nil
}

func (c *Canvas) drawTextElement(e board.Element) {
	size := e.FontSizeOrDefault()
	col := ParseColor(e.Color, colorLabel)
	for i, line := range strings.Split(e.Text, "\n") {
		at := geom.Pt(e.X, e.Y+float64(i)*size*lineHeightMult)
		c.text(line, at, size, alignStart, alignStart, col)
	}
}

func (c *Canvas) drawBox(e board.Element, dragging bool) error {
	r := e.Rect()
	fillCol, strokeCol, width := colorBoxFill, colorAccent, float64(boxLineWidth)
	if dragging {
		fillCol, strokeCol, width = colorBoxFillDrag, colorAccentLight, boxDragWidth
	}

	c.roundRect(r, boxRadius)
	if err := c.fill(fillCol); err != nil {
		return err
	}
	c.roundRect(r, boxRadius)
	if err := c.stroke(strokeCol, width); err != nil {
		return err
	}

	if e.Text == "" {
		return nil
	}
	lines := c.wrap(e.Text, boxLabelSize, r.Width-boxLabelPadding)
	lineHeight := boxLabelSize * lineHeightMult
	center := r.Center()
	top := center.Y - lineHeight*float64(len(lines)-1)/2
	for i, line := range lines {
		c.text(line, geom.Pt(center.X, top+float64(i)*lineHeight), boxLabelSize, alignCenter, alignCenter, colorLabel)
	}
	return nil
}

// wrap breaks s into lines no wider than maxWidth logical units. A single
// word wider than maxWidth gets a line of its own.
func (c *Canvas) wrap(s string, size, maxWidth float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if c.measure(candidate, size) <= maxWidth {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}

// drawConnector draws an arrow from the bottom-center of from to the
// top-center of to.
func (c *Canvas) drawConnector(from, to geom.Rect) error {
	start := geom.Pt(from.X+from.Width/2, from.Y+from.Height)
	end := geom.Pt(to.X+to.Width/2, to.Y)

	c.dc.SetLineCap(gg.LineCapButt)
	c.dc.DrawLine(start.X, start.Y, end.X, end.Y)
	if err := c.stroke(colorAccentLight, connectorWidth); err != nil {
		return err
	}

	angle := math.Atan2(end.Y-start.Y, end.X-start.X)
	c.dc.MoveTo(end.X, end.Y)
	c.dc.LineTo(end.X-connectorHead*math.Cos(angle-arrowHeadAngle), end.Y-connectorHead*math.Sin(angle-arrowHeadAngle))
	c.dc.LineTo(end.X-connectorHead*math.Cos(angle+arrowHeadAngle), end.Y-connectorHead*math.Sin(angle+arrowHeadAngle))
	c.dc.ClosePath()
	return c.fill(colorAccentLight)
}

// DrawImage draws a decoded bitmap scaled into the element's rectangle with
// a thin accent border.
func (c *Canvas) DrawImage(e board.Element, bitmap *gg.ImageBuf) error {
	if bitmap == nil {
		return nil
	}
	r := e.Rect()
	c.dc.DrawImageEx(bitmap, gg.DrawImageOptions{
		X:         r.X,
		Y:         r.Y,
		DstWidth:  r.Width,
		DstHeight: r.Height,
		Opacity:   1,
	})
	c.dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	return c.stroke(colorImageBorder, 1)
}
