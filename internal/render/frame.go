package render

import (
	"fmt"

	"github.com/gogpu/gg"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

// EraserCursor is the eraser hit circle in logical coordinates.
type EraserCursor struct {
	Center geom.Point
	Radius float64
}

// Frame is everything needed to rasterize one view of the board.
type Frame struct {
	View   viewport.Viewport
	Layout viewport.Layout
	// CSS size of the canvas, used to skip pages outside the view. Zero
	// draws every page.
	Width, Height float64

	Layers   board.Layers
	Selected map[string]bool
	Bitmaps  map[string]*gg.ImageBuf
	Remote   []board.Stroke
	Current  *board.Stroke
	Dragging string

	Selection *geom.Rect
	Lasso     []geom.Point
	Eraser    *EraserCursor
	Lasers    []Laser
}

// Draw clears the canvas and rasterizes f. Composite order: page chrome,
// images, committed ink, remote ink, the local in-progress stroke,
// boxes/arrows/text, overlays, then laser pointers in screen space.
func (c *Canvas) Draw(f Frame) error {
	c.Clear(colorBackground)
	c.SetTransform(f.View.DeviceMatrix())

	pages := f.Layout.Visible(f.View.VisibleRect(f.Width, f.Height))
	if f.Width == 0 || f.Height == 0 {
		pages = pages[:0]
		for p := range f.Layout.Count {
			pages = append(pages, p)
		}
	}
	for _, p := range pages {
		if err := c.DrawPage(f.Layout, p); err != nil {
			return err
		}
	}

	boxes := make(map[string]board.Element)
	for _, e := range f.Layers.Elements {
		switch e.Type {
		case board.ElementImage:
			if err := c.DrawImage(e, f.Bitmaps[e.ID]); err != nil {
				return fmt.Errorf("draw image %s: %w", e.ID, err)
			}
		case board.ElementBox:
			boxes[e.ID] = e
		}
	}

	for _, s := range f.Layers.Strokes {
		if err := c.DrawStroke(s, f.Selected[s.ID]); err != nil {
			return fmt.Errorf("draw stroke %s: %w", s.ID, err)
		}
	}
	for _, s := range f.Remote {
		if err := c.DrawStroke(s, false); err != nil {
			return fmt.Errorf("draw remote stroke %s: %w", s.ID, err)
		}
	}
	if f.Current != nil {
		if err := c.DrawStroke(*f.Current, false); err != nil {
			return fmt.Errorf("draw current stroke: %w", err)
		}
	}

	for _, e := range f.Layers.Elements {
		if e.Type == board.ElementImage {
			continue
		}
		if err := c.DrawElement(e, boxes, e.ID == f.Dragging); err != nil {
			return fmt.Errorf("draw element %s: %w", e.ID, err)
		}
	}

	if f.Selection != nil {
		if err := c.DrawSelection(*f.Selection); err != nil {
			return fmt.Errorf("draw selection: %w", err)
		}
	}
	if err := c.DrawLasso(f.Lasso); err != nil {
		return fmt.Errorf("draw lasso: %w", err)
	}
	if f.Eraser != nil {
		if err := c.DrawEraserCursor(f.Eraser.Center, f.Eraser.Radius); err != nil {
			return fmt.Errorf("draw eraser: %w", err)
		}
	}

	for _, l := range f.Lasers {
		if err := c.DrawLaser(l, f.View); err != nil {
			return fmt.Errorf("draw laser: %w", err)
		}
	}
	return nil
}
