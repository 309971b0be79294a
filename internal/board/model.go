package board

import (
	"github.com/inkboard/inkboard/client-go/internal/geom"
)

type StrokeType string

const (
	StrokePencil      StrokeType = "pencil"
	StrokeHighlighter StrokeType = "highlighter"
	StrokeEraser      StrokeType = "eraser"
	StrokeShape       StrokeType = "recognized-shape"
)

type PenType string

const (
	PenFine        PenType = "fine"
	PenBallpoint   PenType = "ballpoint"
	PenFountain    PenType = "fountain"
	PenCalligraphy PenType = "calligraphy"
	PenMarker      PenType = "marker"
)

// Origin records who produced a stroke. An empty UserID means the stroke
// was drawn locally.
type Origin struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

func (o Origin) IsRemote() bool { return o.UserID != "" }

// Stroke is one freehand ink gesture. Points are in logical page space and
// never grow once the stroke is committed.
type Stroke struct {
	ID        string       `json:"id"`
	Type      StrokeType   `json:"type"`
	PenType   PenType      `json:"penType,omitempty"`
	Points    []geom.Point `json:"points"`
	Color     string       `json:"color"`
	BrushSize float64      `json:"brushSize"`
	Page      int          `json:"pageId"`
	Origin    Origin       `json:"origin"`
	Shape     *geom.Shape  `json:"recognizedShape,omitempty"`
}

// Clone returns a deep copy of the stroke.
func (s Stroke) Clone() Stroke {
	c := s
	c.Points = append([]geom.Point(nil), s.Points...)
	if s.Shape != nil {
		shape := *s.Shape
		c.Shape = &shape
	}
	return c
}

// Translated returns a copy of the stroke with every point, and any
// recognized shape, moved by (dx, dy).
func (s Stroke) Translated(dx, dy float64) Stroke {
	c := s.Clone()
	for i := range c.Points {
		c.Points[i] = c.Points[i].Add(dx, dy)
	}
	if c.Shape != nil {
		c.Shape.CX += dx
		c.Shape.CY += dy
		c.Shape.X += dx
		c.Shape.Y += dy
		c.Shape.X1 += dx
		c.Shape.Y1 += dy
		c.Shape.X2 += dx
		c.Shape.Y2 += dy
	}
	return c
}

type ElementType string

const (
	ElementText  ElementType = "text"
	ElementBox   ElementType = "box"
	ElementArrow ElementType = "arrow"
	ElementImage ElementType = "image"
)

// Element defaults, in logical units.
const (
	DefaultBoxWidth    = 150
	DefaultBoxHeight   = 60
	DefaultImageWidth  = 200
	DefaultImageHeight = 200
	DefaultFontSize    = 18
	DefaultTextColor   = "#e8e8ed"
)

// Element is positioned non-ink content: text, boxes, arrows between boxes
// and images. Arrows carry From/To box ids instead of coordinates.
type Element struct {
	ID       string      `json:"id"`
	Type     ElementType `json:"type"`
	X        float64     `json:"x,omitempty"`
	Y        float64     `json:"y,omitempty"`
	Width    float64     `json:"width,omitempty"`
	Height   float64     `json:"height,omitempty"`
	Text     string      `json:"text,omitempty"`
	FontSize float64     `json:"fontSize,omitempty"`
	Color    string      `json:"color,omitempty"`
	From     string      `json:"from,omitempty"`
	To       string      `json:"to,omitempty"`
	Src      string      `json:"src,omitempty"`
	GroupID  string      `json:"groupId,omitempty"`
}

// Rect returns the element's rectangle with type defaults applied. Text
// elements use an estimate derived from the character count.
func (e Element) Rect() geom.Rect {
	w, h := e.Width, e.Height
	switch e.Type {
	case ElementBox:
		if w == 0 {
			w = DefaultBoxWidth
		}
		if h == 0 {
			h = DefaultBoxHeight
		}
	case ElementImage:
		if w == 0 {
			w = DefaultImageWidth
		}
		if h == 0 {
			h = DefaultImageHeight
		}
	case ElementText:
		fs := e.FontSizeOrDefault()
		w = float64(len([]rune(e.Text))) * fs * 0.55
		h = fs * 1.5
	}
	return geom.Rect{X: e.X, Y: e.Y, Width: w, Height: h}
}

func (e Element) FontSizeOrDefault() float64 {
	if e.FontSize > 0 {
		return e.FontSize
	}
	return DefaultFontSize
}

// ElementPatch is a partial update; nil fields are left unchanged.
type ElementPatch struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Text   *string  `json:"text,omitempty"`
}

// MovePatch builds a position-only patch.
func MovePatch(x, y float64) ElementPatch {
	return ElementPatch{X: &x, Y: &y}
}

// TextPatch builds a text-only patch.
func TextPatch(text string) ElementPatch {
	return ElementPatch{Text: &text}
}

func (p ElementPatch) Apply(e Element) Element {
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.Width != nil {
		e.Width = *p.Width
	}
	if p.Height != nil {
		e.Height = *p.Height
	}
	if p.Text != nil {
		e.Text = *p.Text
	}
	return e
}

// Layers is a read-only snapshot of the authoritative content. Images draw
// beneath ink; boxes, arrows and text draw above it.
type Layers struct {
	Strokes  []Stroke  `json:"strokes"`
	Elements []Element `json:"elements"`
}

func (l Layers) Stroke(id string) (Stroke, bool) {
	for _, s := range l.Strokes {
		if s.ID == id {
			return s, true
		}
	}
	return Stroke{}, false
}

func (l Layers) Element(id string) (Element, bool) {
	for _, e := range l.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// ElementAt returns the topmost box or text element containing p. Arrows
// and images are never drag targets.
func (l Layers) ElementAt(p geom.Point) (Element, bool) {
	for i := len(l.Elements) - 1; i >= 0; i-- {
		e := l.Elements[i]
		if e.Type != ElementBox && e.Type != ElementText {
			continue
		}
		if e.Rect().Contains(p) {
			return e, true
		}
	}
	return Element{}, false
}

// Group returns every box sharing groupID.
func (l Layers) Group(groupID string) []Element {
	if groupID == "" {
		return nil
	}
	var out []Element
	for _, e := range l.Elements {
		if e.Type == ElementBox && e.GroupID == groupID {
			out = append(out, e)
		}
	}
	return out
}
