package engine

import (
	"slices"
	"strings"
	"time"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/typeid"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

const (
	drawingMoveInterval = 24 * time.Millisecond
	laserMoveInterval   = 30 * time.Millisecond
	doubleClickWindow   = 400 * time.Millisecond

	eraserRadiusMult = 3
	selectionSlop    = 4
	minLassoPoints   = 4
	duplicateOffset  = 20

	textFontSizeMult = 5
	textFontSizeBase = 12
)

// PointerEvent is a pointer sample in screen coordinates.
type PointerEvent struct {
	Pos   geom.Point
	Time  time.Time
	Shift bool
}

// KeyEvent is a key press. Key uses DOM key names ("Delete", "d").
type KeyEvent struct {
	Key  string
	Ctrl bool
	Meta bool
}

// Env is the read-only context for one transition.
type Env struct {
	Layers board.Layers
	View   viewport.Viewport
	Layout viewport.Layout
}

// Settings are the tool configuration inputs.
type Settings struct {
	Tool      Tool
	Color     string
	BrushSize float64
	PenType   board.PenType
	Page      int
	Disabled  bool
}

// gesture is the state of an active pointer gesture.
type gesture interface {
	gesture()
}

type (
	idle     struct{}
	panning  struct{ anchor geom.Point }
	lasering struct{}
	lassoing struct{ path []geom.Point }
	// movingSelection tracks the last pointer position of a selection drag.
	movingSelection struct{ last geom.Point }
	draggingElement struct {
		id          string
		start, orig geom.Point
	}
	draggingGroup struct {
		start geom.Point
		orig  map[string]geom.Point
	}
	erasing struct{ erased map[string]bool }
	inking  struct{ stroke board.Stroke }
)

func (idle) gesture()            {}
func (panning) gesture()         {}
func (lasering) gesture()        {}
func (*lassoing) gesture()       {}
func (*movingSelection) gesture() {}
func (draggingElement) gesture() {}
func (draggingGroup) gesture()   {}
func (erasing) gesture()         {}
func (*inking) gesture()         {}

// Machine interprets pointer and keyboard input for the active tool. Each
// transition returns the commands it requires; the machine owns only the
// in-progress gesture, the selection, open editors and the eraser cursor.
type Machine struct {
	Settings

	state     gesture
	lastEmit  time.Time
	lastClick map[string]time.Time

	selection []string
	bounds    *geom.Rect

	editor Editor
	eraser *geom.Point
}

func NewMachine(s Settings) *Machine {
	return &Machine{
		Settings:  s,
		state:     idle{},
		lastClick: make(map[string]time.Time),
	}
}

// Selection returns the selected stroke ids and their bounds.
func (m *Machine) Selection() ([]string, *geom.Rect) {
	return slices.Clone(m.selection), m.bounds
}

func (m *Machine) Editor() Editor { return m.editor }

// EraserCursor is the last pointer position while the eraser is active.
func (m *Machine) EraserCursor() *geom.Point {
	if m.Tool != ToolEraser {
		return nil
	}
	return m.eraser
}

// Current returns the in-progress local stroke, if any.
func (m *Machine) Current() *board.Stroke {
	if s, ok := m.state.(*inking); ok {
		return &s.stroke
	}
	return nil
}

// Lasso returns the in-progress lasso polygon.
func (m *Machine) Lasso() []geom.Point {
	if s, ok := m.state.(*lassoing); ok {
		return s.path
	}
	return nil
}

// Dragging returns the id of the element being dragged.
func (m *Machine) Dragging() string {
	if s, ok := m.state.(draggingElement); ok {
		return s.id
	}
	return ""
}

// SetTool switches tools, abandoning any active gesture without committing
// it and clearing the selection.
func (m *Machine) SetTool(t Tool) []Command {
	if t == m.Tool {
		return nil
	}
	m.Tool = t
	m.state = idle{}
	m.eraser = nil
	cmds := m.clearSelection()
	return append(cmds, Redraw{})
}

func (m *Machine) clearSelection() []Command {
	if len(m.selection) == 0 && m.bounds == nil {
		return nil
	}
	m.selection = nil
	m.bounds = nil
	return []Command{SelectionChanged{}}
}

func (m *Machine) setSelection(ids []string, bounds *geom.Rect) []Command {
	m.selection = ids
	m.bounds = bounds
	return []Command{SelectionChanged{IDs: slices.Clone(ids)}, Redraw{}}
}

// PointerDown starts a gesture according to the active tool.
func (m *Machine) PointerDown(ev PointerEvent, env Env) []Command {
	if m.Disabled || m.Tool == ToolNone {
		return nil
	}
	pos := env.View.ScreenToPage(ev.Pos)

	switch m.Tool {
	case ToolPan:
		m.state = panning{anchor: ev.Pos.Sub(env.View.Pan)}
		return nil
	case ToolLaser:
		m.state = lasering{}
		m.lastEmit = ev.Time
		return []Command{EmitLaserMove{Point: pos}}
	case ToolText:
		m.editor = Editor{Kind: EditorText, At: pos}
		return []Command{EditorChanged{Editor: m.editor}, Redraw{}}
	case ToolLasso:
		if m.bounds != nil && len(m.selection) > 0 && m.bounds.Pad(selectionSlop).Contains(pos) {
			m.state = &movingSelection{last: pos}
			return nil
		}
		cmds := m.clearSelection()
		m.state = &lassoing{path: []geom.Point{pos}}
		return append(cmds, Redraw{})
	}

	if cmds, ok := m.pressElement(ev, pos, env.Layers); ok {
		return cmds
	}

	if m.Tool == ToolEraser {
		st := erasing{erased: make(map[string]bool)}
		m.state = st
		m.eraser = &pos
		return append(m.eraseAt(pos, st, env.Layers), Redraw{})
	}
	if !m.Tool.inks() {
		return nil
	}

	stroke := board.Stroke{
		ID:        typeid.NewStrokeID(),
		Type:      board.StrokePencil,
		PenType:   m.PenType,
		Points:    []geom.Point{pos},
		Color:     m.Color,
		BrushSize: m.BrushSize,
		Page:      m.Page,
	}
	if p, ok := env.Layout.PageAt(pos.Y); ok {
		stroke.Page = p
	}
	if stroke.PenType == "" {
		stroke.PenType = board.PenBallpoint
	}
	if m.Tool == ToolHighlighter {
		stroke.Type = board.StrokeHighlighter
		stroke.PenType = ""
	}
	m.state = &inking{stroke: stroke}
	return []Command{EmitDrawingStart{Stroke: stroke.Clone()}, Redraw{}}
}

// pressElement handles a press on a box: double-click editing, group drag
// with shift, or a single-box drag.
func (m *Machine) pressElement(ev PointerEvent, pos geom.Point, layers board.Layers) ([]Command, bool) {
	el, ok := layers.ElementAt(pos)
	if !ok || el.Type != board.ElementBox {
		return nil, false
	}

	last, clicked := m.lastClick[el.ID]
	if clicked && ev.Time.Sub(last) < doubleClickWindow {
		delete(m.lastClick, el.ID)
		m.editor = Editor{Kind: EditorBox, At: geom.Pt(el.X, el.Y), ID: el.ID, Rect: el.Rect(), Text: el.Text}
		return []Command{EditorChanged{Editor: m.editor}, Redraw{}}, true
	}
	m.lastClick[el.ID] = ev.Time

	if ev.Shift && el.GroupID != "" {
		orig := make(map[string]geom.Point)
		for _, sib := range layers.Group(el.GroupID) {
			orig[sib.ID] = geom.Pt(sib.X, sib.Y)
		}
		m.state = draggingGroup{start: pos, orig: orig}
		return nil, true
	}

	m.state = draggingElement{id: el.ID, start: pos, orig: geom.Pt(el.X, el.Y)}
	return []Command{Redraw{}}, true
}

// PointerMove advances the active gesture. With the eraser tool the cursor
// follows the pointer even when no gesture is active.
func (m *Machine) PointerMove(ev PointerEvent, env Env) []Command {
	if m.Disabled {
		return nil
	}
	pos := env.View.ScreenToPage(ev.Pos)

	var cmds []Command
	if m.Tool == ToolEraser {
		m.eraser = &pos
		if _, ok := m.state.(idle); ok {
			return []Command{Redraw{}}
		}
	}

	switch st := m.state.(type) {
	case idle:
		return cmds
	case panning:
		v := env.View
		v.Pan = ev.Pos.Sub(st.anchor)
		return []Command{SetViewport{View: v}}
	case lasering:
		if ev.Time.Sub(m.lastEmit) > laserMoveInterval {
			m.lastEmit = ev.Time
			return []Command{EmitLaserMove{Point: pos}}
		}
		return nil
	case draggingGroup:
		dx, dy := pos.X-st.start.X, pos.Y-st.start.Y
		ids := make([]string, 0, len(st.orig))
		for id := range st.orig {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			o := st.orig[id]
			cmds = append(cmds, UpdateElement{ID: id, Patch: board.MovePatch(o.X+dx, o.Y+dy)})
		}
		return append(cmds, Redraw{})
	case *movingSelection:
		dx, dy := pos.X-st.last.X, pos.Y-st.last.Y
		st.last = pos
		if m.bounds != nil {
			moved := m.bounds.Translate(dx, dy)
			m.bounds = &moved
		}
		return []Command{TranslateStrokes{IDs: slices.Clone(m.selection), DX: dx, DY: dy}, Redraw{}}
	case *lassoing:
		st.path = append(st.path, pos)
		return []Command{Redraw{}}
	case draggingElement:
		x, y := st.orig.X+pos.X-st.start.X, st.orig.Y+pos.Y-st.start.Y
		return []Command{UpdateElement{ID: st.id, Patch: board.MovePatch(x, y)}, Redraw{}}
	case erasing:
		return append(m.eraseAt(pos, st, env.Layers), Redraw{})
	case *inking:
		st.stroke.Points = append(st.stroke.Points, pos)
		if ev.Time.Sub(m.lastEmit) > drawingMoveInterval {
			m.lastEmit = ev.Time
			cmds = append(cmds, EmitDrawingMove{ID: st.stroke.ID, Point: pos})
		}
		return append(cmds, Redraw{})
	}
	return cmds
}

// eraseAt requests removal of every visible stroke within the eraser
// radius of pos. Strokes already requested in this gesture are skipped.
func (m *Machine) eraseAt(pos geom.Point, st erasing, layers board.Layers) []Command {
	r := m.BrushSize * eraserRadiusMult
	var cmds []Command
	for _, s := range layers.Strokes {
		if s.Type == board.StrokeEraser || st.erased[s.ID] {
			continue
		}
		if geom.DistanceToPolyline(pos, s.Points) < r {
			st.erased[s.ID] = true
			cmds = append(cmds, EraseStroke{ID: s.ID})
		}
	}
	return cmds
}

// PointerUp finishes the active gesture.
func (m *Machine) PointerUp(ev PointerEvent, env Env) []Command {
	if m.Disabled {
		return nil
	}
	return m.finishGesture(env)
}

// PointerLeave finishes the active gesture as a release would and hides
// the eraser cursor.
func (m *Machine) PointerLeave(env Env) []Command {
	var cmds []Command
	if !m.Disabled {
		cmds = m.finishGesture(env)
	}
	if m.eraser != nil {
		m.eraser = nil
		cmds = append(cmds, Redraw{})
	}
	return cmds
}

func (m *Machine) finishGesture(env Env) []Command {
	st := m.state
	m.state = idle{}

	switch st := st.(type) {
	case lasering:
		return []Command{EmitLaserStop{}}
	case erasing:
		m.eraser = nil
		return []Command{Redraw{}}
	case *lassoing:
		return append(m.finishLasso(st.path, env.Layers), Redraw{})
	case *inking:
		return append(m.finishStroke(st.stroke), Redraw{})
	case draggingElement, draggingGroup:
		return []Command{Redraw{}}
	}
	return nil
}

func (m *Machine) finishLasso(polygon []geom.Point, layers board.Layers) []Command {
	if len(polygon) < minLassoPoints {
		return nil
	}

	var ids []string
	var pts []geom.Point
	for _, s := range layers.Strokes {
		if geom.AnyInPolygon(s.Points, polygon) {
			ids = append(ids, s.ID)
			pts = append(pts, s.Points...)
		}
	}
	if len(ids) == 0 {
		return m.setSelection(nil, nil)
	}
	bounds, _ := geom.Bounds(pts)
	return m.setSelection(ids, &bounds)
}

func (m *Machine) finishStroke(s board.Stroke) []Command {
	if len(s.Points) < 2 {
		return nil
	}
	if m.Tool == ToolShape {
		if shape, ok := geom.Recognize(s.Points); ok {
			s.Type = board.StrokeShape
			s.Shape = &shape
		}
	}
	return []Command{CommitStroke{Stroke: s}}
}

// Key handles selection shortcuts. They apply only while strokes are
// selected.
func (m *Machine) Key(ev KeyEvent, env Env) []Command {
	if len(m.selection) == 0 {
		return nil
	}

	switch {
	case ev.Key == "Delete" || ev.Key == "Backspace":
		cmds := []Command{DeleteStrokes{IDs: slices.Clone(m.selection)}}
		return append(cmds, m.setSelection(nil, nil)...)
	case strings.EqualFold(ev.Key, "d") && (ev.Ctrl || ev.Meta):
		return m.duplicate(env.Layers)
	}
	return nil
}

// duplicate clones every selected stroke with a fresh id, offset by
// (+20, +20), commits the clones and selects them.
func (m *Machine) duplicate(layers board.Layers) []Command {
	var cmds []Command
	var ids []string
	var pts []geom.Point
	for _, id := range m.selection {
		s, ok := layers.Stroke(id)
		if !ok {
			continue
		}
		clone := s.Translated(duplicateOffset, duplicateOffset)
		clone.ID = typeid.NewStrokeID()
		clone.Origin = board.Origin{}
		cmds = append(cmds, CommitStroke{Stroke: clone})
		ids = append(ids, clone.ID)
		pts = append(pts, clone.Points...)
	}
	if len(ids) == 0 {
		return nil
	}
	bounds, _ := geom.Bounds(pts)
	return append(cmds, m.setSelection(ids, &bounds)...)
}

// CommitText creates a text element from the open text editor. Blank input
// just closes the editor.
func (m *Machine) CommitText(s string) []Command {
	if m.editor.Kind != EditorText {
		return nil
	}
	at := m.editor.At
	m.editor = Editor{}
	cmds := []Command{EditorChanged{}}

	s = strings.TrimSpace(s)
	if s == "" {
		return append(cmds, Redraw{})
	}
	el := board.Element{
		ID:       typeid.NewTextID(),
		Type:     board.ElementText,
		X:        at.X,
		Y:        at.Y,
		Text:     s,
		FontSize: m.BrushSize*textFontSizeMult + textFontSizeBase,
		Color:    m.Color,
	}
	return append(cmds, CreateText{Element: el}, Redraw{})
}

// CommitBoxText sets the text of the box being edited.
func (m *Machine) CommitBoxText(s string) []Command {
	if m.editor.Kind != EditorBox {
		return nil
	}
	id := m.editor.ID
	m.editor = Editor{}
	return []Command{EditorChanged{}, UpdateElement{ID: id, Patch: board.TextPatch(s)}, Redraw{}}
}

// CancelEditor closes any open editor without changes.
func (m *Machine) CancelEditor() []Command {
	if m.editor.Kind == EditorNone {
		return nil
	}
	m.editor = Editor{}
	return []Command{EditorChanged{}, Redraw{}}
}

// Wheel applies the wheel zoom/pan policy.
func (m *Machine) Wheel(ev viewport.WheelEvent, env Env) []Command {
	if m.Disabled {
		return nil
	}
	return []Command{SetViewport{View: env.View.Wheel(ev)}}
}
