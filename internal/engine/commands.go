package engine

import (
	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

// Command is a side effect requested by the input state machine. The
// machine never performs effects itself; the Engine executes commands in
// order after each transition.
type Command interface {
	command()
}

// Network emissions.
type (
	EmitDrawingStart struct{ Stroke board.Stroke }
	EmitDrawingMove  struct {
		ID    string
		Point geom.Point
	}
	EmitLaserMove struct{ Point geom.Point }
	EmitLaserStop struct{}
)

// Requests to the authoritative layer store.
type (
	CommitStroke     struct{ Stroke board.Stroke }
	EraseStroke      struct{ ID string }
	DeleteStrokes    struct{ IDs []string }
	TranslateStrokes struct {
		IDs    []string
		DX, DY float64
	}
	UpdateElement struct {
		ID    string
		Patch board.ElementPatch
	}
	CreateText struct{ Element board.Element }
)

// Local state notifications.
type (
	SelectionChanged struct{ IDs []string }
	SetViewport      struct{ View viewport.Viewport }
	EditorChanged    struct{ Editor Editor }
	Redraw           struct{}
)

func (EmitDrawingStart) command() {}
func (EmitDrawingMove) command()  {}
func (EmitLaserMove) command()    {}
func (EmitLaserStop) command()    {}
func (CommitStroke) command()     {}
func (EraseStroke) command()      {}
func (DeleteStrokes) command()    {}
func (TranslateStrokes) command() {}
func (UpdateElement) command()    {}
func (CreateText) command()       {}
func (SelectionChanged) command() {}
func (SetViewport) command()      {}
func (EditorChanged) command()    {}
func (Redraw) command()           {}

// EditorKind identifies which inline editor is open.
type EditorKind string

const (
	EditorNone EditorKind = ""
	EditorText EditorKind = "text"
	EditorBox  EditorKind = "box"
)

// Editor describes an open inline editor in logical coordinates. For box
// editors ID, Rect and Text describe the box being edited.
type Editor struct {
	Kind EditorKind `json:"kind"`
	At   geom.Point `json:"at"`
	ID   string     `json:"id,omitempty"`
	Rect geom.Rect  `json:"rect"`
	Text string     `json:"text,omitempty"`
}
