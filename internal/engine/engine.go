package engine

import (
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/collab"
	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/render"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

const zoomStep = 0.2

// Transport sends events to remote peers. Send must not block.
type Transport interface {
	Send(typ string, payload any) error
}

// Callbacks receive requests for the authoritative layer store and local
// state notifications. They run after the engine lock is released, so a
// callback may call back into the engine (typically SetLayers). Nil
// callbacks are skipped.
type Callbacks struct {
	OnStrokeFinalized   func(board.Stroke)
	OnStrokeErased      func(id string)
	OnStrokesDeleted    func(ids []string)
	OnStrokesTranslated func(ids []string, dx, dy float64)
	OnElementUpdated    func(id string, patch board.ElementPatch)
	OnTextCreated       func(board.Element)
	OnSelectionChanged  func(ids []string)
	OnViewportChanged   func(viewport.Viewport)
	OnEditorChanged     func(Editor)
}

// Options configure a new Engine.
type Options struct {
	// CSS size of the canvas.
	Width, Height float64
	DPR           float64

	PageWidth float64
	PageGap   float64
	Pages     int
	FrameRate int

	Settings Settings
}

// Engine owns the drawing surface: it routes input through the tool state
// machine, merges remote activity and rasterizes frames on demand.
type Engine struct {
	mu sync.Mutex

	machine *Machine
	layers  board.Layers
	view    viewport.Viewport
	layout  viewport.Layout
	width   float64
	height  float64

	remote  *RemoteBuffer
	lasers  *LaserTrails
	bitmaps *BitmapCache
	sched   *Scheduler
	canvas  *render.Canvas

	transport Transport
	cb        Callbacks
}

// New creates an engine. transport and provider may be nil.
func New(opts Options, fonts *render.Fonts, transport Transport, provider BitmapProvider, cb Callbacks) *Engine {
	view := viewport.New()
	if opts.DPR > 0 {
		view.DPR = opts.DPR
	}
	e := &Engine{
		machine:   NewMachine(opts.Settings),
		view:      view,
		layout:    viewport.NewLayout(opts.PageWidth, opts.PageGap, opts.Pages),
		width:     opts.Width,
		height:    opts.Height,
		remote:    NewRemoteBuffer(),
		lasers:    NewLaserTrails(),
		bitmaps:   NewBitmapCache(provider),
		sched:     NewScheduler(opts.FrameRate),
		transport: transport,
		cb:        cb,
	}
	w, h := e.deviceSize()
	e.canvas = render.NewCanvas(w, h, fonts)
	return e
}

func (e *Engine) deviceSize() (int, int) {
	dpr := e.view.DPR
	return max(1, int(math.Round(e.width*dpr))), max(1, int(math.Round(e.height*dpr)))
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canvas.Close()
}

// --- Commands (host → engine) ---

// SetLayers replaces the snapshot of the authoritative layers. Remote
// in-progress strokes that are now committed are retired.
func (e *Engine) SetLayers(ctx context.Context, layers board.Layers) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.layers = layers
	if n := e.remote.Retire(layers); n > 0 {
		slog.Debug("retired remote strokes", "count", n)
	}
	e.bitmaps.Sync(ctx, layers.Elements)
	e.sched.Invalidate()
}

func (e *Engine) Layers() board.Layers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layers
}

func (e *Engine) SetTool(t Tool) {
	e.run(func(m *Machine, _ Env) []Command { return m.SetTool(t) })
}

func (e *Engine) SetColor(color string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Color = color
}

func (e *Engine) SetBrushSize(size float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if size > 0 {
		e.machine.BrushSize = size
	}
	e.sched.Invalidate()
}

func (e *Engine) SetPenType(pen board.PenType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.PenType = pen
}

// SetPage selects the page new strokes are assigned to.
func (e *Engine) SetPage(page int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Page = max(0, min(page, e.layout.Count-1))
	e.sched.Invalidate()
}

func (e *Engine) SetPageCount(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layout = viewport.NewLayout(e.layout.PageWidth, e.layout.Gap, n)
	e.machine.Page = min(e.machine.Page, e.layout.Count-1)
	e.sched.Invalidate()
}

// SetDisabled suppresses all input handling, as during replay.
func (e *Engine) SetDisabled(disabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.Disabled = disabled
}

func (e *Engine) SetViewport(v viewport.Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v.Zoom = viewport.ClampZoom(v.Zoom)
	e.view = v
	e.sched.Invalidate()
}

func (e *Engine) Viewport() viewport.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Resize sets the canvas CSS size, its on-screen origin and the device
// pixel ratio.
func (e *Engine) Resize(width, height, dpr float64, origin geom.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.width, e.height = width, height
	if dpr > 0 {
		e.view.DPR = dpr
	}
	e.view.Origin = origin
	w, h := e.deviceSize()
	e.canvas.Resize(w, h)
	e.sched.Invalidate()
}

// ZoomIn, ZoomOut and ZoomReset implement the zoom controls. Stepped zoom
// keeps the canvas center fixed.
func (e *Engine) ZoomIn()  { e.zoomBy(zoomStep) }
func (e *Engine) ZoomOut() { e.zoomBy(-zoomStep) }

func (e *Engine) zoomBy(delta float64) {
	e.run(func(_ *Machine, env Env) []Command {
		return []Command{SetViewport{View: env.View.SetZoom(env.View.Zoom+delta, e.width, e.height)}}
	})
}

func (e *Engine) ZoomReset() {
	e.run(func(_ *Machine, env Env) []Command {
		v := env.View
		v.Zoom, v.Pan = 1, geom.Point{}
		return []Command{SetViewport{View: v}}
	})
}

// --- Input ---

func (e *Engine) PointerDown(ev PointerEvent) {
	e.run(func(m *Machine, env Env) []Command { return m.PointerDown(ev, env) })
}

func (e *Engine) PointerMove(ev PointerEvent) {
	e.run(func(m *Machine, env Env) []Command { return m.PointerMove(ev, env) })
}

func (e *Engine) PointerUp(ev PointerEvent) {
	e.run(func(m *Machine, env Env) []Command { return m.PointerUp(ev, env) })
}

func (e *Engine) PointerLeave() {
	e.run(func(m *Machine, env Env) []Command { return m.PointerLeave(env) })
}

func (e *Engine) Key(ev KeyEvent) {
	e.run(func(m *Machine, env Env) []Command { return m.Key(ev, env) })
}

func (e *Engine) Wheel(ev viewport.WheelEvent) {
	e.run(func(m *Machine, env Env) []Command { return m.Wheel(ev, env) })
}

func (e *Engine) CommitText(s string) {
	e.run(func(m *Machine, _ Env) []Command { return m.CommitText(s) })
}

func (e *Engine) CommitBoxText(s string) {
	e.run(func(m *Machine, _ Env) []Command { return m.CommitBoxText(s) })
}

func (e *Engine) CancelEditor() {
	e.run(func(m *Machine, _ Env) []Command { return m.CancelEditor() })
}

// run executes one state machine transition. Local effects are applied
// under the lock; callbacks and network sends happen after it is released.
func (e *Engine) run(transition func(*Machine, Env) []Command) {
	e.mu.Lock()
	cmds := transition(e.machine, Env{Layers: e.layers, View: e.view, Layout: e.layout})
	for _, c := range cmds {
		switch c := c.(type) {
		case SetViewport:
			c.View.Zoom = viewport.ClampZoom(c.View.Zoom)
			e.view = c.View
			e.sched.Invalidate()
		case Redraw:
			e.sched.Invalidate()
		}
	}
	e.mu.Unlock()

	for _, c := range cmds {
		e.dispatch(c)
	}
}

func (e *Engine) dispatch(c Command) {
	switch c := c.(type) {
	case EmitDrawingStart:
		e.send(collab.TypeDrawingStart, collab.DrawingStartPayload{Stroke: c.Stroke})
	case EmitDrawingMove:
		e.send(collab.TypeDrawingMove, collab.DrawingMovePayload{StrokeID: c.ID, Point: c.Point})
	case EmitLaserMove:
		e.send(collab.TypeLaserMove, collab.LaserMovePayload{Point: c.Point})
	case EmitLaserStop:
		e.send(collab.TypeLaserStop, nil)
	case CommitStroke:
		if e.cb.OnStrokeFinalized != nil {
			e.cb.OnStrokeFinalized(c.Stroke)
		}
	case EraseStroke:
		if e.cb.OnStrokeErased != nil {
			e.cb.OnStrokeErased(c.ID)
		}
	case DeleteStrokes:
		if e.cb.OnStrokesDeleted != nil {
			e.cb.OnStrokesDeleted(c.IDs)
		}
	case TranslateStrokes:
		if e.cb.OnStrokesTranslated != nil {
			e.cb.OnStrokesTranslated(c.IDs, c.DX, c.DY)
		}
	case UpdateElement:
		if e.cb.OnElementUpdated != nil {
			e.cb.OnElementUpdated(c.ID, c.Patch)
		}
	case CreateText:
		if e.cb.OnTextCreated != nil {
			e.cb.OnTextCreated(c.Element)
		}
	case SelectionChanged:
		if e.cb.OnSelectionChanged != nil {
			e.cb.OnSelectionChanged(c.IDs)
		}
	case SetViewport:
		if e.cb.OnViewportChanged != nil {
			e.cb.OnViewportChanged(c.View)
		}
	case EditorChanged:
		if e.cb.OnEditorChanged != nil {
			e.cb.OnEditorChanged(c.Editor)
		}
	}
}

func (e *Engine) send(typ string, payload any) {
	if e.transport == nil {
		return
	}
	if err := e.transport.Send(typ, payload); err != nil {
		slog.Warn("send event", "type", typ, "error", err)
	}
}

// --- Remote activity ---

// RemoteDrawingStart begins buffering a peer's in-progress stroke.
func (e *Engine) RemoteDrawingStart(userID string, s board.Stroke) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.remote.Start(userID, s)
	e.sched.Invalidate()
}

// RemoteDrawingMove appends a point to a peer's in-progress stroke. Points
// for peers with no buffered stroke are ignored.
func (e *Engine) RemoteDrawingMove(userID string, p geom.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.remote.Append(userID, p) {
		e.sched.Invalidate()
	}
}

// RemoteDrawingEnd drops the peer's buffered stroke when strokeID is the
// one it has in progress. A peer may already have started its next stroke.
func (e *Engine) RemoteDrawingEnd(userID, strokeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.remote.End(userID, strokeID) {
		e.sched.Invalidate()
	}
}

func (e *Engine) RemoteLaserMove(userID, username string, p geom.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lasers.Move(userID, username, p)
	e.sched.Invalidate()
}

func (e *Engine) RemoteLaserStop(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lasers.Stop(userID) {
		e.sched.Invalidate()
	}
}

// PeerLeft clears everything buffered for a departed peer.
func (e *Engine) PeerLeft(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	evicted := e.remote.Evict(userID)
	stopped := e.lasers.Stop(userID)
	if evicted || stopped {
		slog.Debug("evicted peer state", "user", userID, "stroke", evicted, "laser", stopped)
		e.sched.Invalidate()
	}
}

// --- Frames ---

// Invalidate schedules a redraw.
func (e *Engine) Invalidate() { e.sched.Invalidate() }

// Tick applies finished bitmap loads and renders if anything changed since
// the last frame. It reports whether a frame was rendered.
func (e *Engine) Tick() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bitmaps.Drain() {
		e.sched.Invalidate()
	}
	return e.sched.Tick(func() error {
		return e.canvas.Draw(e.frameLocked())
	})
}

// Run ticks at the configured frame rate until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.sched.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.Tick(); err != nil {
				return err
			}
		}
	}
}

// Image returns the most recently rendered frame.
func (e *Engine) Image() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canvas.Image()
}

// Frame returns the render input for the current state.
func (e *Engine) Frame() render.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked()
}

func (e *Engine) frameLocked() render.Frame {
	ids, bounds := e.machine.Selection()
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	f := render.Frame{
		View:      e.view,
		Layout:    e.layout,
		Width:     e.width,
		Height:    e.height,
		Layers:    e.layers,
		Selected:  selected,
		Bitmaps:   e.bitmaps.Bitmaps(),
		Remote:    e.remote.Strokes(),
		Current:   e.machine.Current(),
		Dragging:  e.machine.Dragging(),
		Selection: bounds,
		Lasso:     e.machine.Lasso(),
		Lasers:    e.lasers.Lasers(),
	}
	if c := e.machine.EraserCursor(); c != nil {
		f.Eraser = &render.EraserCursor{Center: *c, Radius: e.machine.BrushSize * eraserRadiusMult}
	}
	return f
}

// --- Queries ---

// Selection returns the selected stroke ids and their bounds.
func (e *Engine) Selection() ([]string, *geom.Rect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Selection()
}

func (e *Engine) Editor() Editor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Editor()
}

func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Settings
}

// State is the engine state reported to the host UI.
type State struct {
	Tool      string            `json:"tool"`
	Color     string            `json:"color"`
	BrushSize float64           `json:"brushSize"`
	PenType   board.PenType     `json:"penType,omitempty"`
	Page      int               `json:"page"`
	Pages     int               `json:"pages"`
	Disabled  bool              `json:"disabled"`
	Viewport  viewport.Viewport `json:"viewport"`
	Selection []string          `json:"selection"`
	Bounds    *geom.Rect        `json:"selectionBounds,omitempty"`
	Editor    Editor            `json:"editor"`
	Remote    int               `json:"remoteStrokes"`
	Loading   int               `json:"loadingImages"`
}

// StateJSON returns the current State as JSON.
func (e *Engine) StateJSON() string {
	e.mu.Lock()
	ids, bounds := e.machine.Selection()
	st := State{
		Tool:      e.machine.Tool.String(),
		Color:     e.machine.Color,
		BrushSize: e.machine.BrushSize,
		PenType:   e.machine.PenType,
		Page:      e.machine.Page,
		Pages:     e.layout.Count,
		Disabled:  e.machine.Disabled,
		Viewport:  e.view,
		Selection: ids,
		Bounds:    bounds,
		Editor:    e.machine.Editor(),
		Remote:    e.remote.Len(),
		Loading:   e.bitmaps.Pending(),
	}
	e.mu.Unlock()

	if st.Selection == nil {
		st.Selection = []string{}
	}
	data, _ := json.Marshal(st)
	return string(data)
}
