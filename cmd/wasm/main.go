//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/draw"
	"log/slog"
	"os"
	"sync"
	"syscall/js"
	"time"

	"github.com/gogpu/gg"

	"github.com/inkboard/inkboard/client-go/internal/asset"
	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/collab"
	"github.com/inkboard/inkboard/client-go/internal/config"
	"github.com/inkboard/inkboard/client-go/internal/engine"
	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/render"
	"github.com/inkboard/inkboard/client-go/internal/session"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

var (
	sess     *session.Session
	link     = &peerLink{}
	listener js.Value
	pixels   *image.RGBA
)

var errOffline = errors.New("not connected to a board")

// peerLink is the session's transport. The peer is attached once the
// websocket is up; sends before that fail without blocking.
type peerLink struct {
	mu   sync.Mutex
	peer *collab.Peer
}

func (l *peerLink) Send(typ string, payload any) error {
	l.mu.Lock()
	p := l.peer
	l.mu.Unlock()
	if p == nil {
		return errOffline
	}
	return p.Send(typ, payload)
}

func (l *peerLink) swap(p *collab.Peer) *collab.Peer {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.peer
	l.peer = p
	return old
}

// createOptions is the JSON accepted by create().
type createOptions struct {
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	DPR       float64       `json:"dpr"`
	PageWidth float64       `json:"pageWidth"`
	PageGap   float64       `json:"pageGap"`
	Pages     int           `json:"pages"`
	FrameRate int           `json:"frameRate"`
	Tool      string        `json:"tool"`
	Color     string        `json:"color"`
	BrushSize float64       `json:"brushSize"`
	PenType   board.PenType `json:"penType"`
	AssetBase string        `json:"assetBase"`
	Debug     bool          `json:"debug"`
}

func main() {
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("create", js.FuncOf(create))
	api.Set("connect", js.FuncOf(connect))
	api.Set("disconnect", js.FuncOf(disconnect))
	api.Set("onEvent", js.FuncOf(onEvent))
	api.Set("resize", js.FuncOf(resize))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setColor", js.FuncOf(setColor))
	api.Set("setBrushSize", js.FuncOf(setBrushSize))
	api.Set("setPenType", js.FuncOf(setPenType))
	api.Set("setPage", js.FuncOf(setPage))
	api.Set("setPageCount", js.FuncOf(setPageCount))
	api.Set("setDisabled", js.FuncOf(setDisabled))
	api.Set("pointerDown", js.FuncOf(pointerHandler((*engine.Engine).PointerDown)))
	api.Set("pointerMove", js.FuncOf(pointerHandler((*engine.Engine).PointerMove)))
	api.Set("pointerUp", js.FuncOf(pointerHandler((*engine.Engine).PointerUp)))
	api.Set("pointerLeave", js.FuncOf(pointerLeave))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("commitText", js.FuncOf(commitText))
	api.Set("commitBoxText", js.FuncOf(commitBoxText))
	api.Set("cancelEditor", js.FuncOf(cancelEditor))
	api.Set("zoomIn", js.FuncOf(func(js.Value, []js.Value) interface{} { withEngine((*engine.Engine).ZoomIn); return nil }))
	api.Set("zoomOut", js.FuncOf(func(js.Value, []js.Value) interface{} { withEngine((*engine.Engine).ZoomOut); return nil }))
	api.Set("zoomReset", js.FuncOf(func(js.Value, []js.Value) interface{} { withEngine((*engine.Engine).ZoomReset); return nil }))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("clear", js.FuncOf(clearBoard))
	api.Set("addTemplate", js.FuncOf(addTemplate))
	api.Set("addImage", js.FuncOf(addImage))

	// --- Queries (frontend ← engine) ---
	api.Set("tick", js.FuncOf(tick))
	api.Set("blit", js.FuncOf(blit))
	api.Set("getState", js.FuncOf(getState))
	api.Set("getLayers", js.FuncOf(getLayers))
	api.Set("getParticipants", js.FuncOf(getParticipants))
	api.Set("templates", js.FuncOf(templates))

	js.Global().Set("inkboardEngine", api)
	js.Global().Set("inkboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func withEngine(f func(*engine.Engine)) {
	if sess != nil {
		f(sess.Engine())
	}
}

// emit forwards a notification to the listener registered with onEvent.
func emit(typ string, v any) {
	if listener.Type() != js.TypeFunction {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("marshal event", "type", typ, "error", err)
		return
	}
	listener.Invoke(typ, string(data))
}

// --- Command Handlers ---

func create(this js.Value, args []js.Value) interface{} {
	defaults := config.DefaultEngine()
	opts := createOptions{
		DPR:       1,
		PageWidth: defaults.PageWidth,
		PageGap:   defaults.PageGap,
		Pages:     1,
		FrameRate: defaults.FrameRate,
		Tool:      "pencil",
		Color:     "#ffffff",
		BrushSize: 3,
		PenType:   board.PenBallpoint,
	}
	if len(args) > 0 && args[0].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[0].String()), &opts); err != nil {
			return errorResult(err)
		}
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	gg.SetLogger(logger)

	tool, err := engine.ParseTool(opts.Tool)
	if err != nil {
		return errorResult(err)
	}
	fonts, err := render.NewFonts()
	if err != nil {
		return errorResult(err)
	}

	if sess != nil {
		sess.Close()
	}
	sess = session.New(context.Background(), engine.Options{
		Width:     opts.Width,
		Height:    opts.Height,
		DPR:       opts.DPR,
		PageWidth: opts.PageWidth,
		PageGap:   opts.PageGap,
		Pages:     opts.Pages,
		FrameRate: opts.FrameRate,
		Settings: engine.Settings{
			Tool:      tool,
			Color:     opts.Color,
			BrushSize: opts.BrushSize,
			PenType:   opts.PenType,
		},
	}, fonts, link, asset.NewProvider(opts.AssetBase, ""), engine.Callbacks{
		OnSelectionChanged: func(ids []string) { emit("selection", ids) },
		OnViewportChanged:  func(v viewport.Viewport) { emit("viewport", v) },
		OnEditorChanged:    func(ed engine.Editor) { emit("editor", ed) },
	})
	return okResult()
}

// connect dials a board room. args: relay base url, board id, token.
func connect(this js.Value, args []js.Value) interface{} {
	if sess == nil || len(args) < 2 {
		return errorResult(errors.New("usage: connect(relay, board, token)"))
	}
	token := ""
	if len(args) > 2 && args[2].Type() == js.TypeString {
		token = args[2].String()
	}
	u, err := collab.BoardURL(args[0].String(), args[1].String(), token)
	if err != nil {
		return errorResult(err)
	}

	s := sess
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		p, err := collab.Dial(ctx, u)
		cancel()
		if err != nil {
			slog.Error("connect", "error", err)
			emit("disconnected", map[string]string{"error": err.Error()})
			return
		}
		if old := link.swap(p); old != nil {
			old.Close()
		}
		emit("connected", map[string]string{"board": args[1].String()})

		err = p.Run(context.Background(), func(m *collab.Message) {
			s.Handle(m)
			switch m.Type {
			case collab.TypeRoomData, collab.TypeUserJoin, collab.TypeUserLeave:
				emit("participants", s.Participants())
			case collab.TypeError:
				emit("error", m.Payload)
			}
		})
		link.swap(nil)
		msg := map[string]string{}
		if err != nil {
			msg["error"] = err.Error()
		}
		emit("disconnected", msg)
	}()
	return okResult()
}

func disconnect(this js.Value, args []js.Value) interface{} {
	if p := link.swap(nil); p != nil {
		p.Close()
	}
	return nil
}

func onEvent(this js.Value, args []js.Value) interface{} {
	if len(args) > 0 {
		listener = args[0]
	}
	return nil
}

// resize(width, height, dpr, originX, originY)
func resize(this js.Value, args []js.Value) interface{} {
	if sess == nil || len(args) < 3 {
		return nil
	}
	var origin geom.Point
	if len(args) >= 5 {
		origin = geom.Pt(args[3].Float(), args[4].Float())
	}
	sess.Engine().Resize(args[0].Float(), args[1].Float(), args[2].Float(), origin)
	return nil
}

func setTool(this js.Value, args []js.Value) interface{} {
	if sess == nil || len(args) < 1 {
		return nil
	}
	tool, err := engine.ParseTool(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	sess.Engine().SetTool(tool)
	return nil
}

func setColor(this js.Value, args []js.Value) interface{} {
	if sess != nil && len(args) > 0 {
		sess.Engine().SetColor(args[0].String())
	}
	return nil
}

func setBrushSize(this js.Value, args []js.Value) interface{} {
	if sess != nil && len(args) > 0 {
		sess.Engine().SetBrushSize(args[0].Float())
	}
	return nil
}

func setPenType(this js.Value, args []js.Value) interface{} {
	if sess != nil && len(args) > 0 {
		sess.Engine().SetPenType(board.PenType(args[0].String()))
	}
	return nil
}

func setPage(this js.Value, args []js.Value) interface{} {
	if sess != nil && len(args) > 0 {
		sess.Engine().SetPage(args[0].Int())
	}
	return nil
}

func setPageCount(this js.Value, args []js.Value) interface{} {
	if sess != nil && len(args) > 0 {
		sess.Engine().SetPageCount(args[0].Int())
	}
	return nil
}

func setDisabled(this js.Value, args []js.Value) interface{} {
	if sess != nil && len(args) > 0 {
		sess.Engine().SetDisabled(args[0].Bool())
	}
	return nil
}

// pointerHandler adapts pointer(x, y, shift) calls. Event time is taken
// on the Go side.
func pointerHandler(f func(*engine.Engine, engine.PointerEvent)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if sess == nil || len(args) < 2 {
			return nil
		}
		ev := engine.PointerEvent{Pos: geom.Pt(args[0].Float(), args[1].Float()), Time: time.Now()}
		if len(args) > 2 {
			ev.Shift = args[2].Truthy()
		}
		f(sess.Engine(), ev)
		return nil
	}
}

func pointerLeave(this js.Value, args []js.Value) interface{} {
	withEngine((*engine.Engine).PointerLeave)
	return nil
}

// wheel(x, y, deltaX, deltaY, ctrl)
func wheel(this js.Value, args []js.Value) interface{} {
	if sess == nil || len(args) < 4 {
		return nil
	}
	ev := viewport.WheelEvent{
		Pos:    geom.Pt(args[0].Float(), args[1].Float()),
		DeltaX: args[2].Float(),
		DeltaY: args[3].Float(),
	}
	if len(args) > 4 {
		ev.Ctrl = args[4].Truthy()
	}
	sess.Engine().Wheel(ev)
	return nil
}

// keyDown(key, ctrl, meta)
func keyDown(this js.Value, args []js.Value) interface{} {
	if sess == nil || len(args) < 1 {
		return nil
	}
	ev := engine.KeyEvent{Key: args[0].String()}
	if len(args) > 1 {
		ev.Ctrl = args[1].Truthy()
	}
	if len(args) > 2 {
		ev.Meta = args[2].Truthy()
	}

	// Undo/redo belong to the session, not the engine.
	if ev.Ctrl || ev.Meta {
		switch ev.Key {
		case "z":
			sess.Undo()
			return nil
		case "y", "Z":
			sess.Redo()
			return nil
		}
	}
	sess.Engine().Key(ev)
	return nil
}

func commitText(this js.Value, args []js.Value) interface{} {
	if sess != nil && len(args) > 0 {
		sess.Engine().CommitText(args[0].String())
	}
	return nil
}

func commitBoxText(this js.Value, args []js.Value) interface{} {
	if sess != nil && len(args) > 0 {
		sess.Engine().CommitBoxText(args[0].String())
	}
	return nil
}

func cancelEditor(this js.Value, args []js.Value) interface{} {
	withEngine((*engine.Engine).CancelEditor)
	return nil
}

func undo(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(sess.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(sess.Redo())
}

func clearBoard(this js.Value, args []js.Value) interface{} {
	if sess != nil {
		sess.Clear()
	}
	return nil
}

func addTemplate(this js.Value, args []js.Value) interface{} {
	if sess == nil || len(args) < 1 {
		return nil
	}
	if err := sess.AddTemplate(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

// addImage(src, x, y, width, height) places an image at a logical position.
func addImage(this js.Value, args []js.Value) interface{} {
	if sess == nil || len(args) < 3 {
		return nil
	}
	w, h := float64(board.DefaultImageWidth), float64(board.DefaultImageHeight)
	if len(args) >= 5 {
		w, h = args[3].Float(), args[4].Float()
	}
	e := sess.AddImage(args[0].String(), geom.Pt(args[1].Float(), args[2].Float()), w, h)
	return js.ValueOf(e.ID)
}

// --- Query Handlers ---

func tick(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return js.ValueOf(false)
	}
	rendered, err := sess.Engine().Tick()
	if err != nil {
		slog.Error("render frame", "error", err)
	}
	return js.ValueOf(rendered)
}

// blit renders a pending frame and copies it into a 2D canvas context.
// It reports whether the canvas changed.
func blit(this js.Value, args []js.Value) interface{} {
	if sess == nil || len(args) < 1 {
		return js.ValueOf(false)
	}
	rendered, err := sess.Engine().Tick()
	if err != nil {
		slog.Error("render frame", "error", err)
		return js.ValueOf(false)
	}
	if !rendered {
		return js.ValueOf(false)
	}

	img := sess.Engine().Image()
	b := img.Bounds()
	if pixels == nil || pixels.Bounds() != b {
		pixels = image.NewRGBA(b)
	}
	draw.Draw(pixels, b, img, b.Min, draw.Src)

	data := js.Global().Get("Uint8ClampedArray").New(len(pixels.Pix))
	js.CopyBytesToJS(data, pixels.Pix)
	imageData := js.Global().Get("ImageData").New(data, b.Dx(), b.Dy())
	args[0].Call("putImageData", imageData, 0, 0)
	return js.ValueOf(true)
}

func getState(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(sess.Engine().StateJSON())
}

func getLayers(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return js.ValueOf("{}")
	}
	data, err := json.Marshal(sess.Layers())
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(data))
}

func getParticipants(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return js.ValueOf("[]")
	}
	data, err := json.Marshal(sess.Participants())
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(data))
}

func templates(this js.Value, args []js.Value) interface{} {
	names := board.TemplateNames()
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return js.ValueOf(out)
}
