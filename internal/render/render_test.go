package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

func newTestCanvas(t *testing.T, w, h int) *Canvas {
	t.Helper()
	fonts, err := NewFonts()
	if err != nil {
		t.Fatalf("NewFonts: %v", err)
	}
	c := NewCanvas(w, h, fonts)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func rgb8(c color.Color) (r, g, b uint8) {
	r32, g32, b32, _ := c.RGBA()
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8)
}

func isBackground(c color.Color) bool {
	r, g, b := rgb8(c)
	want := colorBackground
	near := func(v uint8, f float64) bool { return math.Abs(float64(v)-f*255) <= 2 }
	return near(r, want.R) && near(g, want.G) && near(b, want.B)
}

// emptyFrame renders no pages so tests can inspect content in isolation.
func emptyFrame() Frame {
	return Frame{View: viewport.New(), Layout: viewport.Layout{}}
}

func TestProfile(t *testing.T) {
	if Profile("") != Profile(board.PenBallpoint) {
		t.Error("unknown pen should fall back to ballpoint")
	}

	tests := []struct {
		pen   board.PenType
		speed float64
		want  float64
	}{
		{board.PenBallpoint, 0, 1.0},
		{board.PenBallpoint, 200, 0.6},
		{board.PenBallpoint, 40, 0.8},
		{board.PenFine, 100, 0.85},
		{board.PenCalligraphy, 0, 1.0},
		{board.PenCalligraphy, 190, 0.2},
	}
	for _, tt := range tests {
		got := Profile(tt.pen).PressureFactor(tt.speed)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s PressureFactor(%v) = %v, want %v", tt.pen, tt.speed, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	fallback := colorLabel

	if got := ParseColor("#ff0000", fallback); got.R != 1 || got.G != 0 || got.A != 1 {
		t.Errorf("hex = %+v", got)
	}
	if got := ParseColor("rgba(99, 102, 241, 0.5)", fallback); got.A != 0.5 || math.Abs(got.B-241.0/255) > 1e-9 {
		t.Errorf("rgba = %+v", got)
	}
	if got := ParseColor("rgb(0,255,0)", fallback); got.G != 1 || got.A != 1 {
		t.Errorf("rgb = %+v", got)
	}
	if got := ParseColor("chartreuse-ish", fallback); got != fallback {
		t.Errorf("garbage = %+v, want fallback", got)
	}
}

func TestDrawStrokeCoversPath(t *testing.T) {
	c := newTestCanvas(t, 200, 200)
	f := emptyFrame()
	f.Layers.Strokes = []board.Stroke{{
		ID:        "s1",
		Type:      board.StrokePencil,
		PenType:   board.PenBallpoint,
		Points:    []geom.Point{{X: 20, Y: 100}, {X: 100, Y: 100}, {X: 180, Y: 100}},
		Color:     "#ffffff",
		BrushSize: 10,
	}}

	if err := c.Draw(f); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	img := c.Image()
	if r, _, _ := rgb8(img.At(60, 100)); r < 200 {
		t.Errorf("pixel on stroke is not white-ish: r=%d", r)
	}
	if !isBackground(img.At(100, 160)) {
		t.Error("pixel away from stroke was painted")
	}
}

func TestDrawSkipsInvisibleContent(t *testing.T) {
	c := newTestCanvas(t, 120, 120)
	f := emptyFrame()
	f.Layers = board.Layers{
		Strokes: []board.Stroke{
			{ID: "e", Type: board.StrokeEraser, Points: []geom.Point{{X: 0, Y: 60}, {X: 120, Y: 60}}, Color: "#fff", BrushSize: 20},
			{ID: "dot", Type: board.StrokePencil, Points: []geom.Point{{X: 60, Y: 60}}, Color: "#fff", BrushSize: 20},
		},
		Elements: []board.Element{
			{ID: "a", Type: board.ElementArrow, From: "gone", To: "also-gone"},
			{ID: "img", Type: board.ElementImage, X: 0, Y: 0, Width: 120, Height: 120, Src: "x.png"},
		},
	}

	if err := c.Draw(f); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	img := c.Image()
	for _, p := range []geom.Point{{X: 60, Y: 60}, {X: 10, Y: 60}, {X: 5, Y: 5}} {
		if !isBackground(img.At(int(p.X), int(p.Y))) {
			t.Errorf("pixel %v painted; eraser, single-point, dangling arrow and unloaded image should draw nothing", p)
		}
	}
}

func TestDrawBoxAndShape(t *testing.T) {
	c := newTestCanvas(t, 300, 300)
	f := emptyFrame()
	f.Layers = board.Layers{
		Strokes: []board.Stroke{{
			ID:        "circle",
			Type:      board.StrokeShape,
			Points:    []geom.Point{{X: 0, Y: 0}},
			Color:     "#ffffff",
			BrushSize: 6,
			Shape:     &geom.Shape{Kind: geom.ShapeCircle, CX: 200, CY: 200, Radius: 50},
		}},
		Elements: []board.Element{
			{ID: "b", Type: board.ElementBox, X: 20, Y: 20, Width: 100, Height: 60},
		},
	}

	if err := c.Draw(f); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	img := c.Image()
	if isBackground(img.At(20, 50)) {
		t.Error("box border not drawn")
	}
	if r, _, _ := rgb8(img.At(250, 200)); r < 200 {
		t.Errorf("circle outline missing at (250,200): r=%d", r)
	}
	if !isBackground(img.At(200, 200)) {
		t.Error("circle interior should be empty")
	}
}

func TestDrawPagesFollowLayout(t *testing.T) {
	c := newTestCanvas(t, 100, 100)
	f := Frame{
		View:   viewport.Viewport{Zoom: 0.05, DPR: 1},
		Layout: viewport.NewLayout(1200, 40, 2),
		Width:  100,
		Height: 100,
	}

	if err := c.Draw(f); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	// Page 0 spans logical y [0,1697), about 85 device pixels at this zoom;
	// the sheet color differs from the background.
	img := c.Image()
	if isBackground(img.At(30, 40)) {
		t.Error("page sheet not drawn")
	}
	if !isBackground(img.At(90, 40)) {
		t.Error("area right of the page was painted")
	}
}
