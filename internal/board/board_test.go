package board

import (
	"errors"
	"math"
	"testing"

	"github.com/inkboard/inkboard/client-go/internal/geom"
)

func testStroke(id, user string, pts ...geom.Point) Stroke {
	return Stroke{
		ID:        id,
		Type:      StrokePencil,
		PenType:   PenBallpoint,
		Points:    pts,
		Color:     "#fff",
		BrushSize: 3,
		Origin:    Origin{UserID: user},
	}
}

func TestStoreStrokeLifecycle(t *testing.T) {
	s := NewStore(Layers{})

	if err := s.CommitStroke(testStroke("a", "u1", geom.Pt(0, 0), geom.Pt(1, 1))); err != nil {
		t.Fatalf("CommitStroke: %v", err)
	}
	if err := s.CommitStroke(testStroke("b", "u2", geom.Pt(5, 5))); err != nil {
		t.Fatalf("CommitStroke: %v", err)
	}
	if err := s.CommitStroke(Stroke{ID: "empty"}); !errors.Is(err, ErrInvalidStroke) {
		t.Errorf("empty stroke err = %v, want ErrInvalidStroke", err)
	}

	if n := s.TranslateStrokes([]string{"a", "missing"}, 10, 20); n != 1 {
		t.Errorf("TranslateStrokes moved %d, want 1", n)
	}
	snap := s.Snapshot()
	a, ok := snap.Stroke("a")
	if !ok || a.Points[1] != geom.Pt(11, 21) {
		t.Errorf("translated stroke = %+v", a)
	}

	if err := s.EraseStroke("nope"); !errors.Is(err, ErrUnknownStroke) {
		t.Errorf("EraseStroke err = %v, want ErrUnknownStroke", err)
	}
	if id, ok := s.UndoLast("u2"); !ok || id != "b" {
		t.Errorf("UndoLast = %q, %v", id, ok)
	}
	if n := s.DeleteStrokes([]string{"a"}); n != 1 {
		t.Errorf("DeleteStrokes removed %d, want 1", n)
	}
	if got := len(s.Snapshot().Strokes); got != 0 {
		t.Errorf("strokes left = %d", got)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := NewStore(Layers{})
	_ = s.CommitStroke(testStroke("a", "", geom.Pt(0, 0), geom.Pt(1, 1)))

	snap := s.Snapshot()
	snap.Strokes[0].Points[0] = geom.Pt(99, 99)

	again := s.Snapshot()
	if again.Strokes[0].Points[0] != geom.Pt(0, 0) {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestStoreReset(t *testing.T) {
	s := NewStore(Layers{})
	_ = s.CommitStroke(testStroke("old", "", geom.Pt(0, 0)))
	before := s.Version()

	s.Reset(Layers{
		Strokes:  []Stroke{testStroke("a", "u1", geom.Pt(1, 1))},
		Elements: []Element{{ID: "e1", Type: ElementBox}},
	})
	snap := s.Snapshot()
	if _, ok := snap.Stroke("old"); ok {
		t.Error("reset kept previous content")
	}
	if len(snap.Strokes) != 1 || len(snap.Elements) != 1 {
		t.Errorf("after reset = %+v", snap)
	}
	if s.Version() <= before {
		t.Error("reset did not bump the version")
	}
}

func TestStoreElements(t *testing.T) {
	s := NewStore(Layers{})
	s.CreateElements(Element{ID: "b1", Type: ElementBox, X: 10, Y: 10})

	got, err := s.UpdateElement("b1", MovePatch(40, 50))
	if err != nil {
		t.Fatalf("UpdateElement: %v", err)
	}
	if got.X != 40 || got.Y != 50 {
		t.Errorf("moved element = %+v", got)
	}

	got, _ = s.UpdateElement("b1", TextPatch("hello"))
	if got.Text != "hello" || got.X != 40 {
		t.Errorf("text patch changed other fields: %+v", got)
	}

	if _, err := s.UpdateElement("zz", TextPatch("x")); !errors.Is(err, ErrUnknownElement) {
		t.Errorf("err = %v, want ErrUnknownElement", err)
	}

	v := s.Version()
	s.Clear()
	if s.Version() <= v {
		t.Error("Clear should bump the version")
	}
	if len(s.Snapshot().Elements) != 0 {
		t.Error("Clear left elements behind")
	}
}

func TestElementRectDefaults(t *testing.T) {
	tests := []struct {
		name string
		e    Element
		want geom.Rect
	}{
		{"box defaults", Element{Type: ElementBox, X: 1, Y: 2}, geom.Rect{X: 1, Y: 2, Width: 150, Height: 60}},
		{"image defaults", Element{Type: ElementImage}, geom.Rect{Width: 200, Height: 200}},
		{"text estimate", Element{Type: ElementText, Text: "abcd", FontSize: 20}, geom.Rect{Width: 44, Height: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.e.Rect()
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 ||
				math.Abs(got.Width-tt.want.Width) > 1e-9 || math.Abs(got.Height-tt.want.Height) > 1e-9 {
				t.Errorf("Rect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestElementAtPrefersTopmost(t *testing.T) {
	layers := Layers{Elements: []Element{
		{ID: "bottom", Type: ElementBox, X: 0, Y: 0, Width: 100, Height: 100},
		{ID: "img", Type: ElementImage, X: 0, Y: 0},
		{ID: "top", Type: ElementBox, X: 50, Y: 50, Width: 100, Height: 100},
	}}

	if e, ok := layers.ElementAt(geom.Pt(60, 60)); !ok || e.ID != "top" {
		t.Errorf("ElementAt overlap = %q, %v", e.ID, ok)
	}
	if e, ok := layers.ElementAt(geom.Pt(10, 10)); !ok || e.ID != "bottom" {
		t.Errorf("ElementAt under image = %q, %v", e.ID, ok)
	}
	if _, ok := layers.ElementAt(geom.Pt(500, 500)); ok {
		t.Error("ElementAt outside should miss")
	}
}

func TestTemplatesShareGroup(t *testing.T) {
	for _, name := range TemplateNames() {
		t.Run(name, func(t *testing.T) {
			elems, err := Template(name)
			if err != nil {
				t.Fatalf("Template: %v", err)
			}
			if len(elems) == 0 {
				t.Fatal("no elements")
			}
			group := elems[0].GroupID
			if group == "" {
				t.Fatal("missing group id")
			}

			layers := Layers{Elements: elems}
			for _, e := range elems {
				if e.GroupID != group {
					t.Errorf("element %s in group %q, want %q", e.ID, e.GroupID, group)
				}
				if e.Type == ElementArrow {
					if _, ok := layers.Element(e.From); !ok {
						t.Errorf("arrow %s references missing box %s", e.ID, e.From)
					}
					if _, ok := layers.Element(e.To); !ok {
						t.Errorf("arrow %s references missing box %s", e.ID, e.To)
					}
				}
			}
		})
	}

	if _, err := Template("gantt"); err == nil {
		t.Error("unknown template should error")
	}
}

func TestTemplateInstancesDoNotCollide(t *testing.T) {
	a, b := Kanban(), Kanban()
	if a[0].GroupID == b[0].GroupID {
		t.Error("two kanban instances share a group id")
	}
	if a[0].ID == b[0].ID {
		t.Error("two kanban instances share element ids")
	}
}
