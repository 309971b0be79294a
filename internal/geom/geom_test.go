package geom

import (
	"math"
	"slices"
	"testing"
)

func circlePoints(cx, cy, r float64, stepDeg int) []Point {
	var pts []Point
	for deg := 0; deg < 360; deg += stepDeg {
		a := float64(deg) * math.Pi / 180
		pts = append(pts, Pt(cx+r*math.Cos(a), cy+r*math.Sin(a)))
	}
	return pts
}

// rectPoints walks the perimeter of (0,0)-(w,h) clockwise in steps of step,
// stopping one step short of the starting corner.
func rectPoints(w, h, step float64) []Point {
	var pts []Point
	for x := 0.0; x < w; x += step {
		pts = append(pts, Pt(x, 0))
	}
	for y := 0.0; y < h; y += step {
		pts = append(pts, Pt(w, y))
	}
	for x := w; x > 0; x -= step {
		pts = append(pts, Pt(x, h))
	}
	for y := h; y >= step; y -= step {
		pts = append(pts, Pt(0, y))
	}
	return pts
}

func TestRecognize(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		want   ShapeKind
		ok     bool
	}{
		{"circle", circlePoints(100, 100, 50, 10), ShapeCircle, true},
		{"wide rect", rectPoints(200, 80, 20), ShapeRect, true},
		{"line", []Point{{0, 0}, {25, 1}, {50, -1}, {75, 0.5}, {100, 0}}, ShapeLine, true},
		{"arrow", []Point{{0, 0}, {25, 10}, {50, 0}, {75, 0}, {100, 0}}, ShapeArrow, true},
		{"too curved", []Point{{0, 0}, {25, 20}, {50, 0}, {75, 0}, {100, 0}}, "", false},
		{"too few points", []Point{{0, 0}, {25, 0}, {50, 0}, {100, 0}}, "", false},
		{"short chord", []Point{{0, 0}, {5, 0}, {10, 0}, {15, 0}, {20, 0}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Recognize(tt.points)
			if ok != tt.ok {
				t.Fatalf("Recognize ok = %v, want %v (shape %+v)", ok, tt.ok, got)
			}
			if got.Kind != tt.want {
				t.Errorf("Recognize kind = %q, want %q", got.Kind, tt.want)
			}
		})
	}
}

func TestRecognizeCircleParameters(t *testing.T) {
	got, ok := Recognize(circlePoints(100, 100, 50, 10))
	if !ok || got.Kind != ShapeCircle {
		t.Fatalf("expected circle, got %+v ok=%v", got, ok)
	}
	if math.Abs(got.CX-100) > 0.5 || math.Abs(got.CY-100) > 0.5 {
		t.Errorf("center = (%.2f, %.2f), want (100, 100)", got.CX, got.CY)
	}
	if math.Abs(got.Radius-50) > 0.5 {
		t.Errorf("radius = %.2f, want 50", got.Radius)
	}
}

func TestRecognizeLineEndpoints(t *testing.T) {
	pts := []Point{{10, 10}, {40, 11}, {70, 10}, {100, 9}, {130, 10}}
	got, ok := Recognize(pts)
	if !ok || got.Kind != ShapeLine {
		t.Fatalf("expected line, got %+v ok=%v", got, ok)
	}
	if got.X1 != 10 || got.Y1 != 10 || got.X2 != 130 || got.Y2 != 10 {
		t.Errorf("endpoints = (%v,%v)-(%v,%v)", got.X1, got.Y1, got.X2, got.Y2)
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	reversed := slices.Clone(square)
	slices.Reverse(reversed)

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Pt(50, 50), true},
		{"near corner", Pt(1, 99), true},
		{"left of box", Pt(-1, 50), false},
		{"below box", Pt(50, 101), false},
		{"far away", Pt(500, 500), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, square); got != tt.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
			if got := PointInPolygon(tt.p, reversed); got != tt.want {
				t.Errorf("PointInPolygon(%v) reversed = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	if PointInPolygon(Pt(0, 0), []Point{{-1, -1}, {1, 1}}) {
		t.Error("two-vertex polygon should contain nothing")
	}
	if PointInPolygon(Pt(0, 0), nil) {
		t.Error("empty polygon should contain nothing")
	}
}

func TestDistanceToSegment(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{"perpendicular", Pt(5, 3), Pt(0, 0), Pt(10, 0), 3},
		{"past end clamps", Pt(13, 4), Pt(0, 0), Pt(10, 0), 5},
		{"before start clamps", Pt(-3, -4), Pt(0, 0), Pt(10, 0), 5},
		{"zero length", Pt(3, 4), Pt(0, 0), Pt(0, 0), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DistanceToSegment(tt.p, tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DistanceToSegment = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceToPolyline(t *testing.T) {
	if got := DistanceToPolyline(Pt(1, 1), nil); !math.IsInf(got, 1) {
		t.Errorf("empty polyline distance = %v, want +Inf", got)
	}

	single := []Point{{3, 4}}
	if got := DistanceToPolyline(Pt(0, 0), single); got != 5 {
		t.Errorf("single point distance = %v, want 5", got)
	}

	stroke := []Point{{0, 0}, {50, 10}, {80, 80}, {20, 60}}
	probes := []Point{{10, 30}, {60, 60}, {-20, -5}, {100, 100}}
	for _, p := range probes {
		d := DistanceToPolyline(p, stroke)
		for _, q := range stroke {
			if d > Dist(p, q)+1e-9 {
				t.Errorf("distance %v from %v exceeds distance to vertex %v", d, p, q)
			}
		}
	}
}

func TestBounds(t *testing.T) {
	if _, ok := Bounds(nil); ok {
		t.Error("Bounds of no points should not be ok")
	}

	r, ok := Bounds([]Point{{5, 7}})
	if !ok || r != (Rect{X: 5, Y: 7}) {
		t.Errorf("single point bounds = %+v", r)
	}

	r, _ = Bounds([]Point{{10, 20}, {-5, 40}, {30, 0}})
	want := Rect{X: -5, Y: 0, Width: 35, Height: 40}
	if r != want {
		t.Errorf("Bounds = %+v, want %+v", r, want)
	}
	if !r.Contains(Pt(30, 40)) || r.Contains(Pt(31, 40)) {
		t.Error("Contains should include edges only")
	}
}
