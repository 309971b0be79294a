package geom

import "math"

// ShapeKind identifies a recognized geometric primitive.
type ShapeKind string

const (
	ShapeLine   ShapeKind = "line"
	ShapeArrow  ShapeKind = "arrow"
	ShapeRect   ShapeKind = "rect"
	ShapeCircle ShapeKind = "circle"
)

// Shape is the primitive substituted for a freehand gesture. Only the
// fields relevant to Kind are meaningful:
//   - circle: CX, CY, Radius
//   - rect: X, Y, Width, Height
//   - line, arrow: X1, Y1, X2, Y2
type Shape struct {
	Kind   ShapeKind `json:"type"`
	CX     float64   `json:"cx,omitempty"`
	CY     float64   `json:"cy,omitempty"`
	Radius float64   `json:"radius,omitempty"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
	X1     float64   `json:"x1,omitempty"`
	Y1     float64   `json:"y1,omitempty"`
	X2     float64   `json:"x2,omitempty"`
	Y2     float64   `json:"y2,omitempty"`
}

// Recognizer thresholds. They are tuned against hand-drawn input and are
// part of the observable behaviour.
const (
	minRecognizePoints = 5
	closedFraction     = 0.25 // closure distance vs bounding-box diagonal
	circleRatioMin     = 0.75
	circleRatioMax     = 1.5
	circleImbalanceMax = 0.4
	rectMarginFraction = 0.15
	rectEdgeShare      = 0.7
	minChord           = 30
	lineDeviation      = 0.08
	arrowDeviation     = 0.12
)

// Recognize classifies a sampled polyline as a circle, rect, line or arrow.
// ok is false when the gesture should stay freehand ink.
func Recognize(points []Point) (Shape, bool) {
	if len(points) < minRecognizePoints {
		return Shape{}, false
	}

	first, last := points[0], points[len(points)-1]
	box, _ := Bounds(points)
	chord := Dist(first, last)

	if chord < box.Diagonal()*closedFraction {
		return recognizeClosed(points, box)
	}

	if chord > minChord {
		maxDev := 0.0
		for _, p := range points {
			maxDev = max(maxDev, perpendicularDistance(p, first, last, chord))
		}
		line := Shape{X1: first.X, Y1: first.Y, X2: last.X, Y2: last.Y}
		switch {
		case maxDev < chord*lineDeviation:
			line.Kind = ShapeLine
			return line, true
		case maxDev < chord*arrowDeviation:
			line.Kind = ShapeArrow
			return line, true
		}
	}

	return Shape{}, false
}

func recognizeClosed(points []Point, box Rect) (Shape, bool) {
	w, h := box.Width, box.Height
	avgR := (w + h) / 4
	ratio := PathLength(points) / (2 * math.Pi * avgR)
	imbalance := math.Abs(w-h) / max(w, h)

	if ratio > circleRatioMin && ratio < circleRatioMax && imbalance < circleImbalanceMax {
		c := box.Center()
		return Shape{Kind: ShapeCircle, CX: c.X, CY: c.Y, Radius: avgR}, true
	}

	margin := max(w, h) * rectMarginFraction
	minX, minY := box.X, box.Y
	maxX, maxY := box.X+w, box.Y+h
	onEdge := 0
	for _, p := range points {
		if math.Abs(p.X-minX) < margin || math.Abs(p.X-maxX) < margin ||
			math.Abs(p.Y-minY) < margin || math.Abs(p.Y-maxY) < margin {
			onEdge++
		}
	}
	if float64(onEdge)/float64(len(points)) > rectEdgeShare {
		return Shape{Kind: ShapeRect, X: minX, Y: minY, Width: w, Height: h}, true
	}

	return Shape{}, false
}

// perpendicularDistance is the distance from p to the infinite line through
// a and b, where chord is |ab| and must be non-zero.
func perpendicularDistance(p, a, b Point, chord float64) float64 {
	return math.Abs((b.Y-a.Y)*p.X-(b.X-a.X)*p.Y+b.X*a.Y-b.Y*a.X) / chord
}
