package geom

import "math"

// PointInPolygon reports whether p lies inside polygon using the even-odd
// ray casting rule. The polygon is treated as implicitly closed. Polygons
// with fewer than three vertices contain nothing.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		a, b := polygon[i], polygon[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// DistanceToSegment returns the distance from p to the closest point of
// segment a-b. A zero-length segment degrades to point distance.
func DistanceToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Dist(p, a)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = max(0, min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// DistanceToPolyline returns the minimum distance from p to any segment of
// points. An empty polyline is infinitely far away; a single point is
// measured directly.
func DistanceToPolyline(p Point, points []Point) float64 {
	switch len(points) {
	case 0:
		return math.Inf(1)
	case 1:
		return Dist(p, points[0])
	}

	best := math.Inf(1)
	for i := 1; i < len(points); i++ {
		best = min(best, DistanceToSegment(p, points[i-1], points[i]))
	}
	return best
}

// AnyInPolygon reports whether at least one of points lies inside polygon.
func AnyInPolygon(points, polygon []Point) bool {
	for _, p := range points {
		if PointInPolygon(p, polygon) {
			return true
		}
	}
	return false
}
