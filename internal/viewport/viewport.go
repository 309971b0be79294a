package viewport

import (
	"math"

	"github.com/inkboard/inkboard/client-go/internal/geom"
)

const (
	MinZoom = 0.1
	MaxZoom = 5.0

	// wheelZoomRate converts wheel delta units into a zoom delta.
	wheelZoomRate = 0.005
	// wheelZoomThreshold separates trackpad/pinch deltas (zoom) from
	// scroll-wheel deltas (pan).
	wheelZoomThreshold = 50
)

// Viewport maps between three spaces:
//   - screen: CSS pixels relative to the page, as pointer events report them
//   - canvas: screen minus the canvas element's on-screen Origin
//   - device: canvas scaled by DPR, the backing store's pixels
//
// Logical page coordinates map to canvas as logical*Zoom + Pan.
type Viewport struct {
	Zoom   float64    `json:"zoom"`
	Pan    geom.Point `json:"pan"`
	DPR    float64    `json:"dpr"`
	Origin geom.Point `json:"origin"`
}

// New returns an unzoomed, unpanned viewport at a device pixel ratio of 1.
func New() Viewport {
	return Viewport{Zoom: 1, DPR: 1}
}

func ClampZoom(z float64) float64 {
	return max(MinZoom, min(MaxZoom, z))
}

func (v Viewport) dpr() float64 {
	if v.DPR <= 0 {
		return 1
	}
	return v.DPR
}

// CanvasMatrix maps logical page coordinates to canvas CSS pixels.
func (v Viewport) CanvasMatrix() Matrix2D {
	return Translate(v.Pan.X, v.Pan.Y).Multiply(Scale(v.Zoom, v.Zoom))
}

// DeviceMatrix maps logical page coordinates to backing-store pixels.
func (v Viewport) DeviceMatrix() Matrix2D {
	d := v.dpr()
	return Scale(d, d).Multiply(v.CanvasMatrix())
}

// PageToDevice computes (logical*Zoom + Pan) * DPR.
func (v Viewport) PageToDevice(p geom.Point) geom.Point {
	return v.DeviceMatrix().Apply(p)
}

// PageToCanvas computes logical*Zoom + Pan.
func (v Viewport) PageToCanvas(p geom.Point) geom.Point {
	return v.CanvasMatrix().Apply(p)
}

// CanvasToDevice scales canvas CSS pixels by the device pixel ratio.
func (v Viewport) CanvasToDevice(p geom.Point) geom.Point {
	d := v.dpr()
	return geom.Pt(p.X*d, p.Y*d)
}

// ScreenToCanvas subtracts the canvas element's on-screen origin.
func (v Viewport) ScreenToCanvas(p geom.Point) geom.Point {
	return p.Sub(v.Origin)
}

// ScreenToPage maps a pointer position to logical page coordinates.
func (v Viewport) ScreenToPage(p geom.Point) geom.Point {
	c := v.ScreenToCanvas(p)
	return geom.Pt((c.X-v.Pan.X)/v.Zoom, (c.Y-v.Pan.Y)/v.Zoom)
}

// VisibleRect is the logical region covered by a canvas of the given CSS
// size.
func (v Viewport) VisibleRect(width, height float64) geom.Rect {
	return v.CanvasMatrix().Invert().TransformRect(geom.Rect{Width: width, Height: height})
}

// ZoomAt changes the zoom, clamped to [MinZoom, MaxZoom], keeping the
// logical point under the canvas-space anchor fixed.
func (v Viewport) ZoomAt(anchor geom.Point, zoom float64) Viewport {
	nz := ClampZoom(zoom)
	f := nz / v.Zoom
	v.Pan = geom.Pt(anchor.X-(anchor.X-v.Pan.X)*f, anchor.Y-(anchor.Y-v.Pan.Y)*f)
	v.Zoom = nz
	return v
}

// SetZoom zooms about the canvas center of a width x height canvas, as the
// zoom controls do.
func (v Viewport) SetZoom(zoom, width, height float64) Viewport {
	return v.ZoomAt(geom.Pt(width/2, height/2), zoom)
}

// WheelEvent is a wheel gesture at a screen position.
type WheelEvent struct {
	Pos    geom.Point
	DeltaX float64
	DeltaY float64
	Ctrl   bool
}

// Wheel applies the wheel policy: pinch (ctrl) or small deltas zoom about
// the cursor, larger deltas pan by the raw delta.
func (v Viewport) Wheel(ev WheelEvent) Viewport {
	if ev.Ctrl || math.Abs(ev.DeltaY) < wheelZoomThreshold {
		return v.ZoomAt(v.ScreenToCanvas(ev.Pos), v.Zoom-ev.DeltaY*wheelZoomRate)
	}
	v.Pan = v.Pan.Add(-ev.DeltaX, -ev.DeltaY)
	return v
}
