package viewport

import (
	"math"

	"github.com/inkboard/inkboard/client-go/internal/geom"
)

// A-series paper aspect ratio.
const pageAspect = 1.4142

// Layout stacks Count fixed-size pages vertically with Gap between them.
// Pages are pure backdrop; content is positioned independently.
type Layout struct {
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
	Gap        float64 `json:"gap"`
	Count      int     `json:"count"`
}

// NewLayout derives the page height from width using the A-series aspect.
func NewLayout(width, gap float64, count int) Layout {
	return Layout{
		PageWidth:  width,
		PageHeight: math.Round(width * pageAspect),
		Gap:        gap,
		Count:      max(count, 1),
	}
}

// Offset returns the top of page p in logical space.
func (l Layout) Offset(p int) float64 {
	return float64(p) * (l.PageHeight + l.Gap)
}

// Page returns the logical rectangle occupied by page p.
func (l Layout) Page(p int) geom.Rect {
	return geom.Rect{X: 0, Y: l.Offset(p), Width: l.PageWidth, Height: l.PageHeight}
}

// PageAt returns the page whose vertical range [top, top+height) contains
// y. Points in a gap or outside the stack report false.
func (l Layout) PageAt(y float64) (int, bool) {
	stride := l.PageHeight + l.Gap
	if y < 0 || l.Count == 0 || stride <= 0 {
		return 0, false
	}
	p := int(y / stride)
	if p >= l.Count || y-l.Offset(p) >= l.PageHeight {
		return p, false
	}
	return p, true
}

// Visible lists the pages intersecting the logical rectangle view.
func (l Layout) Visible(view geom.Rect) []int {
	var pages []int
	for p := range l.Count {
		top := l.Offset(p)
		if top+l.PageHeight < view.Y || top > view.Y+view.Height {
			continue
		}
		pages = append(pages, p)
	}
	return pages
}
