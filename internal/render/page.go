package render

import (
	"fmt"

	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/viewport"
)

const (
	pageRadius       = 6
	pageShadowOffset = 5
	pageShadowRadius = 8
	marginSpacing    = 40
	marginInset      = 24
	marginLineWidth  = 0.5

	badgeFontSize = 11
	badgeHeight   = 20
	badgePadding  = 16
	badgeBottom   = 28
)

// DrawPage draws the backdrop for page p: drop shadow, sheet, border, ruled
// margin lines and a "Page N" badge.
func (c *Canvas) DrawPage(layout viewport.Layout, p int) error {
	r := layout.Page(p)

	c.roundRect(r.Translate(pageShadowOffset, pageShadowOffset), pageShadowRadius)
	if err := c.fill(colorPageShadow); err != nil {
		return fmt.Errorf("page %d shadow: %w", p, err)
	}
	c.roundRect(r, pageRadius)
	if err := c.fill(colorPage); err != nil {
		return fmt.Errorf("page %d sheet: %w", p, err)
	}
	c.roundRect(r, pageRadius)
	if err := c.stroke(colorPageBorder, 1); err != nil {
		return fmt.Errorf("page %d border: %w", p, err)
	}

	for y := r.Y + marginSpacing; y < r.Y+r.Height; y += marginSpacing {
		c.dc.DrawLine(marginInset, y, r.Width-marginInset, y)
	}
	if err := c.stroke(colorMarginLine, marginLineWidth); err != nil {
		return fmt.Errorf("page %d margins: %w", p, err)
	}

	label := fmt.Sprintf("Page %d", p+1)
	w := c.measure(label, badgeFontSize) + badgePadding
	badge := geom.Rect{
		X:      r.Width/2 - w/2,
		Y:      r.Y + r.Height - badgeBottom,
		Width:  w,
		Height: badgeHeight,
	}
	c.roundRect(badge, badgeHeight/2)
	if err := c.fill(colorBadgeFill); err != nil {
		return fmt.Errorf("page %d badge: %w", p, err)
	}
	c.text(label, badge.Center(), badgeFontSize, alignCenter, alignCenter, colorBadgeText)
	return nil
}
