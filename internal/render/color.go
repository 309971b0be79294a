package render

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg"
)

// Palette used by chrome, elements and overlays.
var (
	colorAccent      = gg.Hex("#6366f1")
	colorAccentLight = gg.Hex("#818cf8")
	colorLasso       = gg.Hex("#a78bfa")
	colorLabel       = gg.Hex("#e8e8ed")
	colorPage        = gg.Hex("#181c2a")
	colorBackground  = gg.Hex("#0f1117")

	colorBoxFill     = rgba(99, 102, 241, 0.08)
	colorBoxFillDrag = rgba(99, 102, 241, 0.14)
	colorPageShadow  = rgba(0, 0, 0, 0.3)
	colorPageBorder  = rgba(99, 102, 241, 0.15)
	colorMarginLine  = rgba(99, 102, 241, 0.04)
	colorBadgeFill   = rgba(99, 102, 241, 0.08)
	colorBadgeText   = rgba(148, 163, 184, 0.4)
	colorImageBorder = rgba(99, 102, 241, 0.2)
	colorEraser      = rgba(255, 255, 255, 0.5)
)

// laserColor is the remote laser red at alpha a.
func laserColor(a float64) gg.RGBA {
	return rgba(239, 68, 68, a)
}

func rgba(r, g, b int, a float64) gg.RGBA {
	return gg.RGBA{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: a}
}

func withAlpha(c gg.RGBA, a float64) gg.RGBA {
	c.A *= a
	return c
}

// ParseColor accepts the color strings strokes and elements carry: hex
// (#rgb, #rrggbb, #rrggbbaa) and rgb()/rgba() functional notation.
// Unparseable input falls back to fallback.
func ParseColor(s string, fallback gg.RGBA) gg.RGBA {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return fallback
	case strings.HasPrefix(s, "#"):
		return gg.Hex(s)
	case strings.HasPrefix(s, "rgba("):
		var r, g, b int
		var a float64
		if _, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "rgba(%d,%d,%d,%g)", &r, &g, &b, &a); err == nil {
			return rgba(r, g, b, a)
		}
	case strings.HasPrefix(s, "rgb("):
		var r, g, b int
		if _, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "rgb(%d,%d,%d)", &r, &g, &b); err == nil {
			return rgba(r, g, b, 1)
		}
	}
	return fallback
}
