package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/segsim/internal/schelling"
)

// Palette maps cell values to fill colours.
type Palette struct {
	Empty  string
	GroupA string
	GroupB string
}

// DefaultPalette matches the classic white/blue/red colour map.
var DefaultPalette = Palette{Empty: "#ffffff", GroupA: "#1f4fd6", GroupB: "#d62828"}

func (p Palette) color(c schelling.Cell) string {
	switch c {
	case schelling.GroupA:
		return p.GroupA
	case schelling.GroupB:
		return p.GroupB
	default:
		return p.Empty
	}
}

// GridToSVG renders one square of side scale per cell, with an optional title
// line above the grid.
func GridToSVG(g *schelling.Grid, scale float64, title string, p Palette) string {
	if g == nil || g.Size() == 0 {
		return ""
	}

	side := float64(g.Size()) * scale
	top := 0.0
	if title != "" {
		top = 24
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, side, side+top, side, side+top, p.Empty))

	if title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="17" font-family="monospace" font-size="14" text-anchor="middle">%s</text>
`, side/2, escape(title)))
	}

	sb.WriteString(fmt.Sprintf("<g transform=\"translate(0,%.0f)\" shape-rendering=\"crispEdges\">\n", top))
	for r, row := range g.Rows() {
		for c, v := range row {
			if v == schelling.Empty {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(c)*scale, float64(r)*scale, scale, scale, p.color(v)))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
