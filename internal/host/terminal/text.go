package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Truncate shortens s to at most width display cells, ending with an
// ellipsis when anything was cut. Grapheme clusters are never split.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}

	limit := width - uniseg.StringWidth(Ellipsis)
	end, used := 0, 0
	rest, state := s, -1
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > limit {
			break
		}
		used += w
		end += len(cluster)
	}
	return s[:end] + Ellipsis
}

// drawText writes s at (x, y) clipped to width cells and returns the number
// of cells used.
func drawText(screen tcell.Screen, x, y, width int, s string, style tcell.Style) int {
	s = Truncate(s, width)
	used := 0
	rest, state := s, -1
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		runes := []rune(cluster)
		screen.SetContent(x+used, y, runes[0], runes[1:], style)
		used += w
	}
	return used
}

// fill paints a rectangle with r.
func fill(screen tcell.Screen, x, y, width, height int, r rune, style tcell.Style) {
	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, r, nil, style)
		}
	}
}
