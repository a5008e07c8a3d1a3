package terminal

import "github.com/gdamore/tcell/v2"

// Draw renders the full screen and shows it.
func (h *Host) Draw() {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.screen
	width, height := s.Size()
	s.Clear()
	if width <= 0 || height <= 0 {
		return
	}

	bar := tcell.StyleDefault.Reverse(true)
	fill(s, 0, 0, width, 1, ' ', bar)
	drawText(s, 1, 0, width-2, h.title, bar)

	bodyTop, bodyHeight := 1, height-2
	if bodyHeight < 3 {
		s.Show()
		return
	}

	total := 0
	for _, p := range h.panes {
		total += p.Weight
	}
	x := 0
	for i, p := range h.panes {
		w := width * p.Weight / total
		if i == len(h.panes)-1 {
			w = width - x
		}
		h.drawPane(p, x, bodyTop, w, bodyHeight)
		x += w
	}

	drawText(s, 0, height-1, width, h.status, tcell.StyleDefault.Dim(true))
	s.Show()
}

func (h *Host) drawPane(p *pane, x, y, width, height int) {
	if width < 2 {
		return
	}
	s := h.screen
	right, bottom := x+width-1, y+height-1

	for col := x + 1; col < right; col++ {
		s.SetContent(col, y, tcell.RuneHLine, nil, h.border)
		s.SetContent(col, bottom, tcell.RuneHLine, nil, h.border)
	}
	for row := y + 1; row < bottom; row++ {
		s.SetContent(x, row, tcell.RuneVLine, nil, h.border)
		s.SetContent(right, row, tcell.RuneVLine, nil, h.border)
	}
	s.SetContent(x, y, tcell.RuneULCorner, nil, h.border)
	s.SetContent(right, y, tcell.RuneURCorner, nil, h.border)
	s.SetContent(x, bottom, tcell.RuneLLCorner, nil, h.border)
	s.SetContent(right, bottom, tcell.RuneLRCorner, nil, h.border)
	drawText(s, x+2, y, width-4, " "+p.Name+" ", h.border.Bold(true))

	inner := width - 2
	for i, line := range p.lines(h.render) {
		row := y + 1 + i
		if row >= bottom {
			break
		}
		drawText(s, x+1, row, inner, line, tcell.StyleDefault)
	}
}
