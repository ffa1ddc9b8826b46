package canvas

import "github.com/gdamore/tcell/v2"

// Presenter flushes composed buffers to a tcell screen
type Presenter struct {
	screen tcell.Screen
}

// NewPresenter wraps an initialized screen
func NewPresenter(screen tcell.Screen) *Presenter {
	return &Presenter{screen: screen}
}

// Present writes every cell and shows the frame
// Cells outside the current screen size are skipped, the next resize realigns them
func (p *Presenter) Present(buf *Buffer) {
	sw, sh := p.screen.Size()
	w, h := buf.Size()
	cells := buf.Cells()

	for y := 0; y < h && y < sh; y++ {
		row := cells[y*w : (y+1)*w]
		for x := 0; x < w && x < sw; x++ {
			c := &row[x]
			r := c.Rune
			if r == 0 {
				r = ' '
			}
			style := tcell.StyleDefault.
				Foreground(toTcell(c.Fg)).
				Background(toTcell(c.Bg))
			p.screen.SetContent(x, y, r, nil, style)
		}
	}
	p.screen.Show()
}

func toTcell(c RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
