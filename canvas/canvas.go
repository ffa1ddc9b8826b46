package canvas

import (
	"math"

	"github.com/pkg/errors"
)

// ErrDetached is returned by drawing operations on a canvas removed from its surface
var ErrDetached = errors.New("canvas: detached from surface")

// Paint is one canvas cell: a glyph with its own coverage over a background with coverage
// Zero value is fully transparent
type Paint struct {
	Rune rune
	Fg   RGB
	FgA  float64
	Bg   RGB
	BgA  float64
}

// Stroke describes a line
type Stroke struct {
	Color RGB
	Alpha float64
	Width float64
}

// glyph thresholds for sub-cell shapes
const (
	glyphFaint = '·'
	glyphSmall = '•'
	glyphLarge = '●'

	fgCutoff = 0.02
)

// Canvas is a retained drawing buffer composed onto its surface at a fixed opacity
// Drawing persists between frames until overdrawn, washed or cleared
type Canvas struct {
	surface *Surface
	opacity float64
	cells   []Paint
	cols    int
	rows    int
}

// Attached reports whether the canvas is still mounted
func (c *Canvas) Attached() bool {
	return c.surface != nil
}

// Detach unmounts the canvas, later drawing returns ErrDetached
func (c *Canvas) Detach() {
	if c.surface == nil {
		return
	}
	c.surface.removeCanvas(c)
	c.surface = nil
}

// Size returns the drawable area in units, zero when detached
func (c *Canvas) Size() (float64, float64) {
	if c.surface == nil {
		return 0, 0
	}
	return c.surface.Size()
}

// Opacity returns the composition opacity
func (c *Canvas) Opacity() float64 {
	return c.opacity
}

// SetOpacity changes the composition opacity, clamped to [0, 1]
func (c *Canvas) SetOpacity(v float64) {
	c.opacity = clampUnit(v)
}

// At returns the paint at cell (cx, cy)
func (c *Canvas) At(cx, cy int) (Paint, bool) {
	if cx < 0 || cy < 0 || cx >= c.cols || cy >= c.rows {
		return Paint{}, false
	}
	return c.cells[cy*c.cols+cx], true
}

func (c *Canvas) resize(cols, rows int) {
	size := cols * rows
	if size < 0 {
		size = 0
	}
	if cap(c.cells) < size {
		c.cells = make([]Paint, size)
	} else {
		c.cells = c.cells[:size]
		clear(c.cells)
	}
	c.cols = cols
	c.rows = rows
}

func (c *Canvas) view() (Viewport, error) {
	if c.surface == nil {
		return Viewport{}, ErrDetached
	}
	return c.surface.view, nil
}

func (c *Canvas) cell(cx, cy int) *Paint {
	if cx < 0 || cy < 0 || cx >= c.cols || cy >= c.rows {
		return nil
	}
	return &c.cells[cy*c.cols+cx]
}

// Clear makes every cell transparent
func (c *Canvas) Clear() error {
	if c.surface == nil {
		return ErrDetached
	}
	clear(c.cells)
	return nil
}

// FillRect washes the rectangle with color at alpha
// Glyphs underneath lose coverage and vanish once nearly invisible
func (c *Canvas) FillRect(x, y, w, h float64, color RGB, alpha float64) error {
	v, err := c.view()
	if err != nil {
		return err
	}
	alpha = clampUnit(alpha)
	if alpha == 0 || w <= 0 || h <= 0 {
		return nil
	}

	x0 := max(0, int(math.Floor(x/v.CellW)))
	y0 := max(0, int(math.Floor(y/v.CellH)))
	x1 := min(c.cols, int(math.Ceil((x+w)/v.CellW)))
	y1 := min(c.rows, int(math.Ceil((y+h)/v.CellH)))

	for cy := y0; cy < y1; cy++ {
		row := c.cells[cy*c.cols : (cy+1)*c.cols]
		for cx := x0; cx < x1; cx++ {
			p := &row[cx]
			paintBg(p, color, alpha)
			if p.Rune != 0 {
				p.FgA *= 1 - alpha
				if p.FgA < fgCutoff {
					p.Rune = 0
					p.FgA = 0
				}
			}
		}
	}
	return nil
}

// FillText draws a single glyph at (x, y), points outside the canvas are ignored
func (c *Canvas) FillText(x, y float64, r rune, color RGB) error {
	v, err := c.view()
	if err != nil {
		return err
	}
	cx, cy, ok := v.ToCell(x, y)
	if !ok {
		return nil
	}
	p := c.cell(cx, cy)
	if p == nil {
		return nil
	}
	p.Rune = r
	p.Fg = color
	p.FgA = 1
	return nil
}

// StrokeLine rasterizes a line between two points with Bresenham over cells
func (c *Canvas) StrokeLine(x0, y0, x1, y1 float64, st Stroke) error {
	v, err := c.view()
	if err != nil {
		return err
	}
	alpha := clampUnit(st.Alpha)
	if alpha == 0 || st.Width <= 0 {
		return nil
	}

	glyph := glyphFaint
	if st.Width >= 1.5 {
		glyph = glyphSmall
	}

	ax, ay := int(math.Floor(x0/v.CellW)), int(math.Floor(y0/v.CellH))
	bx, by := int(math.Floor(x1/v.CellW)), int(math.Floor(y1/v.CellH))

	dx := abs(bx - ax)
	dy := -abs(by - ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	e := dx + dy

	for {
		if p := c.cell(ax, ay); p != nil {
			paintFg(p, glyph, st.Color, alpha)
		}
		if ax == bx && ay == by {
			break
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ax += sx
		}
		if e2 <= dx {
			e += dx
			ay += sy
		}
	}
	return nil
}

// FillCircle fills a disc of radius r
// Discs smaller than a cell collapse to a glyph sized by covered area
func (c *Canvas) FillCircle(cx, cy, r float64, color RGB, alpha float64) error {
	v, err := c.view()
	if err != nil {
		return err
	}
	alpha = clampUnit(alpha)
	if r <= 0 || alpha == 0 || math.IsNaN(r) {
		return nil
	}

	coverage := math.Pi * r * r / (v.CellW * v.CellH)
	if coverage < 1 {
		gx, gy, ok := v.ToCell(cx, cy)
		if !ok {
			return nil
		}
		p := c.cell(gx, gy)
		if p == nil {
			return nil
		}
		glyph := glyphLarge
		switch {
		case coverage < 0.15:
			glyph = glyphFaint
		case coverage < 0.5:
			glyph = glyphSmall
		}
		paintFg(p, glyph, color, alpha)
		paintBg(p, color, alpha*coverage)
		return nil
	}

	minX := max(0, int(math.Floor((cx-r)/v.CellW)))
	maxX := min(c.cols-1, int(math.Floor((cx+r)/v.CellW)))
	minY := max(0, int(math.Floor((cy-r)/v.CellH)))
	maxY := min(c.rows-1, int(math.Floor((cy+r)/v.CellH)))
	r2 := r * r

	for gy := minY; gy <= maxY; gy++ {
		for gx := minX; gx <= maxX; gx++ {
			px, py := v.CellCenter(gx, gy)
			ddx, ddy := px-cx, py-cy
			if ddx*ddx+ddy*ddy > r2 {
				continue
			}
			paintBg(&c.cells[gy*c.cols+gx], color, alpha)
		}
	}
	return nil
}

// composeInto blends the canvas over out at the canvas opacity
func (c *Canvas) composeInto(out *Buffer) {
	if c.opacity == 0 {
		return
	}
	dst := out.Cells()
	n := min(len(dst), len(c.cells))
	for i := 0; i < n; i++ {
		p := &c.cells[i]
		o := &dst[i]
		if p.BgA > 0 {
			o.Bg = Blend(o.Bg, p.Bg, p.BgA*c.opacity)
		}
		if p.Rune != 0 && p.FgA > 0 {
			o.Rune = p.Rune
			o.Fg = Blend(o.Bg, p.Fg, p.FgA*c.opacity)
		}
	}
}

// paintBg applies source-over compositing to the background channel
func paintBg(p *Paint, color RGB, alpha float64) {
	na := alpha + p.BgA*(1-alpha)
	if na <= 0 {
		return
	}
	p.Bg = Blend(p.Bg, color, alpha/na)
	p.BgA = na
}

// paintFg applies source-over compositing to the glyph channel and replaces the glyph
func paintFg(p *Paint, r rune, color RGB, alpha float64) {
	na := alpha + p.FgA*(1-alpha)
	if na <= 0 {
		return
	}
	p.Fg = Blend(p.Fg, color, alpha/na)
	p.FgA = na
	p.Rune = r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
