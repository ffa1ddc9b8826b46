package canvas

import "math"

// Default cell geometry in surface units, roughly a terminal glyph at 1:2 aspect
const (
	DefaultCellWidth  = 8.0
	DefaultCellHeight = 16.0
)

// Viewport maps continuous surface units onto the cell grid
type Viewport struct {
	Cols, Rows   int
	CellW, CellH float64
}

// Width returns the surface width in units
func (v Viewport) Width() float64 {
	return float64(v.Cols) * v.CellW
}

// Height returns the surface height in units
func (v Viewport) Height() float64 {
	return float64(v.Rows) * v.CellH
}

// ToCell maps a point in units to its cell, ok is false outside [0, Width] x [0, Height]
// The far edge maps onto the last row/column so clamped positions stay visible
func (v Viewport) ToCell(x, y float64) (cx, cy int, ok bool) {
	if v.Cols <= 0 || v.Rows <= 0 || math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, false
	}
	if x < 0 || y < 0 || x > v.Width() || y > v.Height() {
		return 0, 0, false
	}
	cx = min(int(x/v.CellW), v.Cols-1)
	cy = min(int(y/v.CellH), v.Rows-1)
	return cx, cy, true
}

// CellCenter returns the center of a cell in units
func (v Viewport) CellCenter(cx, cy int) (float64, float64) {
	return (float64(cx) + 0.5) * v.CellW, (float64(cy) + 0.5) * v.CellH
}
