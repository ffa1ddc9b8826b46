package canvas

// Cell is one composed terminal cell
type Cell struct {
	Rune rune
	Fg   RGB
	Bg   RGB
}

// Buffer is a row-major cell grid: cells[y*width + x]
type Buffer struct {
	cells  []Cell
	width  int
	height int
}

// NewBuffer creates a buffer with the specified dimensions
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Resize adjusts buffer dimensions, reallocates only if capacity is insufficient, content is cleared
func (b *Buffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	size := width * height
	if cap(b.cells) < size {
		b.cells = make([]Cell, size)
	} else {
		b.cells = b.cells[:size]
	}
	b.width = width
	b.height = height
	b.Fill(RGBBlack)
}

// Fill resets every cell to a blank with the given background using exponential copy
func (b *Buffer) Fill(bg RGB) {
	if len(b.cells) == 0 {
		return
	}
	b.cells[0] = Cell{Rune: 0, Fg: bg, Bg: bg}
	for filled := 1; filled < len(b.cells); filled *= 2 {
		copy(b.cells[filled:], b.cells[:filled])
	}
}

// Size returns width and height in cells
func (b *Buffer) Size() (int, int) {
	return b.width, b.height
}

// InBounds reports whether (x, y) addresses a cell
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// At returns the cell at (x, y) or nil when out of bounds
func (b *Buffer) At(x, y int) *Cell {
	if !b.InBounds(x, y) {
		return nil
	}
	return &b.cells[y*b.width+x]
}

// Cells exposes the backing slice for zero-copy export
func (b *Buffer) Cells() []Cell {
	return b.cells
}
