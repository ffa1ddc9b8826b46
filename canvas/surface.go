package canvas

import "slices"

// Surface is the mount point effects draw into
// Canvases compose first in attach order, layers on top
// Not safe for concurrent use, drive it from the scheduler goroutine
type Surface struct {
	view       Viewport
	background RGB

	canvases []*Canvas
	layers   []*Layer
	out      *Buffer
}

// NewSurface creates a surface of cols x rows cells, each cellW x cellH units
func NewSurface(cols, rows int, cellW, cellH float64, background RGB) *Surface {
	if cellW <= 0 {
		cellW = DefaultCellWidth
	}
	if cellH <= 0 {
		cellH = DefaultCellHeight
	}
	return &Surface{
		view:       Viewport{Cols: cols, Rows: rows, CellW: cellW, CellH: cellH},
		background: background,
		out:        NewBuffer(cols, rows),
	}
}

// Viewport returns the current cell mapping
func (s *Surface) Viewport() Viewport {
	return s.view
}

// Size returns width and height in units
func (s *Surface) Size() (float64, float64) {
	return s.view.Width(), s.view.Height()
}

// Background returns the base color painted under every canvas
func (s *Surface) Background() RGB {
	return s.background
}

// Resize changes the grid, every attached canvas is reallocated and loses its content
func (s *Surface) Resize(cols, rows int) {
	s.view.Cols = cols
	s.view.Rows = rows
	s.out.Resize(cols, rows)
	for _, c := range s.canvases {
		c.resize(cols, rows)
	}
}

// NewCanvas attaches a transparent canvas composed at the given opacity
func (s *Surface) NewCanvas(opacity float64) *Canvas {
	c := &Canvas{
		surface: s,
		opacity: clampUnit(opacity),
	}
	c.resize(s.view.Cols, s.view.Rows)
	s.canvases = append(s.canvases, c)
	return c
}

// NewLayer attaches an empty element layer
func (s *Surface) NewLayer() *Layer {
	l := &Layer{surface: s}
	s.layers = append(s.layers, l)
	return l
}

// Canvases returns the number of attached canvases
func (s *Surface) Canvases() int {
	return len(s.canvases)
}

// Layers returns the number of attached layers
func (s *Surface) Layers() int {
	return len(s.layers)
}

func (s *Surface) removeCanvas(c *Canvas) bool {
	i := slices.Index(s.canvases, c)
	if i < 0 {
		return false
	}
	s.canvases = slices.Delete(s.canvases, i, i+1)
	return true
}

func (s *Surface) removeLayer(l *Layer) bool {
	i := slices.Index(s.layers, l)
	if i < 0 {
		return false
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	return true
}

// Compose paints background, canvases and layers into the output buffer and returns it
// The returned buffer is reused by the next Compose
func (s *Surface) Compose() *Buffer {
	s.out.Fill(s.background)
	for _, c := range s.canvases {
		c.composeInto(s.out)
	}
	for _, l := range s.layers {
		l.composeInto(s.out, s.view)
	}
	return s.out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
