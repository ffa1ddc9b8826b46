package canvas

import (
	"math"
	"slices"
)

// glowStrength scales an element's halo relative to its own opacity
const glowStrength = 0.35

// Element is a retained dot owned by a Layer
// The owner writes its fields every frame, composition reads them
type Element struct {
	layer *Layer

	X, Y    float64
	Size    float64
	Color   RGB
	Opacity float64
	Glow    float64 // halo radius in units, 0 disables
}

// Attached reports whether the element is still in its layer
func (e *Element) Attached() bool {
	return e.layer != nil
}

// Detach removes the element from its layer, returns false if it was already detached
func (e *Element) Detach() bool {
	if e.layer == nil {
		return false
	}
	e.layer.remove(e)
	e.layer = nil
	return true
}

// Layer holds retained elements drawn above every canvas
type Layer struct {
	surface  *Surface
	elements []*Element
}

// Append creates and attaches a new element
func (l *Layer) Append() *Element {
	e := &Element{layer: l}
	l.elements = append(l.elements, e)
	return e
}

// Len returns the number of attached elements
func (l *Layer) Len() int {
	return len(l.elements)
}

// Attached reports whether the layer is mounted on a surface
func (l *Layer) Attached() bool {
	return l.surface != nil
}

// Detach unmounts the layer and every element in it
func (l *Layer) Detach() {
	for _, e := range l.elements {
		e.layer = nil
	}
	l.elements = nil
	if l.surface != nil {
		l.surface.removeLayer(l)
		l.surface = nil
	}
}

func (l *Layer) remove(e *Element) {
	i := slices.Index(l.elements, e)
	if i >= 0 {
		l.elements = slices.Delete(l.elements, i, i+1)
	}
}

// composeInto draws each element as a size-graded glyph with a background halo
func (l *Layer) composeInto(out *Buffer, v Viewport) {
	for _, e := range l.elements {
		opacity := clampUnit(e.Opacity)
		if opacity == 0 {
			continue
		}
		cx, cy, ok := v.ToCell(e.X, e.Y)
		if !ok {
			continue
		}

		if e.Glow > 0 {
			glowInto(out, v, e, opacity)
		}

		cell := out.At(cx, cy)
		if cell == nil {
			continue
		}
		cell.Rune = dotGlyph(e.Size)
		cell.Fg = Blend(cell.Bg, e.Color, opacity)
	}
}

// glowInto tints backgrounds of cells within the halo radius, fading linearly with distance
// The owning cell always receives the halo even when the radius is smaller than a cell
func glowInto(out *Buffer, v Viewport, e *Element, opacity float64) {
	r := e.Glow
	minX := max(0, int(math.Floor((e.X-r)/v.CellW)))
	maxX := min(v.Cols-1, int(math.Floor((e.X+r)/v.CellW)))
	minY := max(0, int(math.Floor((e.Y-r)/v.CellH)))
	maxY := min(v.Rows-1, int(math.Floor((e.Y+r)/v.CellH)))
	ox, oy, _ := v.ToCell(e.X, e.Y)

	for gy := minY; gy <= maxY; gy++ {
		for gx := minX; gx <= maxX; gx++ {
			falloff := 1.0
			if gx != ox || gy != oy {
				px, py := v.CellCenter(gx, gy)
				d := math.Hypot(px-e.X, py-e.Y)
				if d >= r {
					continue
				}
				falloff = 1 - d/r
			}
			if cell := out.At(gx, gy); cell != nil {
				cell.Bg = Blend(cell.Bg, e.Color, opacity*glowStrength*falloff)
			}
		}
	}
}

func dotGlyph(size float64) rune {
	switch {
	case size < 1.5:
		return glyphFaint
	case size < 2.5:
		return glyphSmall
	default:
		return glyphLarge
	}
}
