package grid

import "image"

// Layout places a size×size grid of cellW×cellH cells centred on a screen.
type Layout struct {
	Origin image.Point
	Size   int
	CellW  int
	CellH  int
}

// NewLayout centres the grid on a screenW×screenH surface.
func NewLayout(screenW, screenH, size, cellW, cellH int) Layout {
	return Layout{
		Origin: image.Pt(screenW/2-size*cellW/2, screenH/2-size*cellH/2),
		Size:   size,
		CellW:  cellW,
		CellH:  cellH,
	}
}

// Bounds is the grid's bounding box in pixels (max exclusive).
func (l Layout) Bounds() image.Rectangle {
	return image.Rectangle{
		Min: l.Origin,
		Max: l.Origin.Add(image.Pt(l.Size*l.CellW, l.Size*l.CellH)),
	}
}

// CellRect is the pixel rectangle of c.
func (l Layout) CellRect(c Cell) image.Rectangle {
	tl := l.Origin.Add(image.Pt(c.Col*l.CellW, c.Row*l.CellH))
	return image.Rectangle{Min: tl, Max: tl.Add(image.Pt(l.CellW, l.CellH))}
}

// Center is the pixel at the middle of c.
func (l Layout) Center(c Cell) image.Point {
	return l.Origin.Add(image.Pt(c.Col*l.CellW+l.CellW/2, c.Row*l.CellH+l.CellH/2))
}

// CellAt maps a pixel to the cell containing it. Pixels outside the grid's
// bounding box map to no cell.
func (l Layout) CellAt(x, y int) (Cell, bool) {
	if !image.Pt(x, y).In(l.Bounds()) {
		return Cell{}, false
	}
	return Cell{
		Row: (y - l.Origin.Y) / l.CellH,
		Col: (x - l.Origin.X) / l.CellW,
	}, true
}
