// Package screen draws the experiment's frames on a hal.Surface: the
// stimulus grid, the feedback highlight, instruction text and the plot.
// Nothing here presents a frame; callers decide when to Present.
package screen

import (
	"image"
	"image/color"
	"math"

	"changeblind/hal"
	"changeblind/internal/config"
	"changeblind/internal/grid"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

const (
	textLeft      = 100
	lineSpacing   = 60
	highlightSize = 0.6
	highlightPen  = 5
)

// Screen renders onto one surface with a fixed layout and palette.
type Screen struct {
	surf   hal.Surface
	layout grid.Layout
	images []image.Image

	bg        color.RGBA
	fg        color.RGBA
	highlight color.RGBA

	font tinyfont.Fonter
}

// New returns a Screen for cfg. images[i] is drawn for category i.
func New(surf hal.Surface, cfg config.Config, images []image.Image) *Screen {
	return &Screen{
		surf:      surf,
		layout:    grid.NewLayout(surf.Width(), surf.Height(), cfg.Grid.Size, cfg.Grid.CellWidth, cfg.Grid.CellHeight),
		images:    images,
		bg:        cfg.Window.BackgroundColor(),
		fg:        cfg.Window.ForegroundColor(),
		highlight: cfg.Window.HighlightColor(),
		font:      &freemono.Regular12pt7b,
	}
}

// Layout is where the grid sits on the surface.
func (s *Screen) Layout() grid.Layout { return s.layout }

// Clear fills the frame with the background color.
func (s *Screen) Clear() { s.surf.Fill(s.bg) }

// Present shows the frame drawn so far.
func (s *Screen) Present() error { return s.surf.Present() }

// Grid clears the frame and draws g, each image centred in its cell.
func (s *Screen) Grid(g grid.Grid) {
	s.Clear()
	for _, c := range g.Cells() {
		cat := g.At(c)
		if cat < 0 || cat >= len(s.images) || s.images[cat] == nil {
			continue
		}
		img := s.images[cat]
		b := img.Bounds()
		r := s.layout.CellRect(c)
		s.surf.Blit(img, r.Min.X+(r.Dx()-b.Dx())/2, r.Min.Y+(r.Dy()-b.Dy())/2)
	}
}

// Highlight outlines c with a circle slightly larger than the cell.
func (s *Screen) Highlight(c grid.Cell) {
	center := s.layout.Center(c)
	radius := int(math.Round(float64(max(s.layout.CellW, s.layout.CellH)) * highlightSize))
	s.Circle(center, radius, highlightPen, s.highlight)
}

// Circle draws a ring of the given outer radius and pen width. The pen grows
// inwards from radius; a width of 0 fills the disc.
func (s *Screen) Circle(center image.Point, radius, width int, c color.RGBA) {
	if radius <= 0 {
		return
	}
	outer := float64(radius)
	inner := 0.0
	if width > 0 && width < radius {
		inner = float64(radius - width)
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := math.Hypot(float64(dx), float64(dy))
			if d <= outer && d >= inner {
				s.surf.SetPixel(center.X+dx, center.Y+dy, c)
			}
		}
	}
}

// Lines clears the frame and writes texts one per line, vertically centred
// around the middle of the surface.
func (s *Screen) Lines(texts []string) {
	s.Clear()
	d := &surfaceDisplayer{surf: s.surf}
	// Floor division: with n lines the first sits ceil(n/2) lines above the middle.
	first := -(len(texts) + 1) / 2
	for i, text := range texts {
		y := s.surf.Height()/2 + lineSpacing*(first+i)
		tinyfont.WriteLine(d, s.font, textLeft, int16(y)+int16(s.font.GetYAdvance()), text, s.fg)
	}
}

// Image clears the frame and draws img centred on the surface.
func (s *Screen) Image(img image.Image) {
	s.Clear()
	if img == nil {
		return
	}
	b := img.Bounds()
	s.surf.Blit(img, (s.surf.Width()-b.Dx())/2, (s.surf.Height()-b.Dy())/2)
}

// surfaceDisplayer lets tinyfont draw on a hal.Surface.
type surfaceDisplayer struct {
	surf hal.Surface
}

var _ drivers.Displayer = (*surfaceDisplayer)(nil)

func (d *surfaceDisplayer) Size() (x, y int16) {
	return int16(d.surf.Width()), int16(d.surf.Height())
}

func (d *surfaceDisplayer) SetPixel(x, y int16, c color.RGBA) {
	d.surf.SetPixel(int(x), int(y), c)
}

func (d *surfaceDisplayer) Display() error { return nil }
