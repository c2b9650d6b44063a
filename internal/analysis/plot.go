package analysis

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	xLabel = "Blank screen delay (ms)"
	yLabel = "Success rate"
)

var pointColor = color.RGBA{R: 0xFF, A: 0xFF}

// RenderPlot draws points as a scatter plot of w×h pixels: one red circle
// per delay, a tick at every delay, and the rate axis fixed to [0, 1].
func RenderPlot(points []Point, w, h int) (image.Image, error) {
	if len(points) == 0 {
		return nil, errors.New("render plot: no points")
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render plot: invalid size %dx%d", w, h)
	}

	xys := make(plotter.XYs, len(points))
	ticks := make([]plot.Tick, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Delay)
		xys[i].Y = pt.Rate
		ticks[i] = plot.Tick{Value: float64(pt.Delay), Label: strconv.Itoa(pt.Delay)}
	}

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("render plot: %w", err)
	}
	s.GlyphStyle.Color = pointColor
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(4)

	p := plot.New()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Add(s, plotter.NewGrid())
	p.Y.Min, p.Y.Max = 0, 1

	// Leave room around the outermost delays so their points are not clipped.
	if span := p.X.Max - p.X.Min; span > 0 {
		p.X.Min -= span * 0.05
		p.X.Max += span * 0.05
	}

	c := vgimg.NewWith(vgimg.UseWH(vg.Length(w)*vg.Inch/96, vg.Length(h)*vg.Inch/96), vgimg.UseDPI(96))
	p.Draw(draw.New(c))
	return c.Image(), nil
}

// SavePlot writes img to path; the format follows the extension.
func SavePlot(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save plot %q: %w", path, err)
	}
	return nil
}
