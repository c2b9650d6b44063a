// Package assets loads the category images shown in the grid and can
// generate a placeholder set when none is available.
package assets

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Path returns the file holding category i (0-based) under dir.
// Files are numbered from 1: image1.png, image2.png, ...
func Path(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("image%d.png", i+1))
}

// Load decodes the n category images under dir. Images larger than a
// cellW×cellH cell are scaled down to fit, keeping their aspect ratio.
// Any missing or undecodable file is an error.
func Load(dir string, n, cellW, cellH int) ([]image.Image, error) {
	out := make([]image.Image, n)
	for i := range out {
		p := Path(dir, i)
		img, err := imaging.Open(p)
		if err != nil {
			return nil, fmt.Errorf("load category %d image %q: %w", i, p, err)
		}
		b := img.Bounds()
		if b.Dx() > cellW || b.Dy() > cellH {
			img = imaging.Fit(img, cellW, cellH, imaging.Lanczos)
		}
		out[i] = img
	}
	return out, nil
}

type shape func(x, y float64) bool

func disc(x, y float64) bool    { return x*x+y*y <= 0.16 }
func square(x, y float64) bool  { return math.Abs(x) <= 0.35 && math.Abs(y) <= 0.35 }
func diamond(x, y float64) bool { return math.Abs(x)+math.Abs(y) <= 0.45 }

func triangle(x, y float64) bool {
	return y >= -0.4 && y <= 0.4 && math.Abs(x) <= (y+0.4)/2
}

// shapes are tested in the unit square centred on the origin.
var shapes = []shape{disc, square, triangle, diamond}

// Generate writes n placeholder category images of w×h pixels into dir.
// Category i gets its own hue and, for the first four, its own shape.
func Generate(dir string, n, w, h int) error {
	if n <= 0 || w <= 0 || h <= 0 {
		return fmt.Errorf("generate assets: invalid size n=%d %dx%d", n, w, h)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("generate assets: %w", err)
	}

	for i := 0; i < n; i++ {
		fill := colorful.Hsv(float64(i)*360/float64(n), 0.65, 0.95).Clamped()
		img := render(w, h, shapes[i%len(shapes)], fill)
		p := Path(dir, i)
		if err := imaging.Save(img, p); err != nil {
			return fmt.Errorf("save %q: %w", p, err)
		}
	}
	return nil
}

func render(w, h int, in shape, fill colorful.Color) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{})
	r, g, b := fill.RGB255()
	c := color.NRGBA{R: r, G: g, B: b, A: 0xFF}

	side := float64(min(w, h))
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			x := (float64(px) + 0.5 - float64(w)/2) / side
			y := (float64(py) + 0.5 - float64(h)/2) / side
			if in(x, y) {
				img.SetNRGBA(px, py, c)
			}
		}
	}
	return img
}
