package hal

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// hostFramebuffer double-buffers RGBA frames: drawing goes to back,
// Present copies it to front, and the window only ever shows front.
type hostFramebuffer struct {
	mu       sync.Mutex
	width    int
	height   int
	back     *image.RGBA
	front    *image.RGBA
	presents int
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	r := image.Rect(0, 0, width, height)
	return &hostFramebuffer{
		width:  width,
		height: height,
		back:   image.NewRGBA(r),
		front:  image.NewRGBA(r),
	}
}

func (f *hostFramebuffer) Width() int  { return f.width }
func (f *hostFramebuffer) Height() int { return f.height }

func (f *hostFramebuffer) Fill(c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pix := f.back.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i+0] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}

func (f *hostFramebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	f.mu.Lock()
	f.back.SetRGBA(x, y, c)
	f.mu.Unlock()
}

// Blit draws img with its top-left corner at (x, y), alpha-blended over
// whatever is already in the back buffer.
func (f *hostFramebuffer) Blit(img image.Image, x, y int) {
	if img == nil {
		return
	}
	b := img.Bounds()
	dst := image.Rect(x, y, x+b.Dx(), y+b.Dy())

	f.mu.Lock()
	defer f.mu.Unlock()
	draw.Draw(f.back, dst, img, b.Min, draw.Over)
}

func (f *hostFramebuffer) Present() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(f.front.Pix, f.back.Pix)
	f.presents++
	return nil
}

// snapshot copies the presented frame into dst.
func (f *hostFramebuffer) snapshot(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.front.Pix)
}

// frame returns a copy of the presented frame and the number of presents so far.
func (f *hostFramebuffer) frame() (*image.RGBA, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img := image.NewRGBA(f.front.Rect)
	copy(img.Pix, f.front.Pix)
	return img, f.presents
}
