//go:build cgo

package hal

import (
	"errors"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
)

// WindowConfig describes the desktop window.
type WindowConfig struct {
	Title  string
	Width  int
	Height int
	TPS    int
}

// RunWindow opens a desktop window that shows the presented frame and feeds
// keyboard, mouse and close events into the input queue. step is called once
// per tick. It blocks until the window closes or step returns an error;
// ErrDone ends the loop without an error.
func RunWindow(cfg WindowConfig, newApp func(HAL) (func() error, error)) error {
	h := newHostHAL(cfg.Width, cfg.Height, os.Stdout, wallClock{})
	step, err := newApp(h)
	if err != nil {
		return err
	}

	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}
	g := &hostGame{h: h, step: step}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(cfg.TPS)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h     *hostHAL
	fbImg *ebiten.Image
	pix   []byte
	step  func() error
}

func (g *hostGame) Update() error {
	g.h.in.poll()
	if g.step == nil {
		return nil
	}
	if err := g.step(); err != nil {
		if errors.Is(err, ErrDone) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.fbImg == nil {
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
		g.pix = make([]byte, fb.width*fb.height*4)
	}
	fb.snapshot(g.pix)
	g.fbImg.WritePixels(g.pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
