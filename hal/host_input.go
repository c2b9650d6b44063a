//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var pointerButtons = [...]struct {
	eb  ebiten.MouseButton
	btn PointerButton
}{
	{ebiten.MouseButtonLeft, ButtonLeft},
	{ebiten.MouseButtonMiddle, ButtonMiddle},
	{ebiten.MouseButtonRight, ButtonRight},
}

// poll turns this tick's ebiten input state into queued events.
func (in *hostInput) poll() {
	if ebiten.IsWindowBeingClosed() {
		in.emit(Event{Kind: EventQuit})
	}

	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		in.emit(Event{Kind: EventKeyDown, Key: keyCode(k)})
	}

	for _, b := range pointerButtons {
		if !inpututil.IsMouseButtonJustPressed(b.eb) {
			continue
		}
		x, y := ebiten.CursorPosition()
		in.emit(Event{Kind: EventPointerDown, X: x, Y: y, Button: b.btn})
	}
}

func keyCode(k ebiten.Key) KeyCode {
	switch k {
	case ebiten.KeySpace:
		return KeySpace
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return KeyEnter
	case ebiten.KeyEscape:
		return KeyEscape
	case ebiten.KeyBackspace:
		return KeyBackspace
	case ebiten.KeyTab:
		return KeyTab
	case ebiten.KeyArrowUp:
		return KeyUp
	case ebiten.KeyArrowDown:
		return KeyDown
	case ebiten.KeyArrowLeft:
		return KeyLeft
	case ebiten.KeyArrowRight:
		return KeyRight
	default:
		return KeyUnknown
	}
}
