package hal

import (
	"errors"
	"image"
	"image/color"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	// ErrQuit is returned by a step function when the user closed the window.
	// Hosts stop immediately; nothing is flushed on the way out.
	ErrQuit = errors.New("quit")

	// ErrDone is returned by a step function that has nothing left to show.
	ErrDone = errors.New("done")
)

// Surface is a frame being drawn plus a "present" hook.
//
// Drawing calls only touch the back buffer; Present makes it the visible frame.
type Surface interface {
	Width() int
	Height() int
	Fill(c color.RGBA)
	SetPixel(x, y int, c color.RGBA)
	Blit(img image.Image, x, y int)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeySpace
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// PointerButton identifies a mouse button.
type PointerButton uint8

const (
	ButtonLeft PointerButton = iota
	ButtonMiddle
	ButtonRight
)

// EventKind tags an Event.
type EventKind uint8

const (
	EventQuit EventKind = iota + 1
	EventKeyDown
	EventPointerDown
)

func (k EventKind) String() string {
	switch k {
	case EventQuit:
		return "quit"
	case EventKeyDown:
		return "key-down"
	case EventPointerDown:
		return "pointer-down"
	default:
		return "unknown"
	}
}

// Event is one entry of the polled input queue.
//
// Key is set for EventKeyDown; X, Y and Button for EventPointerDown.
type Event struct {
	Kind   EventKind
	Key    KeyCode
	X, Y   int
	Button PointerButton
}

// Input is a polled event queue.
type Input interface {
	// PollEvent returns the oldest pending event, or false when none is queued.
	PollEvent() (Event, bool)
}

// Clock is the time source state machines measure against.
type Clock interface {
	Now() time.Time
}

// HAL provides the only contact point between the experiment and the outside world.
type HAL interface {
	Logger() Logger
	Display() Surface
	Input() Input
	Clock() Clock
}

// Drain empties in and returns every pending event in arrival order.
func Drain(in Input) []Event {
	if in == nil {
		return nil
	}
	var evs []Event
	for {
		ev, ok := in.PollEvent()
		if !ok {
			return evs
		}
		evs = append(evs, ev)
	}
}

// HasQuit reports whether evs contains a quit event.
func HasQuit(evs []Event) bool {
	for _, ev := range evs {
		if ev.Kind == EventQuit {
			return true
		}
	}
	return false
}
