package hal

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type hostHAL struct {
	logger *hostLogger
	fb     *hostFramebuffer
	in     *hostInput
	clock  Clock
}

func newHostHAL(width, height int, logTo io.Writer, clock Clock) *hostHAL {
	if logTo == nil {
		logTo = io.Discard
	}
	return &hostHAL{
		logger: &hostLogger{w: logTo},
		fb:     newHostFramebuffer(width, height),
		in:     newHostInput(),
		clock:  clock,
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Surface { return h.fb }
func (h *hostHAL) Input() Input     { return h.in }
func (h *hostHAL) Clock() Clock     { return h.clock }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// hostInput is the polled event queue shared by every host.
// Events beyond its capacity are dropped.
type hostInput struct {
	ch chan Event
}

func newHostInput() *hostInput {
	return &hostInput{ch: make(chan Event, 64)}
}

func (in *hostInput) PollEvent() (Event, bool) {
	select {
	case ev := <-in.ch:
		return ev, true
	default:
		return Event{}, false
	}
}

func (in *hostInput) emit(ev Event) {
	select {
	case in.ch <- ev:
	default:
	}
}
