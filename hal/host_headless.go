package hal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Width  int
	Height int
	Hz     int
	// Ticks stops the run after N ticks (0 = run until the app is done).
	Ticks uint64
	// Realtime paces ticks with a wall-clock ticker; otherwise the virtual
	// clock jumps one tick per step and the run goes as fast as it can.
	Realtime bool
	Start    time.Time
	LogTo    io.Writer
	// Script is called before every step and may Push input events.
	Script func(h *Headless, tick uint64)
}

// Headless is a HAL without a window: a framebuffer, a scripted input queue
// and a virtual clock that only moves when told to.
type Headless struct {
	*hostHAL
	clock *virtualClock
}

// NewHeadless returns a headless HAL whose clock reads start.
func NewHeadless(width, height int, start time.Time, logTo io.Writer) *Headless {
	if start.IsZero() {
		start = time.Unix(0, 0)
	}
	clock := &virtualClock{now: start}
	return &Headless{
		hostHAL: newHostHAL(width, height, logTo, clock),
		clock:   clock,
	}
}

// Push queues an input event.
func (h *Headless) Push(ev Event) { h.in.emit(ev) }

// Advance moves the virtual clock forward by d.
func (h *Headless) Advance(d time.Duration) { h.clock.advance(d) }

// Frame returns a copy of the last presented frame and how many frames were presented.
func (h *Headless) Frame() (*image.RGBA, int) { return h.fb.frame() }

// RunHeadless runs the app without opening a window.
func RunHeadless(ctx context.Context, newApp func(HAL) (func() error, error), cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := NewHeadless(cfg.Width, cfg.Height, cfg.Start, cfg.LogTo)
	step, err := newApp(h)
	if err != nil {
		return err
	}

	var pace <-chan time.Time
	if cfg.Realtime {
		t := time.NewTicker(d)
		defer t.Stop()
		pace = t.C
	}

	var tick uint64
	for {
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		h.Advance(d)
		tick++
		if cfg.Script != nil {
			cfg.Script(h, tick)
		}
		if step != nil {
			if err := step(); err != nil {
				if errors.Is(err, ErrDone) {
					return nil
				}
				return err
			}
		}
		if cfg.Ticks > 0 && tick >= cfg.Ticks {
			return nil
		}
	}
}

type virtualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *virtualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
