package trial

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
	"time"

	"changeblind/hal"
	"changeblind/internal/config"
	"changeblind/internal/grid"
	"changeblind/internal/screen"
)

var t0 = time.Unix(1000, 0)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func newRunner(t *testing.T) (*hal.Headless, *Runner, config.Config) {
	t.Helper()
	cfg := config.Default()
	h := hal.NewHeadless(cfg.Window.Width, cfg.Window.Height, t0, nil)
	imgs := make([]image.Image, cfg.Grid.Categories)
	for i := range imgs {
		img := image.NewRGBA(image.Rect(0, 0, 40, 50))
		c := color.RGBA{R: uint8(60 * (i + 1)), G: uint8(30 * i), B: 200, A: 0xFF}
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = c.R, c.G, c.B, c.A
		}
		imgs[i] = img
	}
	scr := screen.New(h.Display(), cfg, imgs)
	return h, NewRunner(cfg, scr, rand.New(rand.NewPCG(7, 11))), cfg
}

func step(t *testing.T, r *Runner, at time.Duration, evs ...hal.Event) bool {
	t.Helper()
	done, err := r.Step(t0.Add(at), evs)
	if err != nil {
		t.Fatalf("Step(+%v): %v", at, err)
	}
	return done
}

func start(t *testing.T, r *Runner, delay int) {
	t.Helper()
	if err := r.Start(t0, delay); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if r.State() != ShowGrid {
		t.Fatalf("state after Start = %v; want %v", r.State(), ShowGrid)
	}
}

// reachResponse drives a trial with the given delay until the mutated grid
// is on screen, which happens at +2000ms+delay.
func reachResponse(t *testing.T, r *Runner, delay int) time.Duration {
	t.Helper()
	start(t, r, delay)
	if step(t, r, ms(1999)) || r.State() != ShowGrid {
		t.Fatalf("left ShowGrid early: %v", r.State())
	}
	step(t, r, ms(2000))
	if delay > 0 {
		if r.State() != Blank {
			t.Fatalf("state at +2000ms = %v; want %v", r.State(), Blank)
		}
		step(t, r, ms(2000+delay))
	}
	if r.State() != AwaitResponse {
		t.Fatalf("state at +%dms = %v; want %v", 2000+delay, r.State(), AwaitResponse)
	}
	return ms(2000 + delay)
}

func clickAt(p image.Point) hal.Event {
	return hal.Event{Kind: hal.EventPointerDown, X: p.X, Y: p.Y, Button: hal.ButtonLeft}
}

func TestClickOnChangedCellSucceeds(t *testing.T) {
	h, r, _ := newRunner(t)
	shown := reachResponse(t, r, 50)

	target := screenLayout(r).Center(r.Mutation().Cell)
	if !step(t, r, shown+ms(300), clickAt(target)) {
		t.Fatalf("not done after a correct click; state %v", r.State())
	}
	res := r.Result()
	if !res.Success || res.Latency != 300 || res.Delay != 50 || res.Response != Click {
		t.Fatalf("result = %+v; want success, 300ms latency, 50ms delay", res)
	}
	if !res.HasSelection || res.Selected != r.Mutation().Cell {
		t.Fatalf("selected %v (%t); want %v", res.Selected, res.HasSelection, r.Mutation().Cell)
	}
	if rec := res.Record(); rec.Delay != 50 || !rec.Success || rec.Latency != 300 {
		t.Fatalf("Record() = %+v", rec)
	}
	// grid, blank, mutated grid; no feedback frame on success.
	if _, n := h.Frame(); n != 3 {
		t.Fatalf("presented %d frames; want 3", n)
	}
}

func TestWrongCellShowsFeedback(t *testing.T) {
	h, r, cfg := newRunner(t)
	shown := reachResponse(t, r, 25)

	m := r.Mutation().Cell
	wrong := grid.Cell{Row: (m.Row + 1) % cfg.Grid.Size, Col: m.Col}
	if step(t, r, shown+ms(120), clickAt(screenLayout(r).Center(wrong))) {
		t.Fatal("done before feedback")
	}
	if r.State() != Feedback {
		t.Fatalf("state = %v; want %v", r.State(), Feedback)
	}

	frame, _ := h.Frame()
	c := screenLayout(r).Center(m)
	// The ring passes 40px right of the centre (radius 42, pen 5).
	if got := frame.RGBAAt(c.X+40, c.Y); got != cfg.Window.HighlightColor() {
		t.Fatalf("no highlight around %v: got %v", m, got)
	}

	if step(t, r, shown+ms(120)+ms(999)) {
		t.Fatal("feedback ended early")
	}
	if !step(t, r, shown+ms(120)+ms(1000)) {
		t.Fatal("feedback did not end after 1000ms")
	}
	res := r.Result()
	if res.Success || res.Latency != 120 || !res.HasSelection || res.Selected != wrong {
		t.Fatalf("result = %+v", res)
	}
}

func TestSpaceSkips(t *testing.T) {
	_, r, _ := newRunner(t)
	shown := reachResponse(t, r, 100)

	// Other keys are ignored.
	step(t, r, shown+ms(50), hal.Event{Kind: hal.EventKeyDown, Key: hal.KeyEnter})
	if r.State() != AwaitResponse {
		t.Fatalf("enter changed state to %v", r.State())
	}
	step(t, r, shown+ms(800), hal.Event{Kind: hal.EventKeyDown, Key: hal.KeySpace})
	res := r.Result()
	if res.Success || res.Response != Skip || res.Latency != 800 || res.HasSelection {
		t.Fatalf("result = %+v; want a failed skip after 800ms", res)
	}
}

func TestTimeout(t *testing.T) {
	_, r, _ := newRunner(t)
	shown := reachResponse(t, r, 75)

	step(t, r, shown+ms(4999))
	if r.State() != AwaitResponse {
		t.Fatalf("timed out early: %v", r.State())
	}
	// A click in the same tick as the deadline loses to the timeout.
	target := screenLayout(r).Center(r.Mutation().Cell)
	step(t, r, shown+ms(5000), clickAt(target))
	res := r.Result()
	if res.Success || res.Response != Timeout || res.Latency != 5000 {
		t.Fatalf("result = %+v; want a failed timeout with 5000ms latency", res)
	}
	if r.State() != Feedback {
		t.Fatalf("state = %v; want %v", r.State(), Feedback)
	}
}

func TestClickOutsideGridFails(t *testing.T) {
	_, r, _ := newRunner(t)
	shown := reachResponse(t, r, 0)

	b := screenLayout(r).Bounds()
	step(t, r, shown+ms(10), clickAt(image.Pt(b.Min.X-1, b.Min.Y+5)))
	res := r.Result()
	if res.Success || res.HasSelection || res.Response != Click {
		t.Fatalf("result = %+v; want a failed click with no selection", res)
	}
}

func TestZeroDelayNeverPresentsBlank(t *testing.T) {
	h, r, _ := newRunner(t)
	reachResponse(t, r, 0)
	if _, n := h.Frame(); n != 2 {
		t.Fatalf("presented %d frames; want grid and mutated grid only", n)
	}
}

func TestEventsOfMutationTickIgnored(t *testing.T) {
	_, r, _ := newRunner(t)
	start(t, r, 0)
	target := screenLayout(r).Center(r.Mutation().Cell)

	step(t, r, ms(2000), clickAt(target))
	if r.State() != AwaitResponse {
		t.Fatalf("click in the mutation tick was scored: state %v", r.State())
	}
	if !step(t, r, ms(2016), clickAt(target)) {
		t.Fatal("click after the mutation tick was not scored")
	}
	if res := r.Result(); !res.Success || res.Latency != 16 {
		t.Fatalf("result = %+v", res)
	}
}

func TestIdleAndDoneAreStable(t *testing.T) {
	_, r, _ := newRunner(t)
	if done := step(t, r, 0); done || r.State() != Idle {
		t.Fatalf("idle runner moved: %v", r.State())
	}

	shown := reachResponse(t, r, 0)
	step(t, r, shown+ms(1), clickAt(screenLayout(r).Center(r.Mutation().Cell)))
	for i := 0; i < 3; i++ {
		if !step(t, r, shown+ms(100*i)) {
			t.Fatal("done runner reported not done")
		}
	}
}

func TestStartRejectsNegativeDelay(t *testing.T) {
	_, r, _ := newRunner(t)
	if err := r.Start(t0, -1); err == nil {
		t.Fatal("Start accepted a negative delay")
	}
}

func TestStateString(t *testing.T) {
	if got := AwaitResponse.String(); got != "await-response" {
		t.Fatalf("String() = %q", got)
	}
	if got := State(99).String(); got != "state(99)" {
		t.Fatalf("String() = %q", got)
	}
}

func screenLayout(r *Runner) grid.Layout { return r.scr.Layout() }
