// Package trial runs one change-blindness trial as a tick-driven state machine.
//
// A Runner shows a grid, blanks the screen for the trial's delay, shows the
// grid with one cell changed and waits for the observer to click the changed
// cell, press space, or run out of time. Every wait is a state with a
// deadline measured against the now passed to Step; nothing here blocks.
package trial

import (
	"fmt"
	"math/rand/v2"
	"time"

	"changeblind/hal"
	"changeblind/internal/config"
	"changeblind/internal/grid"
	"changeblind/internal/results"
	"changeblind/internal/screen"
)

// State is the runner's position in a trial.
type State uint8

const (
	Idle State = iota
	ShowGrid
	Blank
	ShowMutated
	AwaitResponse
	Feedback
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ShowGrid:
		return "show-grid"
	case Blank:
		return "blank"
	case ShowMutated:
		return "show-mutated"
	case AwaitResponse:
		return "await-response"
	case Feedback:
		return "feedback"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ResponseKind tells how the observer answered.
type ResponseKind uint8

const (
	Click ResponseKind = iota + 1
	Skip
	Timeout
)

func (k ResponseKind) String() string {
	switch k {
	case Click:
		return "click"
	case Skip:
		return "skip"
	case Timeout:
		return "timeout"
	default:
		return "none"
	}
}

// Response is the observer's answer. X and Y are only set for Click.
type Response struct {
	Kind    ResponseKind
	X, Y    int
	Latency time.Duration
}

// Result is the outcome of a finished trial.
type Result struct {
	// Delay is the blank duration in milliseconds.
	Delay    int
	Success  bool
	Latency  int
	Response ResponseKind
	Mutation grid.Mutation
	// Selected is the clicked cell; HasSelection is false for skips,
	// timeouts and clicks outside the grid.
	Selected     grid.Cell
	HasSelection bool
}

// Record is the row stored in a results file.
func (r Result) Record() results.Record {
	return results.Record{Delay: r.Delay, Success: r.Success, Latency: r.Latency}
}

// Runner runs trials one after another on the same screen.
type Runner struct {
	timing config.Timing
	size   int
	cats   int
	scr    *screen.Screen
	rng    *rand.Rand

	state    State
	since    time.Time
	shownAt  time.Time
	delay    int
	mutation grid.Mutation
	mutated  grid.Grid
	result   Result
}

// NewRunner returns an idle runner drawing on scr.
func NewRunner(cfg config.Config, scr *screen.Screen, rng *rand.Rand) *Runner {
	return &Runner{
		timing: cfg.Timing,
		size:   cfg.Grid.Size,
		cats:   cfg.Grid.Categories,
		scr:    scr,
		rng:    rng,
	}
}

func (r *Runner) State() State            { return r.state }
func (r *Runner) Mutation() grid.Mutation { return r.mutation }
func (r *Runner) Result() Result          { return r.result }

func (r *Runner) delayDuration() time.Duration {
	return time.Duration(r.delay) * time.Millisecond
}

// Start generates a fresh trial with the given delay in milliseconds and
// presents its grid.
func (r *Runner) Start(now time.Time, delay int) error {
	if delay < 0 {
		return fmt.Errorf("trial: negative delay %d", delay)
	}
	original := grid.Generate(r.rng, r.size, r.cats)
	r.mutation = grid.ChooseMutation(r.rng, original)
	r.mutated = original.Apply(r.mutation)
	r.delay = delay
	r.result = Result{}

	r.scr.Grid(original)
	if err := r.scr.Present(); err != nil {
		return err
	}
	r.enter(ShowGrid, now)
	return nil
}

// Step advances the trial to now, given the input events polled this tick.
// It reports whether the trial is done; Result is valid from then on.
func (r *Runner) Step(now time.Time, events []hal.Event) (bool, error) {
	for {
		switch r.state {
		case Idle:
			return false, nil

		case ShowGrid:
			if now.Sub(r.since) < r.timing.View() {
				return false, nil
			}
			if r.delay == 0 {
				r.enter(ShowMutated, now)
				continue
			}
			r.scr.Clear()
			r.enter(Blank, now)
			return false, r.scr.Present()

		case Blank:
			if now.Sub(r.since) < r.delayDuration() {
				return false, nil
			}
			r.enter(ShowMutated, now)

		case ShowMutated:
			r.scr.Grid(r.mutated)
			r.shownAt = now
			r.enter(AwaitResponse, now)
			// Input from this tick predates the mutated frame.
			return false, r.scr.Present()

		case AwaitResponse:
			resp, ok := r.awaitResponse(now, events)
			if !ok {
				return false, nil
			}
			r.score(resp)
			if r.result.Success {
				r.enter(Done, now)
				return true, nil
			}
			r.scr.Grid(r.mutated)
			r.scr.Highlight(r.mutation.Cell)
			r.enter(Feedback, now)
			return false, r.scr.Present()

		case Feedback:
			if now.Sub(r.since) < r.timing.Feedback() {
				return false, nil
			}
			r.enter(Done, now)

		case Done:
			return true, nil

		default:
			return false, fmt.Errorf("trial: unknown state %v", r.state)
		}
	}
}

func (r *Runner) enter(s State, now time.Time) {
	r.state = s
	r.since = now
}

// awaitResponse returns the first answer available at now. A timeout wins
// over input arriving in the same tick.
func (r *Runner) awaitResponse(now time.Time, events []hal.Event) (Response, bool) {
	elapsed := now.Sub(r.shownAt)
	if limit := r.timing.ResponseTimeout(); elapsed >= limit {
		return Response{Kind: Timeout, Latency: limit}, true
	}
	for _, ev := range events {
		switch ev.Kind {
		case hal.EventPointerDown:
			return Response{Kind: Click, X: ev.X, Y: ev.Y, Latency: elapsed}, true
		case hal.EventKeyDown:
			if ev.Key == hal.KeySpace {
				return Response{Kind: Skip, Latency: elapsed}, true
			}
		}
	}
	return Response{}, false
}

func (r *Runner) score(resp Response) {
	res := Result{
		Delay:    r.delay,
		Latency:  int(resp.Latency / time.Millisecond),
		Response: resp.Kind,
		Mutation: r.mutation,
	}
	if resp.Kind == Click {
		res.Selected, res.HasSelection = r.scr.Layout().CellAt(resp.X, resp.Y)
		res.Success = res.HasSelection && res.Selected == r.mutation.Cell
	}
	r.result = res
}
