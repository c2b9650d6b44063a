// Package experiment sequences a full run: instructions, then one trial per
// scheduled delay condition, collecting a record for each.
package experiment

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"changeblind/hal"
	"changeblind/internal/config"
	"changeblind/internal/results"
	"changeblind/internal/screen"
	"changeblind/internal/trial"
)

// Instructions are shown before the first trial.
var Instructions = []string{
	"Click on the character which changed as fast as possible.",
	"Press SPACE if you did not find it",
	"Press SPACE to start",
}

// ReadyText cues each trial.
const ReadyText = "Ready..."

// Schedule lists every delay condition Repeats times, in random order.
func Schedule(rng *rand.Rand, s config.Schedule) []int {
	delays := s.Delays()
	out := make([]int, 0, len(delays)*s.Repeats())
	for i := 0; i < s.Repeats(); i++ {
		out = append(out, delays...)
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// SortByDelay orders records by delay only. Records with equal delays keep
// their relative order.
func SortByDelay(records []results.Record) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Delay < records[j].Delay })
}

// Phase is a session's position in the run.
type Phase uint8

const (
	Instructing Phase = iota
	StartPause
	Ready
	Trial
	Finished
)

func (p Phase) String() string {
	switch p {
	case Instructing:
		return "instructions"
	case StartPause:
		return "start-pause"
	case Ready:
		return "ready"
	case Trial:
		return "trial"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Session runs one experiment. It owns the collected results.
type Session struct {
	timing config.Timing
	scr    *screen.Screen
	runner *trial.Runner
	log    hal.Logger

	schedule []int
	next     int
	phase    Phase
	since    time.Time
	started  bool

	trials  []trial.Result
	records []results.Record
}

// NewSession prepares a run over schedule.
func NewSession(cfg config.Config, scr *screen.Screen, rng *rand.Rand, log hal.Logger, schedule []int) *Session {
	return &Session{
		timing:   cfg.Timing,
		scr:      scr,
		runner:   trial.NewRunner(cfg, scr, rng),
		log:      log,
		schedule: schedule,
	}
}

func (s *Session) Phase() Phase           { return s.phase }
func (s *Session) Runner() *trial.Runner  { return s.runner }
func (s *Session) Trials() []trial.Result { return s.trials }

// Records returns the collected records. Once the session is finished they
// are sorted by delay.
func (s *Session) Records() []results.Record { return s.records }

// Step advances the run to now. It reports whether every scheduled trial
// has been run.
func (s *Session) Step(now time.Time, events []hal.Event) (bool, error) {
	if !s.started {
		s.started = true
		s.scr.Lines(Instructions)
		s.enter(Instructing, now)
		return false, s.scr.Present()
	}

	for {
		switch s.phase {
		case Instructing:
			if !anyKey(events) {
				return false, nil
			}
			s.scr.Clear()
			s.enter(StartPause, now)
			return false, s.scr.Present()

		case StartPause:
			if now.Sub(s.since) < s.timing.StartPause() {
				return false, nil
			}
			if err := s.nextTrial(now); err != nil {
				return false, err
			}

		case Ready:
			if now.Sub(s.since) < s.timing.Ready() {
				return false, nil
			}
			if err := s.runner.Start(now, s.schedule[s.next]); err != nil {
				return false, err
			}
			s.enter(Trial, now)
			return false, nil

		case Trial:
			done, err := s.runner.Step(now, events)
			if err != nil || !done {
				return false, err
			}
			res := s.runner.Result()
			s.trials = append(s.trials, res)
			s.records = append(s.records, res.Record())
			s.log.WriteLineString(fmt.Sprintf("%d %t", res.Delay, res.Success))
			s.next++
			// The response was consumed by the trial.
			events = nil
			if err := s.nextTrial(now); err != nil {
				return false, err
			}

		case Finished:
			return true, nil

		default:
			return false, fmt.Errorf("experiment: unknown phase %v", s.phase)
		}
	}
}

// nextTrial cues the next scheduled trial, or finishes the run.
func (s *Session) nextTrial(now time.Time) error {
	if s.next >= len(s.schedule) {
		SortByDelay(s.records)
		s.enter(Finished, now)
		return nil
	}
	s.scr.Lines([]string{ReadyText})
	s.enter(Ready, now)
	return s.scr.Present()
}

func (s *Session) enter(p Phase, now time.Time) {
	s.phase = p
	s.since = now
}

func anyKey(events []hal.Event) bool {
	for _, ev := range events {
		if ev.Kind == hal.EventKeyDown {
			return true
		}
	}
	return false
}
