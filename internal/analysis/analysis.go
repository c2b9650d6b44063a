// Package analysis aggregates trial records by delay and plots the success
// rate of each delay condition.
package analysis

import (
	"errors"
	"fmt"
	"sort"

	"changeblind/internal/results"

	"gonum.org/v1/gonum/stat"
)

// ErrNoTrials is returned when a rate is asked of an empty tally.
var ErrNoTrials = errors.New("no trials")

// Tally counts the outcomes of one delay condition.
type Tally struct {
	Successes int
	Total     int
	// Latencies in milliseconds, in record order.
	Latencies []float64
}

// Rate is Successes/Total, in [0, 1].
func (t Tally) Rate() (float64, error) {
	if t.Total == 0 {
		return 0, ErrNoTrials
	}
	return float64(t.Successes) / float64(t.Total), nil
}

// Aggregate groups records by delay.
func Aggregate(records []results.Record) map[int]Tally {
	out := make(map[int]Tally)
	for _, r := range records {
		t := out[r.Delay]
		t.Total++
		if r.Success {
			t.Successes++
		}
		t.Latencies = append(t.Latencies, float64(r.Latency))
		out[r.Delay] = t
	}
	return out
}

// Point is the success rate of one delay condition.
type Point struct {
	Delay int
	Rate  float64
}

// Points returns one point per delay, sorted by delay.
func Points(agg map[int]Tally) ([]Point, error) {
	out := make([]Point, 0, len(agg))
	for _, d := range delays(agg) {
		rate, err := agg[d].Rate()
		if err != nil {
			return nil, fmt.Errorf("delay %d: %w", d, err)
		}
		out = append(out, Point{Delay: d, Rate: rate})
	}
	return out, nil
}

// Summary adds latency statistics to a Point.
type Summary struct {
	Point
	Successes int
	Total     int
	// MeanLatency and StdLatency are in milliseconds. StdLatency is 0 for a
	// single trial.
	MeanLatency float64
	StdLatency  float64
}

// Summarize describes every delay condition, sorted by delay.
func Summarize(agg map[int]Tally) ([]Summary, error) {
	out := make([]Summary, 0, len(agg))
	for _, d := range delays(agg) {
		t := agg[d]
		rate, err := t.Rate()
		if err != nil {
			return nil, fmt.Errorf("delay %d: %w", d, err)
		}
		s := Summary{Point: Point{Delay: d, Rate: rate}, Successes: t.Successes, Total: t.Total}
		if len(t.Latencies) > 1 {
			s.MeanLatency, s.StdLatency = stat.MeanStdDev(t.Latencies, nil)
		} else if len(t.Latencies) == 1 {
			s.MeanLatency = t.Latencies[0]
		}
		out = append(out, s)
	}
	return out, nil
}

// String formats s as one log line.
func (s Summary) String() string {
	return fmt.Sprintf("delay %4d ms: %d/%d found (%.0f%%), latency %.0f±%.0f ms",
		s.Delay, s.Successes, s.Total, s.Rate*100, s.MeanLatency, s.StdLatency)
}

func delays(agg map[int]Tally) []int {
	out := make([]int, 0, len(agg))
	for d := range agg {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
