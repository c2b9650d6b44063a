// Package config holds the immutable experiment configuration.
//
// A Config is built once at startup (defaults, optionally overridden by a
// TOML file) and passed by value into every component.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
)

// EnvPath names the environment variable holding an optional TOML config path.
const EnvPath = "CHANGEBLIND_CONFIG"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Window is the display geometry and palette.
type Window struct {
	Title      string `toml:"title"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
	Foreground string `toml:"foreground"`
	Highlight  string `toml:"highlight"`
	// TPS is the display tick rate. Every timed phase, blank delays
	// included, lasts a whole number of ticks.
	TPS        int    `toml:"tps"`
}

// Grid is the stimulus layout.
type Grid struct {
	Size       int `toml:"size"`
	Categories int `toml:"categories"`
	CellWidth  int `toml:"cell_width"`
	CellHeight int `toml:"cell_height"`
}

// Timing holds every fixed duration, in milliseconds.
type Timing struct {
	ViewMs            int `toml:"view_ms"`
	ResponseTimeoutMs int `toml:"response_timeout_ms"`
	FeedbackMs        int `toml:"feedback_ms"`
	ReadyMs           int `toml:"ready_ms"`
	StartPauseMs      int `toml:"start_pause_ms"`
}

// Schedule describes the delay conditions of one run.
type Schedule struct {
	Trials     int `toml:"trials"`
	NumDelays  int `toml:"num_delays"`
	MaxDelayMs int `toml:"max_delay_ms"`
}

// Paths locates inputs and outputs on disk.
type Paths struct {
	Assets  string `toml:"assets"`
	Results string `toml:"results"`
	// Archive is an optional SQLite file collecting every run.
	Archive string `toml:"archive"`
}

// Config is the whole experiment configuration.
type Config struct {
	Window   Window   `toml:"window"`
	Grid     Grid     `toml:"grid"`
	Timing   Timing   `toml:"timing"`
	Schedule Schedule `toml:"schedule"`
	Paths    Paths    `toml:"paths"`
	// Seed fixes the random source; 0 picks one at startup.
	Seed uint64 `toml:"seed"`
}

// Default returns the configuration of the standard experiment.
func Default() Config {
	return Config{
		Window: Window{
			Title:      "Change Blindness Experiment",
			Width:      1000,
			Height:     900,
			Background: "#282828",
			Foreground: "#ffffff",
			Highlight:  "#ff0000",
			TPS:        60,
		},
		Grid: Grid{
			Size:       6,
			Categories: 4,
			CellWidth:  60,
			CellHeight: 70,
		},
		Timing: Timing{
			ViewMs:            2000,
			ResponseTimeoutMs: 5000,
			FeedbackMs:        1000,
			ReadyMs:           1000,
			StartPauseMs:      500,
		},
		Schedule: Schedule{
			Trials:     25,
			NumDelays:  5,
			MaxDelayMs: 100,
		},
		Paths: Paths{
			Assets:  "assets",
			Results: "data",
		},
	}
}

// Load returns Default overridden by the TOML file at path.
// An empty path yields the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %q: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window must be positive, got %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Window.TPS <= 0:
		return fmt.Errorf("%w: tps must be positive, got %d", ErrInvalid, c.Window.TPS)
	case c.Grid.Size < 1:
		return fmt.Errorf("%w: grid size %d < 1", ErrInvalid, c.Grid.Size)
	case c.Grid.Categories < 2:
		return fmt.Errorf("%w: need at least 2 categories, got %d", ErrInvalid, c.Grid.Categories)
	case c.Grid.CellWidth <= 0 || c.Grid.CellHeight <= 0:
		return fmt.Errorf("%w: cell must be positive, got %dx%d", ErrInvalid, c.Grid.CellWidth, c.Grid.CellHeight)
	case c.Grid.Size*c.Grid.CellWidth > c.Window.Width || c.Grid.Size*c.Grid.CellHeight > c.Window.Height:
		return fmt.Errorf("%w: %dx%d grid of %dx%d cells does not fit a %dx%d window", ErrInvalid,
			c.Grid.Size, c.Grid.Size, c.Grid.CellWidth, c.Grid.CellHeight, c.Window.Width, c.Window.Height)
	case c.Timing.ViewMs <= 0 || c.Timing.ResponseTimeoutMs <= 0 || c.Timing.FeedbackMs < 0 ||
		c.Timing.ReadyMs < 0 || c.Timing.StartPauseMs < 0:
		return fmt.Errorf("%w: view and response timeout must be positive, others non-negative", ErrInvalid)
	case c.Schedule.NumDelays < 2:
		return fmt.Errorf("%w: need at least 2 delay conditions, got %d", ErrInvalid, c.Schedule.NumDelays)
	case c.Schedule.MaxDelayMs < 0:
		return fmt.Errorf("%w: max delay %d < 0", ErrInvalid, c.Schedule.MaxDelayMs)
	case c.Schedule.Trials <= 0 || c.Schedule.Trials%c.Schedule.NumDelays != 0:
		return fmt.Errorf("%w: trials (%d) must be a positive multiple of num_delays (%d)", ErrInvalid,
			c.Schedule.Trials, c.Schedule.NumDelays)
	case c.Paths.Assets == "" || c.Paths.Results == "":
		return fmt.Errorf("%w: assets and results paths are required", ErrInvalid)
	}

	for name, hex := range map[string]string{
		"background": c.Window.Background,
		"foreground": c.Window.Foreground,
		"highlight":  c.Window.Highlight,
	} {
		if _, err := colorful.Hex(hex); err != nil {
			return fmt.Errorf("%w: %s color %q: %v", ErrInvalid, name, hex, err)
		}
	}
	return nil
}

// Delays returns the delay conditions in milliseconds, evenly spaced from 0 to MaxDelayMs.
//
// A blank is shown until the first tick at or past its delay, so on screen it
// lasts the delay rounded up to a whole tick: at 60 TPS, 25 ms shows for
// about 33 ms and 75 ms for about 83 ms. Results record the nominal delay;
// raise Window.TPS for finer steps.
func (s Schedule) Delays() []int {
	out := make([]int, s.NumDelays)
	for i := range out {
		out[i] = i * s.MaxDelayMs / (s.NumDelays - 1)
	}
	return out
}

// Repeats is how many times each condition appears in one run.
func (s Schedule) Repeats() int { return s.Trials / s.NumDelays }

func (t Timing) View() time.Duration            { return ms(t.ViewMs) }
func (t Timing) ResponseTimeout() time.Duration { return ms(t.ResponseTimeoutMs) }
func (t Timing) Feedback() time.Duration        { return ms(t.FeedbackMs) }
func (t Timing) Ready() time.Duration           { return ms(t.ReadyMs) }
func (t Timing) StartPause() time.Duration      { return ms(t.StartPauseMs) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// BackgroundColor, ForegroundColor and HighlightColor parse the palette.
// Validate guarantees they parse; a bad value falls back to opaque black.
func (w Window) BackgroundColor() color.RGBA { return rgba(w.Background) }
func (w Window) ForegroundColor() color.RGBA { return rgba(w.Foreground) }
func (w Window) HighlightColor() color.RGBA  { return rgba(w.Highlight) }

func rgba(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{A: 0xFF}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
