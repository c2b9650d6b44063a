package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.Schedule.Delays(); !reflect.DeepEqual(got, []int{0, 25, 50, 75, 100}) {
		t.Fatalf("Delays = %v", got)
	}
	if got := cfg.Schedule.Repeats(); got != 5 {
		t.Fatalf("Repeats = %d; want 5", got)
	}
	if got := cfg.Timing.View(); got != 2*time.Second {
		t.Fatalf("View = %v; want 2s", got)
	}
	if got := cfg.Window.BackgroundColor(); got != (color.RGBA{R: 0x28, G: 0x28, B: 0x28, A: 0xFF}) {
		t.Fatalf("BackgroundColor = %v", got)
	}
	if got := cfg.Window.HighlightColor(); got != (color.RGBA{R: 0xFF, A: 0xFF}) {
		t.Fatalf("HighlightColor = %v", got)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("Load(\"\") = %+v; want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.toml")
	body := `
seed = 42

[window]
tps = 240

[grid]
size = 4

[schedule]
trials = 10
num_delays = 2
max_delay_ms = 400

[paths]
results = "out"
archive = "runs.db"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 42 || cfg.Grid.Size != 4 || cfg.Paths.Results != "out" || cfg.Paths.Archive != "runs.db" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Window.TPS != 240 {
		t.Fatalf("tps = %d; want 240", cfg.Window.TPS)
	}
	if cfg.Grid.Categories != 4 || cfg.Window.Width != 1000 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if got := cfg.Schedule.Delays(); !reflect.DeepEqual(got, []int{0, 400}) {
		t.Fatalf("Delays = %v; want [0 400]", got)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.toml")
	if err := os.WriteFile(path, []byte("[grid]\nsize = 6\ncolour = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Load: got %v; want ErrInvalid", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"one category", func(c *Config) { c.Grid.Categories = 1 }},
		{"empty grid", func(c *Config) { c.Grid.Size = 0 }},
		{"grid too wide", func(c *Config) { c.Grid.Size = 20 }},
		{"single delay", func(c *Config) { c.Schedule.NumDelays = 1 }},
		{"uneven trials", func(c *Config) { c.Schedule.Trials = 24 }},
		{"no trials", func(c *Config) { c.Schedule.Trials = 0 }},
		{"zero timeout", func(c *Config) { c.Timing.ResponseTimeoutMs = 0 }},
		{"bad color", func(c *Config) { c.Window.Highlight = "red" }},
		{"zero tps", func(c *Config) { c.Window.TPS = 0 }},
		{"zero view", func(c *Config) { c.Timing.ViewMs = 0 }},
		{"negative feedback", func(c *Config) { c.Timing.FeedbackMs = -1 }},
		{"no results dir", func(c *Config) { c.Paths.Results = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate: got %v; want ErrInvalid", err)
			}
		})
	}
}

func TestValidateAllowsZeroPauses(t *testing.T) {
	cfg := Default()
	cfg.Timing.FeedbackMs = 0
	cfg.Timing.ReadyMs = 0
	cfg.Timing.StartPauseMs = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg.Timing.ViewMs = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "view and response timeout must be positive") {
		t.Fatalf("Validate = %v; want the view and response timeout message", err)
	}
}

func TestDefaultTickRate(t *testing.T) {
	if got := Default().Window.TPS; got != 60 {
		t.Fatalf("default tps = %d; want 60", got)
	}
}
