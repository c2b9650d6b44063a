package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"changeblind/app"
	"changeblind/hal"
	"changeblind/internal/buildinfo"
	"changeblind/internal/config"
)

func main() {
	args := os.Args[1:]
	if len(args) > 1 {
		fatalf(2, "usage: changeblind [results-file]")
	}

	cfg, err := config.Load(os.Getenv(config.EnvPath))
	if err != nil {
		fatalf(1, "%v", err)
	}

	win := hal.WindowConfig{
		Title:  fmt.Sprintf("%s (%s)", cfg.Window.Title, buildinfo.Short()),
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		TPS:    cfg.Window.TPS,
	}
	newApp := func(h hal.HAL) (func() error, error) {
		return app.NewWithConfig(h, cfg)
	}
	if len(args) == 1 {
		path := args[0]
		win.Title = fmt.Sprintf("%s - %s", cfg.Window.Title, filepath.Base(path))
		newApp = func(h hal.HAL) (func() error, error) {
			return app.NewViewer(h, cfg, path)
		}
	}

	if err := hal.RunWindow(win, newApp); err != nil && !errors.Is(err, hal.ErrQuit) {
		fatalf(1, "%v", err)
	}
}

func fatalf(code int, format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
