// Package app wires the experiment packages into per-tick step functions
// that a hal host (window or headless) drives.
package app

import (
	"fmt"
	"image"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"changeblind/hal"
	"changeblind/internal/analysis"
	"changeblind/internal/archive"
	"changeblind/internal/assets"
	"changeblind/internal/buildinfo"
	"changeblind/internal/config"
	"changeblind/internal/experiment"
	"changeblind/internal/results"
	"changeblind/internal/screen"
)

// rngStream is the second PCG word; the seed picks the sequence within it.
const rngStream = 0x6368616e6765

type experimentApp struct {
	h       hal.HAL
	cfg     config.Config
	log     hal.Logger
	scr     *screen.Screen
	sess    *experiment.Session
	seed    uint64
	started time.Time

	showingPlot bool
	resultsPath string
	plotPath    string
}

// NewWithConfig loads the category images and returns the step function of
// a full experiment run: instructions, trials, results file, then the plot,
// which any key or click dismisses.
func NewWithConfig(h hal.HAL, cfg config.Config) (func() error, error) {
	a, err := newExperiment(h, cfg)
	if err != nil {
		return nil, err
	}
	return guard(h.Logger(), a.step), nil
}

func newExperiment(h hal.HAL, cfg config.Config) (*experimentApp, error) {
	imgs, err := assets.Load(cfg.Paths.Assets, cfg.Grid.Categories, cfg.Grid.CellWidth, cfg.Grid.CellHeight)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, rngStream))

	log := h.Logger()
	log.WriteLineString(fmt.Sprintf("changeblind %s seed %d", buildinfo.Long(), seed))

	scr := screen.New(h.Display(), cfg, imgs)
	return &experimentApp{
		h:       h,
		cfg:     cfg,
		log:     log,
		scr:     scr,
		sess:    experiment.NewSession(cfg, scr, rng, log, experiment.Schedule(rng, cfg.Schedule)),
		seed:    seed,
		started: h.Clock().Now(),
	}, nil
}

func (a *experimentApp) step() error {
	evs := hal.Drain(a.h.Input())
	if hal.HasQuit(evs) {
		return hal.ErrQuit
	}

	if a.showingPlot {
		if dismissed(evs) {
			return hal.ErrDone
		}
		return nil
	}

	done, err := a.sess.Step(a.h.Clock().Now(), evs)
	if err != nil || !done {
		return err
	}
	if err := a.finish(); err != nil {
		return err
	}
	a.showingPlot = true
	return nil
}

// finish stores the run and puts its plot on screen.
func (a *experimentApp) finish() error {
	recs := a.sess.Records()
	path, err := results.NextAvailablePath(a.cfg.Paths.Results, results.DefaultPattern)
	if err != nil {
		return err
	}
	if err := results.Write(path, recs); err != nil {
		return err
	}
	a.resultsPath = path
	a.log.WriteLineString("Wrote results in " + path)

	if a.cfg.Paths.Archive != "" {
		if err := a.archiveRun(path); err != nil {
			return err
		}
	}

	img, err := plotRecords(a.log, recs, a.cfg.Window.Width, a.cfg.Window.Height)
	if err != nil {
		return err
	}
	a.plotPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	if err := analysis.SavePlot(img, a.plotPath); err != nil {
		return err
	}
	a.log.WriteLineString("Wrote plot in " + a.plotPath)

	a.scr.Image(img)
	return a.scr.Present()
}

func (a *experimentApp) archiveRun(resultsPath string) error {
	store, err := archive.Open(a.cfg.Paths.Archive)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(archive.Session{
		StartedAt:   a.started,
		Seed:        a.seed,
		Build:       buildinfo.Short(),
		ResultsPath: resultsPath,
	}, a.sess.Trials())
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	a.log.WriteLineString(fmt.Sprintf("Archived session %s in %s", id, a.cfg.Paths.Archive))
	return nil
}

// NewViewer loads the results file at path and returns the step function
// of a window showing its plot. A missing or malformed file is reported
// before anything is shown.
func NewViewer(h hal.HAL, cfg config.Config, path string) (func() error, error) {
	recs, err := results.Load(path)
	if err != nil {
		return nil, err
	}
	img, err := plotRecords(h.Logger(), recs, cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return nil, fmt.Errorf("plot %s: %w", path, err)
	}

	scr := screen.New(h.Display(), cfg, nil)
	scr.Image(img)
	if err := scr.Present(); err != nil {
		return nil, err
	}

	step := func() error {
		evs := hal.Drain(h.Input())
		if hal.HasQuit(evs) {
			return hal.ErrQuit
		}
		if dismissed(evs) {
			return hal.ErrDone
		}
		return nil
	}
	return guard(h.Logger(), step), nil
}

// plotRecords logs the per-delay summary of recs and renders their plot.
func plotRecords(log hal.Logger, recs []results.Record, w, h int) (image.Image, error) {
	agg := analysis.Aggregate(recs)
	sums, err := analysis.Summarize(agg)
	if err != nil {
		return nil, err
	}
	points := make([]analysis.Point, len(sums))
	for i, s := range sums {
		log.WriteLineString(s.String())
		points[i] = s.Point
	}
	return analysis.RenderPlot(points, w, h)
}

func dismissed(evs []hal.Event) bool {
	for _, ev := range evs {
		if ev.Kind == hal.EventKeyDown || ev.Kind == hal.EventPointerDown {
			return true
		}
	}
	return false
}
