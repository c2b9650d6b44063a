package main

import (
	"flag"
	"fmt"
	"os"

	"changeblind/internal/assets"
	"changeblind/internal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.EnvPath))
	if err != nil {
		fatalf("config: %v", err)
	}

	var (
		dir   = flag.String("dir", cfg.Paths.Assets, "Output directory.")
		n     = flag.Int("n", cfg.Grid.Categories, "Number of category images.")
		w     = flag.Int("w", cfg.Grid.CellWidth*3/4, "Image width in pixels.")
		h     = flag.Int("h", cfg.Grid.CellHeight*3/4, "Image height in pixels.")
		force = flag.Bool("force", false, "Overwrite existing images.")
	)
	flag.Parse()

	if flag.NArg() != 0 {
		fatalf("usage: mkassets [-dir assets] [-n 4] [-w 45] [-h 52] [-force]")
	}
	if !*force {
		for i := 0; i < *n; i++ {
			if _, err := os.Stat(assets.Path(*dir, i)); err == nil {
				fatalf("%s exists (use -force to overwrite)", assets.Path(*dir, i))
			}
		}
	}

	if err := assets.Generate(*dir, *n, *w, *h); err != nil {
		fatalf("generate: %v", err)
	}
	fmt.Printf("wrote %d images (%dx%d) to %s\n", *n, *w, *h, *dir)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
