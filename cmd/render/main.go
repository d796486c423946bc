package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"slgp-tracks/internal/batch"
	"slgp-tracks/internal/config"
	"slgp-tracks/internal/loader"
	"slgp-tracks/internal/logging"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	dialect := flag.String("dialect", "", "Layout: auto, frame-implicit (a), frame-time (b), frame-inline (c), flat (d), stream")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	frames := flag.Int("frames", 0, "Number of timeline frames to render (default: 48)")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	format := flag.String("format", "", "Image format: webp or tga (default: webp)")
	logLevel := flag.String("log", "", "Log level: debug, info, warn, error")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: render [flags] <cache.slgp | s3://bucket/key | minio://bucket/key>")
		os.Exit(2)
	}
	uri := flag.Arg(0)

	// CLI flags override config file
	cfg, err := config.FromFile(*configFile, config.Flags{
		Dialect:   *dialect,
		OutputDir: *outputDir,
		Format:    *format,
		Workers:   *workers,
		Frames:    *frames,
		LogLevel:  *logLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	anim, err := loader.Load(ctx, uri, &cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading cache: %v\n", err)
		os.Exit(1)
	}
	start, end, ok := anim.Duration()
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: cache contains no timed samples")
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	bcfg, err := batch.Prepare(anim.Tracks, &cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	jobs := batch.Timeline(start, end, cfg.Frames)

	fmt.Printf("Source:      %s (%s)\n", uri, anim.Cache.Header.Dialect)
	fmt.Printf("Particles:   %d\n", anim.Tracks.Len())
	fmt.Printf("Time range:  [%g, %g]\n", start, end)
	fmt.Printf("Output:      %s\n", cfg.OutputDir)
	fmt.Printf("Frames:      %d at %dx%d (%dx supersample, %s)\n",
		len(jobs), cfg.RenderSize, cfg.RenderSize, bcfg.Supersample, cfg.ImageFormat)
	fmt.Printf("Camera:      %s\n", cfg.Camera)
	fmt.Printf("Workers:     %d\n", cfg.Workers)
	fmt.Println("------------------------------------------------------------")

	began := time.Now()
	results := batch.Run(ctx, bcfg, anim.Tracks, jobs)
	failed := batch.Failed(results)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Rendered %d/%d frames in %v\n", len(results)-len(failed), len(results), time.Since(began).Round(time.Millisecond))

	if len(failed) > 0 {
		fmt.Printf("\nFailed frames (%d):\n", len(failed))
		for i, r := range failed {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(failed)-20)
				break
			}
			fmt.Printf("  frame %04d t=%g: %s\n", r.Frame, r.Time, r.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, batch.Manifest{
		Source:  uri,
		Dialect: anim.Cache.Header.Dialect.String(),
		Size:    cfg.RenderSize,
		Format:  cfg.ImageFormat,
		Tracks:  anim.Tracks.Len(),
		Frames:  results,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing manifest: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
