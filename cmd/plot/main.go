package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"slgp-tracks/internal/chart"
	"slgp-tracks/internal/config"
	"slgp-tracks/internal/loader"
	"slgp-tracks/internal/logging"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	dialect := flag.String("dialect", "", "Layout: auto, frame-implicit (a), frame-time (b), frame-inline (c), flat (d), stream")
	ids := flag.String("ids", "", "Comma-separated particle ids (default: first 8)")
	steps := flag.Int("steps", 200, "Resample points per trajectory")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: plot [flags] <cache>")
		os.Exit(2)
	}
	uri := flag.Arg(0)

	cfg, err := config.FromFile(*configFile, config.Flags{Dialect: *dialect, OutputDir: *outputDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	anim, err := loader.Load(context.Background(), uri, &cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	want := anim.Tracks.IDs()
	if *ids != "" {
		want = want[:0]
		for _, f := range strings.Split(*ids, ",") {
			v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: -ids: %v\n", err)
				os.Exit(2)
			}
			want = append(want, uint32(v))
		}
	} else if len(want) > 8 {
		want = want[:8]
	}

	series, err := chart.Resample(anim.Tracks, want, *steps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}
	paths, err := chart.SavePNGs(series, cfg.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Printf("Wrote %s\n", p)
	}

	htmlPath := filepath.Join(cfg.OutputDir, "trajectories.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := chart.WriteHTML(f, filepath.Base(uri), series); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", htmlPath)
}
