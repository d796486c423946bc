package main

import (
	"cmp"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"

	"slgp-tracks/internal/config"
	"slgp-tracks/internal/loader"
	"slgp-tracks/internal/logging"
	"slgp-tracks/internal/stats"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	dialect := flag.String("dialect", "", "Layout: auto, frame-implicit (a), frame-time (b), frame-inline (c), flat (d), stream")
	top := flag.Int("top", 10, "Show the N fastest tracks")
	asJSON := flag.Bool("json", false, "Print the summary as JSON")
	logLevel := flag.String("log", "", "Log level: debug, info, warn, error")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [flags] <cache.slgp | s3://bucket/key | minio://bucket/key>")
		os.Exit(2)
	}
	uri := flag.Arg(0)

	cfg, err := config.FromFile(*configFile, config.Flags{Dialect: *dialect, LogLevel: *logLevel})
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
	sum, per := stats.Summarize(anim.Tracks)

	if *asJSON {
		out := struct {
			Source  string        `json:"source"`
			Dialect string        `json:"dialect"`
			Version float32       `json:"version"`
			Summary stats.Summary `json:"summary"`
			Tracks  []stats.Track `json:"tracks"`
		}{uri, anim.Cache.Header.Dialect.String(), anim.Cache.Header.Version, sum, per}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	h := anim.Cache.Header
	fmt.Printf("Source:   %s\n", uri)
	fmt.Printf("Dialect:  %s (version %g, magic %v)\n", h.Dialect, h.Version, h.HasMagic)
	fmt.Printf("Frames:   %d (%d with particles)\n", len(anim.Cache.Frames), sum.ActiveFrames)
	fmt.Printf("Records:  %d\n", anim.Cache.RecordCount())
	fmt.Printf("Tracks:   %d (%d samples after dedup)\n", sum.Tracks, sum.Samples)
	fmt.Printf("Time:     [%g, %g]\n", sum.Start, sum.End)
	fmt.Printf("Bounds:   X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n",
		sum.Bounds.Min.X, sum.Bounds.Max.X, sum.Bounds.Min.Y, sum.Bounds.Max.Y, sum.Bounds.Min.Z, sum.Bounds.Max.Z)
	fmt.Printf("Coverage: %.1f%% of frames per particle\n", sum.Coverage*100)
	fmt.Printf("Path:     mean %.3f  median %.3f  p95 %.3f  max %.3f\n",
		sum.PathLength.Mean, sum.PathLength.Median, sum.PathLength.P95, sum.PathLength.Max)
	fmt.Printf("Speed:    mean %.3f  median %.3f  p95 %.3f  max %.3f\n",
		sum.MeanSpeed.Mean, sum.MeanSpeed.Median, sum.MeanSpeed.P95, sum.MeanSpeed.Max)
	for _, w := range anim.Cache.Warnings {
		fmt.Printf("Warning:  %v\n", w)
	}

	if *top > 0 && len(per) > 0 {
		slices.SortFunc(per, func(a, b stats.Track) int {
			if c := cmp.Compare(b.MaxSpeed, a.MaxSpeed); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		fmt.Println("------------------------------------------------------------")
		fmt.Printf("%-10s %8s %8s %10s %10s %10s\n", "id", "samples", "frames", "path", "mean v", "max v")
		for _, s := range per[:min(*top, len(per))] {
			fmt.Printf("%-10d %8d %8d %10.3f %10.3f %10.3f\n", s.ID, s.Samples, s.Frames, s.PathLength, s.MeanSpeed, s.MaxSpeed)
		}
	}
}
