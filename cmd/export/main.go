package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"slgp-tracks/internal/config"
	"slgp-tracks/internal/loader"
	"slgp-tracks/internal/logging"
	"slgp-tracks/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	dialect := flag.String("dialect", "", "Layout: auto, frame-implicit (a), frame-time (b), frame-inline (c), flat (d), stream")
	db := flag.String("db", "", "SQLite database path (default: <output>/tracks.db)")
	steps := flag.Int("steps", 0, "Resample steps per track (default: config frames)")
	list := flag.Bool("list", false, "List stored runs and exit")
	drop := flag.String("delete", "", "Delete the run with this id and exit")
	flag.Parse()

	cfg, err := config.FromFile(*configFile, config.Flags{Dialect: *dialect})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *db != "" {
		cfg.DBPath = *db
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating db dir: %v\n", err)
		os.Exit(1)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", cfg.DBPath, err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	switch {
	case *list:
		runs, err := st.Runs(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %-14s [%g, %g] x%d  %s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.Dialect, r.Start, r.End, r.Steps, r.Source)
		}
		return
	case *drop != "":
		id, err := uuid.Parse(*drop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -delete: %v\n", err)
			os.Exit(2)
		}
		if err := st.Delete(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted run %s\n", id)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: export [flags] <cache> | export -list | export -delete <run-id>")
		os.Exit(2)
	}
	uri := flag.Arg(0)

	anim, err := loader.Load(ctx, uri, &cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	start, end, ok := anim.Duration()
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: cache contains no timed samples")
		os.Exit(1)
	}
	n := *steps
	if n <= 0 {
		n = cfg.Frames
	}

	run, err := st.Export(ctx, store.Run{
		Source:  uri,
		Dialect: anim.Cache.Header.Dialect.String(),
		Version: anim.Cache.Header.Version,
		Start:   start,
		End:     end,
		Steps:   n,
	}, anim.Tracks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d tracks x %d steps to %s (run %s)\n", anim.Tracks.Len(), n, cfg.DBPath, run.ID)
}
