package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"slgp-tracks/internal/config"
	"slgp-tracks/internal/loader"
	"slgp-tracks/internal/logging"
	"slgp-tracks/internal/track"
)

type snapshot struct {
	Time   float32       `json:"time"`
	Points []track.Point `json:"points"`
}

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	dialect := flag.String("dialect", "", "Layout: auto, frame-implicit (a), frame-time (b), frame-inline (c), flat (d), stream")
	times := flag.String("t", "", "Comma-separated query times (required)")
	ids := flag.String("ids", "", "Comma-separated particle ids (default: all)")
	live := flag.Bool("live", false, "Skip particles whose sampled span does not contain the query time")
	flag.Parse()

	if flag.NArg() != 1 || *times == "" {
		fmt.Fprintln(os.Stderr, "Usage: sample -t 0,0.5,1 [flags] <cache>")
		os.Exit(2)
	}

	queries, err := parseFloats(*times)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -t: %v\n", err)
		os.Exit(2)
	}
	want, err := parseIDs(*ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -ids: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.FromFile(*configFile, config.Flags{Dialect: *dialect})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	anim, err := loader.Load(context.Background(), flag.Arg(0), &cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out := make([]snapshot, 0, len(queries))
	var buf []track.Point
	for _, t := range queries {
		s := snapshot{Time: t}
		switch {
		case len(want) > 0:
			for _, id := range want {
				tr, ok := anim.Tracks.Get(id)
				if !ok {
					fmt.Fprintf(os.Stderr, "Error: no particle with id %d\n", id)
					os.Exit(1)
				}
				if *live && !tr.Covers(t) {
					continue
				}
				s.Points = append(s.Points, track.Point{ID: id, Position: tr.At(t)})
			}
		case *live:
			buf = anim.Tracks.LiveSnapshot(t, buf)
			s.Points = append([]track.Point(nil), buf...)
		default:
			buf = anim.Tracks.Snapshot(t, buf)
			s.Points = append([]track.Point(nil), buf...)
		}
		out = append(out, s)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFloats(s string) ([]float32, error) {
	var out []float32
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, err
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func parseIDs(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	var out []uint32
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, err
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
