// Package stats summarizes particle tracks: path lengths, speeds, spatial
// extent and frame coverage.
package stats

import (
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"slgp-tracks/internal/track"
)

// Track describes one particle's motion.
type Track struct {
	ID         uint32  `json:"id"`
	Samples    int     `json:"samples"`
	Frames     uint64  `json:"frames"`
	FirstFrame int     `json:"first_frame"`
	LastFrame  int     `json:"last_frame"`
	Start      float32 `json:"start"`
	End        float32 `json:"end"`

	PathLength   float64 `json:"path_length"`
	Displacement float64 `json:"displacement"`
	MeanSpeed    float64 `json:"mean_speed"`
	MaxSpeed     float64 `json:"max_speed"`

	Bounds r3.Box `json:"-"`
}

// Distribution is a five-number view of one per-track quantity.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Summary aggregates a whole track set.
type Summary struct {
	Tracks       int     `json:"tracks"`
	Samples      int     `json:"samples"`
	Frames       int     `json:"frames"`
	ActiveFrames uint64  `json:"active_frames"`
	Start        float32 `json:"start"`
	End          float32 `json:"end"`
	// Coverage is the mean fraction of frames each particle appears in.
	Coverage float64 `json:"coverage"`

	PathLength Distribution `json:"path_length"`
	MeanSpeed  Distribution `json:"mean_speed"`

	Bounds r3.Box `json:"-"`
}

func vec(p [3]float32) r3.Vec {
	return r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

func grow(b r3.Box, p r3.Vec) r3.Box {
	return r3.Box{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// ForTrack measures one track. Segments with zero duration add distance
// but no speed sample.
func ForTrack(tr *track.Track) Track {
	s := Track{ID: tr.ID, Samples: tr.Len(), Frames: tr.Frames.GetCardinality()}
	s.FirstFrame, s.LastFrame, _ = tr.FrameRange()
	var ok bool
	if s.Start, s.End, ok = tr.Span(); !ok {
		return s
	}

	first := vec(tr.Samples[0].Position)
	s.Bounds = r3.Box{Min: first, Max: first}
	var (
		speeds []float64
		prev   = first
	)
	for i := 1; i < len(tr.Samples); i++ {
		p := vec(tr.Samples[i].Position)
		d := r3.Norm(r3.Sub(p, prev))
		s.PathLength += d
		if dt := float64(tr.Samples[i].Time) - float64(tr.Samples[i-1].Time); dt > 0 {
			speeds = append(speeds, d/dt)
		}
		s.Bounds = grow(s.Bounds, p)
		prev = p
	}
	s.Displacement = r3.Norm(r3.Sub(prev, first))
	if len(speeds) > 0 {
		s.MeanSpeed = stat.Mean(speeds, nil)
		s.MaxSpeed = floats.Max(speeds)
	}
	return s
}

// Summarize measures every track in set and aggregates the results. The
// per-track values are returned in id order.
func Summarize(set *track.Set) (Summary, []Track) {
	sum := Summary{Tracks: set.Len(), Samples: set.SampleCount(), Frames: set.FrameCount()}
	sum.Start, sum.End, _ = set.TimeRange()

	per := make([]Track, 0, set.Len())
	bitmaps := make([]*roaring.Bitmap, 0, set.Len())
	var (
		lengths  []float64
		speeds   []float64
		coverage []float64
		haveBox  bool
	)
	for tr := range set.All() {
		ts := ForTrack(tr)
		per = append(per, ts)
		bitmaps = append(bitmaps, tr.Frames)
		if ts.Samples == 0 {
			continue
		}
		lengths = append(lengths, ts.PathLength)
		speeds = append(speeds, ts.MeanSpeed)
		if sum.Frames > 0 {
			coverage = append(coverage, float64(ts.Frames)/float64(sum.Frames))
		}
		if !haveBox {
			sum.Bounds, haveBox = ts.Bounds, true
		} else {
			sum.Bounds = grow(grow(sum.Bounds, ts.Bounds.Min), ts.Bounds.Max)
		}
	}

	if len(bitmaps) > 0 {
		sum.ActiveFrames = roaring.FastOr(bitmaps...).GetCardinality()
	}
	if len(coverage) > 0 {
		sum.Coverage = stat.Mean(coverage, nil)
	}
	sum.PathLength = distribution(lengths)
	sum.MeanSpeed = distribution(speeds)
	return sum, per
}

func distribution(x []float64) Distribution {
	if len(x) == 0 {
		return Distribution{}
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	return Distribution{
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// Bounds returns the box enclosing every sample of set. ok is false when
// the set holds no samples.
func Bounds(set *track.Set) (box r3.Box, ok bool) {
	for tr := range set.All() {
		for _, smp := range tr.Samples {
			p := vec(smp.Position)
			if !ok {
				box, ok = r3.Box{Min: p, Max: p}, true
				continue
			}
			box = grow(box, p)
		}
	}
	return box, ok
}
