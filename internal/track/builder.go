package track

import (
	"cmp"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"slgp-tracks/internal/slgp"
)

// Build groups every record of frames by particle id. Each id seen anywhere
// gets exactly one track. Samples are ordered by time; when two samples of
// one id carry bit-identical times the one encountered later wins. Records
// with a NaN time mark the frame as present but add no sample.
func Build(frames []slgp.Frame) *Set {
	s := &Set{index: make(map[uint32]int), frames: len(frames)}

	for fi := range frames {
		f := &frames[fi]
		for _, rec := range f.Records {
			slot, ok := s.index[rec.ID]
			if !ok {
				slot = len(s.tracks)
				s.index[rec.ID] = slot
				s.tracks = append(s.tracks, Track{ID: rec.ID, Frames: roaring.New()})
			}
			tr := &s.tracks[slot]
			tr.Frames.Add(uint32(f.Index))
			if rec.Time != rec.Time {
				continue
			}
			tr.Samples = append(tr.Samples, Sample{Time: rec.Time, Position: rec.Position})
		}
	}

	for i := range s.tracks {
		tr := &s.tracks[i]
		slices.SortStableFunc(tr.Samples, func(a, b Sample) int { return cmp.Compare(a.Time, b.Time) })
		tr.Samples = slices.Clip(dedupe(tr.Samples))
		tr.Frames.RunOptimize()
	}

	slices.SortFunc(s.tracks, func(a, b Track) int { return cmp.Compare(a.ID, b.ID) })
	for i := range s.tracks {
		s.index[s.tracks[i].ID] = i
	}
	return s
}

// dedupe collapses samples with bit-identical times, keeping the last of
// each. samples must be stably sorted by time, so equal times are adjacent
// and keep encounter order. +0 and -0 compare equal but are distinct keys.
func dedupe(samples []Sample) []Sample {
	out := samples[:0]
	for i := 0; i < len(samples); {
		j := i + 1
		for j < len(samples) && samples[j].Time == samples[i].Time {
			j++
		}
		run := samples[i:j]
		for k := range run {
			if !supersededIn(run[k+1:], run[k].Time) {
				out = append(out, run[k])
			}
		}
		i = j
	}
	return out
}

func supersededIn(later []Sample, t float32) bool {
	bits := math.Float32bits(t)
	for _, s := range later {
		if math.Float32bits(s.Time) == bits {
			return true
		}
	}
	return false
}
