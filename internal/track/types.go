// Package track regroups decoded frames into per-particle time series and
// evaluates them at arbitrary times.
package track

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Sample is one observation of a particle.
type Sample struct {
	Time     float32
	Position [3]float32
}

// Track is the time series of one particle id. Samples are sorted by
// ascending time with no two samples sharing a bit-identical time.
type Track struct {
	ID      uint32
	Samples []Sample
	// Frames holds the indices of the frames the particle appeared in.
	Frames *roaring.Bitmap
}

// Len returns the number of samples.
func (t *Track) Len() int { return len(t.Samples) }

// Span returns the first and last sample times. ok is false for a track
// without samples.
func (t *Track) Span() (start, end float32, ok bool) {
	if len(t.Samples) == 0 {
		return 0, 0, false
	}
	return t.Samples[0].Time, t.Samples[len(t.Samples)-1].Time, true
}

// Covers reports whether time lies within the track's sampled span.
func (t *Track) Covers(time float32) bool {
	start, end, ok := t.Span()
	return ok && time >= start && time <= end
}

// PresentIn reports whether the particle was recorded in the given frame.
func (t *Track) PresentIn(frame int) bool {
	return frame >= 0 && t.Frames.Contains(uint32(frame))
}

// FrameRange returns the first and last frame the particle appeared in.
func (t *Track) FrameRange() (first, last int, ok bool) {
	if t.Frames.IsEmpty() {
		return 0, 0, false
	}
	return int(t.Frames.Minimum()), int(t.Frames.Maximum()), true
}

// Point is a particle position at a snapshot time.
type Point struct {
	ID       uint32     `json:"id"`
	Position [3]float32 `json:"position"`
}

// Set holds the tracks built from one cache, ordered by ascending id.
// It is immutable once built and safe for concurrent readers.
type Set struct {
	tracks []Track
	index  map[uint32]int
	frames int
}

// Len returns the number of tracks.
func (s *Set) Len() int { return len(s.tracks) }

// FrameCount returns the number of frames the set was built from.
func (s *Set) FrameCount() int { return s.frames }

// At returns the i-th track in id order.
func (s *Set) At(i int) *Track { return &s.tracks[i] }

// Get returns the track for id.
func (s *Set) Get(id uint32) (*Track, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.tracks[i], true
}

// All yields every track in id order.
func (s *Set) All() iter.Seq[*Track] {
	return func(yield func(*Track) bool) {
		for i := range s.tracks {
			if !yield(&s.tracks[i]) {
				return
			}
		}
	}
}

// IDs returns the particle ids in ascending order.
func (s *Set) IDs() []uint32 {
	ids := make([]uint32, len(s.tracks))
	for i := range s.tracks {
		ids[i] = s.tracks[i].ID
	}
	return ids
}

// SampleCount returns the total number of samples over all tracks.
func (s *Set) SampleCount() int {
	n := 0
	for i := range s.tracks {
		n += len(s.tracks[i].Samples)
	}
	return n
}

// TimeRange returns the earliest and latest sample time of any track.
func (s *Set) TimeRange() (lo, hi float32, ok bool) {
	for i := range s.tracks {
		start, end, has := s.tracks[i].Span()
		if !has {
			continue
		}
		if !ok {
			lo, hi, ok = start, end, true
			continue
		}
		lo = min(lo, start)
		hi = max(hi, end)
	}
	return lo, hi, ok
}
