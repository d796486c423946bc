package track

import "slgp-tracks/internal/mathutil"

// SampleAt returns the position of tr at time t. Before the first sample and
// at or after the last one the position is clamped to that sample; a time
// equal to a sample time returns that sample exactly; anything else is the
// linear interpolation of the two samples around t. An empty track yields
// the origin.
//
// SampleAt does not allocate and only reads tr.
func SampleAt(tr *Track, t float32) [3]float32 {
	s := tr.Samples
	switch {
	case len(s) == 0:
		return [3]float32{}
	case t <= s[0].Time || t != t:
		return s[0].Position
	case t >= s[len(s)-1].Time:
		return s[len(s)-1].Position
	}

	// s[0].Time < t < s[last].Time, so 0 < i < len(s).
	i := search(s, t)
	hi := s[i]
	if hi.Time == t {
		return hi.Position
	}
	lo := s[i-1]
	if hi.Time == lo.Time {
		return hi.Position
	}
	f := (float64(t) - float64(lo.Time)) / (float64(hi.Time) - float64(lo.Time))
	return mathutil.Lerp(lo.Position, hi.Position, f)
}

// At is SampleAt(tr, t).
func (tr *Track) At(t float32) [3]float32 { return SampleAt(tr, t) }

// SampleAt evaluates the track of id at t.
func (s *Set) SampleAt(id uint32, t float32) ([3]float32, bool) {
	tr, ok := s.Get(id)
	if !ok {
		return [3]float32{}, false
	}
	return SampleAt(tr, t), true
}

// Snapshot appends the position of every track at t to dst[:0], in id
// order, and returns it.
func (s *Set) Snapshot(t float32, dst []Point) []Point {
	dst = dst[:0]
	for i := range s.tracks {
		tr := &s.tracks[i]
		dst = append(dst, Point{ID: tr.ID, Position: SampleAt(tr, t)})
	}
	return dst
}

// LiveSnapshot is Snapshot restricted to tracks whose sampled span contains
// t, leaving out particles not yet born or already gone.
func (s *Set) LiveSnapshot(t float32, dst []Point) []Point {
	dst = dst[:0]
	for i := range s.tracks {
		tr := &s.tracks[i]
		if tr.Covers(t) {
			dst = append(dst, Point{ID: tr.ID, Position: SampleAt(tr, t)})
		}
	}
	return dst
}

// search returns the first index whose time is >= t.
func search(s []Sample, t float32) int {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if s[mid].Time < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
