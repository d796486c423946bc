package slgp

// Magic is the sentinel word written at offset 0 by every SLGP revision that declares one.
const Magic uint32 = 0xFFAABB77

// Header holds the fixed-size prologue of a cache file.
type Header struct {
	Magic    uint32
	HasMagic bool
	Version  float32

	// FrameCount is 0 for layouts without frame grouping.
	FrameCount uint64
	// ParticleCount is particles per frame for frame-grouped layouts with a
	// global count, the record total for the flat layout, and 0 when counts
	// are stored inline per frame.
	ParticleCount uint64

	Dialect Dialect // layout actually in effect (never DialectAuto)
	Size    int     // header length in bytes
}

// Record is one particle observation.
type Record struct {
	ID       uint32
	Time     float32 // explicit, or inherited from the enclosing frame
	Position [3]float32
}

// Frame is one group of records in file order. Records are neither sorted nor
// deduplicated.
type Frame struct {
	Index   int
	Time    float32 // minimum record time when the layout stores none
	Records []Record
}

// Cache is the immutable result of one decode pass.
type Cache struct {
	Header   Header
	Frames   []Frame
	Warnings []error // non-fatal findings, e.g. version outside range under VersionWarn
	Trailing int     // bytes left after the last record (only with AllowTrailing)
}

// RecordCount returns the number of records across all frames.
func (c *Cache) RecordCount() int {
	n := 0
	for i := range c.Frames {
		n += len(c.Frames[i].Records)
	}
	return n
}

// TimeRange returns the smallest and largest record time in the cache.
// ok is false when the cache holds no records.
func (c *Cache) TimeRange() (lo, hi float32, ok bool) {
	for i := range c.Frames {
		for _, rec := range c.Frames[i].Records {
			if !ok {
				lo, hi, ok = rec.Time, rec.Time, true
				continue
			}
			if rec.Time < lo {
				lo = rec.Time
			}
			if rec.Time > hi {
				hi = rec.Time
			}
		}
	}
	return lo, hi, ok
}
