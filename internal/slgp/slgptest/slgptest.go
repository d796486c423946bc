// Package slgptest builds SLGP byte buffers for tests.
package slgptest

import (
	"encoding/binary"
	"fmt"
	"math"

	"slgp-tracks/internal/slgp"
)

// Frame is one frame to encode. Time is written only by layouts with a
// frame-level time; Records' own Time is written only by layouts with
// per-record time.
type Frame struct {
	Time    float32
	Records []slgp.Record
}

type config struct {
	magic   uint32
	noMagic bool
	version float32
}

// Option tweaks the encoded header.
type Option func(*config)

// WithMagic writes m instead of the sentinel.
func WithMagic(m uint32) Option { return func(c *config) { c.magic = m } }

// WithoutMagic omits the magic word entirely.
func WithoutMagic() Option { return func(c *config) { c.noMagic = true } }

// WithVersion writes v as the format version (default 1.0).
func WithVersion(v float32) Option { return func(c *config) { c.version = v } }

// Encode lays frames out in dialect d. Global-count layouts require every
// frame to hold the same number of records; Encode panics otherwise, as it
// does for DialectAuto.
func Encode(d slgp.Dialect, frames []Frame, opts ...Option) []byte {
	cfg := config{magic: slgp.Magic, version: 1.0}
	for _, o := range opts {
		o(&cfg)
	}

	var b []byte
	if !cfg.noMagic {
		b = binary.LittleEndian.AppendUint32(b, cfg.magic)
	}
	b = appendF32(b, cfg.version)

	switch d {
	case slgp.DialectFrameImplicit, slgp.DialectFrameTime:
		per := uniformCount(frames)
		b = binary.LittleEndian.AppendUint64(b, uint64(len(frames)))
		b = binary.LittleEndian.AppendUint64(b, uint64(per))
		for _, f := range frames {
			b = appendF32(b, f.Time)
			for _, rec := range f.Records {
				if d == slgp.DialectFrameTime {
					b = binary.LittleEndian.AppendUint32(b, rec.ID)
				}
				b = appendVec3(b, rec.Position)
			}
		}
	case slgp.DialectFrameInline:
		b = binary.LittleEndian.AppendUint64(b, uint64(len(frames)))
		b = binary.LittleEndian.AppendUint64(b, 0)
		for _, f := range frames {
			b = binary.LittleEndian.AppendUint64(b, uint64(len(f.Records)))
			for _, rec := range f.Records {
				b = appendFull(b, rec)
			}
		}
	case slgp.DialectFlat:
		total := 0
		for _, f := range frames {
			total += len(f.Records)
		}
		b = binary.LittleEndian.AppendUint64(b, 0)
		b = binary.LittleEndian.AppendUint64(b, uint64(total))
		for _, f := range frames {
			for _, rec := range f.Records {
				b = appendFull(b, rec)
			}
		}
	case slgp.DialectStream:
		b = binary.LittleEndian.AppendUint64(b, uint64(uniformCount(frames)))
		for _, f := range frames {
			for _, rec := range f.Records {
				b = appendFull(b, rec)
			}
		}
	default:
		panic(fmt.Sprintf("slgptest: cannot encode %s", d))
	}
	return b
}

// Grid returns nFrames frames of nParticles records each. Frame i has time
// i*dt; particle j has id ids(j) and moves along +X by j+1 units per frame.
func Grid(nFrames, nParticles int, dt float32, ids func(j int) uint32) []Frame {
	if ids == nil {
		ids = func(j int) uint32 { return uint32(j) }
	}
	frames := make([]Frame, nFrames)
	for i := range frames {
		t := float32(i) * dt
		recs := make([]slgp.Record, nParticles)
		for j := range recs {
			recs[j] = slgp.Record{
				ID:       ids(j),
				Time:     t,
				Position: [3]float32{float32(i * (j + 1)), float32(j), -float32(i)},
			}
		}
		frames[i] = Frame{Time: t, Records: recs}
	}
	return frames
}

func uniformCount(frames []Frame) int {
	if len(frames) == 0 {
		return 0
	}
	n := len(frames[0].Records)
	for i, f := range frames {
		if len(f.Records) != n {
			panic(fmt.Sprintf("slgptest: frame %d has %d records, want %d", i, len(f.Records), n))
		}
	}
	return n
}

func appendF32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func appendVec3(b []byte, p [3]float32) []byte {
	return appendF32(appendF32(appendF32(b, p[0]), p[1]), p[2])
}

func appendFull(b []byte, rec slgp.Record) []byte {
	b = binary.LittleEndian.AppendUint32(b, rec.ID)
	b = appendF32(b, rec.Time)
	return appendVec3(b, rec.Position)
}
