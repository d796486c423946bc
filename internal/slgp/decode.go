// Package slgp decodes SLGP particle-simulation caches.
//
// All observed revisions share one reader: a Dialect selects a structural
// layout (frame grouping, where counts and times live) and the same cursor,
// header and frame code reads every one of them. Decoding never logs and
// never writes; failures are *DecodeError values carrying the byte offset
// and the expected and available sizes.
package slgp

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
)

// VersionPolicy decides what an out-of-range format version does.
type VersionPolicy int

const (
	VersionFatal VersionPolicy = iota // fail with ErrUnsupportedVersion
	VersionWarn                       // decode and record the error in Cache.Warnings
)

// Default accepted version range. Every observed revision writes 1.0.
const (
	DefaultMinVersion float32 = 1.0
	DefaultMaxVersion float32 = 1.0
)

// Options configures Decode. The zero value decodes any dialect by probing,
// requires the magic word and accepts only the default version range.
type Options struct {
	Dialect Dialect
	// NoMagic declares that the layout has no magic word at all; the header
	// starts with the version and no sentinel validation happens.
	NoMagic bool

	MinVersion    float32 // both zero selects the default range
	MaxVersion    float32
	VersionPolicy VersionPolicy

	// AllowTrailing tolerates bytes after the last declared record instead
	// of failing with ErrInconsistentRecordCount. Ignored while probing.
	AllowTrailing bool

	// Workers > 1 decodes fixed-size frames concurrently once their offsets
	// are known. Layouts with inline counts always decode sequentially.
	Workers int
}

func (o Options) versionRange() (float32, float32) {
	if o.MinVersion == 0 && o.MaxVersion == 0 {
		return DefaultMinVersion, DefaultMaxVersion
	}
	return o.MinVersion, o.MaxVersion
}

// ParseFile reads a cache file from disk and decodes it.
func ParseFile(path string, opts Options) (*Cache, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("slgp: read %s: %w", path, err)
	}
	c, err := Decode(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("slgp: decode %s: %w", path, err)
	}
	return c, nil
}

// Decode decodes a whole cache held in memory. data is not retained.
func Decode(data []byte, opts Options) (*Cache, error) {
	if opts.Dialect == DialectAuto {
		return probe(data, opts)
	}
	if _, ok := dialectNames[opts.Dialect]; !ok {
		return nil, fmt.Errorf("slgp: %s is not a known dialect", opts.Dialect)
	}
	return decodeAs(data, opts.Dialect, opts)
}

// probe tries each concrete dialect with exact size matching. Header-level
// rejections (magic, version) are the same for every dialect and are
// returned immediately instead of being probed around. When no layout fits
// and the candidate that got furthest into the input ran out of bytes, that
// truncation is the error; otherwise the misses are reported together.
func probe(data []byte, opts Options) (*Cache, error) {
	opts.AllowTrailing = false
	var (
		misses   []string
		furthest *DecodeError
	)
	for _, d := range probeOrder {
		c, err := decodeAs(data, d, opts)
		if err == nil {
			return c, nil
		}
		if errors.Is(err, ErrBadMagic) || errors.Is(err, ErrUnsupportedVersion) {
			return nil, err
		}
		var de *DecodeError
		if errors.As(err, &de) && further(de, furthest) {
			furthest = de
		}
		misses = append(misses, fmt.Sprintf("%s: %v", d, err))
	}
	if furthest != nil && furthest.Kind == ErrTruncatedInput {
		return nil, furthest
	}
	return nil, &DecodeError{
		Kind:   ErrInconsistentRecordCount,
		Field:  "dialect probe",
		Have:   len(data),
		Detail: "no layout matches the input exactly [" + strings.Join(misses, "; ") + "]",
	}
}

// further orders probe failures by offset; at equal offsets a truncation
// wins.
func further(a, b *DecodeError) bool {
	switch {
	case b == nil:
		return true
	case a.Offset != b.Offset:
		return a.Offset > b.Offset
	}
	return a.Kind == ErrTruncatedInput && b.Kind != ErrTruncatedInput
}

func decodeAs(data []byte, d Dialect, opts Options) (*Cache, error) {
	r := &reader{data: data}
	h, warnings, err := decodeHeader(r, d, opts)
	if err != nil {
		return nil, err
	}
	l := d.layout()

	var frames []Frame
	switch {
	case l.untilEOF:
		frames, err = decodeStream(r, l, h.ParticleCount, opts.Workers)
	case !l.framed:
		if err = checkCount(r, "particle count", h.Size-8, h.ParticleCount, l.recordSize()); err != nil {
			return nil, err
		}
		if h.ParticleCount > 0 {
			var f Frame
			f, err = decodeFrame(r, l, 0, h.ParticleCount)
			frames = []Frame{f}
		}
	default:
		frames, err = decodeFramed(r, l, h, opts.Workers)
	}
	if err != nil {
		return nil, err
	}

	trailing := r.remaining()
	if trailing > 0 && !opts.AllowTrailing {
		return nil, &DecodeError{
			Kind:   ErrInconsistentRecordCount,
			Field:  "end of records",
			Offset: r.off,
			Have:   trailing,
			Detail: fmt.Sprintf("%d bytes follow the last declared record", trailing),
		}
	}

	return &Cache{
		Header:   h,
		Frames:   frames,
		Warnings: warnings,
		Trailing: trailing,
	}, nil
}

// decodeFramed reads the header-declared number of frames.
func decodeFramed(r *reader, l layout, h Header, workers int) ([]Frame, error) {
	recSize := l.recordSize()
	if !l.inlineCount {
		if err := checkCount(r, "particle count", h.Size-8, h.ParticleCount, recSize); err != nil {
			return nil, err
		}
	}

	// Smallest possible frame: overhead plus the global records if any.
	minFrame := l.frameOverhead()
	if !l.inlineCount {
		minFrame += int(h.ParticleCount) * recSize
	}
	if err := checkCount(r, "frame count", h.Size-16, h.FrameCount, minFrame); err != nil {
		return nil, err
	}
	n := int(h.FrameCount)

	if l.fixedFrames() && workers > 1 && r.remaining() >= n*minFrame {
		return decodeParallel(r, l, n, h.ParticleCount, minFrame, workers)
	}

	frames := make([]Frame, 0, capacity(r, h.FrameCount, minFrame))
	for i := range n {
		f, err := decodeFrame(r, l, i, h.ParticleCount)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// decodeStream reads frames of particles records each until the input ends.
// A partial last frame surfaces as ErrTruncatedInput from the cursor.
func decodeStream(r *reader, l layout, particles uint64, workers int) ([]Frame, error) {
	recSize := l.recordSize()
	if particles == 0 {
		if r.remaining() > 0 {
			return nil, &DecodeError{
				Kind:   ErrInconsistentRecordCount,
				Field:  "particle count",
				Offset: r.off - 8,
				Have:   r.remaining(),
				Detail: "zero particles per frame but records follow",
			}
		}
		return nil, nil
	}
	if err := checkCount(r, "particle count", r.off-8, particles, recSize); err != nil {
		return nil, err
	}
	frameSize := int(particles) * recSize

	if workers > 1 && r.remaining()%frameSize == 0 {
		return decodeParallel(r, l, r.remaining()/frameSize, particles, frameSize, workers)
	}

	frames := make([]Frame, 0, r.remaining()/frameSize+1)
	for r.remaining() > 0 {
		f, err := decodeFrame(r, l, len(frames), particles)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// decodeParallel decodes n frames of frameSize bytes each, each from its own
// cursor. The caller has checked that all n frames are fully present.
func decodeParallel(r *reader, l layout, n int, particles uint64, frameSize, workers int) ([]Frame, error) {
	frames := make([]Frame, n)
	base := r.off

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range frames {
		g.Go(func() error {
			fr := &reader{data: r.data, off: base + i*frameSize}
			f, err := decodeFrame(fr, l, i, particles)
			if err != nil {
				return err
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.off = base + n*frameSize
	return frames, nil
}
