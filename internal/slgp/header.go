package slgp

import (
	"fmt"
	"math"
)

// decodeHeader reads the prologue for a concrete dialect. A bad magic word
// stops decoding before any further field is read. Version problems are
// returned as warnings under VersionWarn.
func decodeHeader(r *reader, d Dialect, opts Options) (Header, []error, error) {
	h := Header{Dialect: d}
	l := d.layout()

	if !opts.NoMagic {
		start := r.off
		magic, err := r.readU32("magic")
		if err != nil {
			return h, nil, err
		}
		if magic != Magic {
			return h, nil, &DecodeError{
				Kind:   ErrBadMagic,
				Field:  "magic",
				Offset: start,
				Want:   4,
				Have:   len(r.data) - start,
				Detail: fmt.Sprintf("got 0x%08X, want 0x%08X", magic, Magic),
			}
		}
		h.Magic, h.HasMagic = magic, true
	}

	var warnings []error
	versionOff := r.off
	v, err := r.readF32("version")
	if err != nil {
		return h, nil, err
	}
	h.Version = v
	lo, hi := opts.versionRange()
	if math.IsNaN(float64(v)) || v < lo || v > hi {
		verr := &DecodeError{
			Kind:   ErrUnsupportedVersion,
			Field:  "version",
			Offset: versionOff,
			Want:   4,
			Have:   len(r.data) - versionOff,
			Detail: fmt.Sprintf("version %g outside [%g, %g]", v, lo, hi),
		}
		if opts.VersionPolicy != VersionWarn {
			return h, nil, verr
		}
		warnings = append(warnings, verr)
	}

	if l.headerPairs {
		frameOff := r.off
		if h.FrameCount, err = r.readU64("frame count"); err != nil {
			return h, nil, err
		}
		countOff := r.off
		if h.ParticleCount, err = r.readU64("particle count"); err != nil {
			return h, nil, err
		}
		if !l.framed && h.FrameCount != 0 {
			return h, nil, &DecodeError{
				Kind:   ErrInconsistentRecordCount,
				Field:  "frame count",
				Offset: frameOff,
				Detail: fmt.Sprintf("%s layout has no frames but declares %d", d, h.FrameCount),
			}
		}
		if l.inlineCount && h.ParticleCount != 0 {
			return h, nil, &DecodeError{
				Kind:   ErrInconsistentRecordCount,
				Field:  "particle count",
				Offset: countOff,
				Detail: fmt.Sprintf("%s layout stores counts per frame but header declares %d", d, h.ParticleCount),
			}
		}
	} else {
		if h.ParticleCount, err = r.readU64("particle count"); err != nil {
			return h, nil, err
		}
	}

	h.Size = r.off
	return h, warnings, nil
}
