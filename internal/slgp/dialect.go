package slgp

import (
	"fmt"
	"strings"
)

// Dialect selects one of the binary layouts observed across SLGP revisions.
type Dialect int

const (
	// DialectAuto probes the concrete dialects and keeps the first whose
	// declared sizes exactly cover the input.
	DialectAuto Dialect = iota
	// DialectFrameImplicit: frame count + particles per frame; each frame is
	// a time followed by bare positions whose id is their index in the frame.
	DialectFrameImplicit
	// DialectFrameTime: like DialectFrameImplicit but records carry an id.
	DialectFrameTime
	// DialectFrameInline: frame count; each frame stores its own record count
	// and records carry id, time and position.
	DialectFrameInline
	// DialectFlat: no frames; a global record count of id, time, position.
	DialectFlat
	// DialectStream is what the simulator's exporter writes: a single
	// particles-per-frame count, then id, time, position records until EOF.
	DialectStream
)

var dialectNames = map[Dialect]string{
	DialectAuto:          "auto",
	DialectFrameImplicit: "frame-implicit",
	DialectFrameTime:     "frame-time",
	DialectFrameInline:   "frame-inline",
	DialectFlat:          "flat",
	DialectStream:        "stream",
}

func (d Dialect) String() string {
	if s, ok := dialectNames[d]; ok {
		return s
	}
	return fmt.Sprintf("dialect(%d)", int(d))
}

// ParseDialect maps a configuration name to a Dialect. The single letters
// a–d are accepted as aliases for the four frame/flat layouts.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DialectAuto, nil
	case "a", "frame-implicit":
		return DialectFrameImplicit, nil
	case "b", "frame-time":
		return DialectFrameTime, nil
	case "c", "frame-inline":
		return DialectFrameInline, nil
	case "d", "flat":
		return DialectFlat, nil
	case "stream":
		return DialectStream, nil
	}
	return DialectAuto, fmt.Errorf("slgp: unknown dialect %q", s)
}

// probeOrder is the order DialectAuto tries concrete layouts in.
var probeOrder = []Dialect{
	DialectFrameImplicit,
	DialectFrameTime,
	DialectFlat,
	DialectFrameInline,
	DialectStream,
}

// layout describes a dialect structurally; the decoder reads any dialect
// through it rather than through per-dialect code paths.
type layout struct {
	framed      bool // header carries a frame count
	headerPairs bool // header carries two u64 counts (else one)
	frameTime   bool // frame body starts with a time
	inlineCount bool // frame body carries its own record count
	recordID    bool
	recordTime  bool
	untilEOF    bool // frames run to the end of input
}

func (d Dialect) layout() layout {
	switch d {
	case DialectFrameImplicit:
		return layout{framed: true, headerPairs: true, frameTime: true}
	case DialectFrameTime:
		return layout{framed: true, headerPairs: true, frameTime: true, recordID: true}
	case DialectFrameInline:
		return layout{framed: true, headerPairs: true, inlineCount: true, recordID: true, recordTime: true}
	case DialectFlat:
		return layout{headerPairs: true, recordID: true, recordTime: true}
	case DialectStream:
		return layout{recordID: true, recordTime: true, untilEOF: true}
	}
	return layout{}
}

func (l layout) recordSize() int {
	n := 12
	if l.recordID {
		n += 4
	}
	if l.recordTime {
		n += 4
	}
	return n
}

// frameOverhead is the per-frame byte count before the records.
func (l layout) frameOverhead() int {
	n := 0
	if l.frameTime {
		n += 4
	}
	if l.inlineCount {
		n += 8
	}
	return n
}

// fixedFrames reports whether every frame has the same, header-derived size,
// which is what makes frames independently addressable.
func (l layout) fixedFrames() bool {
	return !l.inlineCount && (l.framed || l.untilEOF)
}
