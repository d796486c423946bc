package slgp

import (
	"errors"
	"fmt"
	"math"
)

// maxPayload bounds the bytes a declared count may describe.
const maxPayload = math.MaxInt / 2

// checkCount rejects a declared record count whose payload overflows. Counts
// that merely exceed the input are left to the cursor, which reports them as
// truncation at the first short read.
func checkCount(r *reader, field string, off int, count uint64, size int) error {
	if size <= 0 || count <= uint64(maxPayload/size) {
		return nil
	}
	return &DecodeError{
		Kind:   ErrInconsistentRecordCount,
		Field:  field,
		Offset: off,
		Want:   math.MaxInt,
		Have:   len(r.data) - off,
		Detail: fmt.Sprintf("declared %d records of %d bytes overflows", count, size),
	}
}

// capacity is the number of count items of size bytes that could still
// fit at the cursor, used to size slices before reading.
func capacity(r *reader, count uint64, size int) int {
	if size <= 0 {
		return 0
	}
	return int(min(count, uint64(r.remaining()/size)))
}

// decodeFrame reads one frame body at the cursor. particles is the header's
// per-frame count and is ignored when the layout stores counts inline.
func decodeFrame(r *reader, l layout, index int, particles uint64) (Frame, error) {
	f := Frame{Index: index}

	var err error
	if l.frameTime {
		if f.Time, err = r.readF32("time"); err != nil {
			return f, locate(err, index, -1)
		}
	}

	count := particles
	if l.inlineCount {
		off := r.off
		if count, err = r.readU64("particle count"); err != nil {
			return f, locate(err, index, -1)
		}
		if err := checkCount(r, "particle count", off, count, l.recordSize()); err != nil {
			return f, locate(err, index, -1)
		}
	}

	f.Records = make([]Record, 0, capacity(r, count, l.recordSize()))
	for i := 0; uint64(i) < count; i++ {
		f.Records = append(f.Records, Record{})
		rec := &f.Records[i]
		if l.recordID {
			if rec.ID, err = r.readU32("id"); err != nil {
				return f, locate(err, index, i)
			}
		} else {
			rec.ID = uint32(i)
		}
		if l.recordTime {
			if rec.Time, err = r.readF32("time"); err != nil {
				return f, locate(err, index, i)
			}
		} else {
			rec.Time = f.Time
		}
		if rec.Position, err = r.readVec3("position"); err != nil {
			return f, locate(err, index, i)
		}
	}

	if !l.frameTime && len(f.Records) > 0 {
		f.Time = f.Records[0].Time
		for _, rec := range f.Records[1:] {
			if rec.Time < f.Time {
				f.Time = rec.Time
			}
		}
	}
	return f, nil
}

// locate prefixes a DecodeError's field with its frame and record index.
// record < 0 marks a frame-level field.
func locate(err error, frame, record int) error {
	var de *DecodeError
	if !errors.As(err, &de) {
		return err
	}
	if record < 0 {
		de.Field = fmt.Sprintf("frame %d %s", frame, de.Field)
	} else {
		de.Field = fmt.Sprintf("frame %d record %d %s", frame, record, de.Field)
	}
	return de
}
