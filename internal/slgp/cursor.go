package slgp

import (
	"encoding/binary"
	"math"
)

// reader is a bounds-checked little-endian cursor over the whole input.
// A failed read leaves the offset untouched.
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) need(field string, n int) error {
	if n < 0 || r.remaining() < n {
		return &DecodeError{
			Kind:   ErrTruncatedInput,
			Field:  field,
			Offset: r.off,
			Want:   n,
			Have:   r.remaining(),
		}
	}
	return nil
}

func (r *reader) readBytes(field string, n int) ([]byte, error) {
	if err := r.need(field, n); err != nil {
		return nil, err
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) readU32(field string) (uint32, error) {
	if err := r.need(field, 4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) readU64(field string) (uint64, error) {
	if err := r.need(field, 8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

func (r *reader) readF32(field string) (float32, error) {
	v, err := r.readU32(field)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// readVec3 reads x, y, z as one 12-byte unit so a short position never
// half-advances the cursor.
func (r *reader) readVec3(field string) ([3]float32, error) {
	b, err := r.readBytes(field, 12)
	if err != nil {
		return [3]float32{}, err
	}
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}, nil
}
