package slgp

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every decode failure is a *DecodeError whose Kind is one of
// these, so callers match with errors.Is.
var (
	ErrBadMagic                = errors.New("slgp: bad magic word")
	ErrTruncatedInput          = errors.New("slgp: truncated input")
	ErrUnsupportedVersion      = errors.New("slgp: unsupported format version")
	ErrInconsistentRecordCount = errors.New("slgp: inconsistent record count")
)

// DecodeError locates a decode failure in the input.
type DecodeError struct {
	Kind   error
	Field  string // what was being read, e.g. "frame 3 record 17 position"
	Offset int    // byte offset of the field
	Want   int    // bytes required
	Have   int    // bytes available from Offset
	Detail string
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	fmt.Fprintf(&b, ": %s at offset %d", e.Field, e.Offset)
	if e.Want > 0 || e.Have > 0 {
		fmt.Fprintf(&b, " (want %d bytes, have %d)", e.Want, e.Have)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Kind }

// Kind reports which of the error kinds err carries, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrBadMagic, ErrTruncatedInput, ErrUnsupportedVersion, ErrInconsistentRecordCount} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
