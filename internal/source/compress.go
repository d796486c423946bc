package source

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the framing found around a payload.
type Compression int

const (
	None Compression = iota
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	}
	return "none"
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Sniff reports the compression framing of data from its leading bytes.
// Raw caches start with the 0xFFAABB77 sentinel or a small positive version
// float, neither of which matches a frame magic.
func Sniff(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	case bytes.HasPrefix(data, lz4Magic):
		return LZ4
	}
	return None
}

// decompress replaces d.Bytes with the decoded payload and drops any
// mapping of the compressed input.
func decompress(d *Data) error {
	c := Sniff(d.Bytes)
	if c == None {
		return nil
	}

	var (
		out []byte
		err error
	)
	switch c {
	case Zstd:
		var dec *zstd.Decoder
		dec, err = zstd.NewReader(nil)
		if err != nil {
			return err
		}
		out, err = dec.DecodeAll(d.Bytes, nil)
		dec.Close()
	case LZ4:
		out, err = io.ReadAll(lz4.NewReader(bytes.NewReader(d.Bytes)))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}

	if err := d.Close(); err != nil {
		return err
	}
	d.Bytes = out
	d.Compression = c
	d.Mapped = false
	return nil
}
