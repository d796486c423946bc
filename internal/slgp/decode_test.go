package slgp_test

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slgp-tracks/internal/slgp"
	"slgp-tracks/internal/slgp/slgptest"
)

var concrete = []slgp.Dialect{
	slgp.DialectFrameImplicit,
	slgp.DialectFrameTime,
	slgp.DialectFrameInline,
	slgp.DialectFlat,
	slgp.DialectStream,
}

func offsetIDs(j int) uint32 { return uint32(j + 100) }

func TestDecodeTwoFrameScenario(t *testing.T) {
	data := slgptest.Encode(slgp.DialectFrameTime, []slgptest.Frame{
		{Time: 0, Records: []slgp.Record{{ID: 7, Position: [3]float32{0, 0, 0}}}},
		{Time: 1, Records: []slgp.Record{{ID: 7, Position: [3]float32{10, 0, 0}}}},
	})

	c, err := slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameTime})
	require.NoError(t, err)

	assert.Equal(t, slgp.Magic, c.Header.Magic)
	assert.True(t, c.Header.HasMagic)
	assert.Equal(t, float32(1.0), c.Header.Version)
	assert.Equal(t, uint64(2), c.Header.FrameCount)
	assert.Equal(t, uint64(1), c.Header.ParticleCount)
	assert.Equal(t, 24, c.Header.Size)

	want := []slgp.Frame{
		{Index: 0, Time: 0, Records: []slgp.Record{{ID: 7, Time: 0, Position: [3]float32{0, 0, 0}}}},
		{Index: 1, Time: 1, Records: []slgp.Record{{ID: 7, Time: 1, Position: [3]float32{10, 0, 0}}}},
	}
	if diff := cmp.Diff(want, c.Frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, c.Warnings)
}

func TestDecodeEveryDialect(t *testing.T) {
	const nFrames, nParticles = 3, 4
	for _, d := range concrete {
		t.Run(d.String(), func(t *testing.T) {
			frames := slgptest.Grid(nFrames, nParticles, 0.5, offsetIDs)
			c, err := slgp.Decode(slgptest.Encode(d, frames), slgp.Options{Dialect: d})
			require.NoError(t, err)
			assert.Equal(t, d, c.Header.Dialect)
			assert.Equal(t, nFrames*nParticles, c.RecordCount())

			if d == slgp.DialectFlat {
				require.Len(t, c.Frames, 1)
				assert.Equal(t, uint64(0), c.Header.FrameCount)
				assert.Equal(t, uint64(nFrames*nParticles), c.Header.ParticleCount)
				return
			}

			require.Len(t, c.Frames, nFrames)
			for i, f := range c.Frames {
				assert.Equal(t, i, f.Index)
				assert.Equal(t, frames[i].Time, f.Time)
				require.Len(t, f.Records, nParticles)
				for j, rec := range f.Records {
					wantID := offsetIDs(j)
					if d == slgp.DialectFrameImplicit {
						wantID = uint32(j)
					}
					assert.Equal(t, wantID, rec.ID)
					assert.Equal(t, frames[i].Time, rec.Time)
					assert.Equal(t, frames[i].Records[j].Position, rec.Position)
				}
			}
		})
	}
}

func TestDecodeAutoProbe(t *testing.T) {
	for _, d := range concrete {
		t.Run(d.String(), func(t *testing.T) {
			data := slgptest.Encode(d, slgptest.Grid(3, 4, 0.5, offsetIDs))
			c, err := slgp.Decode(data, slgp.Options{})
			require.NoError(t, err)
			assert.Equal(t, d, c.Header.Dialect)
			assert.Equal(t, 12, c.RecordCount())
		})
	}
}

func TestDecodeAutoProbeNoMatch(t *testing.T) {
	// Zero frames and one particle, then 30 bytes: the flat layout reads one
	// record and stops 10 bytes short of the end, every other layout stops
	// earlier, and none of them runs out of input.
	var data []byte
	data = binary.LittleEndian.AppendUint32(data, slgp.Magic)
	data = binary.LittleEndian.AppendUint32(data, math.Float32bits(1))
	data = binary.LittleEndian.AppendUint64(data, 0)
	data = binary.LittleEndian.AppendUint64(data, 1)
	data = append(data, make([]byte, 30)...)

	_, err := slgp.Decode(data, slgp.Options{})
	require.ErrorIs(t, err, slgp.ErrInconsistentRecordCount)
	assert.Contains(t, err.Error(), "dialect probe")
}

func TestDecodeBadMagic(t *testing.T) {
	data := slgptest.Encode(slgp.DialectFrameTime, slgptest.Grid(2, 1, 1, nil), slgptest.WithMagic(0))

	for _, d := range append([]slgp.Dialect{slgp.DialectAuto}, concrete...) {
		_, err := slgp.Decode(data, slgp.Options{Dialect: d})
		require.ErrorIs(t, err, slgp.ErrBadMagic, d.String())

		var de *slgp.DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, 0, de.Offset)
		assert.Equal(t, "magic", de.Field)
	}

	// Nothing after the magic word is read: four bytes are enough to reject.
	_, err := slgp.Decode([]byte{1, 2, 3, 4}, slgp.Options{Dialect: slgp.DialectFrameTime})
	assert.ErrorIs(t, err, slgp.ErrBadMagic)
	assert.Equal(t, slgp.ErrBadMagic, slgp.Kind(err))
}

func TestDecodeWithoutMagic(t *testing.T) {
	frames := slgptest.Grid(2, 3, 1, nil)
	data := slgptest.Encode(slgp.DialectFrameInline, frames, slgptest.WithoutMagic())

	c, err := slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameInline, NoMagic: true})
	require.NoError(t, err)
	assert.False(t, c.Header.HasMagic)
	assert.Equal(t, 20, c.Header.Size)
	assert.Equal(t, 6, c.RecordCount())

	// The same bytes read as if they had a magic word are rejected.
	_, err = slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameInline})
	assert.ErrorIs(t, err, slgp.ErrBadMagic)
}

func TestDecodeTruncatedInput(t *testing.T) {
	for _, d := range concrete {
		t.Run(d.String(), func(t *testing.T) {
			data := slgptest.Encode(d, slgptest.Grid(3, 4, 0.25, offsetIDs))
			_, err := slgp.Decode(data, slgp.Options{Dialect: d})
			require.NoError(t, err)

			header := 24
			if d == slgp.DialectStream {
				header = 16
			}
			for n := header; n < len(data); n++ {
				// A stream cut between frames is a shorter valid stream.
				if d == slgp.DialectStream && (n-header)%(4*24) == 0 {
					continue
				}
				_, err := slgp.Decode(data[:n], slgp.Options{Dialect: d})
				require.ErrorIs(t, err, slgp.ErrTruncatedInput, "len %d", n)

				var de *slgp.DecodeError
				require.True(t, errors.As(err, &de))
				assert.Less(t, de.Have, de.Want, "len %d", n)
				assert.Equal(t, n-de.Offset, de.Have, "len %d", n)
			}
		})
	}
}

func TestDecodeAutoProbeTruncatedByOneByte(t *testing.T) {
	for _, d := range concrete {
		t.Run(d.String(), func(t *testing.T) {
			data := slgptest.Encode(d, slgptest.Grid(3, 4, 0.25, offsetIDs))
			_, err := slgp.Decode(data[:len(data)-1], slgp.Options{})
			require.ErrorIs(t, err, slgp.ErrTruncatedInput)

			var de *slgp.DecodeError
			require.True(t, errors.As(err, &de))
			assert.NotEqual(t, "dialect probe", de.Field)
		})
	}
}

func TestDecodeTwoFrameScenarioTruncated(t *testing.T) {
	data := slgptest.Encode(slgp.DialectFrameTime, []slgptest.Frame{
		{Time: 0, Records: []slgp.Record{{ID: 7}}},
		{Time: 1, Records: []slgp.Record{{ID: 7, Position: [3]float32{10, 0, 0}}}},
	})
	require.Len(t, data, 64)

	// Shorter than both declared frames but still past the header.
	for n := 25; n < len(data); n++ {
		_, err := slgp.Decode(data[:n], slgp.Options{Dialect: slgp.DialectFrameTime})
		assert.ErrorIs(t, err, slgp.ErrTruncatedInput, "len %d", n)
	}
	_, err := slgp.Decode(data[:len(data)-1], slgp.Options{})
	assert.ErrorIs(t, err, slgp.ErrTruncatedInput)
}

func TestDecodeTruncatedHeader(t *testing.T) {
	data := slgptest.Encode(slgp.DialectFrameTime, slgptest.Grid(1, 1, 1, nil))
	for n := 0; n < 24; n++ {
		_, err := slgp.Decode(data[:n], slgp.Options{Dialect: slgp.DialectFrameTime})
		assert.ErrorIs(t, err, slgp.ErrTruncatedInput, "len %d", n)
	}
	_, err := slgp.Decode(data[:10], slgp.Options{})
	assert.ErrorIs(t, err, slgp.ErrTruncatedInput)
}

func TestDecodeTruncatedRecordOffset(t *testing.T) {
	// 24-byte header, frame 0 = 4 + 2*16 bytes, frame 1 time at 60, record 0 at 64.
	data := slgptest.Encode(slgp.DialectFrameTime, slgptest.Grid(2, 2, 1, nil))
	_, err := slgp.Decode(data[:74], slgp.Options{Dialect: slgp.DialectFrameTime})

	var de *slgp.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "frame 1 record 0 position", de.Field)
	assert.Equal(t, 68, de.Offset)
	assert.Equal(t, 12, de.Want)
	assert.Equal(t, 6, de.Have)

	// Cut so far that the declared frames cannot fit in the input at all.
	_, err = slgp.Decode(data[:40], slgp.Options{Dialect: slgp.DialectFrameTime})
	assert.ErrorIs(t, err, slgp.ErrInconsistentRecordCount)
}

func TestDecodeInconsistentCounts(t *testing.T) {
	header := func(frames, particles uint64) []byte {
		var b []byte
		b = binary.LittleEndian.AppendUint32(b, slgp.Magic)
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(1))
		b = binary.LittleEndian.AppendUint64(b, frames)
		return binary.LittleEndian.AppendUint64(b, particles)
	}

	tests := []struct {
		name  string
		d     slgp.Dialect
		data  []byte
		field string
	}{
		{"huge particle count", slgp.DialectFrameTime, header(1, 1<<60), "particle count"},
		{"huge frame count", slgp.DialectFrameImplicit, header(1<<62, 0), "frame count"},
		{"huge flat count", slgp.DialectFlat, header(0, math.MaxUint64), "particle count"},
		{"flat with frames", slgp.DialectFlat, header(2, 0), "frame count"},
		{"inline with global count", slgp.DialectFrameInline, header(0, 3), "particle count"},
		{"huge inline count", slgp.DialectFrameInline, binary.LittleEndian.AppendUint64(header(1, 0), 1<<60), "frame 0 particle count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := slgp.Decode(tt.data, slgp.Options{Dialect: tt.d})
			require.ErrorIs(t, err, slgp.ErrInconsistentRecordCount)
			var de *slgp.DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestDecodeStreamZeroParticlesWithData(t *testing.T) {
	var b []byte
	b = binary.LittleEndian.AppendUint32(b, slgp.Magic)
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(1))
	b = binary.LittleEndian.AppendUint64(b, 0)
	b = append(b, make([]byte, 20)...)

	_, err := slgp.Decode(b, slgp.Options{Dialect: slgp.DialectStream})
	assert.ErrorIs(t, err, slgp.ErrInconsistentRecordCount)

	c, err := slgp.Decode(b[:16], slgp.Options{Dialect: slgp.DialectStream})
	require.NoError(t, err)
	assert.Empty(t, c.Frames)
}

func TestDecodeTrailingData(t *testing.T) {
	data := slgptest.Encode(slgp.DialectFrameImplicit, slgptest.Grid(2, 3, 1, nil))
	data = append(data, 0, 0, 0, 0, 0)

	_, err := slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameImplicit})
	require.ErrorIs(t, err, slgp.ErrInconsistentRecordCount)
	var de *slgp.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, len(data)-5, de.Offset)
	assert.Equal(t, 5, de.Have)

	c, err := slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameImplicit, AllowTrailing: true})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Trailing)
	assert.Equal(t, 6, c.RecordCount())
}

func TestDecodeVersionPolicy(t *testing.T) {
	data := slgptest.Encode(slgp.DialectFrameTime, slgptest.Grid(1, 1, 1, nil), slgptest.WithVersion(2))

	_, err := slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameTime})
	require.ErrorIs(t, err, slgp.ErrUnsupportedVersion)

	_, err = slgp.Decode(data, slgp.Options{})
	require.ErrorIs(t, err, slgp.ErrUnsupportedVersion, "probing must not hide a version error")

	c, err := slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameTime, VersionPolicy: slgp.VersionWarn})
	require.NoError(t, err)
	require.Len(t, c.Warnings, 1)
	assert.ErrorIs(t, c.Warnings[0], slgp.ErrUnsupportedVersion)
	assert.Equal(t, float32(2), c.Header.Version)

	c, err = slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameTime, MinVersion: 1, MaxVersion: 3})
	require.NoError(t, err)
	assert.Empty(t, c.Warnings)

	nan := slgptest.Encode(slgp.DialectFrameTime, slgptest.Grid(1, 1, 1, nil), slgptest.WithVersion(float32(math.NaN())))
	_, err = slgp.Decode(nan, slgp.Options{Dialect: slgp.DialectFrameTime})
	assert.ErrorIs(t, err, slgp.ErrUnsupportedVersion)
}

func TestDecodeInlineFrameTimeIsMinimum(t *testing.T) {
	data := slgptest.Encode(slgp.DialectFrameInline, []slgptest.Frame{
		{Records: []slgp.Record{{ID: 1, Time: 3}, {ID: 2, Time: 2.5}, {ID: 3, Time: 4}}},
		{Records: nil},
	})
	c, err := slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameInline})
	require.NoError(t, err)
	require.Len(t, c.Frames, 2)
	assert.Equal(t, float32(2.5), c.Frames[0].Time)
	assert.Empty(t, c.Frames[1].Records)

	lo, hi, ok := c.TimeRange()
	require.True(t, ok)
	assert.Equal(t, float32(2.5), lo)
	assert.Equal(t, float32(4), hi)
}

func TestDecodeParallelMatchesSequential(t *testing.T) {
	for _, d := range concrete {
		t.Run(d.String(), func(t *testing.T) {
			data := slgptest.Encode(d, slgptest.Grid(40, 25, 0.1, offsetIDs))
			seq, err := slgp.Decode(data, slgp.Options{Dialect: d})
			require.NoError(t, err)
			par, err := slgp.Decode(data, slgp.Options{Dialect: d, Workers: 8})
			require.NoError(t, err)
			if diff := cmp.Diff(seq, par); diff != "" {
				t.Errorf("parallel decode differs (-seq +par):\n%s", diff)
			}

			// Truncation is still reported when frames cannot all be addressed.
			_, err = slgp.Decode(data[:len(data)-1], slgp.Options{Dialect: d, Workers: 8})
			assert.ErrorIs(t, err, slgp.ErrTruncatedInput)
		})
	}
}

func TestDecodeEmptyCaches(t *testing.T) {
	for _, d := range concrete {
		c, err := slgp.Decode(slgptest.Encode(d, nil), slgp.Options{Dialect: d})
		require.NoError(t, err, d.String())
		assert.Equal(t, 0, c.RecordCount())
		_, _, ok := c.TimeRange()
		assert.False(t, ok)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.slgp")
	require.NoError(t, os.WriteFile(path, slgptest.Encode(slgp.DialectStream, slgptest.Grid(2, 2, 1, offsetIDs)), 0o644))

	c, err := slgp.ParseFile(path, slgp.Options{})
	require.NoError(t, err)
	assert.Equal(t, slgp.DialectStream, c.Header.Dialect)

	_, err = slgp.ParseFile(filepath.Join(t.TempDir(), "missing.slgp"), slgp.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = slgp.Decode(nil, slgp.Options{Dialect: slgp.Dialect(99)})
	assert.Error(t, err)
}
