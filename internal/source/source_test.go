package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slgp-tracks/internal/slgp"
	"slgp-tracks/internal/slgp/slgptest"
)

func sampleCache() []byte {
	return slgptest.Encode(slgp.DialectFrameTime, slgptest.Grid(3, 4, 0.5, nil))
}

func TestParse(t *testing.T) {
	tests := []struct {
		uri  string
		want Location
		err  bool
	}{
		{uri: "caches/smoke.slgp", want: Location{Scheme: "file", Key: "caches/smoke.slgp"}},
		{uri: "file:///tmp/a.slgp", want: Location{Scheme: "file", Key: "/tmp/a.slgp"}},
		{uri: "s3://bucket/fx/smoke.slgp", want: Location{Scheme: "s3", Bucket: "bucket", Key: "fx/smoke.slgp"}},
		{uri: "minio://caches/a.slgp", want: Location{Scheme: "minio", Bucket: "caches", Key: "a.slgp"}},
		{uri: "", err: true},
		{uri: "s3://bucket", err: true},
		{uri: "http://host/a.slgp", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := Parse(tt.uri)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenFile(t *testing.T) {
	raw := sampleCache()
	path := filepath.Join(t.TempDir(), "a.slgp")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	for _, noMmap := range []bool{false, true} {
		t.Run(fmt.Sprintf("noMmap=%v", noMmap), func(t *testing.T) {
			d, err := Open(context.Background(), path, Options{NoMmap: noMmap})
			require.NoError(t, err)
			assert.Equal(t, raw, d.Bytes)
			assert.Equal(t, None, d.Compression)
			if noMmap {
				assert.False(t, d.Mapped)
			}
			require.NoError(t, d.Close())
			require.NoError(t, d.Close())
			assert.Nil(t, d.Bytes)
		})
	}
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.slgp")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	d, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Empty(t, d.Bytes)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.slgp"), Options{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Open(context.Background(), t.TempDir(), Options{})
	assert.ErrorContains(t, err, "is a directory")
}

func TestOpenCompressed(t *testing.T) {
	raw := sampleCache()

	var zbuf bytes.Buffer
	zw, err := zstd.NewWriter(&zbuf)
	require.NoError(t, err)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var lbuf bytes.Buffer
	lw := lz4.NewWriter(&lbuf)
	_, err = lw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, lw.Close())

	dir := t.TempDir()
	for name, tt := range map[string]struct {
		data []byte
		want Compression
	}{
		"a.slgp.zst": {zbuf.Bytes(), Zstd},
		"a.slgp.lz4": {lbuf.Bytes(), LZ4},
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, tt.data, 0o644))

			d, err := Open(context.Background(), path, Options{})
			require.NoError(t, err)
			defer d.Close()
			assert.Equal(t, tt.want, d.Compression)
			assert.False(t, d.Mapped)
			assert.Equal(t, raw, d.Bytes)
		})
	}
}

func TestOpenCorruptCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zst")
	require.NoError(t, os.WriteFile(path, append(append([]byte{}, zstdMagic...), 0xff, 0xff, 0xff), 0o644))
	_, err := Open(context.Background(), path, Options{})
	assert.ErrorContains(t, err, "zstd")
}

func TestSniff(t *testing.T) {
	assert.Equal(t, None, Sniff(sampleCache()))
	assert.Equal(t, None, Sniff(nil))
	assert.Equal(t, Zstd, Sniff(zstdMagic))
	assert.Equal(t, LZ4, Sniff(lz4Magic))
	assert.Equal(t, "lz4", LZ4.String())
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, fmt.Errorf("no such object")
	}
	n := int64(len(data))
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(n),
		ContentRange:  aws.String(fmt.Sprintf("bytes 0-%d/%d", n-1, n)),
	}, nil
}

func TestOpenS3(t *testing.T) {
	raw := sampleCache()
	fake := &fakeS3{objects: map[string][]byte{"fx/caches/a.slgp": raw}}

	d, err := Open(context.Background(), "s3://fx/caches/a.slgp", Options{S3Client: fake})
	require.NoError(t, err)
	assert.Equal(t, raw, d.Bytes)
	assert.Equal(t, "s3://fx/caches/a.slgp", d.URI)

	_, err = Open(context.Background(), "s3://fx/missing.slgp", Options{S3Client: fake})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "s3://fx/missing.slgp"))
}

func TestMinioNeedsEndpoint(t *testing.T) {
	_, err := Open(context.Background(), "minio://caches/a.slgp", Options{})
	assert.ErrorContains(t, err, "minio endpoint not configured")
}
