// Package source fetches the raw bytes of a cache from a local file, S3 or
// MinIO, and undoes zstd or LZ4 framing when the payload carries it.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/minio/minio-go/v7"
)

// ErrNotFound is returned when the object or file does not exist.
var ErrNotFound = errors.New("source: not found")

// Options configures remote backends. Clients left nil are built from the
// endpoint and credential fields on first use.
type Options struct {
	S3Region   string
	S3Endpoint string
	S3Client   manager.DownloadAPIClient

	MinioEndpoint  string
	MinioSecure    bool
	MinioAccessKey string
	MinioSecretKey string
	MinioClient    *minio.Client

	// NoMmap reads local files into the heap instead of mapping them.
	NoMmap bool
}

// Data is a fetched payload. Bytes may be a read-only memory mapping and
// must not be used after Close.
type Data struct {
	URI         string
	Bytes       []byte
	Compression Compression
	Mapped      bool

	release func() error
}

// Close releases the mapping, if any, and drops Bytes. It is safe to call
// more than once.
func (d *Data) Close() error {
	d.Bytes = nil
	if d.release == nil {
		return nil
	}
	err := d.release()
	d.release = nil
	return err
}

// Location is a parsed source URI.
type Location struct {
	Scheme string // "file", "s3" or "minio"
	Bucket string
	Key    string // object key, or the file path
}

// Parse splits uri into a Location. Bare paths are files.
func Parse(uri string) (Location, error) {
	if !strings.Contains(uri, "://") {
		if uri == "" {
			return Location{}, fmt.Errorf("source: empty location")
		}
		return Location{Scheme: "file", Key: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("source: parse %q: %w", uri, err)
	}
	switch u.Scheme {
	case "file":
		p := u.Path
		if u.Host != "" {
			p = u.Host + p
		}
		if p == "" {
			return Location{}, fmt.Errorf("source: %q has no path", uri)
		}
		return Location{Scheme: "file", Key: p}, nil
	case "s3", "minio":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("source: %q needs a bucket and a key", uri)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Key: key}, nil
	}
	return Location{}, fmt.Errorf("source: unsupported scheme %q", u.Scheme)
}

// Open fetches uri and returns its decompressed bytes.
func Open(ctx context.Context, uri string, opts Options) (*Data, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	var d *Data
	switch loc.Scheme {
	case "file":
		d, err = openFile(loc.Key, opts.NoMmap)
	case "s3":
		d, err = openS3(ctx, loc, opts)
	case "minio":
		d, err = openMinio(ctx, loc, opts)
	}
	if err != nil {
		return nil, err
	}
	d.URI = uri

	if err := decompress(d); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("source: %s: %w", uri, err)
	}
	return d, nil
}
