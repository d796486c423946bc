package source

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewMinioClient connects to a MinIO or other S3-compatible endpoint with
// static credentials.
func NewMinioClient(endpoint, accessKey, secretKey string, secure bool) (*minio.Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("source: minio endpoint not configured")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("source: minio client: %w", err)
	}
	return client, nil
}

func openMinio(ctx context.Context, loc Location, opts Options) (*Data, error) {
	client := opts.MinioClient
	if client == nil {
		c, err := NewMinioClient(opts.MinioEndpoint, opts.MinioAccessKey, opts.MinioSecretKey, opts.MinioSecure)
		if err != nil {
			return nil, err
		}
		client = c
	}

	obj, err := client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("source: get minio://%s/%s: %w", loc.Bucket, loc.Key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return nil, fmt.Errorf("%w: minio://%s/%s", ErrNotFound, loc.Bucket, loc.Key)
		}
		return nil, fmt.Errorf("source: read minio://%s/%s: %w", loc.Bucket, loc.Key, err)
	}
	return &Data{Bytes: data}, nil
}
