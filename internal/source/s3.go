package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// NewS3Client builds a client from the default credential chain. A custom
// endpoint switches to path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("source: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func openS3(ctx context.Context, loc Location, opts Options) (*Data, error) {
	client := opts.S3Client
	if client == nil {
		c, err := NewS3Client(ctx, opts.S3Region, opts.S3Endpoint)
		if err != nil {
			return nil, err
		}
		client = c
	}

	buf := manager.NewWriteAtBuffer(nil)
	dl := manager.NewDownloader(client)
	_, err := dl.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, loc.Bucket, loc.Key)
		}
		return nil, fmt.Errorf("source: download s3://%s/%s: %w", loc.Bucket, loc.Key, err)
	}
	return &Data{Bytes: buf.Bytes()}, nil
}
