// Package loader turns a cache location into a decoded, track-indexed
// animation.
package loader

import (
	"context"
	"fmt"
	"time"

	"slgp-tracks/internal/config"
	"slgp-tracks/internal/logging"
	"slgp-tracks/internal/slgp"
	"slgp-tracks/internal/source"
	"slgp-tracks/internal/track"
)

// Animation is a decoded cache plus its per-particle tracks.
type Animation struct {
	Source string
	Cache  *slgp.Cache
	Tracks *track.Set
}

// Duration returns the sampled time range of the animation.
func (a *Animation) Duration() (start, end float32, ok bool) {
	return a.Tracks.TimeRange()
}

// SourceOptions maps the source fields of cfg.
func SourceOptions(cfg *config.Config) source.Options {
	return source.Options{
		S3Region:       cfg.S3Region,
		S3Endpoint:     cfg.S3Endpoint,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioSecure:    cfg.MinioSecure,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
	}
}

// Load fetches, decodes and indexes one cache. The source bytes are
// released before returning; nothing in the result aliases them.
func Load(ctx context.Context, uri string, cfg *config.Config, log *logging.Logger) (*Animation, error) {
	opts, err := cfg.Decode()
	if err != nil {
		return nil, err
	}
	return LoadWith(ctx, uri, SourceOptions(cfg), opts, log)
}

// LoadWith is Load with explicit source and decode options.
func LoadWith(ctx context.Context, uri string, so source.Options, opts slgp.Options, log *logging.Logger) (*Animation, error) {
	if log == nil {
		log = logging.Noop()
	}
	log = log.WithSource(uri)
	start := time.Now()

	data, err := source.Open(ctx, uri, so)
	if err != nil {
		return nil, err
	}
	defer data.Close()
	if data.Compression != source.None {
		log.Debug("payload decompressed", "compression", data.Compression.String(), "bytes", len(data.Bytes))
	}

	c, err := slgp.Decode(data.Bytes, opts)
	if err != nil {
		return nil, fmt.Errorf("loader: decode %s: %w", uri, err)
	}

	set := track.Build(c.Frames)
	log.LogLoad(c, set.Len(), time.Since(start))

	return &Animation{Source: uri, Cache: c, Tracks: set}, nil
}
