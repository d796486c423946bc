package batch

import (
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"

	"slgp-tracks/internal/config"
	"slgp-tracks/internal/logging"
	"slgp-tracks/internal/raster"
	"slgp-tracks/internal/stats"
	"slgp-tracks/internal/texture"
	"slgp-tracks/internal/track"
	"slgp-tracks/internal/viewmatrix"
)

// Margin is the empty border, in output pixels, around the fitted bounds.
const Margin = 16

// Prepare builds a batch Config for set from resolved settings. The camera
// is fitted once to every sample of the animation.
func Prepare(set *track.Set, cfg *config.Config, log *logging.Logger) (Config, error) {
	switch cfg.ImageFormat {
	case "webp", "tga":
	default:
		return Config{}, fmt.Errorf("batch: unsupported image format %q", cfg.ImageFormat)
	}

	view, err := viewmatrix.Preset(cfg.Camera, cfg.Yaw, cfg.Pitch, cfg.ZUp)
	if err != nil {
		return Config{}, err
	}

	box, ok := stats.Bounds(set)
	if !ok {
		box = r3.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	}
	ss := max(cfg.Supersample, 1)
	cam := viewmatrix.Fit(view, box, cfg.RenderSize*ss, Margin*ss, cfg.FOV)

	style := raster.DefaultStyle(cfg.PointRadius)
	style.Additive = cfg.Additive
	if style.Sprite, err = loadSprite(cfg.Sprite); err != nil {
		return Config{}, err
	}

	bg, err := parseColor(cfg.Background)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Background:  bg,
		OutputDir:   cfg.OutputDir,
		Format:      cfg.ImageFormat,
		RenderSize:  cfg.RenderSize,
		Supersample: ss,
		Workers:     cfg.Workers,
		Camera:      cam,
		Style:       style,
		Live:        cfg.Live,
		Log:         log,
	}, nil
}

func loadSprite(spec string) (*image.NRGBA, error) {
	switch spec {
	case "":
		return nil, nil
	case "disc":
		return texture.Disc(64, 0.6), nil
	}
	return texture.Load(spec)
}

// parseColor reads "#rrggbb". An empty string means no background.
func parseColor(s string) (*color.NRGBA, error) {
	if s == "" {
		return nil, nil
	}
	c := color.NRGBA{A: 255}
	if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil || n != 3 || len(s) != 7 {
		return nil, fmt.Errorf("batch: bad background color %q", s)
	}
	return &c, nil
}
