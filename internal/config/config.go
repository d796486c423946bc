package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"slgp-tracks/internal/slgp"
)

// Config holds decode, source, render and output settings.
type Config struct {
	// Decode
	Dialect       string  `json:"dialect"`
	NoMagic       bool    `json:"no_magic"`
	MinVersion    float32 `json:"min_version"`
	MaxVersion    float32 `json:"max_version"`
	VersionPolicy string  `json:"version_policy"`
	AllowTrailing bool    `json:"allow_trailing"`
	Workers       int     `json:"workers"`

	// Sources
	S3Region       string `json:"s3_region"`
	S3Endpoint     string `json:"s3_endpoint"`
	MinioEndpoint  string `json:"minio_endpoint"`
	MinioSecure    bool   `json:"minio_secure"`
	MinioAccessKey string `json:"-"`
	MinioSecretKey string `json:"-"`

	// Render settings
	RenderSize  int     `json:"render_size"`
	Supersample int     `json:"supersample"`
	ImageFormat string  `json:"image_format"`
	Sprite      string  `json:"sprite"` // image path, "disc", or empty for shaded spheres
	Additive    bool    `json:"additive"`
	Live        bool    `json:"live"`
	Camera      string  `json:"camera"`
	Yaw         float64 `json:"yaw"`
	Pitch       float64 `json:"pitch"`
	FOV         float64 `json:"fov"`
	ZUp         bool    `json:"z_up"`
	PointRadius float64 `json:"point_radius"`
	Background  string  `json:"background"` // "#rrggbb"; empty keeps the frame transparent
	Frames      int     `json:"frames"`

	// Output
	OutputDir string `json:"output_dir"`
	DBPath    string `json:"db_path"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Dialect   string
	OutputDir string
	Format    string
	Workers   int
	Frames    int
	LogLevel  string
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Dialect != "" {
		c.Dialect = flags.Dialect
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.ImageFormat = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	// Credentials only ever come from the environment
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.MinioSecretKey = v
	}

	if c.Dialect == "" {
		c.Dialect = "auto"
	}
	if c.VersionPolicy == "" {
		c.VersionPolicy = "fatal"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	// Defaults for render settings
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.ImageFormat == "" {
		c.ImageFormat = "webp"
	}
	if c.Camera == "" {
		c.Camera = "three-quarter"
	}
	if c.PointRadius <= 0 {
		c.PointRadius = 1.5
	}
	if c.Frames <= 0 {
		c.Frames = 48
	}

	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.OutputDir, "tracks.db")
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Decode converts the decode settings to slgp.Options.
func (c *Config) Decode() (slgp.Options, error) {
	opts := slgp.Options{
		NoMagic:       c.NoMagic,
		MinVersion:    c.MinVersion,
		MaxVersion:    c.MaxVersion,
		AllowTrailing: c.AllowTrailing,
		Workers:       c.Workers,
	}

	d, err := slgp.ParseDialect(c.Dialect)
	if err != nil {
		return opts, fmt.Errorf("config: %w", err)
	}
	opts.Dialect = d

	switch strings.ToLower(c.VersionPolicy) {
	case "", "fatal":
		opts.VersionPolicy = slgp.VersionFatal
	case "warn":
		opts.VersionPolicy = slgp.VersionWarn
	default:
		return opts, fmt.Errorf("config: unknown version policy %q", c.VersionPolicy)
	}

	// A lone bound keeps the default for the other side.
	switch {
	case opts.MinVersion != 0 && opts.MaxVersion == 0:
		opts.MaxVersion = max(opts.MinVersion, slgp.DefaultMaxVersion)
	case opts.MinVersion == 0 && opts.MaxVersion != 0:
		opts.MinVersion = min(opts.MaxVersion, slgp.DefaultMinVersion)
	}
	if opts.MinVersion > opts.MaxVersion {
		return opts, fmt.Errorf("config: min_version %g exceeds max_version %g", opts.MinVersion, opts.MaxVersion)
	}
	return opts, nil
}

// FromFile loads path when it is non-empty and resolves the result
// against flags.
func FromFile(path string, flags Flags) (Config, error) {
	var cfg Config
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return Config{}, err
		}
	}
	cfg.Resolve(flags)
	return cfg, nil
}
