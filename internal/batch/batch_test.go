package batch

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slgp-tracks/internal/config"
	"slgp-tracks/internal/slgp"
	"slgp-tracks/internal/slgp/slgptest"
	"slgp-tracks/internal/track"
)

func gridSet(t *testing.T) *track.Set {
	t.Helper()
	frames := slgptest.Grid(5, 4, 0.25, nil)
	data := slgptest.Encode(slgp.DialectFrameTime, frames)
	c, err := slgp.Decode(data, slgp.Options{Dialect: slgp.DialectFrameTime})
	require.NoError(t, err)
	return track.Build(c.Frames)
}

func resolved(t *testing.T, format string) *config.Config {
	cfg := &config.Config{RenderSize: 32, Supersample: 2, OutputDir: t.TempDir()}
	cfg.Resolve(config.Flags{Format: format, Workers: 3})
	return cfg
}

func TestTimeline(t *testing.T) {
	jobs := Timeline(0, 1, 5)
	require.Len(t, jobs, 5)
	assert.Equal(t, Job{Frame: 0, Time: 0}, jobs[0])
	assert.Equal(t, Job{Frame: 2, Time: 0.5}, jobs[2])
	assert.Equal(t, Job{Frame: 4, Time: 1}, jobs[4])

	assert.Equal(t, []Job{{Frame: 0, Time: 3}}, Timeline(3, 9, 1))
	assert.Nil(t, Timeline(0, 1, 0))
}

func TestRunWritesFrames(t *testing.T) {
	set := gridSet(t)
	cfg := resolved(t, "tga")
	bc, err := Prepare(set, cfg, nil)
	require.NoError(t, err)

	results := Run(context.Background(), bc, set, Timeline(0, 1, 3))
	require.Len(t, results, 3)
	assert.Empty(t, Failed(results))

	for _, r := range results {
		assert.Equal(t, 4, r.Particles)
		f, err := os.Open(filepath.Join(cfg.OutputDir, r.Image))
		require.NoError(t, err)
		img, err := tga.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	}

	manifest := filepath.Join(cfg.OutputDir, "manifest.json")
	require.NoError(t, WriteManifest(manifest, Manifest{Source: "grid", Size: 32, Format: "tga", Tracks: set.Len(), Frames: results}))
	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Len(t, m.Frames, 3)
	assert.Equal(t, "frame_0002.tga", m.Frames[2].Image)
}

func TestRunWebP(t *testing.T) {
	set := gridSet(t)
	cfg := resolved(t, "webp")
	cfg.Sprite = "disc"
	cfg.Additive = true
	bc, err := Prepare(set, cfg, nil)
	require.NoError(t, err)

	results := Run(context.Background(), bc, set, Timeline(0, 1, 2))
	require.Empty(t, Failed(results))
	st, err := os.Stat(filepath.Join(cfg.OutputDir, "frame_0001.webp"))
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

func TestRunBackground(t *testing.T) {
	set := gridSet(t)
	cfg := resolved(t, "tga")
	cfg.Background = "#102030"
	bc, err := Prepare(set, cfg, nil)
	require.NoError(t, err)
	require.Equal(t, &color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, bc.Background)

	results := Run(context.Background(), bc, set, Timeline(0, 0, 1))
	require.Empty(t, Failed(results))

	f, err := os.Open(filepath.Join(cfg.OutputDir, results[0].Image))
	require.NoError(t, err)
	defer f.Close()
	img, err := tga.Decode(f)
	require.NoError(t, err)
	corner := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, corner)
}

func TestRunCancelled(t *testing.T) {
	set := gridSet(t)
	bc, err := Prepare(set, resolved(t, "tga"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, bc, set, Timeline(0, 1, 200))
	require.Len(t, results, 200)
	assert.NotEmpty(t, Failed(results))
}

func TestPrepareRejects(t *testing.T) {
	set := gridSet(t)

	cfg := resolved(t, "bmp")
	_, err := Prepare(set, cfg, nil)
	assert.ErrorContains(t, err, "unsupported image format")

	cfg = resolved(t, "tga")
	cfg.Camera = "fisheye"
	_, err = Prepare(set, cfg, nil)
	assert.Error(t, err)

	cfg = resolved(t, "tga")
	cfg.Background = "navy"
	_, err = Prepare(set, cfg, nil)
	assert.ErrorContains(t, err, "background")

	cfg = resolved(t, "tga")
	cfg.Sprite = filepath.Join(t.TempDir(), "missing.png")
	_, err = Prepare(set, cfg, nil)
	assert.Error(t, err)
}

func TestPrepareEmptySet(t *testing.T) {
	bc, err := Prepare(track.Build(nil), resolved(t, "tga"), nil)
	require.NoError(t, err)
	assert.Equal(t, 64, bc.Camera.Size)
}
