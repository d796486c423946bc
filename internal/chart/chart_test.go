package chart

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slgp-tracks/internal/slgp"
	"slgp-tracks/internal/track"
)

func lineSet() *track.Set {
	return track.Build([]slgp.Frame{
		{Index: 0, Records: []slgp.Record{{ID: 7, Time: 0}, {ID: 8, Time: 0, Position: [3]float32{0, 1, 0}}}},
		{Index: 1, Records: []slgp.Record{{ID: 7, Time: 1, Position: [3]float32{10, 0, 0}}}},
	})
}

func TestResample(t *testing.T) {
	series, err := Resample(lineSet(), []uint32{7, 8}, 3)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, []float32{0, 0.5, 1}, series[0].Times)
	assert.Equal(t, [3]float32{5, 0, 0}, series[0].Positions[1])
	assert.Equal(t, [3]float32{0, 1, 0}, series[1].Positions[2], "clamped after its only sample")

	_, err = Resample(lineSet(), []uint32{99}, 3)
	assert.ErrorContains(t, err, "no track with id 99")

	_, err = Resample(track.Build(nil), nil, 3)
	assert.Error(t, err)
}

func TestSavePNGs(t *testing.T) {
	series, err := Resample(lineSet(), []uint32{7}, 16)
	require.NoError(t, err)

	paths, err := SavePNGs(series, t.TempDir())
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), raw[:4])
	}
}

func TestWriteHTML(t *testing.T) {
	series, err := Resample(lineSet(), []uint32{7, 8}, 4)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "smoke.slgp", series))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "id 7")
	assert.Contains(t, html, "XY plane")
}
