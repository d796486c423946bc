// Package chart plots resampled particle trajectories as PNG line charts
// and interactive HTML scatter charts.
package chart

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"slgp-tracks/internal/raster"
	"slgp-tracks/internal/track"
)

var axisNames = [3]string{"X", "Y", "Z"}

// Series is one particle's positions resampled on a shared time grid.
type Series struct {
	ID        uint32
	Times     []float32
	Positions [][3]float32
}

// Resample evaluates each requested track at n evenly spaced times over
// the set's full time range. Unknown ids are reported as an error.
func Resample(set *track.Set, ids []uint32, n int) ([]Series, error) {
	start, end, ok := set.TimeRange()
	if !ok {
		return nil, fmt.Errorf("chart: no samples to plot")
	}
	n = max(n, 2)
	times := make([]float32, n)
	for i := range times {
		times[i] = float32(float64(start) + (float64(end)-float64(start))*float64(i)/float64(n-1))
	}

	out := make([]Series, 0, len(ids))
	for _, id := range ids {
		tr, ok := set.Get(id)
		if !ok {
			return nil, fmt.Errorf("chart: no track with id %d", id)
		}
		s := Series{ID: id, Times: times, Positions: make([][3]float32, n)}
		for i, t := range times {
			s.Positions[i] = tr.At(t)
		}
		out = append(out, s)
	}
	return out, nil
}

// ComponentPlot draws one position component against time for every
// series.
func ComponentPlot(series []Series, axis int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s position", axisNames[axis])
	p.X.Label.Text = "Time"
	p.Y.Label.Text = axisNames[axis]

	for _, s := range series {
		pts := make(plotter.XYs, len(s.Times))
		for i, t := range s.Times {
			pts[i] = plotter.XY{X: float64(t), Y: float64(s.Positions[i][axis])}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = raster.IDColor(s.ID)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("id %d", s.ID), line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SavePNGs writes one component-vs-time chart per axis into dir and
// returns the file paths.
func SavePNGs(series []Series, dir string) ([]string, error) {
	var paths []string
	for axis := range axisNames {
		p, err := ComponentPlot(series, axis)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("trajectory_%s.png", axisNames[axis]))
		if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
			return nil, fmt.Errorf("chart: save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteHTML renders an interactive page with one scatter chart per plane
// (XY, XZ, ZY) of the resampled paths.
func WriteHTML(w io.Writer, title string, series []Series) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, plane := range [][2]int{{0, 1}, {0, 2}, {2, 1}} {
		page.AddCharts(planeChart(title, series, plane))
	}
	return page.Render(w)
}

func planeChart(title string, series []Series, plane [2]int) *charts.Scatter {
	a, b := plane[0], plane[1]
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s%s plane", axisNames[a], axisNames[b]),
			Subtitle: fmt.Sprintf("%s tracks=%d", title, len(series)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: axisNames[a], NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: axisNames[b], NameLocation: "middle", NameGap: 30}),
	)
	for _, s := range series {
		data := make([]opts.ScatterData, len(s.Positions))
		for i, p := range s.Positions {
			data[i] = opts.ScatterData{Value: []interface{}{p[a], p[b], s.Times[i]}}
		}
		scatter.AddSeries(fmt.Sprintf("id %d", s.ID), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}
	return scatter
}
