package batch

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"slgp-tracks/internal/logging"
	"slgp-tracks/internal/postprocess"
	"slgp-tracks/internal/raster"
	"slgp-tracks/internal/track"
	"slgp-tracks/internal/viewmatrix"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	Format      string // "webp" or "tga"
	RenderSize  int
	Supersample int
	Workers     int
	Camera      *viewmatrix.Camera // fitted for RenderSize*Supersample
	Style       raster.Style

	// Live draws only particles whose sampled span contains the frame time.
	Live       bool
	// Background, when set, is composited under every frame.
	Background *color.NRGBA
	Log        *logging.Logger
}

// Job is one timeline frame to render.
type Job struct {
	Frame int
	Time  float32
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Frame     int     `json:"frame"`
	Time      float32 `json:"time"`
	Image     string  `json:"image,omitempty"`
	Particles int     `json:"particles"`
	Success   bool    `json:"success"`
	Error     string  `json:"error,omitempty"`
}

// Timeline spreads n frames evenly over [start, end], both ends included.
func Timeline(start, end float32, n int) []Job {
	if n <= 0 {
		return nil
	}
	jobs := make([]Job, n)
	for i := range jobs {
		t := start
		if n > 1 {
			t = float32(float64(start) + (float64(end)-float64(start))*float64(i)/float64(n-1))
		}
		jobs[i] = Job{Frame: i, Time: t}
	}
	return jobs
}

// Run renders every job using a worker pool. Cancelling ctx stops handing
// out work; jobs never started report the context error.
func Run(ctx context.Context, cfg Config, set *track.Set, jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64
	log := cfg.Log
	if log == nil {
		log = logging.Noop()
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					log.Info("rendering", "done", p, "total", total, "frames_per_sec", float64(p)/elapsed)
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, max(cfg.Workers, 1)*2)
	var wg sync.WaitGroup

	for w := 0; w < max(cfg.Workers, 1); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var buf []track.Point
			for idx := range jobChan {
				results[idx], buf = renderFrame(cfg, set, jobs[idx], buf)
				processed.Add(1)
			}
		}()
	}

	// Send work
	sent := 0
send:
	for ; sent < total; sent++ {
		select {
		case jobChan <- sent:
		case <-ctx.Done():
			break send
		}
	}
	close(jobChan)

	wg.Wait()
	close(done)

	for i := sent; i < total; i++ {
		results[i] = Result{Frame: jobs[i].Frame, Time: jobs[i].Time, Error: ctx.Err().Error()}
	}
	log.Info("render finished", "frames", total, "took", time.Since(start))
	return results
}

func renderFrame(cfg Config, set *track.Set, job Job, buf []track.Point) (Result, []track.Point) {
	res := Result{Frame: job.Frame, Time: job.Time}

	if cfg.Live {
		buf = set.LiveSnapshot(job.Time, buf)
	} else {
		buf = set.Snapshot(job.Time, buf)
	}
	res.Particles = len(buf)

	img := raster.RenderPoints(buf, cfg.Camera, cfg.Style, cfg.Supersample)

	// Post-processing: supersample downsample
	if cfg.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.RenderSize, cfg.RenderSize)
	}
	if cfg.Background != nil {
		img = postprocess.Flatten(img, *cfg.Background)
	}

	name := FrameName(job.Frame, cfg.Format)
	if err := writeImage(filepath.Join(cfg.OutputDir, name), cfg.Format, img); err != nil {
		res.Error = err.Error()
		return res, buf
	}
	res.Image = name
	res.Success = true
	return res, buf
}

// FrameName returns the output file name of a frame.
func FrameName(frame int, format string) string {
	return fmt.Sprintf("frame_%04d.%s", frame, format)
}

func writeImage(path, format string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch format {
	case "webp":
		err = nativewebp.Encode(f, img, nil)
	case "tga":
		err = tga.Encode(f, img)
	default:
		err = fmt.Errorf("unknown image format %q", format)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("%s encode: %w", format, err)
	}
	return f.Close()
}
