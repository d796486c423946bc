// Package viewmatrix chooses the preview camera and projects particle
// positions to screen space.
package viewmatrix

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"slgp-tracks/internal/mathutil"
)

// Preset returns the rotation for a named camera: "front", "top",
// "three-quarter", or "orbit" built from yaw and pitch in degrees.
// zUp reorients caches authored with Z as the up axis.
func Preset(name string, yaw, pitch float64, zUp bool) (mathutil.Mat3, error) {
	var r mathutil.Mat3
	switch strings.ToLower(name) {
	case "", "orbit":
		r = mathutil.Orbit(mathutil.NormalizeDeg(yaw), pitch)
	case "front":
		r = mathutil.ViewFront
	case "top":
		r = mathutil.ViewTop
	case "three-quarter":
		r = mathutil.ViewThreeQuarter
	default:
		return mathutil.Mat3Identity(), fmt.Errorf("viewmatrix: unknown camera %q", name)
	}
	if zUp {
		r = mathutil.Mat3Mul(r, mathutil.ZUpToYUp)
	}
	return r, nil
}

// Camera maps world positions to pixel coordinates of a square target.
// The fit is computed once for the whole animation so that the framing
// does not jump between frames.
type Camera struct {
	R      mathutil.Mat3
	Center mathutil.Vec3 // view-space center of the fitted box
	Scale  float64       // pixels per world unit
	Size   int

	// Perspective, when FOV > 0.
	FOV     float64
	camDist float64
}

// Fit frames the world-space box bounds in a size×size target leaving
// margin pixels on each side, at most a quarter of size. fov > 0 selects a perspective projection
// with that vertical field of view in degrees.
func Fit(r mathutil.Mat3, bounds r3.Box, size, margin int, fov float64) *Camera {
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := range 8 {
		corner := mathutil.Vec3{bounds.Min.X, bounds.Min.Y, bounds.Min.Z}
		if i&1 != 0 {
			corner[0] = bounds.Max.X
		}
		if i&2 != 0 {
			corner[1] = bounds.Max.Y
		}
		if i&4 != 0 {
			corner[2] = bounds.Max.Z
		}
		t := r.MulVec3(corner)
		lo, hi = lo.Min(t), hi.Max(t)
	}

	margin = min(margin, size/4)
	center := lo.Add(hi).Scale(0.5)
	span := math.Max(hi[0]-lo[0], hi[1]-lo[1])
	if span < 0.001 {
		span = 0.001
	}

	c := &Camera{
		R:      r,
		Center: center,
		Scale:  float64(size-2*margin) / span,
		Size:   size,
		FOV:    fov,
	}
	if fov > 0 {
		halfFOV := mathutil.Deg2Rad(fov / 2)
		c.camDist = (span/2)/math.Tan(halfFOV) + (hi[2]-lo[2])/2
	}
	return c
}

// Project returns the pixel position of p and its view depth (larger is
// nearer the camera).
func (c *Camera) Project(p [3]float32) (x, y, z float64) {
	t := c.R.MulVec3(mathutil.FromF32(p)).Sub(c.Center)
	if c.FOV > 0 {
		depth := math.Max(c.camDist-t[2], 0.1)
		f := c.camDist / depth
		t[0] *= f
		t[1] *= f
	}
	half := float64(c.Size) / 2
	return t[0]*c.Scale + half, -t[1]*c.Scale + half, t[2]
}

// PixelRadius scales a splat radius r, given in pixels at the fitted
// center plane, for depth z. Orthographic cameras return r unchanged.
func (c *Camera) PixelRadius(r, z float64) float64 {
	if c.FOV <= 0 {
		return r
	}
	return r * c.camDist / math.Max(c.camDist-z, 0.1)
}
