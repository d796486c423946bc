package raster

import (
	"math"

	"slgp-tracks/internal/mathutil"
)

// Light shades splats as little spheres: hemisphere fill plus a key light
// with Blinn-Phong highlights, tone mapped with ACES.
type Light struct {
	Dir      mathutil.Vec3
	Half     mathutil.Vec3 // half-vector between Dir and the view axis
	Ambient  float64
	Hemi     float64
	Direct   float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLight returns the key-light setup used for previews.
func DefaultLight() Light {
	dir := mathutil.Vec3{0.45, 0.65, 0.6}
	dir = dir.Scale(1 / dir.Len())
	view := mathutil.Vec3{0, 0, 1}
	half := dir.Add(view)
	half = half.Scale(1 / half.Len())

	return Light{
		Dir:      dir,
		Half:     half,
		Ambient:  0.35,
		Hemi:     0.40,
		Direct:   1.10,
		SpecInt:  0.35,
		SpecPow:  24.0,
		Exposure: 1.05,
		InvGamma: 1.0 / 2.2,
	}
}

// Shade returns the lighting scalar for a view-space unit normal.
func (l *Light) Shade(n mathutil.Vec3) float64 {
	ndl := math.Max(n.Dot(l.Dir), 0)
	hemi := (n[1]*0.5 + 0.5) * l.Hemi
	spec := math.Pow(math.Max(n.Dot(l.Half), 0), l.SpecPow) * l.SpecInt
	return l.Ambient + hemi + ndl*l.Direct + spec
}

// apply lights one sRGB channel value.
func (l *Light) apply(c uint8, shade float64) uint8 {
	lin := srgbToLinear[c] * shade * l.Exposure
	return clamp255(math.Pow(acesTonemap(lin), l.InvGamma) * 255)
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := range srgbToLinear {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// acesTonemap applies ACES filmic tone mapping to a linear value.
func acesTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
